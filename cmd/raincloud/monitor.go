package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/raincloud/internal/logging"
	"github.com/muurk/raincloud/internal/metrics"
	"github.com/muurk/raincloud/internal/ui"
	"github.com/muurk/raincloud/raincloud"
)

var (
	monitorInterval int
	statsdAddr      string
	statsdTags      []string
)

func init() {
	monitorCmd.Flags().IntVar(&monitorInterval, "interval", 0, "Seconds between refreshes (default from config, 60)")
	monitorCmd.Flags().StringVar(&statsdAddr, "statsd-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125 (default from config)")
	monitorCmd.Flags().StringSliceVar(&statsdTags, "tag", nil, "Extra metric tag (repeatable), e.g. --tag site:home")

	rootCmd.AddCommand(monitorCmd)
}

// monitorCmd refreshes the account periodically and exports gauges
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll zone status and export it to DogStatsD",
	Long: `Stay logged in and refresh every controller and faucet at a fixed
interval. On a terminal the account tree is redrawn in place (r refreshes
now, q quits); otherwise each refresh prints one line per zone. When a
DogStatsD address is configured every refresh also sends gauges for
watering time, rain delay, battery level and online state.

Stop with Ctrl-C; the session is logged out on exit.`,
	Example: `  # Print status every minute
  raincloud monitor

  # Export to a local agent every 5 minutes
  raincloud monitor --interval 300 --statsd-addr 127.0.0.1:8125`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := connect(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return failure(cmd, "Login failed", err)
	}
	defer s.close()

	interval := time.Duration(monitorInterval) * time.Second
	addr := statsdAddr
	namespace := ""
	if prefs := s.reg.Preferences; prefs != nil && prefs.Monitor != nil {
		if interval <= 0 && prefs.Monitor.IntervalSeconds > 0 {
			interval = time.Duration(prefs.Monitor.IntervalSeconds) * time.Second
		}
		if addr == "" {
			addr = prefs.Monitor.StatsdAddr
		}
		namespace = prefs.Monitor.Namespace
	}
	if interval <= 0 {
		interval = time.Minute
	}

	if addr != "" {
		if err := metrics.Init(addr, namespace, statsdTags); err != nil {
			return failure(cmd, "Metrics setup failed", err)
		}
		defer metrics.Close()
	}

	logging.Info("Monitoring",
		zap.Duration("interval", interval),
		zap.String("statsd", addr),
		zap.Int("controllers", len(s.client.Controllers())),
	)

	if ui.IsTerminal() && ui.IsOutputTerminal() && resolveFormat(s.reg) == "detailed" {
		return runDashboard(ctx, cmd, s, interval)
	}

	// Login already fetched a fresh status.
	emit(cmd, s.client.Report())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Monitor stopped")
			return nil
		case <-ticker.C:
			if err := s.client.Update(); err != nil {
				// A failed round leaves the last status in place.
				logging.Warn("Refresh failed", zap.Error(err))
				if raincloud.IsAuthError(err) {
					return failure(cmd, "Monitor stopped", err)
				}
				continue
			}
			emit(cmd, s.client.Report())
		}
	}
}

// runDashboard draws the live tree on the terminal until the user quits.
func runDashboard(ctx context.Context, cmd *cobra.Command, s *session, interval time.Duration) error {
	reports := s.client.Report()
	metrics.ReportControllers(reports)

	model := ui.NewMonitorModel(reports, interval, func() ([]raincloud.ControllerReport, error) {
		if err := s.client.Update(); err != nil {
			logging.Warn("Refresh failed", zap.Error(err))
			return nil, err
		}
		reports := s.client.Report()
		metrics.ReportControllers(reports)
		return reports, nil
	}).WithNames(s.reg.Nickname, s.reg.ZoneLabel).StopOn(raincloud.IsAuthError)

	final, err := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithOutput(cmd.OutOrStdout()),
	).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return failure(cmd, "Monitor failed", err)
	}

	if m, ok := final.(ui.MonitorModel); ok && m.Fatal != nil {
		return failure(cmd, "Monitor stopped", m.Fatal)
	}
	logging.Info("Monitor stopped")
	return nil
}

func emit(cmd *cobra.Command, reports []raincloud.ControllerReport) {
	stamp := time.Now().Format(time.TimeOnly)
	for _, r := range reports {
		for _, f := range r.Faucets {
			for _, z := range f.Zones {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s %s\n", stamp, r.Serial, f.Serial, z.FormatCompact())
			}
		}
	}
	metrics.ReportControllers(reports)
}
