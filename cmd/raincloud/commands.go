package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/raincloud/internal/logging"
	"github.com/muurk/raincloud/internal/ui"
	"github.com/muurk/raincloud/raincloud"
)

// longRunMinutes is the manual run length from which a confirmation is asked.
const longRunMinutes = 45

var assumeYes bool

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(zoneCmd)
	rootCmd.AddCommand(controllerCmd)
	rootCmd.AddCommand(faucetCmd)

	zoneCmd.AddCommand(zoneWateringCmd)
	zoneCmd.AddCommand(zoneRainDelayCmd)
	zoneCmd.AddCommand(zoneAutoCmd)
	zoneCmd.AddCommand(zoneRenameCmd)
	controllerCmd.AddCommand(controllerRenameCmd)
	faucetCmd.AddCommand(faucetRenameCmd)

	zoneWateringCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask before long manual runs")
}

// showCmd displays the account tree
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show controllers, faucets and zones",
	Long: `Log in, discover every controller and faucet on the account, fetch
their live status and print the result.`,
	Example: `  # Tree view
  raincloud show

  # One line per zone
  raincloud show --format compact

  # JSON output for scripting
  raincloud show --format json`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	s, err := connect(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return failure(cmd, "Login failed", err)
	}
	defer s.close()

	reports := s.client.Report()

	switch resolveFormat(s.reg) {
	case "compact":
		for _, r := range reports {
			fmt.Fprintln(out, r.FormatCompact())
		}
	case "json", "yaml":
		return printStructured(out, reports)
	default:
		if len(reports) == 0 {
			fmt.Fprintln(out, "No controllers on this account.")
			return nil
		}
		fmt.Fprint(out, ui.RenderLabeledTree(reports, s.reg.Nickname, s.reg.ZoneLabel))
	}
	return nil
}

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Change zone settings",
	Long: `Change the settings of one zone of a faucet.

Zones are addressed by faucet serial (or its nickname) and zone number 1-4.
Every change resends the state of all four zones of the faucet, as the
portal's own page does.`,
}

var zoneWateringCmd = &cobra.Command{
	Use:   "watering <faucet> <zone> <on|off|minutes>",
	Short: "Start or stop a manual run",
	Long: fmt.Sprintf(`Start or stop a manual watering run.

Accepted values are on, off and the minute counts %v.
"on" runs for %d minutes; 0 and off stop the zone.`, raincloud.ManualWateringMinutes, raincloud.MaxWateringMinutes),
	Example: `  raincloud zone watering 1234 2 15
  raincloud zone watering back-tap 2 off`,
	Args: cobra.ExactArgs(3),
	RunE: runZoneWatering,
}

func runZoneWatering(cmd *cobra.Command, args []string) error {
	zoneID, err := parseZoneID(args[1])
	if err != nil {
		return failure(cmd, "Invalid zone", err)
	}
	value := parseManualWatering(args[2])
	if err := raincloud.ValidateManualWatering(value); err != nil {
		return failure(cmd, "Invalid watering value", err)
	}

	return withZone(cmd, "Zone watering", args[0], zoneID, args[2], func(z *raincloud.Zone) error {
		if minutes, ok := runMinutes(value); ok && minutes >= longRunMinutes && !assumeYes && ui.IsTerminal() {
			if !ui.ConfirmLongRun(cmd.InOrStdin(), cmd.OutOrStdout(), z.String(), minutes) {
				return errCancelled
			}
		}
		return z.SetManualWateringTime(value)
	})
}

var zoneRainDelayCmd = &cobra.Command{
	Use:   "rain-delay <faucet> <zone> <days|off>",
	Short: "Set the rain delay",
	Long: fmt.Sprintf(`Pause the zone's automatic program for 1-%d days, or clear the
delay with 0 or off.`, raincloud.MaxRainDelayDays),
	Example: `  raincloud zone rain-delay 1234 4 3
  raincloud zone rain-delay 1234 4 off`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		zoneID, err := parseZoneID(args[1])
		if err != nil {
			return failure(cmd, "Invalid zone", err)
		}
		value := parseRainDelay(args[2])
		if err := raincloud.ValidateRainDelay(value); err != nil {
			return failure(cmd, "Invalid rain delay", err)
		}

		return withZone(cmd, "Zone rain delay", args[0], zoneID, args[2], func(z *raincloud.Zone) error {
			return z.SetRainDelay(value)
		})
	},
}

var zoneAutoCmd = &cobra.Command{
	Use:     "auto <faucet> <zone> <on|off>",
	Short:   "Enable or disable the automatic program",
	Example: `  raincloud zone auto 1234 3 on`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		zoneID, err := parseZoneID(args[1])
		if err != nil {
			return failure(cmd, "Invalid zone", err)
		}
		enabled, err := parseOnOff(args[2])
		if err != nil {
			return failure(cmd, "Invalid value", err)
		}

		return withZone(cmd, "Zone automatic program", args[0], zoneID, args[2], func(z *raincloud.Zone) error {
			return z.SetAutoWatering(enabled)
		})
	},
}

var zoneRenameCmd = &cobra.Command{
	Use:     "rename <faucet> <zone> <name>",
	Short:   "Rename a zone",
	Example: `  raincloud zone rename 1234 2 "Front lawn"`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		zoneID, err := parseZoneID(args[1])
		if err != nil {
			return failure(cmd, "Invalid zone", err)
		}
		if err := raincloud.ValidateName(args[2]); err != nil {
			return failure(cmd, "Invalid name", err)
		}

		return withZone(cmd, "Zone rename", args[0], zoneID, args[2], func(z *raincloud.Zone) error {
			return z.UpdateName(args[2])
		})
	},
}

var controllerCmd = &cobra.Command{
	Use:   "controller",
	Short: "Manage controllers",
}

var controllerRenameCmd = &cobra.Command{
	Use:     "rename <controller> <name>",
	Short:   "Rename a controller on the portal",
	Example: `  raincloud controller rename ABCDEFGH "Garden hub"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := raincloud.ValidateName(args[1]); err != nil {
			return failure(cmd, "Invalid name", err)
		}
		printHeader(cmd, "Controller rename", "raincloud controller rename",
			ui.Param{Key: "Controller", Value: args[0]},
			ui.Param{Key: "Name", Value: args[1]},
		)

		s, err := connect(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return failure(cmd, "Login failed", err)
		}
		defer s.close()

		c, err := s.controller(args[0])
		if err != nil {
			return failure(cmd, "Controller rename failed", err)
		}
		if err := c.UpdateName(args[1]); err != nil {
			return failure(cmd, "Controller rename failed", err)
		}

		return success(cmd, "Controller renamed", map[string]string{
			"Controller": c.Serial(),
			"Name":       c.DisplayName(),
		})
	},
}

var faucetCmd = &cobra.Command{
	Use:   "faucet",
	Short: "Manage faucets",
}

var faucetRenameCmd = &cobra.Command{
	Use:     "rename <faucet> <name>",
	Short:   "Rename a faucet on the portal",
	Example: `  raincloud faucet rename 1234 "Back tap"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := raincloud.ValidateName(args[1]); err != nil {
			return failure(cmd, "Invalid name", err)
		}
		printHeader(cmd, "Faucet rename", "raincloud faucet rename",
			ui.Param{Key: "Faucet", Value: args[0]},
			ui.Param{Key: "Name", Value: args[1]},
		)

		s, err := connect(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return failure(cmd, "Login failed", err)
		}
		defer s.close()

		f, err := s.faucet(args[0])
		if err != nil {
			return failure(cmd, "Faucet rename failed", err)
		}
		if err := f.UpdateName(args[1]); err != nil {
			return failure(cmd, "Faucet rename failed", err)
		}

		return success(cmd, "Faucet renamed", map[string]string{
			"Controller": f.Controller().Serial(),
			"Faucet":     f.Serial(),
			"Name":       args[1],
		})
	},
}

// errCancelled is returned when the user declines a confirmation.
var errCancelled = errors.New("cancelled")

// withZone logs in, applies fn to one zone and prints the zone afterwards.
func withZone(cmd *cobra.Command, title, faucetRef string, zoneID int, value string, fn func(z *raincloud.Zone) error) error {
	printHeader(cmd, title, cmd.CommandPath(),
		ui.Param{Key: "Faucet", Value: faucetRef},
		ui.Param{Key: "Zone", Value: strconv.Itoa(zoneID)},
		ui.Param{Key: "Value", Value: value},
	)

	s, err := connect(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return failure(cmd, "Login failed", err)
	}
	defer s.close()

	z, err := s.zone(faucetRef, zoneID)
	if err != nil {
		return failure(cmd, title+" failed", err)
	}

	if err := fn(z); err != nil {
		if errors.Is(err, errCancelled) {
			return nil
		}
		return failure(cmd, title+" failed", err)
	}

	if err := z.Update(); err != nil {
		logging.Warn("Could not refresh zone after change", zap.Error(err))
	}

	report := z.Report()
	if format := resolveFormat(s.reg); format == "json" || format == "yaml" {
		return printStructured(cmd.OutOrStdout(), report)
	}
	return success(cmd, title, map[string]string{
		"Faucet":     z.Faucet().Serial(),
		"Zone":       report.FormatCompact(),
		"Watering":   strconv.FormatBool(report.IsWatering),
		"Rain delay": raincloud.FormatRainDelay(report.RainDelay),
	})
}

// structured reports whether output goes to a machine-readable format, in
// which case headers and boxes are left out.
func structured() bool {
	format := resolveFormat(nil)
	return format == "json" || format == "yaml"
}

func printHeader(cmd *cobra.Command, title, command string, params ...ui.Param) {
	if structured() {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.NewHeader(title, command, params...).Render())
	fmt.Fprintln(cmd.OutOrStdout())
}

func success(cmd *cobra.Command, title string, details map[string]string) error {
	if structured() {
		return printStructured(cmd.OutOrStdout(), details)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSuccess(title, details))
	return nil
}

// failure prints the failure box and returns err so the exit code is set.
func failure(cmd *cobra.Command, title string, err error) error {
	logging.Error(title, zap.Error(err))
	if !structured() {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderFailure(title, err))
	}
	return err
}

func parseZoneID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, raincloud.NewValidationError(fmt.Sprintf("zone must be a number 1-%d, got %q", raincloud.ZonesPerFaucet, s))
	}
	return id, raincloud.ValidateZoneID(id)
}

// parseManualWatering returns an int for numeric input and the raw string
// otherwise, matching what Zone.SetManualWateringTime accepts.
func parseManualWatering(s string) any {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return strings.TrimSpace(s)
}

func parseRainDelay(s string) any {
	return parseManualWatering(s)
}

// runMinutes is the length of the run a watering value starts.
func runMinutes(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, v > 0
	case string:
		if strings.EqualFold(v, "on") {
			return raincloud.MaxWateringMinutes, true
		}
	}
	return 0, false
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "enable", "enabled":
		return true, nil
	case "off", "disable", "disabled":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, raincloud.NewValidationError(fmt.Sprintf("expected on or off, got %q", s))
	}
	return b, nil
}
