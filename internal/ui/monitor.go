package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/raincloud/raincloud"
)

// RefreshFunc fetches a fresh snapshot of the account.
type RefreshFunc func() ([]raincloud.ControllerReport, error)

// monitorKeyMap defines key bindings for the monitor screen
type monitorKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Quit}}
}

// Messages for the refresh cycle
type (
	monitorTickMsg time.Time
	refreshDoneMsg struct {
		reports []raincloud.ControllerReport
		err     error
		at      time.Time
	}
)

// MonitorModel is the live status screen of the monitor command. It
// refreshes on a fixed interval or on demand and redraws the account tree.
type MonitorModel struct {
	Reports    []raincloud.ControllerReport
	Interval   time.Duration
	LastUpdate time.Time
	Refreshing bool
	Err        error // last refresh error, cleared by the next success
	Fatal      error // refresh error that ended the monitor
	Width      int

	nicknames Nicknames
	labels    ZoneLabels
	refresh   RefreshFunc
	stopOn    func(error) bool
	spinner   spinner.Model
	help      help.Model
	keys      monitorKeyMap
}

// NewMonitorModel starts from the reports of the login and refreshes
// through refresh every interval.
func NewMonitorModel(initial []raincloud.ControllerReport, interval time.Duration, refresh RefreshFunc) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return MonitorModel{
		Reports:    initial,
		Interval:   interval,
		LastUpdate: time.Now(),
		Width:      GetTerminalWidth(),
		refresh:    refresh,
		spinner:    s,
		help:       help.New(),
		keys: monitorKeyMap{
			Refresh: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "refresh now"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// WithNames shows local nicknames and zone labels in the tree.
func (m MonitorModel) WithNames(nicks Nicknames, labels ZoneLabels) MonitorModel {
	m.nicknames = nicks
	m.labels = labels
	return m
}

// StopOn makes refresh errors for which fn returns true end the monitor.
func (m MonitorModel) StopOn(fn func(error) bool) MonitorModel {
	m.stopOn = fn
	return m
}

func (m MonitorModel) tick() tea.Cmd {
	return tea.Tick(m.Interval, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

// startRefresh returns the command fetching a new snapshot, or nil while
// one is already running.
func (m MonitorModel) startRefresh() (MonitorModel, tea.Cmd) {
	if m.Refreshing || m.refresh == nil {
		return m, nil
	}
	m.Refreshing = true
	refresh := m.refresh
	return m, func() tea.Msg {
		reports, err := refresh()
		return refreshDoneMsg{reports: reports, err: err, at: time.Now()}
	}
}

// Init implements tea.Model
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

// Update implements tea.Model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m.startRefresh()
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case monitorTickMsg:
		next, cmd := m.startRefresh()
		return next, tea.Batch(cmd, m.tick())

	case refreshDoneMsg:
		m.Refreshing = false
		if msg.err != nil {
			m.Err = msg.err
			if m.stopOn != nil && m.stopOn(msg.err) {
				m.Fatal = msg.err
				return m, tea.Quit
			}
			return m, nil
		}
		m.Err = nil
		m.Reports = msg.reports
		m.LastUpdate = msg.at

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m MonitorModel) View() string {
	var b strings.Builder

	b.WriteString(HeaderTitleStyle.Render("RAINCLOUD MONITOR"))
	b.WriteString("\n\n")

	if len(m.Reports) == 0 {
		b.WriteString(IdleStyle.Render("  No controllers on this account."))
		b.WriteString("\n")
	} else {
		b.WriteString(RenderLabeledTree(m.Reports, m.nicknames, m.labels))
	}
	b.WriteString("\n")

	status := fmt.Sprintf("Updated %s, every %s", m.LastUpdate.Format(time.TimeOnly), m.Interval)
	if m.Refreshing {
		status = m.spinner.View() + " Refreshing... " + status
	}
	b.WriteString(IdleStyle.Render("  " + status))
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(ErrorMessageStyle.Render("  Last refresh failed: " + raincloud.GetShortErrorMessage(m.Err)))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}
