package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
)

// Step represents a single step in a multi-step operation
type Step struct {
	Name   string
	Status StepStatus
}

// Progress represents a progress display with bar and step list
type Progress struct {
	Label string // e.g., "Logging in to wifiaquatimer.com"
	Steps []Step
	Width int
	bar   progress.Model
}

// NewProgress creates a progress display with one pending step per name
func NewProgress(label string, names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name}
	}

	p := &Progress{Label: label, Steps: steps}
	return p.SetWidth(GetTerminalWidth())
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := min(max(width-20, 20), 50)
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// Start marks step i running. Steps before it that were running complete.
func (p *Progress) Start(i int) {
	if i < 0 || i >= len(p.Steps) {
		return
	}
	for j := 0; j < i; j++ {
		if p.Steps[j].Status != StepFailed {
			p.Steps[j].Status = StepComplete
		}
	}
	p.Steps[i].Status = StepRunning
}

// Finish marks every step complete.
func (p *Progress) Finish() {
	for i := range p.Steps {
		p.Steps[i].Status = StepComplete
	}
}

// Fail marks the running step failed.
func (p *Progress) Fail() {
	for i := range p.Steps {
		if p.Steps[i].Status == StepRunning {
			p.Steps[i].Status = StepFailed
		}
	}
}

// Percent is the share of completed steps, 0.0 - 1.0.
func (p *Progress) Percent() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete {
			done++
		}
	}
	return float64(done) / float64(len(p.Steps))
}

// Render returns the label, bar and step list. spin is drawn in front of
// the running step.
func (p *Progress) Render(spin string) string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%", p.bar.ViewAs(p.Percent()), p.Percent()*100)))
	b.WriteString("\n\n")

	for i, step := range p.Steps {
		prefix := fmt.Sprintf("  [%d/%d] ", i+1, len(p.Steps))
		switch step.Status {
		case StepComplete:
			b.WriteString(prefix + StepCompleteStyle.Render(StepMarkerComplete+" "+step.Name))
		case StepRunning:
			marker := StepMarkerRunning
			if spin != "" {
				marker = spin
			}
			b.WriteString(prefix + StepRunningStyle.Render(marker+" "+step.Name))
		case StepFailed:
			b.WriteString(prefix + ErrorTitleStyle.Render(FailureMarker+" "+step.Name))
		default:
			b.WriteString(prefix + StepPendingStyle.Render(StepMarkerPending+" "+step.Name))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render("")
}

// Messages driving a ProgressModel
type (
	stepStartMsg int
	workDoneMsg  struct{ err error }
)

// ProgressModel is a Bubble Tea model that animates a Progress until the
// work behind it reports completion.
type ProgressModel struct {
	Progress *Progress
	Err      error
	Done     bool
	spinner  spinner.Model
}

// NewProgressModel wraps p in a model with a spinner on the running step.
func NewProgressModel(p *Progress) ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return ProgressModel{Progress: p, spinner: s}
}

// Init implements tea.Model
func (m ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepStartMsg:
		m.Progress.Start(int(msg))

	case workDoneMsg:
		m.Done = true
		m.Err = msg.err
		if msg.err != nil {
			m.Progress.Fail()
		} else {
			m.Progress.Finish()
		}
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.Progress.SetWidth(msg.Width)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m ProgressModel) View() string {
	if m.Done {
		return m.Progress.Render("")
	}
	return m.Progress.Render(m.spinner.View())
}

// RunProgress runs work while drawing p on out and returns work's error.
// work reports each step it enters through step (0-based).
func RunProgress(out io.Writer, p *Progress, work func(step func(i int)) error) error {
	program := tea.NewProgram(NewProgressModel(p), tea.WithOutput(out), tea.WithInput(nil))

	result := make(chan error, 1)
	go func() {
		err := work(func(i int) { program.Send(stepStartMsg(i)) })
		result <- err
		program.Send(workDoneMsg{err: err})
	}()

	// A failed renderer only loses the animation; the work still decides.
	_, _ = program.Run()
	return <-result
}
