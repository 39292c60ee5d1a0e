package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm prints a warning box and asks a yes/no question on out, reading
// the answer from in. Only "y" or "yes" (any case) confirm.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, question string) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Render(fmt.Sprintf("   ⚠  WARNING  ─  %s", title)),
		"",
	}
	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	fmt.Fprintln(out, box)
	fmt.Fprint(out, lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render(question+" [y/N]: "))

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}

	fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Cancelled."))
	return false
}

// ConfirmOverwrite asks before replacing an existing file.
func ConfirmOverwrite(in io.Reader, out io.Writer, path string) bool {
	return Confirm(in, out, "OVERWRITE CONFIGURATION",
		[]string{
			"A configuration file already exists at " + path,
			"Profiles, nicknames and preferences in it will be replaced",
		},
		"Overwrite it?",
	)
}

// ConfirmLongRun asks before starting a manual run of the given length.
func ConfirmLongRun(in io.Reader, out io.Writer, zone string, minutes int) bool {
	return Confirm(in, out, "LONG MANUAL RUN",
		[]string{
			fmt.Sprintf("%s will water for %d minutes", zone, minutes),
			"The valve stays open until the run ends or is stopped with 'zone watering off'",
		},
		"Start watering?",
	)
}
