package raincloud

import (
	"fmt"
	"strings"
)

// ZoneReport is a point-in-time snapshot of a zone.
type ZoneReport struct {
	ID             int    `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	AutoWatering   bool   `json:"auto_watering" yaml:"auto_watering"`
	ManualWatering bool   `json:"manual_watering" yaml:"manual_watering"`
	IsWatering     bool   `json:"is_watering" yaml:"is_watering"`
	NextCycle      string `json:"next_cycle" yaml:"next_cycle"`
	RainDelay      int    `json:"rain_delay" yaml:"rain_delay"`
	WateringTime   int    `json:"watering_time" yaml:"watering_time"`
}

// FaucetReport is a point-in-time snapshot of a faucet and its zones.
type FaucetReport struct {
	Serial  string       `json:"serial" yaml:"serial"`
	Name    string       `json:"name" yaml:"name"`
	Status  string       `json:"status" yaml:"status"`
	Battery string       `json:"battery,omitempty" yaml:"battery,omitempty"`
	Zones   []ZoneReport `json:"zones" yaml:"zones"`
}

// ControllerReport is a point-in-time snapshot of a controller's tree.
type ControllerReport struct {
	Serial      string         `json:"serial" yaml:"serial"`
	Name        string         `json:"name" yaml:"name"`
	Status      string         `json:"status" yaml:"status"`
	CurrentTime string         `json:"current_time" yaml:"current_time"`
	Faucets     []FaucetReport `json:"faucets" yaml:"faucets"`
}

// Report returns a snapshot of the zone.
func (z *Zone) Report() ZoneReport {
	return ZoneReport{
		ID:             int(z.id),
		Name:           z.Name(),
		AutoWatering:   z.AutoWatering(),
		ManualWatering: z.ManualWatering(),
		IsWatering:     z.IsWatering(),
		NextCycle:      z.NextCycle(),
		RainDelay:      z.RainDelay(),
		WateringTime:   z.WateringTime(),
	}
}

// Report returns a snapshot of the faucet and its zones.
func (f *Faucet) Report() FaucetReport {
	battery, _ := f.Battery()
	r := FaucetReport{
		Serial:  f.serial,
		Name:    f.DisplayName(),
		Status:  f.Status(),
		Battery: battery,
	}
	for _, z := range f.zones {
		r.Zones = append(r.Zones, z.Report())
	}
	return r
}

// Report returns a snapshot of the controller's tree.
func (c *Controller) Report() ControllerReport {
	r := ControllerReport{
		Serial:      c.serial,
		Name:        c.DisplayName(),
		Status:      c.Status(),
		CurrentTime: c.CurrentTime(),
	}
	for _, f := range c.faucets {
		r.Faucets = append(r.Faucets, f.Report())
	}
	return r
}

// Report returns snapshots of every controller.
func (c *Client) Report() []ControllerReport {
	var out []ControllerReport
	for _, ctrl := range c.Controllers() {
		out = append(out, ctrl.Report())
	}
	return out
}

// Summary returns a one-line summary of the controller
func (r ControllerReport) Summary() string {
	return fmt.Sprintf("%s (%s) %s @ %s, %d faucet(s)", r.Name, r.Serial, orDash(r.Status), orDash(r.CurrentTime), len(r.Faucets))
}

// FormatCompact returns one line per faucet
func (r ControllerReport) FormatCompact() string {
	var b strings.Builder
	b.WriteString(r.Summary())
	b.WriteString("\n")
	for _, f := range r.Faucets {
		b.WriteString("  ")
		b.WriteString(f.FormatCompact())
		b.WriteString("\n")
	}
	return b.String()
}

// FormatDetailed returns a multi-line description of the controller tree
func (r ControllerReport) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Controller ===\n")
	b.WriteString(fmt.Sprintf("Name:         %s\n", r.Name))
	b.WriteString(fmt.Sprintf("Serial:       %s\n", r.Serial))
	b.WriteString(fmt.Sprintf("Status:       %s\n", orDash(r.Status)))
	b.WriteString(fmt.Sprintf("Current Time: %s\n", orDash(r.CurrentTime)))

	for _, f := range r.Faucets {
		b.WriteString("\n")
		b.WriteString(f.FormatDetailed())
	}
	return b.String()
}

// FormatCompact returns a single line describing the faucet and its zones
func (r FaucetReport) FormatCompact() string {
	zones := make([]string, len(r.Zones))
	for i, z := range r.Zones {
		zones[i] = z.FormatCompact()
	}
	return fmt.Sprintf("%s (%s) %s battery=%s | %s", r.Name, r.Serial, orDash(r.Status), orDash(r.Battery), strings.Join(zones, " | "))
}

// FormatDetailed returns a multi-line description of the faucet
func (r FaucetReport) FormatDetailed() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("=== Faucet %s ===\n", r.Name))
	b.WriteString(fmt.Sprintf("Serial:  %s\n", r.Serial))
	b.WriteString(fmt.Sprintf("Status:  %s\n", orDash(r.Status)))
	if r.Battery != "" {
		b.WriteString(fmt.Sprintf("Battery: %s%%\n", r.Battery))
	} else {
		b.WriteString("Battery: -\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-4s %-16s %-9s %-7s %-6s %-10s %s\n", "Zone", "Name", "Watering", "Manual", "Auto", "Rain Delay", "Next Cycle"))
	for _, z := range r.Zones {
		b.WriteString(fmt.Sprintf("%-4d %-16s %-9s %-7s %-6s %-10s %s\n",
			z.ID, z.Name, FormatMinutes(z.WateringTime), onOff(z.ManualWatering), onOff(z.AutoWatering), FormatRainDelay(z.RainDelay), orDash(z.NextCycle)))
	}
	return b.String()
}

// FormatCompact returns a short zone description (e.g., "2:Lawn 15m auto")
func (r ZoneReport) FormatCompact() string {
	parts := []string{fmt.Sprintf("%d:%s", r.ID, r.Name)}
	if r.IsWatering {
		parts = append(parts, FormatMinutes(r.WateringTime))
	}
	if r.AutoWatering {
		parts = append(parts, "auto")
	}
	if r.RainDelay > 0 {
		parts = append(parts, "delay "+FormatRainDelay(r.RainDelay))
	}
	return strings.Join(parts, " ")
}

// FormatMinutes renders a watering time ("off" for zero)
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "off"
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatRainDelay renders a rain delay ("off", "1 day", "3 days")
func FormatRainDelay(days int) string {
	switch {
	case days <= 0:
		return "off"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
