package ui

import (
	"fmt"
	"strings"

	"github.com/muurk/raincloud/raincloud"
)

// Nicknames maps a controller or faucet serial to a local nickname.
// A nil Nicknames or an empty result keeps the portal name.
type Nicknames func(serial string) string

func (n Nicknames) label(name, serial string) string {
	if n != nil {
		if nick := n(serial); nick != "" {
			return fmt.Sprintf("%s (%s)", nick, name)
		}
	}
	return name
}

// ZoneLabels returns the local label of a faucet's zone, or "".
type ZoneLabels func(faucetSerial string, zone int) string

// RenderTree draws the controller/faucet/zone tree with one line per zone.
func RenderTree(reports []raincloud.ControllerReport, nicks Nicknames) string {
	return RenderLabeledTree(reports, nicks, nil)
}

// RenderLabeledTree is RenderTree with local zone labels shown after the
// portal's zone names.
func RenderLabeledTree(reports []raincloud.ControllerReport, nicks Nicknames, labels ZoneLabels) string {
	var b strings.Builder

	for i, c := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(ControllerStyle.Render(nicks.label(c.Name, c.Serial)))
		b.WriteString(" ")
		b.WriteString(IdleStyle.Render(c.Serial))
		b.WriteString("  ")
		b.WriteString(statusText(c.Status))
		if c.CurrentTime != "" {
			b.WriteString(IdleStyle.Render("  @ " + c.CurrentTime))
		}
		b.WriteString("\n")

		for j, f := range c.Faucets {
			branch, indent := "├─ ", "│  "
			if j == len(c.Faucets)-1 {
				branch, indent = "└─ ", "   "
			}

			b.WriteString(branch)
			b.WriteString(FaucetStyle.Render(nicks.label(f.Name, f.Serial)))
			b.WriteString(" ")
			b.WriteString(IdleStyle.Render(f.Serial))
			b.WriteString("  ")
			b.WriteString(statusText(f.Status))
			if f.Battery != "" {
				b.WriteString(IdleStyle.Render("  battery " + f.Battery + "%"))
			}
			b.WriteString("\n")

			for k, z := range f.Zones {
				zoneBranch := "├─ "
				if k == len(f.Zones)-1 {
					zoneBranch = "└─ "
				}
				b.WriteString(indent + zoneBranch)
				label := ""
				if labels != nil {
					label = labels(f.Serial, z.ID)
				}
				b.WriteString(zoneLine(z, label))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func zoneLine(z raincloud.ZoneReport, label string) string {
	parts := []string{ZoneNameStyle.Render(fmt.Sprintf("%d %s", z.ID, z.Name))}
	if label != "" {
		parts = append(parts, IdleStyle.Render("["+label+"]"))
	}

	if z.IsWatering {
		parts = append(parts, WateringStyle.Render(WateringMarker+" watering "+raincloud.FormatMinutes(z.WateringTime)))
	} else {
		parts = append(parts, IdleStyle.Render(IdleMarker+" idle"))
	}
	if z.AutoWatering {
		parts = append(parts, "auto")
	}
	if z.RainDelay > 0 {
		parts = append(parts, RainDelayStyle.Render("rain delay "+raincloud.FormatRainDelay(z.RainDelay)))
	}
	if z.NextCycle != "" {
		parts = append(parts, IdleStyle.Render("next "+z.NextCycle))
	}
	return strings.Join(parts, "  ")
}

func statusText(status string) string {
	switch {
	case status == "":
		return IdleStyle.Render("unknown")
	case strings.EqualFold(status, "online"):
		return WateringStyle.Render(status)
	default:
		return OfflineStyle.Render(status)
	}
}
