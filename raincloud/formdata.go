package raincloud

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// FieldKind selects one of the per-zone form field families.
type FieldKind int

const (
	// FieldManualMode is zoneN_select_manual_mode, N = zone id
	FieldManualMode FieldKind = iota
	// FieldRainDelay is zoneN_rain_delay_select, N = zone id - 1
	FieldRainDelay
	// FieldProgramToggle is zoneN_program_toggle, N = zone id
	FieldProgramToggle
)

// zoneField returns the form key for a zone's field.
func zoneField(id ZoneID, kind FieldKind) string {
	switch kind {
	case FieldManualMode:
		return fmt.Sprintf("zone%d_select_manual_mode", id)
	case FieldRainDelay:
		return fmt.Sprintf("zone%d_rain_delay_select", id.RainDelayFieldIndex())
	case FieldProgramToggle:
		return fmt.Sprintf("zone%d_program_toggle", id)
	default:
		panic(fmt.Sprintf("raincloud: unknown field kind %d", kind))
	}
}

// manualOpTemplate returns the home form with every zone stopped and every
// rain delay off. Program toggles are left out: their absence means off.
func manualOpTemplate() url.Values {
	form := url.Values{}
	for id := ZoneID(1); id <= ZonesPerFaucet; id++ {
		form.Set(zoneField(id, FieldManualMode), "OFF")
		form.Set(zoneField(id, FieldRainDelay), "off")
	}
	return form
}

// preupdate builds the complete home form reflecting the faucet's current
// state. The portal resets every field a submit leaves out, so a change to
// one zone has to resend the state of all four. Caller must hold opMu.
func (f *Faucet) preupdate(forceRefresh bool) (url.Values, error) {
	form := manualOpTemplate()

	if forceRefresh {
		if err := f.refresh(); err != nil {
			return nil, err
		}
	}

	form.Set("select_controller", strconv.Itoa(f.controller.index))
	form.Set("select_faucet", strconv.Itoa(f.index))

	for _, z := range f.zones {
		if z.AutoWatering() {
			form.Set(zoneField(z.id, FieldProgramToggle), "on")
		}

		if minutes := z.WateringTime(); minutes != 0 {
			form.Set(zoneField(z.id, FieldManualMode), strconv.Itoa(minutes))
		}

		if days := z.RainDelay(); days != 0 {
			if encoded, ok := encodeRainDelayDays(days); ok {
				form.Set(zoneField(z.id, FieldRainDelay), encoded)
			}
		}
	}

	return form, nil
}

// encodeManualWatering validates a manual watering value and returns its
// form encoding. off is true when the value stops the zone.
func encodeManualWatering(value any) (encoded string, off bool, err error) {
	if err := ValidateManualWatering(value); err != nil {
		return "", false, err
	}

	if s, ok := value.(string); ok {
		if strings.EqualFold(s, "on") {
			return strconv.Itoa(MaxWateringMinutes), false, nil
		}
		return "OFF", true, nil
	}

	minutes, _ := asInt(value)
	if minutes == 0 {
		return "OFF", true, nil
	}
	return strconv.Itoa(minutes), false, nil
}

// encodeRainDelay returns the form encoding of a rain delay value. ok is
// false for values the portal does not accept.
func encodeRainDelay(value any) (string, bool) {
	if s, isString := value.(string); isString {
		if strings.EqualFold(strings.TrimSpace(s), "off") {
			return "off", true
		}
		return "", false
	}

	days, isInt := asInt(value)
	if !isInt {
		return "", false
	}
	return encodeRainDelayDays(days)
}

func encodeRainDelayDays(days int) (string, bool) {
	switch {
	case days < 0 || days > MaxRainDelayDays:
		return "", false
	case days == 0:
		return "off", true
	case days == 1:
		return "1day", true
	default:
		return fmt.Sprintf("%ddays", days), true
	}
}
