package raincloud

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ManualWateringMinutes lists the minute values the portal accepts for a
// manual run, besides "on" and "off".
var ManualWateringMinutes = []int{0, 5, 10, 15, 30, 45, 60}

// MaxNameLength is the longest controller, faucet or zone name accepted.
const MaxNameLength = 64

// ValidateManualWatering checks a manual watering value.
//
// Valid values:
//   - "on" or "off" in any letter case
//   - 0, 5, 10, 15, 30, 45 or 60 minutes, as any Go integer type
func ValidateManualWatering(value any) error {
	if s, ok := value.(string); ok {
		if strings.EqualFold(s, "on") || strings.EqualFold(s, "off") {
			return nil
		}
		return NewValidationError(fmt.Sprintf("manual watering must be on, off or one of %v minutes, got %q", ManualWateringMinutes, s))
	}

	minutes, ok := asInt(value)
	if !ok {
		return NewValidationError(fmt.Sprintf("manual watering must be on, off or one of %v minutes, got %T", ManualWateringMinutes, value))
	}
	for _, allowed := range ManualWateringMinutes {
		if minutes == allowed {
			return nil
		}
	}
	return NewValidationError(fmt.Sprintf("manual watering must be on, off or one of %v minutes, got %d", ManualWateringMinutes, minutes))
}

// ValidateRainDelay checks a rain delay value. Zone.SetRainDelay ignores
// invalid values instead of failing; callers that want to report them use
// this first.
func ValidateRainDelay(value any) error {
	if _, ok := encodeRainDelay(value); !ok {
		return NewValidationError(fmt.Sprintf("rain delay must be 0-%d days or off, got %v", MaxRainDelayDays, value))
	}
	return nil
}

// ValidateZoneID checks that id addresses one of the four zones.
func ValidateZoneID(id int) error {
	if !ZoneID(id).Valid() {
		return NewValidationError(fmt.Sprintf("zone must be 1-%d, got %d", ZonesPerFaucet, id))
	}
	return nil
}

// ValidateName checks a controller, faucet or zone name.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return NewValidationError("name cannot be empty")
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return NewValidationError(fmt.Sprintf("name too long (max %d chars): %d chars", MaxNameLength, n))
	}
	return nil
}

// asInt converts any Go integer type to int.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}
