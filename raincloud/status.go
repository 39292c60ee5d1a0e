package raincloud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status is the payload of the live-status endpoint for one
// controller/faucet pair.
type Status struct {
	ControllerStatus string       `json:"controller_status"`
	CurrentTime      string       `json:"current_time"`
	FaucetStatus     string       `json:"faucet_status"`
	BatteryPercent   string       `json:"battery_percent"`
	Zones            []ZoneStatus `json:"rain_delay_mode"`

	// Raw holds every top-level key of the payload, including the ones
	// without a typed field above.
	Raw map[string]any `json:"-"`
}

// ZoneStatus is one entry of the per-zone array. The portal names the array
// rain_delay_mode even though it carries every zone attribute.
type ZoneStatus struct {
	AutoWateringTime   FlexInt   `json:"auto_watering_time"`
	ManualWateringTime FlexInt   `json:"manual_watering_time"`
	ManualModeOn       FlexBool  `json:"manual_mode_on"`
	RainDelayMode      FlexInt   `json:"rain_delay_mode"`
	NextWaterCycle     string    `json:"next_water_cycle"`
	ProgramModeOn      *FlexBool `json:"program_mode_on"`
}

// ParseStatus decodes a status payload.
func ParseStatus(data []byte) (*Status, error) {
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, NewParseError("failed to parse status payload", err)
	}
	if err := json.Unmarshal(data, &st.Raw); err != nil {
		return nil, NewParseError("failed to parse status payload", err)
	}
	return &st, nil
}

// Zone returns the entry for a 1-based zone id.
func (s *Status) Zone(id ZoneID) (ZoneStatus, bool) {
	if s == nil {
		return ZoneStatus{}, false
	}
	i := int(id) - 1
	if i < 0 || i >= len(s.Zones) {
		return ZoneStatus{}, false
	}
	return s.Zones[i], true
}

// Battery returns the battery level without its percent sign. ok is false
// when the portal reports no level.
func (s *Status) Battery() (level string, ok bool) {
	if s == nil {
		return "", false
	}
	level = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s.BatteryPercent), "%"))
	return level, level != ""
}

// FlexInt decodes numbers the portal sends either as JSON numbers, numeric
// strings or empty strings. Empty and null decode to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q", s)
		}
		*f = FlexInt(n)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// FlexBool decodes booleans sent as JSON booleans, numbers or strings
// ("true", "on", "1", ...). Empty and null decode to false.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = false
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "on", "yes", "1":
			*f = true
		default:
			*f = false
		}
		return nil
	case bytes.Equal(data, []byte("true")):
		*f = true
		return nil
	case bytes.Equal(data, []byte("false")):
		*f = false
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = n != 0
		return nil
	}
}
