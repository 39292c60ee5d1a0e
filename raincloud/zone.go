package raincloud

import (
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ZoneID is the 1-based zone number shown to users.
type ZoneID int

// Valid reports whether id is between 1 and ZonesPerFaucet.
func (id ZoneID) Valid() bool {
	return id >= 1 && id <= ZonesPerFaucet
}

// RainDelayFieldIndex maps the zone onto the rain-delay form fields, which
// the portal numbers from zero (zone 1 is zone0_rain_delay_select).
func (id ZoneID) RainDelayFieldIndex() int {
	return int(id) - 1
}

// NameFieldIndex maps the zone onto the select_zone value of the rename form.
func (id ZoneID) NameFieldIndex() int {
	return int(id) - 1
}

// Zone is one of the four outlets of a faucet. Everything except the name
// is read live from the faucet's last status payload.
type Zone struct {
	faucet *Faucet
	id     ZoneID

	mu   sync.RWMutex
	name string
}

// ID returns the 1-based zone id.
func (z *Zone) ID() ZoneID { return z.id }

// Faucet returns the owning faucet.
func (z *Zone) Faucet() *Faucet { return z.faucet }

// Name returns the name read from the setup page at discovery time, or
// set by the last successful UpdateName.
func (z *Zone) Name() string {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.name
}

// String implements fmt.Stringer
func (z *Zone) String() string {
	if name := z.Name(); name != "" {
		return fmt.Sprintf("<Zone: %s>", name)
	}
	return fmt.Sprintf("<Zone: %d>", z.id)
}

func (z *Zone) status() (ZoneStatus, bool) {
	return z.faucet.Attributes().Zone(z.id)
}

// WateringTime returns the remaining watering minutes: the automatic
// program's time when it is strictly greater than the manual one,
// otherwise the manual time.
func (z *Zone) WateringTime() int {
	st, ok := z.status()
	if !ok {
		return 0
	}
	if st.AutoWateringTime > st.ManualWateringTime {
		return int(st.AutoWateringTime)
	}
	return int(st.ManualWateringTime)
}

// IsWatering reports whether any watering time remains.
func (z *Zone) IsWatering() bool {
	return z.WateringTime() > 0
}

// ManualWatering reports whether a manual run is active.
func (z *Zone) ManualWatering() bool {
	st, _ := z.status()
	return bool(st.ManualModeOn)
}

// RainDelay returns the rain delay in days, 0 when off.
func (z *Zone) RainDelay() int {
	st, _ := z.status()
	return int(st.RainDelayMode)
}

// NextCycle returns the portal's description of the next scheduled run.
func (z *Zone) NextCycle() string {
	st, _ := z.status()
	return st.NextWaterCycle
}

// AutoWatering reports whether the zone's automatic program is enabled.
// When the status payload does not say, the program toggle on the cached
// home page decides.
func (z *Zone) AutoWatering() bool {
	if st, ok := z.status(); ok && st.ProgramModeOn != nil {
		return bool(*st.ProgramModeOn)
	}
	toggle := z.faucet.client.View(ViewHome).FindByID(fmt.Sprintf("id_zone%d_program_toggle", z.id))
	return toggle != nil && toggle.HasAttr("checked")
}

// Update refreshes the owning faucet.
func (z *Zone) Update() error {
	return z.faucet.Update()
}

// SetManualWateringTime starts or stops a manual run. Allowed values are
// "on", "off" (any case) and the minute counts 0, 5, 10, 15, 30, 45, 60;
// anything else is a validation error. "on" runs for MaxWateringMinutes.
func (z *Zone) SetManualWateringTime(value any) error {
	encoded, off, err := encodeManualWatering(value)
	if err != nil {
		return err
	}

	f := z.faucet
	f.opMu.Lock()
	defer f.opMu.Unlock()

	form, err := f.preupdate(true)
	if err != nil {
		return err
	}

	field := zoneField(z.id, FieldManualMode)

	// A valve opened at the device ignores a plain OFF and has to see ON
	// first. The portal cannot tell us whether that happened.
	if off {
		form.Set(field, "ON")
		if err := f.submitAction(form); err != nil {
			return err
		}
		time.Sleep(f.client.toggleDelay())
	}

	form.Set(field, encoded)
	return f.submitAction(form)
}

// SetRainDelay sets the rain delay in days (0..MaxRainDelayDays) or turns it
// off with "off". Other values are ignored and nothing is sent.
func (z *Zone) SetRainDelay(value any) error {
	encoded, ok := encodeRainDelay(value)
	if !ok {
		return nil
	}

	f := z.faucet
	f.opMu.Lock()
	defer f.opMu.Unlock()

	form, err := f.preupdate(true)
	if err != nil {
		return err
	}
	form.Set(zoneField(z.id, FieldRainDelay), encoded)
	return f.submitAction(form)
}

// SetAutoWatering enables or disables the zone's automatic program. Only
// bool values are acted on; anything else is ignored and nothing is sent.
func (z *Zone) SetAutoWatering(value any) error {
	enabled, ok := value.(bool)
	if !ok {
		return nil
	}

	f := z.faucet
	f.opMu.Lock()
	defer f.opMu.Unlock()

	form, err := f.preupdate(true)
	if err != nil {
		return err
	}

	field := zoneField(z.id, FieldProgramToggle)
	if enabled {
		form.Set(field, "on")
	} else {
		form.Del(field)
	}
	return f.submitAction(form)
}

// UpdateName renames the zone on the portal.
func (z *Zone) UpdateName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	f := z.faucet
	form := url.Values{
		"select_controller": {strconv.Itoa(f.controller.index)},
		"select_faucet":     {strconv.Itoa(f.index)},
		"_set_zone_name":    {"Set Name"},
		"select_zone":       {strconv.Itoa(z.id.NameFieldIndex())},
		"zone_name":         {name},
	}

	doc, err := f.client.Post(form, EndpointSetup, EndpointSetup)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	f.client.setView(ViewSetup, doc)
	z.mu.Lock()
	z.name = name
	z.mu.Unlock()
	return nil
}
