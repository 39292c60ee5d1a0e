package raincloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineFaucet builds a one-faucet tree without a portal and installs the
// given status payload.
func offlineFaucet(t *testing.T, payload string) *Faucet {
	t.Helper()

	c := NewClientWithURL("http://portal.invalid", "u", "p")
	ctrl := newController(c, "ABCDEFGH", 0, []faucetSkeleton{
		{serial: "1234", zoneNames: []string{"Roses", "Lawn", "Garden", "Hedge"}},
	})
	c.controllers = []*Controller{ctrl}

	f := ctrl.Faucets()[0]
	if payload != "" {
		st, err := ParseStatus([]byte(payload))
		require.NoError(t, err)
		f.status = st
		ctrl.setAttributes(st)
	}
	return f
}

const fixtureStatus = `{
	"controller_status": "Online",
	"current_time": "02:00 AM",
	"faucet_status": "Online",
	"battery_percent": "85%",
	"rain_delay_mode": [
		{"auto_watering_time": 0, "manual_watering_time": 0, "manual_mode_on": false, "rain_delay_mode": 0, "next_water_cycle": "", "program_mode_on": false},
		{"auto_watering_time": 0, "manual_watering_time": 15, "manual_mode_on": true, "rain_delay_mode": 0, "next_water_cycle": "Tomorrow 6:00 AM", "program_mode_on": true},
		{"auto_watering_time": 60, "manual_watering_time": 0, "manual_mode_on": false, "rain_delay_mode": 0, "next_water_cycle": "", "program_mode_on": true},
		{"auto_watering_time": 0, "manual_watering_time": 0, "manual_mode_on": false, "rain_delay_mode": 4, "next_water_cycle": "", "program_mode_on": false}
	]
}`

func TestZoneReads(t *testing.T) {
	f := offlineFaucet(t, fixtureStatus)

	z1, z2, z3, z4 := f.Zone(1), f.Zone(2), f.Zone(3), f.Zone(4)

	assert.Equal(t, 0, z1.WateringTime())
	assert.False(t, z1.IsWatering())
	assert.False(t, z1.ManualWatering())
	assert.False(t, z1.AutoWatering())

	assert.Equal(t, 15, z2.WateringTime())
	assert.True(t, z2.IsWatering())
	assert.True(t, z2.ManualWatering())
	assert.True(t, z2.AutoWatering())
	assert.Equal(t, "Tomorrow 6:00 AM", z2.NextCycle())

	assert.Equal(t, 60, z3.WateringTime())
	assert.False(t, z3.ManualWatering())

	assert.Equal(t, 4, z4.RainDelay())
	assert.Equal(t, 0, z1.RainDelay())

	assert.Equal(t, "<Zone: Lawn>", z2.String())
	assert.Equal(t, ZoneID(2), z2.ID())
	assert.Same(t, f, z2.Faucet())
}

func TestZoneLookup(t *testing.T) {
	f := offlineFaucet(t, "")

	assert.Nil(t, f.Zone(0))
	assert.Nil(t, f.Zone(5))
	assert.Len(t, f.Zones(), ZonesPerFaucet)
	for i, z := range f.Zones() {
		assert.Equal(t, ZoneID(i+1), z.ID())
	}
}

func TestZoneReadsBeforeFirstUpdate(t *testing.T) {
	f := offlineFaucet(t, "")
	z := f.Zone(1)

	assert.Equal(t, 0, z.WateringTime())
	assert.False(t, z.IsWatering())
	assert.False(t, z.AutoWatering())
	assert.Equal(t, "", z.NextCycle())
	assert.Equal(t, "", f.Status())
	_, ok := f.Battery()
	assert.False(t, ok)
}

func TestWateringTimeTieBreak(t *testing.T) {
	tests := []struct {
		name   string
		auto   int
		manual int
		want   int
	}{
		{"auto greater", 30, 10, 30},
		{"manual greater", 10, 45, 45},
		{"equal returns manual", 20, 20, 20},
		{"both zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := offlineFaucet(t, "")
			f.status = &Status{Zones: []ZoneStatus{{
				AutoWateringTime:   FlexInt(tt.auto),
				ManualWateringTime: FlexInt(tt.manual),
			}}}
			assert.Equal(t, tt.want, f.Zone(1).WateringTime())
		})
	}
}

func TestAutoWateringFallsBackToHomeToggle(t *testing.T) {
	f := offlineFaucet(t, `{"rain_delay_mode": [{}, {}, {}, {}]}`)

	home := `<form>
		<input type="checkbox" id="id_zone1_program_toggle" name="zone1_program_toggle" checked>
		<input type="checkbox" id="id_zone2_program_toggle" name="zone2_program_toggle">
	</form>`
	require.NoError(t, f.client.UpdateHome([]byte(home)))

	assert.True(t, f.Zone(1).AutoWatering())
	assert.False(t, f.Zone(2).AutoWatering())
	assert.False(t, f.Zone(3).AutoWatering(), "missing toggle means disabled")
}

func TestZoneField(t *testing.T) {
	tests := []struct {
		id   ZoneID
		kind FieldKind
		want string
	}{
		{1, FieldManualMode, "zone1_select_manual_mode"},
		{4, FieldManualMode, "zone4_select_manual_mode"},
		{1, FieldRainDelay, "zone0_rain_delay_select"},
		{4, FieldRainDelay, "zone3_rain_delay_select"},
		{1, FieldProgramToggle, "zone1_program_toggle"},
		{3, FieldProgramToggle, "zone3_program_toggle"},
	}

	for _, tt := range tests {
		if got := zoneField(tt.id, tt.kind); got != tt.want {
			t.Errorf("zoneField(%d, %d) = %q, want %q", tt.id, tt.kind, got, tt.want)
		}
	}
}

func TestEncodeManualWatering(t *testing.T) {
	tests := []struct {
		value   any
		want    string
		off     bool
		wantErr bool
	}{
		{"on", "60", false, false},
		{"On", "60", false, false},
		{"OFF", "OFF", true, false},
		{0, "OFF", true, false},
		{5, "5", false, false},
		{int64(45), "45", false, false},
		{uint8(60), "60", false, false},
		{1000, "", false, true},
		{7, "", false, true},
		{-5, "", false, true},
		{"soon", "", false, true},
		{15.0, "", false, true},
		{nil, "", false, true},
	}

	for _, tt := range tests {
		got, off, err := encodeManualWatering(tt.value)
		if tt.wantErr {
			if !IsValidationError(err) {
				t.Errorf("encodeManualWatering(%v) error = %v, want validation error", tt.value, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("encodeManualWatering(%v) unexpected error: %v", tt.value, err)
			continue
		}
		if got != tt.want || off != tt.off {
			t.Errorf("encodeManualWatering(%v) = %q, %v, want %q, %v", tt.value, got, off, tt.want, tt.off)
		}
	}
}

func TestEncodeRainDelay(t *testing.T) {
	tests := []struct {
		value any
		want  string
		ok    bool
	}{
		{0, "off", true},
		{"off", "off", true},
		{"Off", "off", true},
		{1, "1day", true},
		{2, "2days", true},
		{7, "7days", true},
		{8, "", false},
		{100, "", false},
		{-1, "", false},
		{"foobar", "", false},
		{"3", "", false},
		{true, "", false},
	}

	for _, tt := range tests {
		got, ok := encodeRainDelay(tt.value)
		if got != tt.want || ok != tt.ok {
			t.Errorf("encodeRainDelay(%v) = %q, %v, want %q, %v", tt.value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateRainDelay(3))
	assert.True(t, IsValidationError(ValidateRainDelay(9)))

	assert.NoError(t, ValidateZoneID(1))
	assert.NoError(t, ValidateZoneID(4))
	assert.True(t, IsValidationError(ValidateZoneID(0)))
	assert.True(t, IsValidationError(ValidateZoneID(5)))

	assert.NoError(t, ValidateName("Front Yard"))
	assert.True(t, IsValidationError(ValidateName("   ")))
	assert.True(t, IsValidationError(ValidateName(string(make([]rune, MaxNameLength+1)))))
}

func TestPreupdateBuildsFullForm(t *testing.T) {
	f := offlineFaucet(t, fixtureStatus)

	form, err := f.preupdate(false)
	require.NoError(t, err)

	want := map[string]string{
		"select_controller":        "0",
		"select_faucet":            "0",
		"zone1_select_manual_mode": "OFF",
		"zone2_select_manual_mode": "15",
		"zone3_select_manual_mode": "60",
		"zone4_select_manual_mode": "OFF",
		"zone0_rain_delay_select":  "off",
		"zone1_rain_delay_select":  "off",
		"zone2_rain_delay_select":  "off",
		"zone3_rain_delay_select":  "4days",
		"zone2_program_toggle":     "on",
		"zone3_program_toggle":     "on",
	}
	assert.Len(t, form, len(want))
	for k, v := range want {
		assert.Equal(t, v, form.Get(k), "field %s", k)
	}
	assert.False(t, form.Has("zone1_program_toggle"))
	assert.False(t, form.Has("zone4_program_toggle"))
}

func TestManualOpTemplate(t *testing.T) {
	form := manualOpTemplate()
	assert.Len(t, form, 2*ZonesPerFaucet)
	assert.Equal(t, "OFF", form.Get("zone4_select_manual_mode"))
	assert.Equal(t, "off", form.Get("zone0_rain_delay_select"))
}

func TestInvalidValuesSendNothing(t *testing.T) {
	p := newFakePortal(t)
	c := p.loggedIn()
	before := p.counts()

	for _, z := range c.Controllers()[0].Faucets()[0].Zones() {
		assert.NoError(t, z.SetRainDelay("foobar"))
		assert.NoError(t, z.SetRainDelay(100))
		assert.NoError(t, z.SetAutoWatering("foobar"))

		err := z.SetManualWateringTime(1000)
		assert.True(t, IsValidationError(err), "SetManualWateringTime(1000) error = %v", err)
	}

	assert.Equal(t, before, p.counts())
}

func TestSetManualWateringTime(t *testing.T) {
	p := newFakePortal(t)
	c := p.loggedIn()
	zone := c.Controllers()[0].Faucets()[0].Zone(1)

	require.NoError(t, zone.SetManualWateringTime(15))

	assert.Equal(t, 1, p.counts().homePosts)
	form := p.lastHomeForm()
	assert.Equal(t, "15", form.Get("zone1_select_manual_mode"))
	assert.Equal(t, testToken, form.Get("csrfmiddlewaretoken"))
	assert.Equal(t, 15, p.zone(0, 0, 1).manual)

	require.NoError(t, zone.Update())
	assert.Equal(t, 15, zone.WateringTime())
	assert.True(t, zone.ManualWatering())

	require.NoError(t, zone.SetManualWateringTime("on"))
	assert.Equal(t, MaxWateringMinutes, p.zone(0, 0, 1).manual)
}

func TestSetManualWateringTimeKeepsOtherZones(t *testing.T) {
	p := newFakePortal(t)
	c := p.loggedIn()
	f := c.Controllers()[0].Faucets()[0]

	require.NoError(t, f.Zone(1).SetManualWateringTime(5))

	form := p.lastHomeForm()
	assert.Equal(t, "15", form.Get("zone2_select_manual_mode"))
	assert.Equal(t, "4days", form.Get("zone3_rain_delay_select"))
	assert.Equal(t, "on", form.Get("zone2_program_toggle"))

	assert.Equal(t, 15, p.zone(0, 0, 2).manual)
	assert.Equal(t, 4, p.zone(0, 0, 4).rainDelay)
	assert.True(t, p.zone(0, 0, 3).program)
}

func TestStopWateringZoneTogglesOnFirst(t *testing.T) {
	p := newFakePortal(t)
	c := p.loggedIn()
	zone := c.Controllers()[0].Faucets()[0].Zone(2)
	require.True(t, zone.IsWatering())

	require.NoError(t, zone.SetManualWateringTime("off"))

	p.mu.Lock()
	forms := append(p.homeForms[:0:0], p.homeForms...)
	p.mu.Unlock()

	require.Len(t, forms, 2)
	assert.Equal(t, "ON", forms[0].Get("zone2_select_manual_mode"))
	assert.Equal(t, "OFF", forms[1].Get("zone2_select_manual_mode"))
	assert.Equal(t, 0, p.zone(0, 0, 2).manual)
	assert.False(t, p.zone(0, 0, 2).manualOn)
}

func TestStopIdleZoneTogglesOnFirst(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"zero", 0},
		{"off", "off"},
		{"OFF", "OFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakePortal(t)
			c := p.loggedIn()
			zone := c.Controllers()[0].Faucets()[0].Zone(1)
			require.False(t, zone.IsWatering())

			require.NoError(t, zone.SetManualWateringTime(tt.value))

			p.mu.Lock()
			forms := append(p.homeForms[:0:0], p.homeForms...)
			p.mu.Unlock()

			require.Len(t, forms, 2)
			assert.Equal(t, "ON", forms[0].Get("zone1_select_manual_mode"))
			assert.Equal(t, "OFF", forms[1].Get("zone1_select_manual_mode"))
			assert.Equal(t, 0, p.zone(0, 0, 1).manual)
		})
	}
}

func TestSetRainDelayRoundTrip(t *testing.T) {
	p := newFakePortal(t)
	c := p.loggedIn()
	zone := c.Controllers()[0].Faucets()[0].Zone(1)

	for days := 1; days <= MaxRainDelayDays; days++ {
		require.NoError(t, zone.SetRainDelay(days))
		require.NoError(t, zone.Update())
		assert.Equal(t, days, zone.RainDelay(), "rain delay %d", days)
	}

	require.NoError(t, zone.SetRainDelay("off"))
	require.NoError(t, zone.Update())
	assert.Equal(t, 0, zone.RainDelay())
	assert.Equal(t, "off", p.lastHomeForm().Get("zone0_rain_delay_select"))
}

func TestSetAutoWatering(t *testing.T) {
	p := newFakePortal(t)
	c := p.loggedIn()
	f := c.Controllers()[0].Faucets()[0]

	require.NoError(t, f.Zone(1).SetAutoWatering(true))
	assert.Equal(t, "on", p.lastHomeForm().Get("zone1_program_toggle"))
	assert.True(t, p.zone(0, 0, 1).program)

	require.NoError(t, f.Zone(2).SetAutoWatering(false))
	assert.False(t, p.lastHomeForm().Has("zone2_program_toggle"))
	assert.False(t, p.zone(0, 0, 2).program)
	assert.True(t, p.zone(0, 0, 1).program, "zone 1 keeps its program")

	require.NoError(t, f.Update())
	assert.True(t, f.Zone(1).AutoWatering())
	assert.False(t, f.Zone(2).AutoWatering())
}

func TestZoneUpdateName(t *testing.T) {
	p := newFakePortal(t)
	c := p.loggedIn()
	zone := c.Controller("IJKLMNOP").Faucet("9012").Zone(3)

	require.NoError(t, zone.UpdateName("Orchard"))

	assert.Equal(t, "Orchard", zone.Name())
	assert.Equal(t, "Orchard", p.zone(1, 1, 3).name)

	form := p.lastSetupForm()
	assert.Equal(t, "1", form.Get("select_controller"))
	assert.Equal(t, "1", form.Get("select_faucet"))
	assert.Equal(t, "2", form.Get("select_zone"))
	assert.Equal(t, "Set Name", form.Get("_set_zone_name"))
}

func TestZoneUpdateNameRejected(t *testing.T) {
	p := newFakePortal(t)
	c := p.loggedIn()
	zone := c.Controllers()[0].Faucets()[0].Zone(1)

	p.mu.Lock()
	p.rejectSetupPosts = true
	p.mu.Unlock()

	require.NoError(t, zone.UpdateName("Tulips"))
	assert.Equal(t, "Roses", zone.Name(), "a rejected rename keeps the old name")

	err := zone.UpdateName("")
	assert.True(t, IsValidationError(err))
}
