package raincloud

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/raincloud/internal/logging"
)

// Faucet is a valve unit attached to a controller. It owns exactly
// ZonesPerFaucet zones.
type Faucet struct {
	client     *Client
	controller *Controller
	serial     string
	index      int
	zones      []*Zone

	// opMu sequences status refreshes and zone submits on this faucet.
	opMu sync.Mutex

	mu     sync.RWMutex
	status *Status
}

func newFaucet(client *Client, ctrl *Controller, serial string, index int, zoneNames []string) *Faucet {
	f := &Faucet{
		client:     client,
		controller: ctrl,
		serial:     serial,
		index:      index,
	}
	f.zones = make([]*Zone, ZonesPerFaucet)
	for i := range f.zones {
		name := ""
		if i < len(zoneNames) {
			name = zoneNames[i]
		}
		f.zones[i] = &Zone{faucet: f, id: ZoneID(i + 1), name: name}
	}
	return f
}

// Serial returns the faucet's portal serial.
func (f *Faucet) Serial() string { return f.serial }

// Index returns the discovery position within the controller, which is also
// the value of the portal's select_faucet field.
func (f *Faucet) Index() int { return f.index }

// Controller returns the owning controller.
func (f *Faucet) Controller() *Controller { return f.controller }

// Zones returns the four zones ordered by id.
func (f *Faucet) Zones() []*Zone {
	out := make([]*Zone, len(f.zones))
	copy(out, f.zones)
	return out
}

// Zone returns the zone with the given 1-based id, or nil.
func (f *Faucet) Zone(id ZoneID) *Zone {
	if !id.Valid() {
		return nil
	}
	return f.zones[id-1]
}

// Name reads the faucet's display name from the home page.
func (f *Faucet) Name() (string, error) {
	return optionAt(f.client.View(ViewHome), homeFaucetSelectID, f.index, LevelFaucet)
}

// DisplayName returns Name, or the serial when the name cannot be read.
func (f *Faucet) DisplayName() string {
	if name, err := f.Name(); err == nil && name != "" {
		return name
	}
	return f.serial
}

// String implements fmt.Stringer
func (f *Faucet) String() string {
	return fmt.Sprintf("<Faucet: %s>", f.DisplayName())
}

// Attributes returns the last status payload, or nil before the first update.
func (f *Faucet) Attributes() *Status {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.status
}

// Attr returns a raw top-level key of the last status payload.
func (f *Faucet) Attr(key string) (any, bool) {
	st := f.Attributes()
	if st == nil || st.Raw == nil {
		return nil, false
	}
	v, ok := st.Raw[key]
	return v, ok
}

// Status returns the faucet's connection status.
func (f *Faucet) Status() string {
	if st := f.Attributes(); st != nil {
		return st.FaucetStatus
	}
	return ""
}

// Battery returns the battery level in percent, without the percent sign.
func (f *Faucet) Battery() (string, bool) {
	return f.Attributes().Battery()
}

// CurrentTime returns the owning controller's clock.
func (f *Faucet) CurrentTime() string {
	return f.controller.CurrentTime()
}

// Update fetches the faucet's live status.
func (f *Faucet) Update() error {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return f.refresh()
}

// refresh fetches the status; a 403 gets exactly one re-login and retry.
// Caller must hold opMu.
func (f *Faucet) refresh() error {
	c := f.client
	gen := c.authGeneration()

	err := f.fetch()
	if !IsAuthExpiredError(err) {
		return err
	}

	logging.LogRelogin(f.controller.serial, f.serial)
	if err := c.relogin(gen); err != nil {
		return err
	}

	err = f.fetch()
	if IsAuthExpiredError(err) {
		return NewAuthError(http.StatusForbidden, "status request still rejected after logging in again")
	}
	return err
}

func (f *Faucet) fetch() error {
	body, code, err := f.client.fetchStatus(f.controller.serial, f.serial)
	if err != nil {
		return err
	}

	switch code {
	case http.StatusOK:
	case http.StatusForbidden:
		return NewAuthExpiredError("status request rejected")
	default:
		return NewHTTPError(code, fmt.Sprintf("status request for faucet %s returned status %d", f.serial, code))
	}

	st, err := ParseStatus(body)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.status = st
	f.mu.Unlock()
	f.controller.setAttributes(st)

	logging.Debug("Faucet status updated",
		zap.String("faucet", f.serial),
		zap.String("status", st.FaucetStatus),
		zap.Int("zones", len(st.Zones)),
	)
	return nil
}

// UpdateName renames the faucet on the portal.
func (f *Faucet) UpdateName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	form := url.Values{
		"_set_faucet_name": {"Set Name"},
		"select_faucet":    {strconv.Itoa(f.index)},
		"faucet_name":      {name},
	}
	return f.client.postSetup(form)
}
