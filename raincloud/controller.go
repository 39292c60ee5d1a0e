package raincloud

import (
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/muurk/raincloud/internal/htmldoc"
)

// Home page select ids used to read display names and the portal's
// current selection.
const (
	homeControllerSelectID = "id_select_controller"
	homeFaucetSelectID     = "id_select_faucet"
)

// Controller is a control unit on the account.
type Controller struct {
	client  *Client
	serial  string
	index   int
	faucets []*Faucet

	mu         sync.RWMutex
	attributes *Status
}

func newController(client *Client, serial string, index int, faucets []faucetSkeleton) *Controller {
	ctrl := &Controller{
		client: client,
		serial: serial,
		index:  index,
	}
	ctrl.faucets = make([]*Faucet, len(faucets))
	for i, f := range faucets {
		ctrl.faucets[i] = newFaucet(client, ctrl, f.serial, i, f.zoneNames)
	}
	return ctrl
}

// Serial returns the controller's portal serial.
func (c *Controller) Serial() string { return c.serial }

// Index returns the discovery position, which is also the value of the
// portal's select_controller field.
func (c *Controller) Index() int { return c.index }

// Faucets returns the controller's faucets in discovery order.
func (c *Controller) Faucets() []*Faucet {
	out := make([]*Faucet, len(c.faucets))
	copy(out, c.faucets)
	return out
}

// Faucet looks a faucet up by serial.
func (c *Controller) Faucet(serial string) *Faucet {
	for _, f := range c.faucets {
		if f.serial == serial {
			return f
		}
	}
	return nil
}

// Name reads the controller's display name from the home page.
func (c *Controller) Name() (string, error) {
	return optionAt(c.client.View(ViewHome), homeControllerSelectID, c.index, LevelController)
}

// DisplayName returns Name, or the serial when the name cannot be read.
func (c *Controller) DisplayName() string {
	if name, err := c.Name(); err == nil && name != "" {
		return name
	}
	return c.serial
}

// String implements fmt.Stringer
func (c *Controller) String() string {
	return fmt.Sprintf("<Controller: %s>", c.DisplayName())
}

// Attributes returns the status payload last fetched for any of the
// controller's faucets.
func (c *Controller) Attributes() *Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attributes
}

func (c *Controller) setAttributes(st *Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attributes = st
}

// Status returns the controller's connection status (e.g., "Online").
func (c *Controller) Status() string {
	if st := c.Attributes(); st != nil {
		return st.ControllerStatus
	}
	return ""
}

// CurrentTime returns the controller's clock as reported by the portal.
func (c *Controller) CurrentTime() string {
	if st := c.Attributes(); st != nil {
		return st.CurrentTime
	}
	return ""
}

// Update refreshes the status of all faucets.
func (c *Controller) Update() error {
	return c.client.fanOut(len(c.faucets), func(i int) error {
		return c.faucets[i].Update()
	})
}

// UpdateName renames the controller on the portal.
func (c *Controller) UpdateName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	form := url.Values{
		"select_controller":    {strconv.Itoa(c.index)},
		"_set_controller_name": {"Set Name"},
		"controller_name":      {name},
	}
	return c.client.postSetup(form)
}

// postSetup posts a rename form to the setup page and caches the answer.
func (c *Client) postSetup(form url.Values) error {
	doc, err := c.Post(form, EndpointSetup, EndpointSetup)
	if err != nil {
		return err
	}
	if doc != nil {
		c.setView(ViewSetup, doc)
	}
	return nil
}

// optionAt returns the text of option index of the select with the given id.
func optionAt(doc *htmldoc.Document, id string, index int, level DiscoveryLevel) (string, error) {
	if doc == nil {
		return "", NewParseError("home page has not been loaded", nil)
	}
	sel := doc.FindByID(id)
	if sel == nil {
		return "", NewParseError(fmt.Sprintf("could not find the %s list (#%s) on the home page", level, id), nil)
	}
	texts := sel.OptionTexts()
	if index < 0 || index >= len(texts) {
		return "", NewParseError(fmt.Sprintf("the %s list has no entry %d", level, index), nil)
	}
	return texts[index], nil
}
