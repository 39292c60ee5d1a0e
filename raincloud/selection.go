package raincloud

import (
	"net/url"

	"go.uber.org/zap"

	"github.com/muurk/raincloud/internal/htmldoc"
	"github.com/muurk/raincloud/internal/logging"
)

// SelectionState is the controller and faucet the portal currently has
// selected for this session. The next home form submit applies to them.
type SelectionState struct {
	ControllerIndex int
	FaucetIndex     int
}

// ReadSelectionState reads the selection from a home page. Indices are -1
// when the page has no selected option.
func ReadSelectionState(home *htmldoc.Document) SelectionState {
	state := SelectionState{ControllerIndex: -1, FaucetIndex: -1}
	if sel := home.FindByID(homeControllerSelectID); sel != nil {
		state.ControllerIndex = sel.SelectedIndex()
	}
	if sel := home.FindByID(homeFaucetSelectID); sel != nil {
		state.FaucetIndex = sel.SelectedIndex()
	}
	return state
}

// submitAction posts form to the home page. When the portal has another
// controller or faucet selected, the first post only moves the selection
// and the form is posted a second time. Every accepted response replaces
// the cached home view.
func (f *Faucet) submitAction(form url.Values) error {
	c := f.client
	target := SelectionState{ControllerIndex: f.controller.index, FaucetIndex: f.index}
	current := ReadSelectionState(c.View(ViewHome))

	if current != target {
		logging.LogSelectionShim(current.ControllerIndex, current.FaucetIndex, target.ControllerIndex, target.FaucetIndex)
		if err := c.postHome(form); err != nil {
			return err
		}
	}
	return c.postHome(form)
}

func (c *Client) postHome(form url.Values) error {
	doc, err := c.Post(form, EndpointHome, EndpointHome)
	if err != nil {
		return err
	}
	if doc == nil {
		logging.Debug("Home form not accepted, keeping cached home page", zap.Int("fields", len(form)))
		return nil
	}
	c.setView(ViewHome, doc)
	return nil
}
