package raincloud

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/raincloud/internal/htmldoc"
	"github.com/muurk/raincloud/internal/logging"
)

// Element ids on the setup page. The home page uses the same ids without
// the trailing 2.
const (
	setupControllerSelectID = "id_select_controller2"
	setupFaucetSelectID     = "id_select_faucet2"
	zoneNameSelectName      = "select_zone"
)

type faucetSkeleton struct {
	serial    string
	zoneNames []string
}

// discover walks the setup page and replaces the controller tree.
//
// The portal only lists the faucets of the selected controller and the zone
// names of the selected faucet, so every controller and faucet after the
// first is selected with a form post before its children are read.
func (c *Client) discover() error {
	setup := c.View(ViewSetup)
	if setup == nil {
		return NewDiscoveryError(LevelController, "setup page has not been loaded")
	}

	controllerSerials, err := selectSerials(setup, setupControllerSelectID, LevelController)
	if err != nil {
		return err
	}

	controllers := make([]*Controller, 0, len(controllerSerials))
	for i, serial := range controllerSerials {
		if i > 0 {
			setup = c.selectOnSetup("select_controller", i, setup)
		}

		faucetSerials, err := selectSerials(setup, setupFaucetSelectID, LevelFaucet)
		if err != nil {
			return err
		}

		faucets := make([]faucetSkeleton, 0, len(faucetSerials))
		for j, faucetSerial := range faucetSerials {
			if j > 0 {
				setup = c.selectOnSetup("select_faucet", j, setup)
			}
			faucets = append(faucets, faucetSkeleton{
				serial:    faucetSerial,
				zoneNames: zoneNames(setup),
			})
		}

		controllers = append(controllers, newController(c, serial, i, faucets))
		logging.Info("Discovered controller",
			zap.String("serial", serial),
			zap.Int("index", i),
			zap.Int("faucets", len(faucets)),
		)
	}

	c.mu.Lock()
	c.controllers = controllers
	c.mu.Unlock()
	return nil
}

// selectOnSetup posts a selection to the setup page and returns the page the
// portal answers with. A rejected post keeps the current page.
func (c *Client) selectOnSetup(field string, index int, current *htmldoc.Document) *htmldoc.Document {
	doc, err := c.Post(url.Values{field: {strconv.Itoa(index)}}, EndpointSetup, EndpointSetup)
	if err != nil || doc == nil {
		logging.Warn("Setup selection not applied, reusing current page",
			zap.String("field", field),
			zap.Int("index", index),
			zap.Error(err),
		)
		return current
	}
	c.setView(ViewSetup, doc)
	return doc
}

// selectSerials reads the serials out of a "N - SERIAL" option list.
func selectSerials(doc *htmldoc.Document, id string, level DiscoveryLevel) ([]string, error) {
	sel := doc.FindByID(id)
	if sel == nil {
		return nil, NewDiscoveryError(level, fmt.Sprintf("could not find the %s list (#%s)", level, id))
	}

	texts := sel.OptionTexts()
	if len(texts) == 0 {
		return nil, NewDiscoveryError(level, fmt.Sprintf("the %s list is empty", level))
	}

	serials := make([]string, 0, len(texts))
	for _, text := range texts {
		serial, ok := optionSuffix(text)
		if !ok || serial == "" {
			return nil, NewDiscoveryError(level, fmt.Sprintf("could not read a %s serial from %q", level, text))
		}
		serials = append(serials, serial)
	}
	return serials, nil
}

// zoneNames returns exactly ZonesPerFaucet names. A missing zone list yields
// "1".."4"; options without a "N - name" shape yield an empty name.
func zoneNames(doc *htmldoc.Document) []string {
	names := make([]string, 0, ZonesPerFaucet)

	if selects := doc.FindAll("select", map[string]string{"name": zoneNameSelectName}); len(selects) > 0 {
		for _, text := range selects[0].OptionTexts() {
			name, _ := optionSuffix(text)
			names = append(names, name)
		}
	} else {
		logging.Debug("Zone name list not found, using zone numbers")
	}

	for len(names) < ZonesPerFaucet {
		names = append(names, strconv.Itoa(len(names)+1))
	}
	return names[:ZonesPerFaucet]
}

// optionSuffix returns the text after the first "-" of an option label.
func optionSuffix(text string) (string, bool) {
	parts := strings.SplitN(text, "-", 2)
	if len(parts) < 2 {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
