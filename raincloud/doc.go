// Package raincloud is a client for the RainCloud / Melnor wifiaquatimer
// irrigation portal.
//
// The portal has no API. Everything is scraped from the pages a browser
// sees and changed by replaying the same form posts, so the client keeps a
// cookie-backed session and a cached copy of the home and setup pages.
//
// # Entity Tree
//
// Login discovers the account's hardware and builds a tree:
//
//	Client
//	  └─ Controller (serial, discovery index)
//	       └─ Faucet (serial, discovery index)
//	            └─ Zone 1..4
//
// The discovery index is the position in the portal's select lists and is
// what its forms expect; the serial is the stable identity. Zone ids are
// 1-based everywhere except the rain-delay form fields, which start at
// zone0 (see ZoneID.RainDelayFieldIndex).
//
// # Usage Example
//
//	client := raincloud.NewClient("me@example.com", password)
//	if err := client.Login(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Logout()
//
//	for _, ctrl := range client.Controllers() {
//	    for _, faucet := range ctrl.Faucets() {
//	        zone := faucet.Zone(2)
//	        fmt.Println(zone.Name(), zone.WateringTime(), zone.AutoWatering())
//
//	        // water zone 2 for 15 minutes
//	        if err := zone.SetManualWateringTime(15); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Form Submission
//
// The home form is positional: fields left out of a post are reset by the
// portal. Every zone change therefore refreshes the faucet, rebuilds the
// full form from the live state of all four zones, changes one field and
// posts it. If the portal has a different controller or faucet selected the
// form is posted twice, the first post only moving the selection.
//
// Invalid manual watering values fail with a validation error. Invalid rain
// delay and auto watering values are ignored without sending anything.
//
// # Sessions
//
// A status request answered with 403 means the CSRF token expired. The
// client logs in once more and retries the request a single time; a second
// 403 is returned as an authentication error. Concurrent refreshes hitting
// 403 together share one login.
//
// # Thread Safety
//
// A Client may be used from several goroutines. Refreshes and zone changes
// on the same faucet are serialised. Changes to different faucets are not,
// and each accepted post replaces the cached home page, so the last post
// to finish decides what the next read of the home page sees.
package raincloud
