package raincloud

import "time"

const (
	// DefaultBaseURL is the public irrigation portal
	DefaultBaseURL = "https://wifiaquatimer.com"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second

	// DefaultOffToggleDelay is the pause between the "ON" and "OFF" submits
	// sent whenever a zone is stopped
	DefaultOffToggleDelay = time.Second

	// CSRFCookieName is the cookie the portal stores its CSRF token in
	CSRFCookieName = "csrftoken"

	// ZonesPerFaucet is the fixed number of outlets on every faucet
	ZonesPerFaucet = 4

	// MaxWateringMinutes is what a manual "on" translates to
	MaxWateringMinutes = 60

	// MaxRainDelayDays is the longest rain delay the portal accepts
	MaxRainDelayDays = 7
)

// Endpoint is a path on the portal, relative to the client's base URL.
type Endpoint string

const (
	EndpointLogin  Endpoint = "/login/"
	EndpointHome   Endpoint = "/home"
	EndpointSetup  Endpoint = "/setup/"
	EndpointStatus Endpoint = "/get_cu_and_fu_status"
	EndpointLogout Endpoint = "/logout"

	// NoReferer omits the Referer header entirely. The login page must be
	// fetched this way for the portal to hand out a CSRF cookie.
	NoReferer Endpoint = ""
)

// View names one of the cached page slots.
type View int

const (
	ViewHome View = iota
	ViewSetup
	ViewProgram
	ViewManage
	viewCount
)

// String returns the slot name
func (v View) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewSetup:
		return "setup"
	case ViewProgram:
		return "program"
	case ViewManage:
		return "manage"
	default:
		return "unknown"
	}
}

// Browser-like headers. The portal serves its forms to regular browsers
// and some of its views refuse unfamiliar clients.
const (
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.5"
	formMediaType  = "application/x-www-form-urlencoded"
)

// LoginStage is a step of Login, in the order they run.
type LoginStage int

const (
	StageAuthenticate LoginStage = iota // login form exchange
	StageDiscover                       // setup page walk
	StageStatus                         // first status fetch

	// LoginStages is the number of stages.
	LoginStages = int(StageStatus) + 1
)

func (s LoginStage) String() string {
	switch s {
	case StageAuthenticate:
		return "Signing in"
	case StageDiscover:
		return "Discovering controllers and faucets"
	case StageStatus:
		return "Fetching zone status"
	default:
		return "unknown"
	}
}
