package raincloud

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	testUsername = "foo"
	testPassword = "secret"
	testToken    = "AbCdEFJeCDnkC2pdmrywqBAbN9999999"
)

type fakeZone struct {
	name      string
	auto      int
	manual    int
	manualOn  bool
	rainDelay int
	program   bool
	nextCycle string
}

type fakeFaucet struct {
	serial  string
	name    string
	status  string
	battery string
	zones   [ZonesPerFaucet]fakeZone
}

type fakeController struct {
	serial  string
	name    string
	status  string
	time    string
	faucets []*fakeFaucet
}

// fakePortal serves the login, home, setup, status and logout pages of the
// irrigation portal from an in-memory account.
type fakePortal struct {
	t      *testing.T
	server *httptest.Server

	mu          sync.Mutex
	controllers []*fakeController
	token       string

	homeCtrl, homeFaucet   int
	setupCtrl, setupFaucet int

	logins, homePosts, setupPosts, statusCalls, logouts int

	homeForms  []url.Values
	setupForms []url.Values
	referers   map[string]string
	lastStatus http.Header

	// failure knobs
	rejectLogin          bool
	forbidStatus         bool
	statusCode           int
	rejectSetupPosts     bool
	omitControllerSelect bool
	omitFaucetSelect     bool
	omitZoneSelect       bool
	omitProgramMode      bool
}

func newFakePortal(t *testing.T) *fakePortal {
	t.Helper()

	p := &fakePortal{
		t:        t,
		token:    testToken,
		referers: map[string]string{},
		controllers: []*fakeController{
			{
				serial: "ABCDEFGH",
				name:   "Controller001",
				status: "Online",
				time:   "02:00 AM",
				faucets: []*fakeFaucet{
					{
						serial:  "1234",
						name:    "Faucet001",
						status:  "Online",
						battery: "85%",
						zones: [ZonesPerFaucet]fakeZone{
							{name: "Roses"},
							{name: "Lawn", manual: 15, manualOn: true, program: true, nextCycle: "Tomorrow 6:00 AM"},
							{name: "Garden", auto: 60, program: true},
							{name: "Hedge", rainDelay: 4},
						},
					},
				},
			},
			{
				serial: "IJKLMNOP",
				name:   "Controller002",
				status: "Offline",
				time:   "03:15 PM",
				faucets: []*fakeFaucet{
					{
						serial: "5678",
						name:   "Faucet002",
						status: "Online",
						zones: [ZonesPerFaucet]fakeZone{
							{name: "Front"}, {name: "Back"}, {name: "Side"}, {name: "Patio"},
						},
					},
					{
						serial: "9012",
						name:   "Faucet003",
						status: "Offline",
						zones: [ZonesPerFaucet]fakeZone{
							{name: "Beds"}, {name: "Pots"}, {name: "Trees"}, {name: "Veg"},
						},
					},
				},
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/", p.handleLogin)
	mux.HandleFunc("/home", p.handleHome)
	mux.HandleFunc("/setup/", p.handleSetup)
	mux.HandleFunc("/get_cu_and_fu_status", p.handleStatus)
	mux.HandleFunc("/logout", p.handleLogout)

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

// client returns a client pointed at the fake portal with the stop toggle
// delay disabled.
func (p *fakePortal) client() *Client {
	c := NewClientWithURL(p.server.URL, testUsername, testPassword)
	c.SetOffToggleDelay(0)
	return c
}

// loggedIn returns a client that completed Login.
func (p *fakePortal) loggedIn() *Client {
	p.t.Helper()
	c := p.client()
	if err := c.Login(); err != nil {
		p.t.Fatalf("Login() error = %v", err)
	}
	return c
}

// expire rotates the CSRF token so requests carrying the old one get 403.
func (p *fakePortal) expire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = p.token + "x"
}

type portalCounts struct {
	logins, homePosts, setupPosts, statusCalls, logouts int
}

func (p *fakePortal) counts() portalCounts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return portalCounts{p.logins, p.homePosts, p.setupPosts, p.statusCalls, p.logouts}
}

func (p *fakePortal) zone(ctrl, faucet, zone int) fakeZone {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controllers[ctrl].faucets[faucet].zones[zone-1]
}

func (p *fakePortal) lastHomeForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.homeForms) == 0 {
		return nil
	}
	return p.homeForms[len(p.homeForms)-1]
}

func (p *fakePortal) lastSetupForm() url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.setupForms) == 0 {
		return nil
	}
	return p.setupForms[len(p.setupForms)-1]
}

func (p *fakePortal) referer(method, path string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ref, ok := p.referers[method+" "+path]
	return ref, ok
}

func (p *fakePortal) record(r *http.Request) {
	p.referers[r.Method+" "+r.URL.Path] = r.Header.Get("Referer")
}

func (p *fakePortal) validToken(r *http.Request) bool {
	return r.PostForm.Get("csrfmiddlewaretoken") == p.token
}

func (p *fakePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(r)

	switch r.Method {
	case http.MethodGet:
		http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: p.token, Path: "/"})
		fmt.Fprint(w, `<html><body><form method="post"><input name="email"><input name="password"></form></body></html>`)

	case http.MethodPost:
		_ = r.ParseForm()
		ok := !p.rejectLogin &&
			p.validToken(r) &&
			r.PostForm.Get("email") == testUsername &&
			r.PostForm.Get("password") == testPassword &&
			r.PostForm.Get("_login") == "Login"
		if !ok {
			fmt.Fprint(w, `<html><body><p class="error">Invalid login</p></body></html>`)
			return
		}
		p.logins++
		p.homeCtrl, p.homeFaucet = 0, 0
		p.setupCtrl, p.setupFaucet = 0, 0
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "s" + strconv.Itoa(p.logins), Path: "/"})
		http.Redirect(w, r, "/home", http.StatusFound)
	}
}

func (p *fakePortal) handleHome(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(r)

	if r.Method == http.MethodPost {
		_ = r.ParseForm()
		if !p.validToken(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		p.homePosts++
		p.homeForms = append(p.homeForms, cloneValues(r.PostForm))

		ctrl, _ := strconv.Atoi(r.PostForm.Get("select_controller"))
		faucet, _ := strconv.Atoi(r.PostForm.Get("select_faucet"))
		switch {
		case ctrl >= len(p.controllers) || faucet >= len(p.controllers[ctrl].faucets):
			w.WriteHeader(http.StatusBadRequest)
			return
		case ctrl != p.homeCtrl || faucet != p.homeFaucet:
			// the portal only moves its selection and ignores the rest
			p.homeCtrl, p.homeFaucet = ctrl, faucet
		default:
			p.applyHomeForm(r.PostForm)
		}
	}

	fmt.Fprint(w, p.renderHome())
}

func (p *fakePortal) applyHomeForm(form url.Values) {
	f := p.controllers[p.homeCtrl].faucets[p.homeFaucet]
	for i := range f.zones {
		z := &f.zones[i]
		id := ZoneID(i + 1)

		switch v := form.Get(zoneField(id, FieldManualMode)); v {
		case "OFF":
			z.manual, z.manualOn = 0, false
		case "ON":
			z.manual, z.manualOn = MaxWateringMinutes, true
		default:
			n, _ := strconv.Atoi(v)
			z.manual, z.manualOn = n, n > 0
		}

		switch v := form.Get(zoneField(id, FieldRainDelay)); {
		case v == "off" || v == "":
			z.rainDelay = 0
		default:
			n, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimSuffix(v, "days"), "day"))
			z.rainDelay = n
		}

		z.program = form.Has(zoneField(id, FieldProgramToggle))
	}
}

func (p *fakePortal) handleSetup(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(r)

	if r.Method == http.MethodPost {
		_ = r.ParseForm()
		if !p.validToken(r) || p.rejectSetupPosts {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		p.setupPosts++
		p.setupForms = append(p.setupForms, cloneValues(r.PostForm))
		p.applySetupForm(r.PostForm)
	}

	fmt.Fprint(w, p.renderSetup())
}

func (p *fakePortal) applySetupForm(form url.Values) {
	atoi := func(key string) int {
		n, _ := strconv.Atoi(form.Get(key))
		return n
	}

	switch {
	case form.Has("_set_controller_name"):
		p.controllers[atoi("select_controller")].name = form.Get("controller_name")
	case form.Has("_set_faucet_name"):
		p.controllers[p.setupCtrl].faucets[atoi("select_faucet")].name = form.Get("faucet_name")
	case form.Has("_set_zone_name"):
		f := p.controllers[atoi("select_controller")].faucets[atoi("select_faucet")]
		f.zones[atoi("select_zone")].name = form.Get("zone_name")
	default:
		if form.Has("select_controller") {
			p.setupCtrl, p.setupFaucet = atoi("select_controller"), 0
		}
		if form.Has("select_faucet") {
			p.setupFaucet = atoi("select_faucet")
		}
	}
}

func (p *fakePortal) handleStatus(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(r)
	p.statusCalls++
	p.lastStatus = r.Header.Clone()

	switch {
	case p.forbidStatus || r.Header.Get("X-CSRFToken") != p.token:
		w.WriteHeader(http.StatusForbidden)
		return
	case p.statusCode != 0:
		w.WriteHeader(p.statusCode)
		return
	}

	q := r.URL.Query()
	for _, c := range p.controllers {
		if c.serial != q.Get("controller_serial") {
			continue
		}
		for _, f := range c.faucets {
			if f.serial == q.Get("faucet_serial") {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(p.statusPayload(c, f))
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (p *fakePortal) statusPayload(c *fakeController, f *fakeFaucet) map[string]any {
	zones := make([]map[string]any, 0, ZonesPerFaucet)
	for _, z := range f.zones {
		entry := map[string]any{
			"auto_watering_time":   z.auto,
			"manual_watering_time": z.manual,
			"manual_mode_on":       z.manualOn,
			"rain_delay_mode":      z.rainDelay,
			"next_water_cycle":     z.nextCycle,
		}
		if !p.omitProgramMode {
			entry["program_mode_on"] = z.program
		}
		zones = append(zones, entry)
	}
	return map[string]any{
		"controller_status": c.status,
		"current_time":      c.time,
		"faucet_status":     f.status,
		"battery_percent":   f.battery,
		"rain_delay_mode":   zones,
	}
}

func (p *fakePortal) handleLogout(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(r)
	p.logouts++
	http.Redirect(w, r, "/login/", http.StatusFound)
}

func (p *fakePortal) renderHome() string {
	var b strings.Builder
	b.WriteString(`<html><body><form method="post">`)

	b.WriteString(`<select id="id_select_controller" name="select_controller">`)
	for i, c := range p.controllers {
		writeOption(&b, i, c.name, i == p.homeCtrl)
	}
	b.WriteString(`</select>`)

	ctrl := p.controllers[p.homeCtrl]
	b.WriteString(`<select id="id_select_faucet" name="select_faucet">`)
	for i, f := range ctrl.faucets {
		writeOption(&b, i, f.name, i == p.homeFaucet)
	}
	b.WriteString(`</select>`)

	if p.homeFaucet < len(ctrl.faucets) {
		for i, z := range ctrl.faucets[p.homeFaucet].zones {
			checked := ""
			if z.program {
				checked = " checked"
			}
			fmt.Fprintf(&b, `<input type="checkbox" id="id_zone%d_program_toggle" name="zone%d_program_toggle"%s>`, i+1, i+1, checked)
		}
	}

	b.WriteString(`</form></body></html>`)
	return b.String()
}

func (p *fakePortal) renderSetup() string {
	var b strings.Builder
	b.WriteString(`<html><body><form method="post">`)

	if !p.omitControllerSelect {
		b.WriteString(`<select id="id_select_controller2" name="select_controller">`)
		for i, c := range p.controllers {
			writeOption(&b, i, fmt.Sprintf("%d - %s", i+1, c.serial), i == p.setupCtrl)
		}
		b.WriteString(`</select>`)
	}

	ctrl := p.controllers[p.setupCtrl]
	if !p.omitFaucetSelect {
		b.WriteString(`<select id="id_select_faucet2" name="select_faucet">`)
		for i, f := range ctrl.faucets {
			writeOption(&b, i, fmt.Sprintf("%d - %s", i+1, f.serial), i == p.setupFaucet)
		}
		b.WriteString(`</select>`)
	}

	if !p.omitZoneSelect && p.setupFaucet < len(ctrl.faucets) {
		b.WriteString(`<select id="id_select_zone" name="select_zone">`)
		for i, z := range ctrl.faucets[p.setupFaucet].zones {
			writeOption(&b, i, fmt.Sprintf("%d - %s", i+1, z.name), i == 0)
		}
		b.WriteString(`</select>`)
	}

	b.WriteString(`</form></body></html>`)
	return b.String()
}

func writeOption(b *strings.Builder, value int, text string, selected bool) {
	attr := ""
	if selected {
		attr = " selected"
	}
	fmt.Fprintf(b, `<option value="%d"%s>%s</option>`, value, attr, html.EscapeString(text))
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
