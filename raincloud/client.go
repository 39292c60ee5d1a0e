package raincloud

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/raincloud/internal/htmldoc"
)

// Client is a logged-in session against the irrigation portal together
// with the controller/faucet/zone tree discovered for the account.
type Client struct {
	// BaseURL is the portal root (e.g., "https://wifiaquatimer.com")
	BaseURL string

	// HTTPClient is the underlying HTTP client. Redirects are not followed:
	// a successful login is recognised by its 302.
	HTTPClient *http.Client

	username  string
	password  string
	transport *http.Transport
	jar       *sessionJar

	concurrent     bool
	offToggleDelay time.Duration
	stageHook      func(LoginStage)

	// mu guards the cached views, the controller tree and connected.
	mu          sync.RWMutex
	views       [viewCount]*htmldoc.Document
	controllers []*Controller
	connected   bool

	// loginMu funnels every (re-)authentication through one caller at a
	// time; authGen counts completed logins so late arrivals can skip theirs.
	loginMu sync.Mutex
	authGen uint64
}

// NewClient creates a client for the public portal.
func NewClient(username, password string) *Client {
	return NewClientWithURL(DefaultBaseURL, username, password)
}

// NewClientWithURL creates a client for a portal at baseURL.
func NewClientWithURL(baseURL, username, password string) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	jar := &sessionJar{jar: newJar()}

	c := &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		username:  username,
		password:  password,
		transport: transport,
		jar:       jar,
		HTTPClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
			Jar:       jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		offToggleDelay: DefaultOffToggleDelay,
	}

	return c
}

func newJar() http.CookieJar {
	// the error is always nil
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

// sessionJar is the client's cookie jar. It is installed once and emptied
// on logout by swapping the jar behind it, so requests still in flight
// never see the http.Client field change.
type sessionJar struct {
	mu  sync.RWMutex
	jar http.CookieJar
}

func (j *sessionJar) current() http.CookieJar {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

// reset drops every cookie.
func (j *sessionJar) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.jar = newJar()
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetAuth replaces the credentials used by the next login
func (c *Client) SetAuth(username, password string) {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	c.username = username
	c.password = password
}

// SetProxy routes all portal traffic through proxyURL
// (e.g., "http://127.0.0.1:8080"). An empty string restores the
// environment's proxy settings.
func (c *Client) SetProxy(proxyURL string) error {
	if proxyURL == "" {
		c.transport.Proxy = http.ProxyFromEnvironment
		return nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return NewValidationError(fmt.Sprintf("invalid proxy URL %q", proxyURL))
	}
	c.transport.Proxy = http.ProxyURL(u)
	return nil
}

// SetInsecureSkipVerify disables TLS certificate verification. Only useful
// behind an intercepting proxy.
func (c *Client) SetInsecureSkipVerify(skip bool) {
	if c.transport.TLSClientConfig == nil {
		c.transport.TLSClientConfig = &tls.Config{}
	}
	c.transport.TLSClientConfig.InsecureSkipVerify = skip
}

// SetConcurrentRefresh selects between refreshing sibling controllers and
// faucets one after another (false, the default) or concurrently (true).
func (c *Client) SetConcurrentRefresh(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.concurrent = enabled
}

// SetOffToggleDelay sets the pause between the "ON" and "OFF" submits used
// when stopping a zone.
func (c *Client) SetOffToggleDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offToggleDelay = d
}

// SetStageHook registers fn to be called as Login enters each stage.
// fn runs on the goroutine calling Login; pass nil to remove it.
func (c *Client) SetStageHook(fn func(LoginStage)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stageHook = fn
}

func (c *Client) reportStage(stage LoginStage) {
	c.mu.RLock()
	fn := c.stageHook
	c.mu.RUnlock()
	if fn != nil {
		fn(stage)
	}
}

// Username returns the account the client logs in as
func (c *Client) Username() string {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	return c.username
}

// IsConnected reports whether the last Login completed and no Logout
// happened since.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Controllers returns the discovered controllers in discovery order.
func (c *Client) Controllers() []*Controller {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Controller, len(c.controllers))
	copy(out, c.controllers)
	return out
}

// Controller looks a controller up by serial.
func (c *Client) Controller(serial string) *Controller {
	for _, ctrl := range c.Controllers() {
		if ctrl.serial == serial {
			return ctrl
		}
	}
	return nil
}

// View returns the cached document for a page slot, or nil.
func (c *Client) View(v View) *htmldoc.Document {
	if v < 0 || v >= viewCount {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.views[v]
}

func (c *Client) setView(v View, doc *htmldoc.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views[v] = doc
}

// UpdateHome replaces the cached home page with body.
func (c *Client) UpdateHome(body []byte) error {
	doc, err := htmldoc.Parse(body)
	if err != nil {
		return NewParseError("failed to parse home page", err)
	}
	c.setView(ViewHome, doc)
	return nil
}

// Update refreshes the status of every faucet on every controller.
func (c *Client) Update() error {
	controllers := c.Controllers()
	return c.fanOut(len(controllers), func(i int) error {
		return controllers[i].Update()
	})
}

// String returns a short description naming the first controller.
func (c *Client) String() string {
	controllers := c.Controllers()
	if len(controllers) == 0 {
		return "<RainCloud: not connected>"
	}
	return fmt.Sprintf("<RainCloud: %s>", controllers[0].serial)
}

// fanOut runs fn for 0..n-1, concurrently when enabled. It returns once
// every call finished; the first error wins.
func (c *Client) fanOut(n int, fn func(i int) error) error {
	c.mu.RLock()
	concurrent := c.concurrent
	c.mu.RUnlock()

	if !concurrent || n < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

func (c *Client) toggleDelay() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offToggleDelay
}

// cleanup drops all session state. Safe to call repeatedly.
func (c *Client) cleanup() {
	c.mu.Lock()
	c.controllers = []*Controller{}
	c.connected = false
	c.views = [viewCount]*htmldoc.Document{}
	c.mu.Unlock()

	c.jar.reset()
}
