package raincloud

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/raincloud/internal/htmldoc"
	"github.com/muurk/raincloud/internal/logging"
)

// Login authenticates, walks the setup pages to build the
// controller/faucet/zone tree and fetches the status of every faucet.
// Any tree from a previous login is replaced.
func (c *Client) Login() error {
	c.reportStage(StageAuthenticate)
	c.loginMu.Lock()
	err := c.authenticate()
	c.loginMu.Unlock()
	if err != nil {
		return err
	}

	c.reportStage(StageDiscover)
	if err := c.discover(); err != nil {
		return err
	}

	c.reportStage(StageStatus)
	if err := c.Update(); err != nil {
		return err
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	logging.Info("Logged in to portal",
		zap.String("base_url", c.BaseURL),
		zap.Int("controllers", len(c.Controllers())),
	)
	return nil
}

// authenticate runs the login form exchange and reloads the home and setup
// views. Caller must hold loginMu.
func (c *Client) authenticate() error {
	// the login page hands out the CSRF cookie only without a Referer
	resp, err := c.do(http.MethodGet, EndpointLogin, nil, nil, NoReferer, nil)
	if err != nil {
		return err
	}
	drain(resp)

	token, _ := c.CSRFToken()
	form := url.Values{
		"csrfmiddlewaretoken": {token},
		"email":               {c.username},
		"password":            {c.password},
		"_login":              {"Login"},
	}

	resp, err = c.do(http.MethodPost, EndpointLogin, nil, strings.NewReader(form.Encode()), EndpointHome, formHeaders)
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode != http.StatusFound {
		return NewAuthError(resp.StatusCode, fmt.Sprintf("login rejected with status %d", resp.StatusCode))
	}

	home, err := c.getPage(EndpointHome, NoReferer)
	if err != nil {
		return err
	}
	setup, err := c.getPage(EndpointSetup, EndpointHome)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.views[ViewHome] = home
	c.views[ViewSetup] = setup
	c.mu.Unlock()

	c.authGen++
	return nil
}

// authGeneration returns the number of completed logins so far.
func (c *Client) authGeneration() uint64 {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	return c.authGen
}

// relogin re-authenticates after a 403, unless another caller already did
// so since seen was read. The discovered tree is kept as is.
func (c *Client) relogin(seen uint64) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if c.authGen != seen {
		return nil
	}
	return c.authenticate()
}

// CSRFToken returns the portal's CSRF cookie from the jar.
func (c *Client) CSRFToken() (string, bool) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", false
	}
	for _, cookie := range c.jar.Cookies(u) {
		if cookie.Name == CSRFCookieName {
			return cookie.Value, true
		}
	}
	return "", false
}

// Post submits fields as a form to target. The CSRF token is added when
// fields does not carry one. Pass NoReferer to omit the Referer header.
//
// The parsed response comes back only for a 200. Any other status yields a
// nil document and a nil error: the portal did not apply the change.
func (c *Client) Post(fields url.Values, target, referer Endpoint) (*htmldoc.Document, error) {
	form := url.Values{}
	for k, v := range fields {
		form[k] = append([]string(nil), v...)
	}
	if _, ok := form["csrfmiddlewaretoken"]; !ok {
		token, _ := c.CSRFToken()
		form.Set("csrfmiddlewaretoken", token)
	}

	logging.LogFormSubmit(string(target), fieldNames(form))

	resp, err := c.do(http.MethodPost, target, nil, strings.NewReader(form.Encode()), referer, formHeaders)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logging.Warn("Form post not accepted",
			zap.String("path", string(target)),
			zap.Int("status_code", resp.StatusCode),
		)
		return nil, nil
	}

	doc, err := htmldoc.ParseReader(resp.Body)
	if err != nil {
		return nil, NewParseError(fmt.Sprintf("failed to parse %s response", target), err)
	}
	return doc, nil
}

// Logout ends the portal session. Local state is cleared whether or not the
// logout request reaches the portal; the request error, if any, is returned.
func (c *Client) Logout() error {
	defer c.cleanup()

	resp, err := c.do(http.MethodGet, EndpointLogout, nil, nil, EndpointHome, nil)
	if err != nil {
		logging.Warn("Logout request failed", zap.Error(err))
		return err
	}
	drain(resp)

	logging.Info("Logged out of portal", zap.String("base_url", c.BaseURL))
	return nil
}

// getPage fetches an HTML page that must come back 200.
func (c *Client) getPage(ep Endpoint, referer Endpoint) (*htmldoc.Document, error) {
	resp, err := c.do(http.MethodGet, ep, nil, nil, referer, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("GET %s returned status %d", ep, resp.StatusCode))
	}

	doc, err := htmldoc.ParseReader(resp.Body)
	if err != nil {
		return nil, NewParseError(fmt.Sprintf("failed to parse %s", ep), err)
	}
	return doc, nil
}

// fetchStatus performs one status GET. The body is returned only for a 200;
// the status code is always returned so callers can apply the 403 rule.
func (c *Client) fetchStatus(controllerSerial, faucetSerial string) ([]byte, int, error) {
	query := url.Values{
		"controller_serial": {controllerSerial},
		"faucet_serial":     {faucetSerial},
	}

	token, _ := c.CSRFToken()
	headers := map[string]string{
		"Accept":           "*/*",
		"X-Requested-With": "XMLHttpRequest",
		"X-CSRFToken":      token,
	}

	resp, err := c.do(http.MethodGet, EndpointStatus, query, nil, EndpointHome, headers)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, NewNetworkError("failed to read status response", err)
	}
	return body, resp.StatusCode, nil
}

var formHeaders = map[string]string{"Content-Type": formMediaType}

// do builds and sends one request with the portal's browser-like headers.
func (c *Client) do(method string, ep Endpoint, query url.Values, body io.Reader, referer Endpoint, headers map[string]string) (*http.Response, error) {
	target := c.BaseURL + string(ep)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequest(method, target, body)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("failed to create %s request", method), err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHTML)
	req.Header.Set("Accept-Language", acceptLanguage)
	if referer != NoReferer {
		req.Header.Set("Referer", c.BaseURL+string(referer))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(fmt.Sprintf("%s %s failed", method, ep), err)
	}
	logging.LogHTTPExchange(method, string(ep), resp.StatusCode, time.Since(start))

	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func fieldNames(form url.Values) []string {
	names := make([]string, 0, len(form))
	for k := range form {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
