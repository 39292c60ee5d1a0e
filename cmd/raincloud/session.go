package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/muurk/raincloud/internal/config"
	"github.com/muurk/raincloud/internal/logging"
	"github.com/muurk/raincloud/internal/ui"
	"github.com/muurk/raincloud/raincloud"
)

// Credential environment variables. A .env file in the working directory
// is loaded into the environment at startup.
const (
	envUsername = "RAINCLOUD_USERNAME"
	envPassword = "RAINCLOUD_PASSWORD"
)

// Connection flags (persistent on root)
var (
	profileName  string
	baseURL      string
	username     string
	timeoutSecs  int
	proxyURL     string
	insecure     bool
	outputFormat string
	logLevel     string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&profileName, "profile", "", "Config profile to use (default from config file)")
	flags.StringVar(&baseURL, "base-url", "", "Portal URL (default "+raincloud.DefaultBaseURL+")")
	flags.StringVar(&username, "username", "", "Account username (or "+envUsername+")")
	flags.IntVar(&timeoutSecs, "timeout", 0, "HTTP timeout in seconds")
	flags.StringVar(&proxyURL, "proxy", "", "HTTP proxy URL for portal traffic")
	flags.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	flags.StringVar(&outputFormat, "format", "", "Output format (detailed, compact, json, yaml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); default "+logging.LogLevelEnvVar)
}

// loadConfig returns the user registry. A broken config file is reported
// and replaced by defaults so read-only commands still work.
func loadConfig() *config.Registry {
	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("Ignoring config file", zap.Error(err))
		return config.NewRegistry()
	}
	return reg
}

// resolveFormat picks the output format: --format, then the config
// preference, then "detailed".
func resolveFormat(reg *config.Registry) string {
	if outputFormat != "" {
		return strings.ToLower(outputFormat)
	}
	if reg == nil {
		reg = loadConfig()
	}
	if reg.Preferences != nil && reg.Preferences.OutputFormat != "" {
		return reg.Preferences.OutputFormat
	}
	return "detailed"
}

// newClient builds a portal client from the active profile with the
// command-line flags layered on top. It does not log in.
func newClient(reg *config.Registry, in io.Reader, out io.Writer) (*raincloud.Client, error) {
	profile := reg.Profile(profileName)
	if profile == nil {
		if profileName != "" {
			return nil, fmt.Errorf("unknown profile %q (have: %s)", profileName, strings.Join(reg.ProfileNames(), ", "))
		}
		profile = &config.Profile{}
	}

	url := firstNonEmpty(baseURL, profile.BaseURL, raincloud.DefaultBaseURL)
	user := firstNonEmpty(username, os.Getenv(envUsername), profile.Username)
	if user == "" {
		return nil, raincloud.NewValidationError("no username: use --username, " + envUsername + " or a config profile")
	}

	password, err := readPassword(user, in, out)
	if err != nil {
		return nil, err
	}

	client := raincloud.NewClientWithURL(url, user, password)

	timeout := profile.Timeout()
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	if err := client.SetProxy(firstNonEmpty(proxyURL, profile.HTTPProxy)); err != nil {
		return nil, err
	}
	client.SetInsecureSkipVerify(insecure || profile.InsecureSkipVerify)
	client.SetConcurrentRefresh(profile.ConcurrentRefresh)

	logging.Debug("Client configured",
		zap.String("base_url", client.BaseURL),
		zap.String("username", user),
		zap.Duration("timeout", client.HTTPClient.Timeout),
	)
	return client, nil
}

// readPassword takes the password from the environment, or prompts on an
// interactive terminal.
func readPassword(user string, in io.Reader, out io.Writer) (string, error) {
	if password := os.Getenv(envPassword); password != "" {
		return password, nil
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "Password for %s: ", user)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if password := strings.TrimRight(line, "\r\n"); password != "" {
		return password, nil
	}
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return "", raincloud.NewValidationError("no password: set " + envPassword + " or enter it when prompted")
}

// session is a logged-in client plus the registry its discoveries are
// recorded in.
type session struct {
	client *raincloud.Client
	reg    *config.Registry
}

// connect logs in and records every discovered serial as seen. The caller
// must call close.
func connect(in io.Reader, out io.Writer) (*session, error) {
	reg := loadConfig()

	client, err := newClient(reg, in, out)
	if err != nil {
		return nil, err
	}
	if err := login(client, out); err != nil {
		return nil, err
	}

	s := &session{client: client, reg: reg}
	s.recordSeen()
	return s, nil
}

// login runs client.Login, drawing its stages on out when out is a
// terminal.
func login(client *raincloud.Client, out io.Writer) error {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) || structured() {
		return client.Login()
	}

	names := make([]string, raincloud.LoginStages)
	for i := range names {
		names[i] = raincloud.LoginStage(i).String()
	}
	p := ui.NewProgress("Logging in to "+client.BaseURL, names)

	return ui.RunProgress(out, p, func(step func(int)) error {
		client.SetStageHook(func(stage raincloud.LoginStage) { step(int(stage)) })
		defer client.SetStageHook(nil)
		return client.Login()
	})
}

func (s *session) close() {
	if err := s.client.Logout(); err != nil {
		logging.Warn("Logout failed", zap.Error(err))
	}
}

func (s *session) recordSeen() {
	for _, c := range s.client.Controllers() {
		s.reg.UpdateDeviceLastSeen(c.Serial(), "controller")
		for _, f := range c.Faucets() {
			s.reg.UpdateDeviceLastSeen(f.Serial(), "faucet")
		}
	}
	s.save()
}

func (s *session) save() {
	if err := s.reg.Save(); err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}

// resolveSerial maps a nickname to its serial; anything else is returned
// unchanged.
func (s *session) resolveSerial(ref string) string {
	for serial, dev := range s.reg.Devices {
		if dev != nil && dev.Nickname != "" && strings.EqualFold(dev.Nickname, ref) {
			return serial
		}
	}
	return ref
}

func (s *session) controller(ref string) (*raincloud.Controller, error) {
	serial := s.resolveSerial(ref)
	if c := s.client.Controller(serial); c != nil {
		return c, nil
	}
	return nil, raincloud.NewValidationError(fmt.Sprintf("no controller %q on this account", ref))
}

func (s *session) faucet(ref string) (*raincloud.Faucet, error) {
	serial := s.resolveSerial(ref)
	for _, c := range s.client.Controllers() {
		if f := c.Faucet(serial); f != nil {
			return f, nil
		}
	}
	return nil, raincloud.NewValidationError(fmt.Sprintf("no faucet %q on this account", ref))
}

func (s *session) zone(faucetRef string, zoneID int) (*raincloud.Zone, error) {
	if err := raincloud.ValidateZoneID(zoneID); err != nil {
		return nil, err
	}
	f, err := s.faucet(faucetRef)
	if err != nil {
		return nil, err
	}
	return f.Zone(raincloud.ZoneID(zoneID)), nil
}

// printStructured writes v as JSON or YAML according to the output format.
func printStructured(out io.Writer, v any) error {
	if resolveFormat(nil) == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
