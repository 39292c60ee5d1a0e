package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CurrentVersion is the only config file version this build reads.
const CurrentVersion = 1

// DefaultProfileName is used when no profile is named on the command line
// and the preferences do not choose one.
const DefaultProfileName = "default"

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                 `yaml:"version"`
	Profiles    map[string]*Profile `yaml:"profiles,omitempty"`
	Devices     map[string]*Device  `yaml:"devices,omitempty"` // Keyed by controller or faucet serial
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Profile holds the connection settings for one portal account.
// Passwords are never stored; they come from RAINCLOUD_PASSWORD or a prompt.
type Profile struct {
	BaseURL            string `yaml:"base_url,omitempty"`
	Username           string `yaml:"username,omitempty"`
	TimeoutSeconds     int    `yaml:"timeout_seconds,omitempty"`
	HTTPProxy          string `yaml:"http_proxy,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty"`
	ConcurrentRefresh  bool   `yaml:"concurrent_refresh,omitempty"`
}

// Timeout returns the request timeout, or zero when the profile leaves it
// to the client default.
func (p *Profile) Timeout() time.Duration {
	if p == nil || p.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ProfileKeys lists the keys accepted by SetProfileValue.
var ProfileKeys = []string{
	"base_url",
	"username",
	"timeout_seconds",
	"http_proxy",
	"insecure_skip_verify",
	"concurrent_refresh",
}

// Device represents user-defined metadata for a controller or faucet.
type Device struct {
	Kind     string           `yaml:"kind,omitempty"`      // "controller" or "faucet"
	Nickname string           `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen time.Time        `yaml:"last_seen,omitempty"` // Last time a login discovered it
	Zones    map[int]*ZoneTag `yaml:"zones,omitempty"`     // Faucet zone labels keyed by zone id 1-4
}

// ZoneTag is a local label for a zone. The portal keeps its own zone names;
// these never leave the machine.
type ZoneTag struct {
	Label string `yaml:"label"`
	Icon  string `yaml:"icon,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultProfile string        `yaml:"default_profile,omitempty"`
	OutputFormat   string        `yaml:"output_format,omitempty"`
	Monitor        *MonitorPrefs `yaml:"monitor,omitempty"`
}

// MonitorPrefs configures the monitor command's StatsD export.
type MonitorPrefs struct {
	StatsdAddr      string `yaml:"statsd_addr,omitempty"` // e.g. "127.0.0.1:8125"; empty disables export
	Namespace       string `yaml:"namespace,omitempty"`
	IntervalSeconds int    `yaml:"interval_seconds,omitempty"`
}

// OutputFormats are the accepted values of Preferences.OutputFormat.
var OutputFormats = []string{"detailed", "compact", "json", "yaml"}

func defaultPreferences() *Preferences {
	return &Preferences{
		DefaultProfile: DefaultProfileName,
		OutputFormat:   "detailed",
		Monitor: &MonitorPrefs{
			Namespace:       "raincloud.",
			IntervalSeconds: 60,
		},
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: CurrentVersion,
		Profiles: map[string]*Profile{
			DefaultProfileName: {TimeoutSeconds: 30},
		},
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// Profile returns the named profile. An empty name selects the preferred
// default. Returns nil if the profile doesn't exist.
func (r *Registry) Profile(name string) *Profile {
	if name == "" {
		name = r.DefaultProfile()
	}
	return r.Profiles[name]
}

// DefaultProfile returns the name of the profile used when none is given.
func (r *Registry) DefaultProfile() string {
	if r.Preferences != nil && r.Preferences.DefaultProfile != "" {
		return r.Preferences.DefaultProfile
	}
	return DefaultProfileName
}

// ProfileNames returns the profile names in sorted order.
func (r *Registry) ProfileNames() []string {
	names := make([]string, 0, len(r.Profiles))
	for name := range r.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnsureProfile ensures a profile entry exists and returns it.
func (r *Registry) EnsureProfile(name string) *Profile {
	if r.Profiles == nil {
		r.Profiles = make(map[string]*Profile)
	}
	if p, ok := r.Profiles[name]; ok {
		return p
	}
	p := &Profile{}
	r.Profiles[name] = p
	return p
}

// SetProfileValue sets one profile key from its string form, as typed on
// the command line.
func (r *Registry) SetProfileValue(name, key, value string) error {
	p := r.EnsureProfile(name)

	switch key {
	case "base_url":
		p.BaseURL = strings.TrimRight(value, "/")
	case "username":
		p.Username = value
	case "timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("timeout_seconds must be a non-negative integer, got %q", value)
		}
		p.TimeoutSeconds = n
	case "http_proxy":
		p.HTTPProxy = value
	case "insecure_skip_verify":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("insecure_skip_verify must be true or false, got %q", value)
		}
		p.InsecureSkipVerify = b
	case "concurrent_refresh":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("concurrent_refresh must be true or false, got %q", value)
		}
		p.ConcurrentRefresh = b
	default:
		return fmt.Errorf("unknown profile key %q (valid: %s)", key, strings.Join(ProfileKeys, ", "))
	}
	return nil
}

// SetOutputFormat records the preferred output format.
func (r *Registry) SetOutputFormat(format string) error {
	for _, f := range OutputFormats {
		if f == format {
			r.ensurePreferences().OutputFormat = format
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q (valid: %s)", format, strings.Join(OutputFormats, ", "))
}

func (r *Registry) ensurePreferences() *Preferences {
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	return r.Preferences
}

// GetDevice retrieves device metadata by serial number.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(serial string) *Device {
	return r.Devices[serial]
}

// EnsureDevice ensures a device entry exists in the registry.
func (r *Registry) EnsureDevice(serial string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[serial]; exists {
		return device
	}

	device := &Device{}
	r.Devices[serial] = device
	return device
}

// UpdateDeviceLastSeen records that a login discovered the device.
func (r *Registry) UpdateDeviceLastSeen(serial, kind string) {
	device := r.EnsureDevice(serial)
	device.LastSeen = time.Now()
	device.Kind = kind
}

// SetDeviceNickname sets a user-friendly nickname for a device.
func (r *Registry) SetDeviceNickname(serial, nickname string) {
	device := r.EnsureDevice(serial)
	device.Nickname = nickname
}

// Nickname returns the nickname stored for serial, or "".
func (r *Registry) Nickname(serial string) string {
	if d := r.GetDevice(serial); d != nil {
		return d.Nickname
	}
	return ""
}

// SetZoneLabel sets the local label of a faucet zone.
func (r *Registry) SetZoneLabel(faucetSerial string, zoneID int, label, icon string) {
	device := r.EnsureDevice(faucetSerial)
	if device.Zones == nil {
		device.Zones = make(map[int]*ZoneTag)
	}
	device.Zones[zoneID] = &ZoneTag{Label: label, Icon: icon}
}

// ZoneLabel returns the local label of a faucet zone, prefixed by its icon,
// or "" when none is set.
func (r *Registry) ZoneLabel(faucetSerial string, zoneID int) string {
	d := r.GetDevice(faucetSerial)
	if d == nil || d.Zones[zoneID] == nil {
		return ""
	}
	tag := d.Zones[zoneID]
	if tag.Icon == "" {
		return tag.Label
	}
	return strings.TrimSpace(tag.Icon + " " + tag.Label)
}
