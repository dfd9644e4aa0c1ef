package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	perrors "github.com/zhubert/pischat/internal/errors"
	"github.com/zhubert/pischat/internal/timefmt"
)

// Defaults applied when a field is missing from the file.
const (
	DefaultServer              = "127.0.0.1"
	DefaultRequestTimeoutMs    = 1000
	DefaultPingIntervalSec     = 25
	DefaultPingTimeoutSec      = 60
	DefaultLocale              = "en"
	DefaultReconnectMaxElapsed = 5 * time.Minute

	// MaxRecentPeers bounds the recent-conversation list.
	MaxRecentPeers = 10
)

// Config holds the application configuration
type Config struct {
	Server           string `json:"server"`                       // Chat server address: host[:port] or http(s) URL
	RequestTimeoutMs int    `json:"request_timeout_ms,omitempty"` // Directory request timeout
	PingIntervalSec  int    `json:"ping_interval_sec,omitempty"`  // socket.io ping interval
	PingTimeoutSec   int    `json:"ping_timeout_sec,omitempty"`   // socket.io receive timeout

	Locale   string `json:"locale,omitempty"`   // Date/time labels: "en" or "id"
	Timezone string `json:"timezone,omitempty"` // IANA zone for day grouping; empty means local time

	ReconnectDisabled      bool `json:"reconnect_disabled,omitempty"`        // Stay offline after a dropped connection
	ReconnectMaxElapsedSec int  `json:"reconnect_max_elapsed_sec,omitempty"` // Give up reconnecting after this long; 0 uses the default

	Theme                string   `json:"theme,omitempty"`                 // UI theme name
	NotificationsEnabled bool     `json:"notifications_enabled,omitempty"` // Desktop notifications for new peer messages
	RecentPeers          []string `json:"recent_peers,omitempty"`          // Most recently opened conversations, newest first

	mu       sync.RWMutex
	filePath string

	// serverOverride comes from the command line and is never saved.
	serverOverride string
}

// configDir returns the path to the config directory
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".pischat"), nil
}

// configPath returns the path to the config file
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Default returns a config with every default filled in. It is not tied to a
// file until LoadFrom or Load.
func Default() *Config {
	cfg := &Config{}
	cfg.ensureInitialized()
	return cfg
}

// Load reads the config from ~/.pischat/config.json, or returns defaults if
// the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, perrors.ConfigLoadFailed("~/.pischat/config.json", err)
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{filePath: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.ensureInitialized()
		return cfg, nil
	}
	if err != nil {
		return nil, perrors.ConfigLoadFailed(path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, perrors.ConfigLoadFailed(path, err)
	}

	// Defaults must be filled before Validate, which only reads.
	cfg.ensureInitialized()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ensureInitialized fills zero fields with defaults. It is NOT thread-safe
// and must only run before the Config is shared.
func (c *Config) ensureInitialized() {
	if strings.TrimSpace(c.Server) == "" {
		c.Server = DefaultServer
	}
	if c.RequestTimeoutMs == 0 {
		c.RequestTimeoutMs = DefaultRequestTimeoutMs
	}
	if c.PingIntervalSec == 0 {
		c.PingIntervalSec = DefaultPingIntervalSec
	}
	if c.PingTimeoutSec == 0 {
		c.PingTimeoutSec = DefaultPingTimeoutSec
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.RecentPeers == nil {
		c.RecentPeers = []string{}
	}
}

// Validate checks that the config is usable. It is read-only; call
// ensureInitialized first if needed.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := ValidateServer(c.Server); err != nil {
		return err
	}
	if c.RequestTimeoutMs < 0 {
		return perrors.ConfigInvalid("request_timeout_ms must not be negative")
	}
	if c.PingIntervalSec < 0 || c.PingTimeoutSec < 0 {
		return perrors.ConfigInvalid("ping settings must not be negative")
	}
	if c.ReconnectMaxElapsedSec < 0 {
		return perrors.ConfigInvalid("reconnect_max_elapsed_sec must not be negative")
	}
	if _, ok := timefmt.LocaleByName(c.Locale); !ok {
		return perrors.ConfigInvalid(fmt.Sprintf("unknown locale %q", c.Locale))
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return perrors.ConfigInvalid(fmt.Sprintf("unknown timezone %q", c.Timezone))
		}
	}
	return nil
}

// ValidateServer checks a server address: a bare host[:port] or an http(s)
// URL with a host.
func ValidateServer(server string) error {
	raw := strings.TrimSpace(server)
	if raw == "" {
		return perrors.ConfigInvalid("server address is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return perrors.ConfigInvalid(fmt.Sprintf("server address %q: %v", server, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return perrors.ConfigInvalid(fmt.Sprintf("server address %q: scheme must be http or https", server))
	}
	if u.Hostname() == "" {
		return perrors.ConfigInvalid(fmt.Sprintf("server address %q has no host", server))
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	path := c.filePath
	if path == "" {
		var err error
		if path, err = configPath(); err != nil {
			return perrors.ConfigSaveFailed("~/.pischat/config.json", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return perrors.ConfigSaveFailed(path, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return perrors.ConfigSaveFailed(path, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return perrors.ConfigSaveFailed(path, err)
	}
	return nil
}

// Path returns the file the config is saved to.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.filePath != "" {
		return c.filePath
	}
	path, _ := configPath()
	return path
}

// DataDir returns the directory holding the config file and local database.
func (c *Config) DataDir() string {
	return filepath.Dir(c.Path())
}

// GetServer returns the chat server address, preferring a command-line
// override
func (c *Config) GetServer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.serverOverride != "" {
		return c.serverOverride
	}
	return c.Server
}

// OverrideServer points this run at server without changing the saved value
func (c *Config) OverrideServer(server string) error {
	if err := ValidateServer(server); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverOverride = strings.TrimSpace(server)
	return nil
}

// SetServer sets the chat server address after validating it
func (c *Config) SetServer(server string) error {
	if err := ValidateServer(server); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Server = strings.TrimSpace(server)
	return nil
}

// RequestTimeout returns the directory request timeout
func (c *Config) RequestTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// PingInterval returns the socket.io ping interval
func (c *Config) PingInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.PingIntervalSec) * time.Second
}

// PingTimeout returns how long the socket may stay silent
func (c *Config) PingTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.PingTimeoutSec) * time.Second
}

// GetLocale returns the configured locale, falling back to English
func (c *Config) GetLocale() timefmt.Locale {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if l, ok := timefmt.LocaleByName(c.Locale); ok {
		return l
	}
	return timefmt.LocaleEnglish
}

// Location returns the zone messages are grouped by day in
func (c *Config) Location() *time.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ReconnectEnabled reports whether dropped conversations are reopened
func (c *Config) ReconnectEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.ReconnectDisabled
}

// ReconnectMaxElapsed returns how long to keep reconnecting
func (c *Config) ReconnectMaxElapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ReconnectMaxElapsedSec == 0 {
		return DefaultReconnectMaxElapsed
	}
	return time.Duration(c.ReconnectMaxElapsedSec) * time.Second
}

// GetTheme returns the current theme name
func (c *Config) GetTheme() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Theme
}

// SetTheme sets the current theme name
func (c *Config) SetTheme(theme string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Theme = theme
}

// GetNotificationsEnabled returns whether desktop notifications are enabled
func (c *Config) GetNotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.NotificationsEnabled
}

// SetNotificationsEnabled sets whether desktop notifications are enabled
func (c *Config) SetNotificationsEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.NotificationsEnabled = enabled
}

// TouchRecentPeer moves peerID to the front of the recent list
func (c *Config) TouchRecentPeer(peerID string) {
	if peerID == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	recent := make([]string, 0, len(c.RecentPeers)+1)
	recent = append(recent, peerID)
	for _, id := range c.RecentPeers {
		if id != peerID {
			recent = append(recent, id)
		}
	}
	if len(recent) > MaxRecentPeers {
		recent = recent[:MaxRecentPeers]
	}
	c.RecentPeers = recent
}

// GetRecentPeers returns a copy of the recent list
func (c *Config) GetRecentPeers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	peers := make([]string, len(c.RecentPeers))
	copy(peers, c.RecentPeers)
	return peers
}

// ClearRecentPeers forgets all recent conversations. Used on logout.
func (c *Config) ClearRecentPeers() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RecentPeers = []string{}
}
