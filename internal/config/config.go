// ABOUTME: whoop configuration: OAuth client credentials, API endpoints, cache and loop settings.
// ABOUTME: Loaded from a JSON file, then .env and WHOOP_* environment variables override it.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultRedirectURI    = "http://localhost:3100"
	DefaultBaseURL        = "https://api.prod.whoop.com"
	DefaultAuthURL        = "https://api.prod.whoop.com/oauth/oauth2/auth"
	DefaultCapacity       = 5
	DefaultTickInterval   = 90 * time.Second
	DefaultRequestTimeout = 15 * time.Second
	DefaultListenAddr     = "127.0.0.1:3100"
	DefaultLogLevel       = "info"
)

// Duration is a time.Duration written as a string like "90s" in JSON.
type Duration time.Duration

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration must be a string or seconds: %s", string(b))
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// Config stores whoop tool configuration.
type Config struct {
	// ClientID and ClientSecret identify the registered WHOOP developer app.
	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`

	// RedirectURI must match the app registration. Defaults to the local control server.
	RedirectURI string `json:"redirect_uri,omitempty"`

	BaseURL string `json:"base_url,omitempty"`
	AuthURL string `json:"auth_url,omitempty"`

	// Capacity is the number of records kept per variant.
	Capacity int `json:"capacity,omitempty"`

	TickInterval   Duration `json:"tick_interval,omitempty"`
	RequestTimeout Duration `json:"request_timeout,omitempty"`

	// ListenAddr is the local control server address.
	ListenAddr string `json:"listen_addr,omitempty"`

	// RefreshToken seeds the token manager at startup.
	RefreshToken string `json:"refresh_token,omitempty"`

	// PersistTokens writes each new refresh token back to the config file.
	PersistTokens bool `json:"persist_tokens,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
}

// GetRedirectURI returns the redirect URI, defaulting to the control server.
func (c *Config) GetRedirectURI() string {
	if c.RedirectURI == "" {
		return DefaultRedirectURI
	}
	return c.RedirectURI
}

// GetBaseURL returns the API host.
func (c *Config) GetBaseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// GetAuthURL returns the authorization page URL.
func (c *Config) GetAuthURL() string {
	if c.AuthURL == "" {
		return DefaultAuthURL
	}
	return c.AuthURL
}

// GetCapacity returns the per-variant record capacity.
func (c *Config) GetCapacity() int {
	if c.Capacity <= 0 {
		return DefaultCapacity
	}
	return c.Capacity
}

// GetTickInterval returns the loop interval.
func (c *Config) GetTickInterval() time.Duration {
	if c.TickInterval <= 0 {
		return DefaultTickInterval
	}
	return time.Duration(c.TickInterval)
}

// GetRequestTimeout returns the per-request timeout.
func (c *Config) GetRequestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeout)
}

// GetListenAddr returns the control server address.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// GetLogLevel returns the log level name.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}

// Validate reports settings the API cannot work without.
func (c *Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client_id (WHOOP_CLIENT_ID)")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client_secret (WHOOP_CLIENT_SECRET)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// envOverrides maps environment variables onto config fields.
var envOverrides = map[string]func(*Config, string){
	"WHOOP_CLIENT_ID":     func(c *Config, v string) { c.ClientID = v },
	"WHOOP_CLIENT_SECRET": func(c *Config, v string) { c.ClientSecret = v },
	"WHOOP_REDIRECT_URI":  func(c *Config, v string) { c.RedirectURI = v },
	"WHOOP_BASE_URL":      func(c *Config, v string) { c.BaseURL = v },
	"WHOOP_AUTH_URL":      func(c *Config, v string) { c.AuthURL = v },
	"WHOOP_LISTEN_ADDR":   func(c *Config, v string) { c.ListenAddr = v },
	"WHOOP_REFRESH_TOKEN": func(c *Config, v string) { c.RefreshToken = v },
	"WHOOP_LOG_LEVEL":     func(c *Config, v string) { c.LogLevel = v },
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for key, set := range envOverrides {
		if v := getenv(key); v != "" {
			set(c, v)
		}
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// GetConfigPath returns the config file path. WHOOP_CONFIG overrides the
// XDG location.
func GetConfigPath() string {
	if p := os.Getenv("WHOOP_CONFIG"); p != "" {
		return ExpandPath(p)
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "whoop", "config.json")
}

// Load reads .env, the config file and the environment, in that order of
// increasing precedence.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string) (*Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := LoadFile(ExpandPath(path))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// LoadFile reads config from path. A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes config to path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// SaveRefreshToken stores token in the file at path without writing any
// values that came from the environment.
func SaveRefreshToken(path, token string) error {
	cfg, err := LoadFile(path)
	if err != nil {
		return err
	}
	cfg.RefreshToken = token
	return cfg.SaveTo(path)
}
