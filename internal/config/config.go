package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const (
	appName = "suiteagent"

	defaultListenAddr       = ":8080"
	defaultTokenURL         = "https://oauth2.googleapis.com/token"
	defaultTimeoutSeconds   = 30
	defaultFallbackTimezone = "UTC"
	defaultOnDemandBaseURL  = "https://api.on-demand.io/chat/v1"
	defaultOnDemandEndpoint = "predefined-openai-gpt4.1"
)

// Config holds every setting the agents need. It is resolved once at startup
// and passed to the components that need it.
type Config struct {
	ListenAddr string `toml:"listen_addr"`
	LogLevel   string `toml:"log_level"`
	// StagingDir is where uploads and downloads are staged. Empty means the OS temp dir.
	StagingDir string `toml:"staging_dir"`

	Google   GoogleConfig   `toml:"google"`
	Calendar CalendarConfig `toml:"calendar"`
	OnDemand OnDemandConfig `toml:"on_demand"`
}

// GoogleConfig holds the OAuth client and API settings shared by all Workspace services.
type GoogleConfig struct {
	ClientID              string `toml:"client_id"`
	ClientSecret          string `toml:"client_secret"`
	TokenURL              string `toml:"token_url"`
	APIEndpoint           string `toml:"api_endpoint"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`

	// Pre-configured user served by the /token endpoint.
	DefaultUserClientID     string `toml:"default_user_client_id"`
	DefaultUserRefreshToken string `toml:"default_user_refresh_token"`
}

// CalendarConfig holds calendar specific defaults.
type CalendarConfig struct {
	FallbackTimezone string `toml:"fallback_timezone"`
}

// OnDemandConfig holds the credentials and model settings for the On-Demand chat API.
type OnDemandConfig struct {
	APIKey         string   `toml:"api_key"`
	ExternalUserID string   `toml:"external_user_id"`
	BaseURL        string   `toml:"base_url"`
	EndpointID     string   `toml:"endpoint_id"`
	AgentIDs       []string `toml:"agent_ids"`
}

// RequestTimeout returns the per-call timeout for Google requests.
func (g GoogleConfig) RequestTimeout() time.Duration {
	return time.Duration(g.RequestTimeoutSeconds) * time.Second
}

// HasDefaultUser reports whether the pre-configured user is fully set up.
func (g GoogleConfig) HasDefaultUser() bool {
	return g.DefaultUserClientID != "" && g.DefaultUserRefreshToken != ""
}

// Configured reports whether the chat API key is present.
func (o OnDemandConfig) Configured() bool {
	return o.APIKey != ""
}

// DefaultPath returns the config file location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// Default returns a Config populated with built-in defaults only.
func Default() *Config {
	return &Config{
		ListenAddr: defaultListenAddr,
		LogLevel:   "info",
		Google: GoogleConfig{
			TokenURL:              defaultTokenURL,
			RequestTimeoutSeconds: defaultTimeoutSeconds,
		},
		Calendar: CalendarConfig{FallbackTimezone: defaultFallbackTimezone},
		OnDemand: OnDemandConfig{
			BaseURL:    defaultOnDemandBaseURL,
			EndpointID: defaultOnDemandEndpoint,
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file and the
// environment, in that order of precedence. An empty path means DefaultPath,
// which may be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		c.ListenAddr = ":" + port
	}
	setString(&c.ListenAddr, "LISTEN_ADDR")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.StagingDir, "STAGING_DIR")

	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.Google.TokenURL, "GOOGLE_TOKEN_URL")
	setString(&c.Google.APIEndpoint, "GOOGLE_API_ENDPOINT")
	setString(&c.Google.DefaultUserClientID, "DEFAULT_USER_CLIENT_ID")
	setString(&c.Google.DefaultUserRefreshToken, "DEFAULT_USER_REFRESH_TOKEN")
	if v := strings.TrimSpace(getenv("REQUEST_TIMEOUT_SECONDS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be a positive integer, got %q", v)
		}
		c.Google.RequestTimeoutSeconds = n
	}

	setString(&c.Calendar.FallbackTimezone, "FALLBACK_TIMEZONE")

	setString(&c.OnDemand.APIKey, "ON_DEMAND_API_KEY")
	setString(&c.OnDemand.ExternalUserID, "ON_DEMAND_EXTERNAL_USER_ID")
	setString(&c.OnDemand.BaseURL, "ON_DEMAND_BASE_URL")
	setString(&c.OnDemand.EndpointID, "ON_DEMAND_ENDPOINT_ID")
	if v := strings.TrimSpace(getenv("ON_DEMAND_AGENT_IDS")); v != "" {
		c.OnDemand.AgentIDs = splitList(v)
	}
	return nil
}

// Validate checks the settings required to serve Workspace requests and
// reports every missing one at once.
func (c *Config) Validate() error {
	var missing []string
	if c.Google.ClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if c.Google.ClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if c.Google.TokenURL == "" {
		missing = append(missing, "GOOGLE_TOKEN_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Google.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request timeout must be positive, got %d", c.Google.RequestTimeoutSeconds)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
