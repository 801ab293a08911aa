// Package config loads service configuration from YAML, .env files and the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of the server and the feedwatch client
type Config struct {
	Server     Server     `yaml:"server"`
	Database   Database   `yaml:"database"`
	Realtime   Realtime   `yaml:"realtime"`
	Engagement Engagement `yaml:"engagement"`
	Feed       Feed       `yaml:"feed"`
	Client     Client     `yaml:"client"`
	Logging    Logging    `yaml:"logging"`
}

// Server configures the HTTP surface
type Server struct {
	SessionSecret string    `yaml:"session_secret"`
	RateLimit     RateLimit `yaml:"rate_limit"`
	Port          int       `yaml:"port"`
	// TrustViewerHeader accepts X-Quad-User from clients without a session cookie
	TrustViewerHeader bool `yaml:"trust_viewer_header"`
}

// RateLimit is a per-client request budget
type RateLimit struct {
	Window   time.Duration `yaml:"window"`
	Requests int           `yaml:"requests"`
}

// Database configures Postgres
type Database struct {
	URL string `yaml:"url"`
	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string `yaml:"migrations_dir"`
}

// Realtime configures the post change stream
type Realtime struct {
	Channel        string        `yaml:"channel"`
	WSURL          string        `yaml:"ws_url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// Engagement configures like toggling
type Engagement struct {
	TogglePolicy string `yaml:"toggle_policy"`
}

// Feed configures feed views
type Feed struct {
	PageSize   int `yaml:"page_size"`
	Tombstones int `yaml:"tombstones"`
}

// Client configures the remote client
type Client struct {
	BaseURL string `yaml:"base_url"`
	UserID  string `yaml:"user_id"`
}

// Logging configures the slog handler
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MinSessionSecretLength is the minimum cookie signing key size
const MinSessionSecretLength = 32

// Load reads the optional YAML file at path, applies defaults and
// environment overrides, then validates. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Server.RateLimit.Requests == 0 {
		cfg.Server.RateLimit.Requests = 100
	}
	if cfg.Server.RateLimit.Window == 0 {
		cfg.Server.RateLimit.Window = time.Minute
	}
	if cfg.Realtime.Channel == "" {
		cfg.Realtime.Channel = "post_changes"
	}
	if cfg.Realtime.ReconnectDelay == 0 {
		cfg.Realtime.ReconnectDelay = 5 * time.Second
	}
	if cfg.Engagement.TogglePolicy == "" {
		cfg.Engagement.TogglePolicy = "queue"
	}
	if cfg.Feed.PageSize == 0 {
		cfg.Feed.PageSize = 50
	}
	if cfg.Feed.Tombstones == 0 {
		cfg.Feed.Tombstones = 4096
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func applyEnvOverrides(cfg *Config) error {
	if port := os.Getenv("QUAD_PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("QUAD_PORT: %w", err)
		}
		cfg.Server.Port = n
	}
	if trust := os.Getenv("QUAD_TRUST_VIEWER_HEADER"); trust != "" {
		b, err := strconv.ParseBool(trust)
		if err != nil {
			return fmt.Errorf("QUAD_TRUST_VIEWER_HEADER: %w", err)
		}
		cfg.Server.TrustViewerHeader = b
	}
	if secret := os.Getenv("QUAD_SESSION_SECRET"); secret != "" {
		cfg.Server.SessionSecret = secret
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if dir := os.Getenv("QUAD_MIGRATIONS_DIR"); dir != "" {
		cfg.Database.MigrationsDir = dir
	}
	if channel := os.Getenv("QUAD_REALTIME_CHANNEL"); channel != "" {
		cfg.Realtime.Channel = channel
	}
	if wsURL := os.Getenv("QUAD_REALTIME_WS_URL"); wsURL != "" {
		cfg.Realtime.WSURL = wsURL
	}
	if policy := os.Getenv("QUAD_TOGGLE_POLICY"); policy != "" {
		cfg.Engagement.TogglePolicy = policy
	}
	if baseURL := os.Getenv("QUAD_API_URL"); baseURL != "" {
		cfg.Client.BaseURL = baseURL
	}
	if user := os.Getenv("QUAD_USER"); user != "" {
		cfg.Client.UserID = user
	}
	if level := os.Getenv("QUAD_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	return nil
}

// ValidateServer checks the settings the server needs
func (c *Config) ValidateServer() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url is required (DATABASE_URL)")
	}
	if len(c.Server.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("session secret must be at least %d bytes (QUAD_SESSION_SECRET)", MinSessionSecretLength)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.RateLimit.Requests < 1 || c.Server.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit must allow at least one request per positive window")
	}
	return c.validateCommon()
}

// ValidateClient checks the settings a remote client needs
func (c *Config) ValidateClient() error {
	if c.Client.BaseURL == "" {
		return fmt.Errorf("client base url is required (QUAD_API_URL)")
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	switch strings.ToLower(c.Engagement.TogglePolicy) {
	case "queue", "reject":
	default:
		return fmt.Errorf("engagement.toggle_policy must be queue or reject, got %q", c.Engagement.TogglePolicy)
	}
	if c.Feed.PageSize < 1 {
		return fmt.Errorf("feed.page_size must be positive")
	}
	if c.Feed.Tombstones < 1 {
		return fmt.Errorf("feed.tombstones must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// StreamURL returns the websocket URL of the post change stream
func (c *Config) StreamURL() string {
	if c.Realtime.WSURL != "" {
		return c.Realtime.WSURL
	}
	base := c.Client.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return strings.TrimSuffix(base, "/") + "/api/realtime/posts"
}
