// Package config loads ideconfy settings from TOML or YAML files.
//
// A configuration file has four sections:
//
//	[canvas]   geometry and limits of the placement canvas
//	[render]   default grid size, SVG scale and raster formats
//	[cache]    artifact cache backend (file, redis or none)
//	[server]   HTTP listen address and timeouts
//
// Every field is optional. Load applies defaults to missing fields and
// validates the result, so callers always receive a usable Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/etulastrada/ideconfy/pkg/canvas"
	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
	"github.com/etulastrada/ideconfy/pkg/render"
)

// AppName names the XDG config and cache subdirectories.
const AppName = "ideconfy"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// =============================================================================
// Config Types
// =============================================================================

// Config is the complete ideconfy configuration.
type Config struct {
	Canvas canvas.Config `toml:"canvas" yaml:"canvas"`
	Render RenderConfig  `toml:"render" yaml:"render"`
	Cache  CacheConfig   `toml:"cache" yaml:"cache"`
	Server ServerConfig  `toml:"server" yaml:"server"`
}

// RenderConfig sets render defaults shared by the CLI and the server.
type RenderConfig struct {
	Size    int      `toml:"size" yaml:"size"`
	Scale   float64  `toml:"scale" yaml:"scale"`
	Formats []string `toml:"formats" yaml:"formats"`
}

// CacheConfig selects and configures the artifact cache.
type CacheConfig struct {
	Backend  string `toml:"backend" yaml:"backend"` // file, redis or none
	Dir      string `toml:"dir" yaml:"dir"`
	RedisURL string `toml:"redis_url" yaml:"redis_url"`
	Prefix   string `toml:"prefix" yaml:"prefix"`

	// TTL overrides the artifact TTL. Go duration syntax, e.g. "24h".
	TTL string `toml:"ttl" yaml:"ttl"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`

	// Timeouts use Go duration syntax, e.g. "10s".
	ReadTimeout     string `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MaxCanvases bounds the canvases held in memory.
	MaxCanvases int `toml:"max_canvases" yaml:"max_canvases"`
}

// =============================================================================
// Defaults
// =============================================================================

const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxCanvases     = 1000
)

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields in every section.
func (c *Config) SetDefaults() {
	c.Canvas.SetDefaults()

	if c.Render.Size == 0 {
		c.Render.Size = identicon.DefaultSize
	}
	if c.Render.Scale == 0 {
		c.Render.Scale = render.CanvasScale
	}
	if len(c.Render.Formats) == 0 {
		c.Render.Formats = []string{string(render.FormatSVG)}
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.MaxCanvases == 0 {
		c.Server.MaxCanvases = DefaultMaxCanvases
	}
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := c.Canvas.Validate(); err != nil {
		return err
	}
	if err := identicon.ValidateSize(c.Render.Size); err != nil {
		return err
	}
	if !(c.Render.Scale > 0) {
		return errors.New(errors.ErrCodeInvalidConfig, "render.scale must be positive, got %g", c.Render.Scale)
	}
	for _, f := range c.Render.Formats {
		if _, err := render.ParseFormat(f); err != nil {
			return err
		}
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if err := errors.ValidateRedisURL(c.Cache.RedisURL); err != nil {
			return err
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}

	if c.Server.MaxCanvases < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.max_canvases must not be negative, got %d", c.Server.MaxCanvases)
	}

	for name, v := range map[string]string{
		"cache.ttl":               c.Cache.TTL,
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if _, err := parseDuration(v, 0); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", name)
		}
	}
	return nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads a configuration file, choosing the decoder by extension
// (.toml, .yaml or .yml). Defaults are applied and the result validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config")
	}

	var c Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", filepath.Base(path))
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}

	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOrDefault loads path when it is non-empty. Otherwise it loads the
// default config file if one exists, and falls back to Default.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return Default(), nil
	}
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return Default(), nil
}

// =============================================================================
// Durations
// =============================================================================

// ArtifactTTL returns the configured artifact TTL or fallback.
func (c CacheConfig) ArtifactTTL(fallback time.Duration) time.Duration {
	d, _ := parseDuration(c.TTL, fallback)
	return d
}

// Timeouts returns the read, write and shutdown timeouts.
func (s ServerConfig) Timeouts() (read, write, shutdown time.Duration) {
	read, _ = parseDuration(s.ReadTimeout, DefaultReadTimeout)
	write, _ = parseDuration(s.WriteTimeout, DefaultWriteTimeout)
	shutdown, _ = parseDuration(s.ShutdownTimeout, DefaultShutdownTimeout)
	return read, write, shutdown
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback, err
	}
	if d < 0 {
		return fallback, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// =============================================================================
// Paths
// =============================================================================

// ConfigDir returns the config directory using XDG (~/.config/ideconfy/).
func ConfigDir() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the cache directory using XDG (~/.cache/ideconfy/).
func CacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// ResolveCacheDir returns the configured cache directory, defaulting to
// CacheDir.
func (c CacheConfig) ResolveCacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	return CacheDir()
}
