package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type StorageConfig struct {
	DataDir string `toml:"data_dir"`
	DBFile  string `toml:"db_file"`
}

type TMDBConfig struct {
	APIKey            string   `toml:"api_key"`
	AuthMode          string   `toml:"auth_mode"` // "", "bearer" or "query"
	BaseURL           string   `toml:"base_url"`
	ImageBaseURL      string   `toml:"image_base_url"`
	Language          string   `toml:"language"`
	IncludeAdult      bool     `toml:"include_adult"`
	Timeout           Duration `toml:"timeout"`
	CacheTTL          Duration `toml:"cache_ttl"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

type RateLimitConfig struct {
	Requests int      `toml:"requests"`
	Window   Duration `toml:"window"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type ProfileConfig struct {
	ImageDir      string `toml:"image_dir"`
	ImageMaxWidth uint   `toml:"image_max_width"`
	MaxUploadMB   int    `toml:"max_upload_mb"`
}

type ThemeConfig struct {
	Default string `toml:"default"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	TMDB      TMDBConfig      `toml:"tmdb"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Log       LogConfig       `toml:"log"`
	Profile   ProfileConfig   `toml:"profile"`
	Theme     ThemeConfig     `toml:"theme"`
}

// Duration lets TOML files say timeout = "10s"
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Default returns the configuration used when no file is present
func Default() *Config {
	var config Config

	config.Server.Host = "127.0.0.1"
	config.Server.Port = 3000

	config.Storage.DataDir = "./data"
	config.Storage.DBFile = "pipocanota.db"

	config.TMDB.BaseURL = "https://api.themoviedb.org/3"
	config.TMDB.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	config.TMDB.Language = "pt-BR"
	config.TMDB.Timeout = Duration{10 * time.Second}
	config.TMDB.CacheTTL = Duration{5 * time.Minute}
	config.TMDB.RequestsPerSecond = 20

	config.RateLimit.Requests = 100
	config.RateLimit.Window = Duration{time.Minute}

	config.Log.Level = "info"

	config.Profile.ImageDir = "profile_images"
	config.Profile.ImageMaxWidth = 512
	config.Profile.MaxUploadMB = 5

	config.Theme.Default = "light"

	return &config
}

// LoadConfig reads the TOML file at filepath on top of the defaults. A
// missing file is not an error; a malformed one is. Environment variables
// win over both.
func LoadConfig(filepath string) (*Config, error) {
	config := Default()

	if filepath != "" {
		if _, err := toml.DecodeFile(filepath, config); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config %s: %w", filepath, err)
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TMDB_API_KEY"); v != "" {
		c.TMDB.APIKey = v
	}
	if v := os.Getenv("PIPOCA_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("PIPOCA_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PIPOCA_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the values that would otherwise fail later at runtime.
// A missing TMDB key is deliberately allowed: search just returns nothing.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage data_dir is required")
	}
	switch strings.ToLower(c.TMDB.AuthMode) {
	case "", "bearer", "query":
	default:
		return fmt.Errorf("tmdb auth_mode must be bearer or query, got %q", c.TMDB.AuthMode)
	}
	switch c.Theme.Default {
	case "light", "dark":
	default:
		return fmt.Errorf("theme default must be light or dark, got %q", c.Theme.Default)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window.Duration <= 0 {
		return fmt.Errorf("ratelimit requests and window must be positive")
	}
	return nil
}

// HasTMDBKey reports whether catalog calls can be made at all
func (c *TMDBConfig) HasTMDBKey() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Addr is the listen address for the HTTP server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
