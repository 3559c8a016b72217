// Package config loads screening-watch settings.
//
// Settings are layered, later sources winning:
//
//  1. built-in defaults
//  2. a TOML file (optional)
//  3. a .env file (optional)
//  4. process environment variables
//
// Environment variables carry the SCREENINGS_ prefix:
//
//   - SCREENINGS_URL: page to watch
//   - SCREENINGS_DESTINATION_EMAIL: notification recipient
//   - SCREENINGS_KEYWORDS: comma-separated title keywords
//   - SCREENINGS_INTERVAL: time between runs, as a Go duration (default: 1m)
//   - SCREENINGS_DATA_DIR: snapshot directory
//   - SCREENINGS_LOG_LEVEL: DEBUG, INFO, WARN or ERROR (default: INFO)
//   - SCREENINGS_DRY_RUN: print notifications instead of sending them
//   - SCREENINGS_GMAIL_CREDENTIALS_FILE, SCREENINGS_GMAIL_TOKEN_FILE,
//     SCREENINGS_GMAIL_REFRESH_TOKEN, SCREENINGS_GMAIL_FROM: Gmail API access
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/pfrederiksen/screening-watch/internal/logger"
	"github.com/pfrederiksen/screening-watch/internal/scraper"
)

const (
	// EnvPrefix is prepended to every environment variable name
	EnvPrefix = "SCREENINGS_"

	DefaultInterval = time.Minute
	DefaultDataDir  = "~/.local/share/screening-watch"
	DefaultEnvFile  = ".env"

	minInterval = time.Second
)

// Config holds all application configuration
type Config struct {
	URL              string        `toml:"url" env:"URL"`
	DestinationEmail string        `toml:"destination_email" env:"DESTINATION_EMAIL"`
	Keywords         []string      `toml:"keywords" env:"KEYWORDS" envSeparator:","`
	Interval         time.Duration `toml:"-" env:"INTERVAL"`
	DataDir          string        `toml:"data_dir" env:"DATA_DIR"`
	LogLevel         string        `toml:"log_level" env:"LOG_LEVEL"`
	DryRun           bool          `toml:"dry_run" env:"DRY_RUN"`

	Gmail GmailConfig `toml:"gmail" envPrefix:"GMAIL_"`
}

// GmailConfig holds Gmail API credentials
type GmailConfig struct {
	CredentialsFile string `toml:"credentials_file" env:"CREDENTIALS_FILE"`
	TokenFile       string `toml:"token_file" env:"TOKEN_FILE"`
	RefreshToken    string `toml:"refresh_token" env:"REFRESH_TOKEN"`
	From            string `toml:"from" env:"FROM"`
}

// fileInterval picks the interval out of the TOML file, where it is written
// as a duration string such as "5m"
type fileInterval struct {
	Interval string `toml:"interval"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		URL:      scraper.DefaultURL,
		Interval: DefaultInterval,
		DataDir:  DefaultDataDir,
		LogLevel: string(logger.LevelInfo),
	}
}

// Loader reads configuration from its sources. The zero value reads only
// the process environment.
type Loader struct {
	// ConfigFile is a TOML file; it must exist when set
	ConfigFile string
	// EnvFile is a dotenv file; a missing file is ignored
	EnvFile string
	// Environ overrides os.Environ, mainly for tests
	Environ []string
}

// Load reads the TOML file at path (when non-empty), then .env in the
// working directory, then the environment
func Load(path string) (*Config, error) {
	return Loader{ConfigFile: path, EnvFile: DefaultEnvFile}.Load()
}

// Load builds a Config from defaults and the loader's sources
func (l Loader) Load() (*Config, error) {
	cfg := Default()

	if l.ConfigFile != "" {
		if err := decodeFile(l.ConfigFile, cfg); err != nil {
			return nil, err
		}
	}

	environment, err := l.environment()
	if err != nil {
		return nil, err
	}

	if err := env.Parse(cfg, env.Options{Prefix: EnvPrefix, Environment: environment}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.Keywords = cleanKeywords(cfg.Keywords)
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	var fi fileInterval
	if err := toml.Unmarshal(data, &fi); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if fi.Interval != "" {
		d, err := time.ParseDuration(fi.Interval)
		if err != nil {
			return fmt.Errorf("parsing interval %q: %w", fi.Interval, err)
		}
		cfg.Interval = d
	}

	return nil
}

// environment merges the dotenv file under the process environment
func (l Loader) environment() (map[string]string, error) {
	result := make(map[string]string)

	if l.EnvFile != "" {
		values, err := godotenv.Read(l.EnvFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", l.EnvFile, err)
		}
		for k, v := range values {
			result[k] = v
		}
	}

	environ := l.Environ
	if environ == nil {
		environ = os.Environ()
	}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			result[k] = v
		}
	}

	return result, nil
}

func cleanKeywords(words []string) []string {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	return cleaned
}

// Validate checks that the configuration can drive a run
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q must be an absolute http(s) URL", c.URL)
	}

	if c.Interval < minInterval {
		return fmt.Errorf("interval %s is below the minimum of %s", c.Interval, minInterval)
	}

	if !c.DryRun && strings.TrimSpace(c.DestinationEmail) == "" {
		return errors.New("destination email is required unless dry-run is enabled")
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}

// Level returns the parsed log level, falling back to INFO
func (c *Config) Level() logger.Level {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}
