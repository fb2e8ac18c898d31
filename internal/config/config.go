package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment.
type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	BackendURL     string        `env:"BACKEND_URL"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"5s"`
	BackendRPS     float64       `env:"BACKEND_RPS" envDefault:"5"`

	TrackInterval  time.Duration `env:"TRACK_INTERVAL" envDefault:"5m"`
	BoredomWindow  time.Duration `env:"BOREDOM_WINDOW" envDefault:"8h"`
	RecentCap      int           `env:"RECENT_CAP" envDefault:"10"`
	MonitorWorkers int           `env:"MONITOR_WORKERS" envDefault:"4"`

	SnapshotPath     string        `env:"MEMORY_SNAPSHOT_PATH" envDefault:"data/short_memory.json"`
	SnapshotInterval time.Duration `env:"MEMORY_SNAPSHOT_INTERVAL" envDefault:"30s"`
	MemoryIdleTTL    time.Duration `env:"MEMORY_IDLE_TTL" envDefault:"0s"`

	HTTPAddr         string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"luci"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"LOG_FILE"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	OffensiveWords []string `env:"OFFENSIVE_WORDS" envSeparator:","`
}

// Load reads .env files (when present) into the environment and parses it.
func Load(files ...string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load(files...)
	return Parse(nil)
}

// Parse reads the given environment, or the process environment when environ
// is nil, and validates the result.
func Parse(environ map[string]string) (*Config, error) {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.CommandPrefix) == "" {
		errs = append(errs, errors.New("COMMAND_PREFIX must not be empty"))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT must be positive"))
	}
	if c.BackendRPS <= 0 {
		errs = append(errs, errors.New("BACKEND_RPS must be positive"))
	}
	if c.TrackInterval <= 0 {
		errs = append(errs, errors.New("TRACK_INTERVAL must be positive"))
	}
	if c.BoredomWindow <= 0 {
		errs = append(errs, errors.New("BOREDOM_WINDOW must be positive"))
	}
	if c.RecentCap <= 0 {
		errs = append(errs, errors.New("RECENT_CAP must be positive"))
	}
	if c.MonitorWorkers <= 0 {
		errs = append(errs, errors.New("MONITOR_WORKERS must be positive"))
	}
	if c.MemoryIdleTTL < 0 {
		errs = append(errs, errors.New("MEMORY_IDLE_TTL must not be negative"))
	}
	if c.MemoryIdleTTL > 0 && c.MemoryIdleTTL <= c.BoredomWindow {
		errs = append(errs, errors.New("MEMORY_IDLE_TTL must exceed BOREDOM_WINDOW"))
	}
	return errors.Join(errs...)
}

// RequireDiscord is checked only by commands that connect to Discord.
func (c *Config) RequireDiscord() error {
	if strings.TrimSpace(c.DiscordToken) == "" {
		return errors.New("DISCORD_TOKEN is not set")
	}
	return nil
}
