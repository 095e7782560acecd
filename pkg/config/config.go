// Package config loads server settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort         = "3000"
	DefaultInitialTime  = 5 * time.Minute
	DefaultTickInterval = time.Second
	DefaultTickWorkers  = 4
	DefaultNATSSubject  = "chess.events"
)

type Config struct {
	Debug bool   `yaml:"debug"`
	Port  string `yaml:"port"`

	// InitialTime is each side's allowance at game start
	InitialTime  time.Duration `yaml:"initial_time"`
	TickInterval time.Duration `yaml:"tick_interval"`
	TickWorkers  int           `yaml:"tick_workers"`

	// StaticDir, when set, is served at / for the browser client
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// NATSURL enables forwarding of game events when set
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Port:         DefaultPort,
		InitialTime:  DefaultInitialTime,
		TickInterval: DefaultTickInterval,
		TickWorkers:  DefaultTickWorkers,
		NATSSubject:  DefaultNATSSubject,
	}
}

// Load builds the configuration. path may be empty to skip the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.NATSSubject = getEnv("NATS_SUBJECT", c.NATSSubject)

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.AllowedOrigins = nil
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, origin)
			}
		}
	}

	minutes, err := getEnvAsInt("INITIAL_MINUTES", -1)
	if err != nil {
		return err
	}
	if minutes >= 0 {
		c.InitialTime = time.Duration(minutes) * time.Minute
	}

	if value := os.Getenv("TICK_INTERVAL"); value != "" {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("TICK_INTERVAL: %w", err)
		}
		c.TickInterval = d
	}

	if c.TickWorkers, err = getEnvAsInt("TICK_WORKERS", c.TickWorkers); err != nil {
		return err
	}

	return nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}
	if c.InitialTime <= 0 {
		errs = append(errs, fmt.Errorf("initial time must be positive, got %s", c.InitialTime))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %s", c.TickInterval))
	}
	if c.TickWorkers < 1 {
		errs = append(errs, fmt.Errorf("tick workers must be at least 1, got %d", c.TickWorkers))
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		errs = append(errs, errors.New("nats subject is required when nats url is set"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return intValue, nil
}
