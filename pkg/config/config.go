package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	xdgAppName = "sonrisas"
	configFile = "config.yaml"
	envPrefix  = "SONRISAS"
)

type Config struct {
	API     API     `yaml:"api" mapstructure:"api"`
	Breaker Breaker `yaml:"breaker" mapstructure:"breaker"`
	Log     Log     `yaml:"log" mapstructure:"log"`
	Agenda  Agenda  `yaml:"agenda" mapstructure:"agenda"`
}

// API locates the Record Store. Tasks and helpers live behind independent
// base URLs.
type API struct {
	TareasURL    string        `yaml:"tareas_url" mapstructure:"tareas_url"`
	AyudantesURL string        `yaml:"ayudantes_url" mapstructure:"ayudantes_url"`
	Token        string        `yaml:"token,omitempty" mapstructure:"token"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// Breaker tunes the circuit breaker in front of each resource client.
type Breaker struct {
	MinRequests      uint32        `yaml:"min_requests" mapstructure:"min_requests"`
	MaxFailureRatio  float64       `yaml:"max_failure_ratio" mapstructure:"max_failure_ratio"`
	OpenTimeout      time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
	HalfOpenRequests uint32        `yaml:"half_open_requests" mapstructure:"half_open_requests"`
}

type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Agenda configures the Google Calendar export.
type Agenda struct {
	Calendar     string `yaml:"calendar" mapstructure:"calendar"`
	WorkdayStart string `yaml:"workday_start" mapstructure:"workday_start"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		API: API{
			TareasURL:    "https://unmundodesonrisas-8fbd22f1274f.herokuapp.com/tareas",
			AyudantesURL: "https://unmundodesonrisas-8fbd22f1274f.herokuapp.com/ayudantes",
			Timeout:      15 * time.Second,
		},
		Breaker: Breaker{
			MinRequests:      5,
			MaxFailureRatio:  0.6,
			OpenTimeout:      30 * time.Second,
			HalfOpenRequests: 1,
		},
		Log:    Log{Level: "info", Format: "text"},
		Agenda: Agenda{Calendar: "Sonrisas", WorkdayStart: "08:00"},
	}
}

// Dir returns the XDG configuration directory of the application.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the configuration file at path (the default path when empty),
// then applies SONRISAS_* environment overrides. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path (the default path when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return err
	}
	return encoder.Close()
}

// Set assigns a single dotted key such as "api.token" on cfg.
func Set(cfg *Config, key, value string) error {
	switch key {
	case "api.tareas_url":
		cfg.API.TareasURL = value
	case "api.ayudantes_url":
		cfg.API.AyudantesURL = value
	case "api.token":
		cfg.API.Token = value
	case "api.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		cfg.API.Timeout = d
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "agenda.calendar":
		cfg.Agenda.Calendar = value
	case "agenda.workday_start":
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("invalid workday start %q, expected HH:MM", value)
		}
		cfg.Agenda.WorkdayStart = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// every key must have a default for AutomaticEnv to see it during Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.tareas_url", d.API.TareasURL)
	v.SetDefault("api.ayudantes_url", d.API.AyudantesURL)
	v.SetDefault("api.token", d.API.Token)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("breaker.min_requests", d.Breaker.MinRequests)
	v.SetDefault("breaker.max_failure_ratio", d.Breaker.MaxFailureRatio)
	v.SetDefault("breaker.open_timeout", d.Breaker.OpenTimeout)
	v.SetDefault("breaker.half_open_requests", d.Breaker.HalfOpenRequests)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("agenda.calendar", d.Agenda.Calendar)
	v.SetDefault("agenda.workday_start", d.Agenda.WorkdayStart)
}
