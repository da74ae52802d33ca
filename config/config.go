package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram" yaml:"telegram"`
	Calendar  CalendarConfig  `json:"calendar" yaml:"calendar"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
	Timezone  string          `json:"timezone" yaml:"timezone"`
}

// TelegramConfig contains Bot API credentials.
type TelegramConfig struct {
	// Token can be left empty in the file and supplied via the
	// TELEGRAM_BOT_TOKEN environment variable.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// CalendarConfig contains economic calendar parameters.
type CalendarConfig struct {
	// APIKey can be left empty in the file and supplied via the
	// FCS_API_KEY environment variable.
	APIKey       string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	CachePath    string `json:"cache_path" yaml:"cache_path"`
	RiskWindow   string `json:"risk_window" yaml:"risk_window"`         // e.g. "10m"
	Retention    string `json:"retention" yaml:"retention"`             // e.g. "24h"
	Refresh      string `json:"refresh" yaml:"refresh"`                 // e.g. "4h"
	DailyRefresh string `json:"daily_refresh" yaml:"daily_refresh"`     // "HH:MM" local
	AlertLead    string `json:"alert_lead" yaml:"alert_lead"`           // e.g. "10m"
	AlertTol     string `json:"alert_tolerance" yaml:"alert_tolerance"` // e.g. "1m"
}

// JournalConfig contains persistence parameters.
type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// DashboardConfig contains the stats API parameters.
type DashboardConfig struct {
	Addr string `json:"addr" yaml:"addr"`
	// BaseURL is the public URL dashboard links are issued under.
	BaseURL  string `json:"base_url" yaml:"base_url"`
	TokenTTL string `json:"token_ttl" yaml:"token_ttl"` // e.g. "24h"
}

// LoadFromFile loads configuration from a file (YAML or JSON) and
// applies environment overrides for secrets.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("FCS_API_KEY"); v != "" {
		c.Calendar.APIKey = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required (or set TELEGRAM_BOT_TOKEN)")
	}
	if c.Calendar.APIKey == "" {
		return fmt.Errorf("calendar.api_key is required (or set FCS_API_KEY)")
	}
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	if c.Calendar.CachePath == "" {
		return fmt.Errorf("calendar.cache_path is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	for name, v := range map[string]string{
		"calendar.risk_window":     c.Calendar.RiskWindow,
		"calendar.retention":       c.Calendar.Retention,
		"calendar.refresh":         c.Calendar.Refresh,
		"calendar.alert_lead":      c.Calendar.AlertLead,
		"calendar.alert_tolerance": c.Calendar.AlertTol,
		"dashboard.token_ttl":      c.Dashboard.TokenTTL,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	if _, err := time.Parse("15:04", c.Calendar.DailyRefresh); err != nil {
		return fmt.Errorf("calendar.daily_refresh must be HH:MM: %w", err)
	}
	if c.Dashboard.Addr == "" {
		return fmt.Errorf("dashboard.addr is required")
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Duration parses a validated duration field.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// DailyRefreshClock returns the configured daily refresh hour and minute.
func (c *Config) DailyRefreshClock() (hour, minute int) {
	t, _ := time.Parse("15:04", c.Calendar.DailyRefresh)
	return t.Hour(), t.Minute()
}

// Default returns a configuration with sensible defaults. Secrets are
// intentionally empty.
func Default() *Config {
	return &Config{
		Timezone: "Europe/London",
		Calendar: CalendarConfig{
			CachePath:    "./news_cache.json",
			RiskWindow:   "10m",
			Retention:    "24h",
			Refresh:      "4h",
			DailyRefresh: "00:05",
			AlertLead:    "10m",
			AlertTol:     "1m",
		},
		Journal: JournalConfig{
			DBPath: "./journal.db",
		},
		Dashboard: DashboardConfig{
			Addr:     ":8080",
			BaseURL:  "http://localhost:8080",
			TokenTTL: "24h",
		},
	}
}
