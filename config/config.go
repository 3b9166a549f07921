// Package config loads server configuration from YAML with sensible
// defaults. Every knob can also be overridden by a BILLS_-prefixed
// environment variable (e.g. BILLS_PORT, BILLS_REMINDER_SEND_HOUR).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ReminderConfig holds reminder timing knobs.
type ReminderConfig struct {
	// SendHour / SendMinute set the local wall-clock time reminders
	// fire at (default 09:00).
	SendHour   int `mapstructure:"send_hour" yaml:"send_hour"`
	SendMinute int `mapstructure:"send_minute" yaml:"send_minute"`

	// SnoozeDays is how far one snooze pushes the trigger forward.
	SnoozeDays int `mapstructure:"snooze_days" yaml:"snooze_days"`
}

// SweepConfig controls the background reminder sweep.
type SweepConfig struct {
	Enabled     bool `mapstructure:"enabled" yaml:"enabled"`
	IntervalMin int  `mapstructure:"interval_min" yaml:"interval_min"`
}

// Config is the top-level application configuration.
type Config struct {
	Port     int            `mapstructure:"port" yaml:"port"`
	DBPath   string         `mapstructure:"db_path" yaml:"db_path"`
	Reminder ReminderConfig `mapstructure:"reminder" yaml:"reminder"`
	Sweep    SweepConfig    `mapstructure:"sweep" yaml:"sweep"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Port:   8080,
		DBPath: "bills.db",
		Reminder: ReminderConfig{
			SendHour:   9,
			SendMinute: 0,
			SnoozeDays: 1,
		},
		Sweep: SweepConfig{
			Enabled:     true,
			IntervalMin: 60,
		},
	}
}

// Load reads configuration from the given YAML file path. A missing
// file is not an error: defaults (plus environment overrides) apply.
func Load(path string) (Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("port", defaults.Port)
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("reminder.send_hour", defaults.Reminder.SendHour)
	v.SetDefault("reminder.send_minute", defaults.Reminder.SendMinute)
	v.SetDefault("reminder.snooze_days", defaults.Reminder.SnoozeDays)
	v.SetDefault("sweep.enabled", defaults.Sweep.Enabled)
	v.SetDefault("sweep.interval_min", defaults.Sweep.IntervalMin)

	v.SetEnvPrefix("BILLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Reminder.SendHour < 0 || c.Reminder.SendHour > 23 {
		return fmt.Errorf("reminder.send_hour must be 0-23, got %d", c.Reminder.SendHour)
	}
	if c.Reminder.SendMinute < 0 || c.Reminder.SendMinute > 59 {
		return fmt.Errorf("reminder.send_minute must be 0-59, got %d", c.Reminder.SendMinute)
	}
	if c.Reminder.SnoozeDays < 1 {
		return fmt.Errorf("reminder.snooze_days must be at least 1, got %d", c.Reminder.SnoozeDays)
	}
	if c.Sweep.IntervalMin < 1 {
		return fmt.Errorf("sweep.interval_min must be at least 1, got %d", c.Sweep.IntervalMin)
	}
	return nil
}
