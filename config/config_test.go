package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdb/bill-engine/config"
)

func TestLoad_MissingFile_UsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bills.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
db_path: /tmp/test-bills.db
reminder:
  send_hour: 18
  send_minute: 30
  snooze_days: 2
sweep:
  enabled: false
  interval_min: 15
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/test-bills.db", cfg.DBPath)
	assert.Equal(t, 18, cfg.Reminder.SendHour)
	assert.Equal(t, 30, cfg.Reminder.SendMinute)
	assert.Equal(t, 2, cfg.Reminder.SnoozeDays)
	assert.False(t, cfg.Sweep.Enabled)
	assert.Equal(t, 15, cfg.Sweep.IntervalMin)
}

func TestLoad_PartialYAML_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bills.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 3000\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "bills.db", cfg.DBPath)
	assert.Equal(t, 9, cfg.Reminder.SendHour)
	assert.True(t, cfg.Sweep.Enabled)
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"send hour out of range", "reminder:\n  send_hour: 24\n"},
		{"send minute out of range", "reminder:\n  send_minute: 75\n"},
		{"snooze days below one", "reminder:\n  snooze_days: 0\n"},
		{"sweep interval below one", "sweep:\n  interval_min: 0\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bills.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.yaml), 0o644))

			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}
