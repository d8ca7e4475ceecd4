package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/dlgview/internal/text"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, 150.0, cfg.WheelRadius)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, text.Male, cfg.Gender())
	assert.NoError(t, cfg.Validate())
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("data_dir: /games/da2\nplayer_gender: female\nlog:\n  format: json\n"))
	require.NoError(t, err)

	assert.Equal(t, "/games/da2", cfg.DataDir)
	assert.Equal(t, filepath.Join("/games/da2", "tlk.db"), cfg.TlkDB)
	assert.Equal(t, text.Female, cfg.Gender())
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join("/games/da2", "plo_727", "plots.csv"), cfg.DataPath(cfg.PlotsCSV))
	assert.Equal(t, "/abs/x.csv", cfg.DataPath("/abs/x.csv"))
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("cache_size: [1"))
	assert.Error(t, err)
}

func TestValidateAggregates(t *testing.T) {
	cfg := Default()
	cfg.PlayerGender = "robot"
	cfg.CacheSize = -1
	cfg.WheelRadius = -5
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "config validation errors:")
	assert.Contains(t, msg, "player_gender")
	assert.Contains(t, msg, "cache_size")
	assert.Contains(t, msg, "wheel_radius")
	assert.Contains(t, msg, "log.level")
	assert.Contains(t, msg, "log.format")
	assert.Equal(t, text.Male, cfg.Gender())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.WheelRadius = 90
	require.NoError(t, Save(filepath.Join(dir, FileName), cfg))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.WheelRadius)
}

func TestLoaderReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("wheel_radius: 100\n"), 0644))

	l, err := NewLoader(path)
	require.NoError(t, err)
	assert.Equal(t, 100.0, l.Config().WheelRadius)

	var seen []float64
	l.OnChange(func(c *Config) { seen = append(seen, c.WheelRadius) })

	require.NoError(t, os.WriteFile(path, []byte("wheel_radius: 120\n"), 0644))
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.WheelRadius)
	assert.Equal(t, []float64{120}, seen)

	require.NoError(t, os.WriteFile(path, []byte("cache_size: -3\n"), 0644))
	_, err = l.Reload()
	assert.Error(t, err)
	assert.Equal(t, 120.0, l.Config().WheelRadius, "invalid edits keep the previous config")
}

func TestLoaderWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("player_gender: male\n"), 0644))

	l, err := NewLoader(path)
	require.NoError(t, err)

	changed := make(chan *Config, 4)
	l.OnChange(func(c *Config) { changed <- c })

	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("player_gender: female\n"), 0644))

	// A single write can surface as several events; wait for the final content.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Gender() == text.Female {
				return
			}
		case <-deadline:
			t.Fatal("config change not observed")
		}
	}
}

func TestNewLoaderMissing(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
