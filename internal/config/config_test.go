package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultFrequency, c.Frequency)
	assert.Equal(t, DefaultOpacity, c.Opacity)
	assert.Equal(t, DefaultEncoder, c.Encoder)
	assert.Equal(t, DefaultPixelFormat, c.PixelFormat)
	assert.Equal(t, DefaultQuality, c.Quality)
	assert.Equal(t, PathWorkDir, c.WorkDir)
	assert.Equal(t, time.Duration(0), c.ToolTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TRACEMARK_FREQUENCY", "10")
	t.Setenv("TRACEMARK_ENCODER", "libx264")
	t.Setenv("TRACEMARK_TOOL_TIMEOUT", "90s")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, c.Frequency)
	assert.Equal(t, "libx264", c.Encoder)
	assert.Equal(t, 90*time.Second, c.ToolTimeout)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero frequency", func(c *Config) { c.Frequency = 0 }, false},
		{"opacity above one", func(c *Config) { c.Opacity = 1.5 }, false},
		{"negative opacity", func(c *Config) { c.Opacity = -0.1 }, false},
		{"quality out of range", func(c *Config) { c.Quality = 40 }, false},
		{"negative workers", func(c *Config) { c.Workers = -1 }, false},
		{"empty work dir", func(c *Config) { c.WorkDir = "" }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Load()
			require.NoError(t, err)
			tc.modify(c)
			if tc.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}
