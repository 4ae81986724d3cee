package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// marking
	DefaultFrequency = 50
	DefaultOpacity   = 0.08
	MarkPaddingX     = 10
	MarkPaddingY     = 20

	// ffmpeg
	DefaultFFmpeg      = "ffmpeg"
	DefaultFFprobe     = "ffprobe"
	DefaultQuality     = 2 // -q:v for jpeg frames, 2 is near lossless
	DefaultEncoder     = "h264_qsv"
	DefaultPixelFormat = "yuv420p"
	DefaultFrameRate   = 30

	// frames on disk
	FramePrefix = "frame_"
	FrameExt    = ".jpg"
	FrameDigits = 8

	// runner keeps at least this many trailing lines for error reports
	TailLines = 20

	// re-encode quality when writing marked frames back, close to ffmpeg -q:v 2
	FrameJPEGQuality = 95

	// Path
	PathWorkDir = "tmp/frames"
	PathLedger  = "tracemark.db"
)

// Config holds runtime settings. Env vars are read first, cli flags override them.
type Config struct {
	FFmpeg      string        `env:"TRACEMARK_FFMPEG"       envDefault:"ffmpeg"`
	FFprobe     string        `env:"TRACEMARK_FFPROBE"      envDefault:"ffprobe"`
	Encoder     string        `env:"TRACEMARK_ENCODER"      envDefault:"h264_qsv"`
	PixelFormat string        `env:"TRACEMARK_PIX_FMT"      envDefault:"yuv420p"`
	Quality     int           `env:"TRACEMARK_QUALITY"      envDefault:"2"`
	Frequency   int           `env:"TRACEMARK_FREQUENCY"    envDefault:"50"`
	Opacity     float64       `env:"TRACEMARK_OPACITY"      envDefault:"0.08"`
	Workers     int           `env:"TRACEMARK_WORKERS"      envDefault:"0"`
	WorkDir     string        `env:"TRACEMARK_WORKDIR"      envDefault:"tmp/frames"`
	Ledger      string        `env:"TRACEMARK_LEDGER"       envDefault:"tracemark.db"`
	ToolTimeout time.Duration `env:"TRACEMARK_TOOL_TIMEOUT" envDefault:"0s"`
	Strict      bool          `env:"TRACEMARK_STRICT"       envDefault:"false"`
}

func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Frequency < 1 {
		return fmt.Errorf("frequency must be >= 1, got %d", c.Frequency)
	}
	if c.Opacity < 0 || c.Opacity > 1 {
		return fmt.Errorf("opacity must be within [0, 1], got %v", c.Opacity)
	}
	if c.Quality < 1 || c.Quality > 31 {
		return fmt.Errorf("quality must be within [1, 31], got %d", c.Quality)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.WorkDir == "" {
		return fmt.Errorf("work dir is required")
	}
	return nil
}
