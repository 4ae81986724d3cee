package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"

	cfg "github.com/1F47E/go-tracemark/internal/config"
	"github.com/1F47E/go-tracemark/internal/logger"
	"github.com/1F47E/go-tracemark/internal/runner"
	"github.com/1F47E/go-tracemark/internal/storage"
)

var DefaultRate = Rate{Num: cfg.DefaultFrameRate, Den: 1}

// Runner is the part of runner.Runner the video tools need.
type Runner interface {
	Run(ctx context.Context, c runner.Command) (*runner.Result, error)
	Output(ctx context.Context, name string, args ...string) (string, error)
}

type Tools struct {
	FFmpeg      string
	FFprobe     string
	Encoder     string
	PixelFormat string
	Quality     int
}

func ToolsFromConfig(c *cfg.Config) Tools {
	return Tools{
		FFmpeg:      c.FFmpeg,
		FFprobe:     c.FFprobe,
		Encoder:     c.Encoder,
		PixelFormat: c.PixelFormat,
		Quality:     c.Quality,
	}
}

func DefaultTools() Tools {
	return Tools{
		FFmpeg:      cfg.DefaultFFmpeg,
		FFprobe:     cfg.DefaultFFprobe,
		Encoder:     cfg.DefaultEncoder,
		PixelFormat: cfg.DefaultPixelFormat,
		Quality:     cfg.DefaultQuality,
	}
}

type Video struct {
	runner Runner
	tools  Tools
}

func New(r Runner, t Tools) *Video {
	return &Video{runner: r, tools: t}
}

// Handle points at a container on disk. Its facts are queried on every
// call since the file may change between calls.
type Handle struct {
	Path  string
	video *Video
}

func (v *Video) Open(path string) *Handle {
	return &Handle{Path: path, video: v}
}

// FrameRate returns the average rate of the first video stream, DefaultRate if unknown.
func (h *Handle) FrameRate(ctx context.Context) Rate {
	log := logger.Scope("probe")
	out, err := h.video.runner.Output(ctx, h.video.tools.FFprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate",
		"-of", "default=noprint_wrappers=1:nokey=1",
		h.Path,
	)
	if err != nil {
		log.Warnf("Could not determine FPS for %s, using default of %s: %v", h.Path, DefaultRate, err)
		return DefaultRate
	}
	rate, err := ParseRate(out)
	if err != nil {
		log.Warnf("Could not determine FPS for %s, using default of %s: %v", h.Path, DefaultRate, err)
		return DefaultRate
	}
	return rate
}

// FrameCount decodes the first video stream to count frames. 0 means unknown.
func (h *Handle) FrameCount(ctx context.Context) int {
	log := logger.Scope("probe")
	out, err := h.video.runner.Output(ctx, h.video.tools.FFprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_frames",
		"-show_entries", "stream=nb_read_frames",
		"-of", "default=noprint_wrappers=1:nokey=1",
		h.Path,
	)
	if err != nil {
		log.Warnf("Could not determine total frames for %s: %v", h.Path, err)
		return 0
	}
	n, err := strconv.Atoi(out)
	if err != nil || n < 0 {
		log.Warnf("Could not determine total frames for %s: unexpected output %q", h.Path, out)
		return 0
	}
	return n
}

// Resolution returns the frame size of the first video stream.
func (h *Handle) Resolution(ctx context.Context) (image.Point, error) {
	out, err := h.video.runner.Output(ctx, h.video.tools.FFprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		h.Path,
	)
	if err != nil {
		return image.Point{}, fmt.Errorf("probe resolution: %w", err)
	}
	var w, ht int
	if _, err := fmt.Sscanf(out, "%dx%d", &w, &ht); err != nil || w <= 0 || ht <= 0 {
		return image.Point{}, fmt.Errorf("probe resolution: unexpected output %q", out)
	}
	return image.Pt(w, ht), nil
}

// Extract decomposes the video into numbered jpeg frames in dir.
// dir is wiped first.
func (v *Video) Extract(ctx context.Context, h *Handle, dir string) ([]storage.Frame, error) {
	log := logger.Scope("extract")
	if err := storage.ResetDir(dir); err != nil {
		return nil, err
	}

	total := h.FrameCount(ctx)
	if total == 0 {
		log.Warn("Could not determine total frames, progress is indeterminate")
	}
	if err := storage.CheckCapacity(total); err != nil {
		return nil, err
	}

	_, err := v.runner.Run(ctx, runner.Command{
		Name: v.tools.FFmpeg,
		Args: []string{
			"-y",
			"-i", h.Path,
			"-q:v", strconv.Itoa(v.tools.Quality),
			storage.FramePattern(dir),
		},
		Description: "Extracting Frames",
		Total:       total,
	})
	if err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}

	frames, err := storage.ScanFrames(dir)
	if err != nil {
		return nil, fmt.Errorf("scan extracted frames: %w", err)
	}
	log.Debugf("extracted %d frames into %s", len(frames), dir)
	return frames, nil
}

// Reassemble encodes the frames in dir into output, replacing any existing file.
// An empty dir is left for ffmpeg to reject.
func (v *Video) Reassemble(ctx context.Context, dir, output string, rate Rate) error {
	log := logger.Scope("reassemble")
	if err := storage.RemoveFile(output); err != nil {
		return err
	}

	total, err := storage.CountFrames(dir)
	if errors.Is(err, storage.ErrFrameCapacity) {
		return err
	}
	if err != nil {
		log.Warnf("Could not count frames in %s: %v", dir, err)
		total = 0
	}
	if total == 0 {
		log.Warnf("No frames found in %s, reconstruction will likely fail", dir)
	}

	_, err = v.runner.Run(ctx, runner.Command{
		Name: v.tools.FFmpeg,
		Args: []string{
			"-y",
			"-framerate", rate.String(),
			"-i", storage.FramePattern(dir),
			"-c:v", v.tools.Encoder,
			"-pix_fmt", v.tools.PixelFormat,
			output,
		},
		Description: "Reconstructing Video",
		Total:       total,
	})
	if err != nil {
		return fmt.Errorf("reassemble video: %w", err)
	}
	return nil
}
