package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/1F47E/go-tracemark/internal/config"
	"github.com/1F47E/go-tracemark/internal/ledger"
	"github.com/1F47E/go-tracemark/internal/logger"
	"github.com/1F47E/go-tracemark/internal/mark"
	"github.com/1F47E/go-tracemark/internal/progress"
	"github.com/1F47E/go-tracemark/internal/storage"
	"github.com/1F47E/go-tracemark/internal/video"
)

var ErrSourceMissing = errors.New("source video not found")

// Pipeline is the video side of a run, implemented by video.Video.
type Pipeline interface {
	Open(path string) *video.Handle
	Extract(ctx context.Context, h *video.Handle, dir string) ([]storage.Frame, error)
	Reassemble(ctx context.Context, dir, output string, rate video.Rate) error
}

type Recorder interface {
	Save(ctx context.Context, r ledger.Record) error
}

type Report struct {
	TotalFrames   int
	FramesMarked  int
	FramesSkipped int
	OutputPath    string
	Payload       string
	FrameRate     video.Rate
	Elapsed       time.Duration
}

func (r *Report) String() string {
	return fmt.Sprintf("Marks added to %d out of %d frames (%d skipped), output: %s, payload: %s, took %s",
		r.FramesMarked, r.TotalFrames, r.FramesSkipped, r.OutputPath, r.Payload, r.Elapsed.Round(time.Millisecond))
}

type Core struct {
	ctx      context.Context
	cfg      *config.Config
	video    Pipeline
	embedder *mark.Embedder
	reporter progress.Reporter
	recorder Recorder
}

func NewCore(ctx context.Context, c *config.Config, v Pipeline, r progress.Reporter) *Core {
	if r == nil {
		r = progress.Nop{}
	}
	return &Core{
		ctx:      ctx,
		cfg:      c,
		video:    v,
		embedder: mark.NewEmbedder(c.Opacity),
		reporter: r,
	}
}

// WithRecorder stores every successful run in the ledger.
func (c *Core) WithRecorder(r Recorder) *Core {
	c.recorder = r
	return c
}

// Mark runs extract -> mark -> reassemble for src and writes output.
// An empty payload generates a fresh one. The work dir is removed on every return path.
func (c *Core) Mark(src, output, payload string) (*Report, error) {
	log := logger.Scope("core mark")
	start := time.Now()

	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceMissing, src)
	}

	h := c.video.Open(src)
	rate := h.FrameRate(c.ctx)
	log.Infof("Detected FPS: %s", rate)

	wd, err := storage.OpenWorkDir(c.cfg.WorkDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := wd.Close(); cerr != nil {
			log.Warn(cerr)
		}
	}()

	// 1. extract frames from video
	frames, err := c.video.Extract(c.ctx, h, wd.Path)
	if err != nil {
		return nil, err
	}

	// 2. mark frames in place
	if payload == "" {
		payload = NewPayload(time.Now())
	}
	log.Infof("Using steganographic code: %s", payload)
	marked, skipped, err := c.markFrames(frames, payload)
	if err != nil {
		return nil, err
	}
	log.Infof("Watermarking complete. Marks added to %d out of %d frames.", marked, len(frames))

	// 3. reassemble, never leave a half written output behind
	if err := c.video.Reassemble(c.ctx, wd.Path, output, rate); err != nil {
		if rerr := storage.RemoveFile(output); rerr != nil {
			log.Warn(rerr)
		}
		return nil, err
	}

	report := &Report{
		TotalFrames:   len(frames),
		FramesMarked:  marked,
		FramesSkipped: skipped,
		OutputPath:    output,
		Payload:       payload,
		FrameRate:     rate,
		Elapsed:       time.Since(start),
	}
	c.record(src, report)
	return report, nil
}

// ledger failures do not fail a run that already produced its output
func (c *Core) record(src string, r *Report) {
	if c.recorder == nil {
		return
	}
	err := c.recorder.Save(c.ctx, ledger.Record{
		Payload:      r.Payload,
		Source:       src,
		Output:       r.OutputPath,
		TotalFrames:  r.TotalFrames,
		FramesMarked: r.FramesMarked,
		Frequency:    c.cfg.Frequency,
	})
	if err != nil {
		logger.Scope("core ledger").Warnf("could not record run: %v", err)
	}
}
