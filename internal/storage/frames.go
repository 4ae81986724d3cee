// Frame sequence on disk
package storage

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	cfg "github.com/1F47E/go-tracemark/internal/config"
)

var (
	ErrNoFrames      = errors.New("no frames found")
	ErrFrameCapacity = errors.New("frame count exceeds frame naming capacity")
)

// MaxFrames is the largest index the fixed width names can hold.
var MaxFrames = int(math.Pow10(cfg.FrameDigits)) - 1

var frameNameRe = regexp.MustCompile(`^` + regexp.QuoteMeta(cfg.FramePrefix) + `(\d+)` + regexp.QuoteMeta(cfg.FrameExt) + `$`)

type Frame struct {
	Index int // 1-based
	Path  string
}

// UnreadableFrameError is returned when a frame file cannot be decoded.
type UnreadableFrameError struct {
	Path string
	Err  error
}

func (e *UnreadableFrameError) Error() string {
	return fmt.Sprintf("unreadable frame %s: %v", e.Path, e.Err)
}

func (e *UnreadableFrameError) Unwrap() error { return e.Err }

func FrameName(idx int) string {
	return fmt.Sprintf("%s%0*d%s", cfg.FramePrefix, cfg.FrameDigits, idx, cfg.FrameExt)
}

// FramePattern is the printf style pattern ffmpeg reads and writes.
func FramePattern(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("%s%%0%dd%s", cfg.FramePrefix, cfg.FrameDigits, cfg.FrameExt))
}

func ParseFrameName(name string) (int, bool) {
	m := frameNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil || idx < 1 {
		return 0, false
	}
	return idx, true
}

func CheckCapacity(count int) error {
	if count > MaxFrames {
		return fmt.Errorf("%w: %d frames, max %d", ErrFrameCapacity, count, MaxFrames)
	}
	return nil
}

// ScanFrames lists frame files in dir ordered by their numeric index.
func ScanFrames(dir string) ([]Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	frames := make([]Frame, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, ok := ParseFrameName(e.Name())
		if !ok {
			continue
		}
		frames = append(frames, Frame{Index: idx, Path: filepath.Join(dir, e.Name())})
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFrames, dir)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].Index < frames[j].Index })
	if err := CheckCapacity(frames[len(frames)-1].Index); err != nil {
		return nil, err
	}
	return frames, nil
}

// CountFrames is ScanFrames without the empty check.
func CountFrames(dir string) (int, error) {
	frames, err := ScanFrames(dir)
	if errors.Is(err, ErrNoFrames) {
		return 0, nil
	}
	return len(frames), err
}

func ReadFrame(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableFrameError{Path: path, Err: err}
	}
	defer file.Close()
	img, err := jpeg.Decode(file)
	if err != nil {
		return nil, &UnreadableFrameError{Path: path, Err: err}
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	// jpeg decodes to YCbCr, convert once so marking works on plain pixels
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}

// WriteFrame replaces path atomically so a crash never leaves a truncated frame.
func WriteFrame(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-frame-*")
	if err != nil {
		return fmt.Errorf("create temp frame: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: cfg.FrameJPEGQuality}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode frame %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace frame %s: %w", path, err)
	}
	return nil
}
