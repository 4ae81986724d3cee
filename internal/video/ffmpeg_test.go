package video

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/1F47E/go-tracemark/internal/runner"
	"github.com/1F47E/go-tracemark/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping ffmpeg test in short mode")
	}
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not found in PATH", tool)
		}
	}
}

// mpeg4 ships with every ffmpeg build, unlike hardware encoders
func softwareTools() Tools {
	tools := DefaultTools()
	tools.Encoder = "mpeg4"
	return tools
}

func TestRoundTripSolidFrames(t *testing.T) {
	requireFFmpeg(t)
	ctx := context.Background()
	dir := t.TempDir()

	for i := 1; i <= 100; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 64, 48))
		c := color.RGBA{uint8(i), uint8(255 - i), 128, 255}
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = c.R, c.G, c.B, c.A
		}
		require.NoError(t, storage.WriteFrame(filepath.Join(dir, storage.FrameName(i)), img))
	}

	v := New(runner.New(nil), softwareTools())
	output := filepath.Join(t.TempDir(), "out.mp4")
	require.NoError(t, v.Reassemble(ctx, dir, output, Rate{25, 1}))

	h := v.Open(output)
	assert.Equal(t, 100, h.FrameCount(ctx))
	assert.Equal(t, Rate{25, 1}, h.FrameRate(ctx))
	size, err := h.Resolution(ctx)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 48), size)

	// and back into frames
	framesDir := filepath.Join(t.TempDir(), "frames")
	frames, err := v.Extract(ctx, h, framesDir)
	require.NoError(t, err)
	assert.Len(t, frames, 100)
}

func TestReassembleEmptyDirFails(t *testing.T) {
	requireFFmpeg(t)

	v := New(runner.New(nil), softwareTools())
	output := filepath.Join(t.TempDir(), "out.mp4")
	err := v.Reassemble(context.Background(), t.TempDir(), output, Rate{25, 1})
	require.Error(t, err)

	var toolErr *runner.ExternalToolError
	require.True(t, errors.As(err, &toolErr))
	assert.NotZero(t, toolErr.ExitCode)

	info, statErr := os.Stat(output)
	if statErr == nil {
		assert.Zero(t, info.Size())
	}
}
