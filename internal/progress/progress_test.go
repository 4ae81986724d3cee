package progress

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/1F47E/go-tracemark/internal/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)

	b.Start("Extracting frames", 10)
	b.Set(5)
	b.Add(5)
	b.Finish()

	out := buf.String()
	assert.Contains(t, out, "Extracting frames")
	assert.Contains(t, out, "10/10")
}

func TestBarLineEchoesRaw(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)
	b.Line("frame=  12 fps=0.0")
	assert.True(t, strings.HasSuffix(buf.String(), "frame=  12 fps=0.0"))
}

func TestEventsForwardsPhases(t *testing.T) {
	ch := make(chan tui.Event, 10)
	e := NewEvents(context.Background(), ch)

	e.Start("Marking", 4)
	e.Add(2)
	e.Finish()

	start := <-ch
	require.True(t, start.IsBar())
	assert.Equal(t, "Marking 0/4", start.Text())

	mid := <-ch
	assert.Equal(t, 0.5, mid.Percent())

	done := <-ch
	assert.Equal(t, "Marking done.", done.Text())
}

func TestEventsIndeterminateStartsSpinner(t *testing.T) {
	ch := make(chan tui.Event, 10)
	e := NewEvents(context.Background(), ch)

	e.Start("Extracting", 0)
	e.Set(3)

	start := <-ch
	assert.False(t, start.IsBar())
	assert.Equal(t, "Extracting", start.Text())
	assert.Len(t, ch, 0)
}

func TestEventsDoesNotBlockAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEvents(ctx, make(chan tui.Event))

	// unbuffered and nobody reading
	e.Start("Reconstructing", 10)
	e.Add(1)
	e.Finish()
}
