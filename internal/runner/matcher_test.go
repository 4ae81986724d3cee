package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFFmpegMatcher(t *testing.T) {
	m := NewFFmpegMatcher()

	testCases := []struct {
		line     string
		progress bool
		counter  int
		hasCount bool
		noise    bool
	}{
		{"frame=  120 fps= 60 q=2.0 size=N/A time=00:00:04.00 bitrate=N/A speed=2.0x", true, 120, true, false},
		{"frame=7 fps=0.0", true, 7, true, false},
		{"size=    1024kB time=00:00:10.00 bitrate= 838.9kbits/s speed=4.1x", true, 0, false, false},
		{"Press [q] to stop, [?] for help", false, 0, false, true},
		{"Stream mapping:", false, 0, false, true},
		{"Output #0, image2, to 'tmp/frames/frame_%08d.jpg':", false, 0, false, true},
		{"Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'sample.mp4':", false, 0, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.progress, m.IsProgress(tc.line))
			n, ok := m.Counter(tc.line)
			assert.Equal(t, tc.hasCount, ok)
			assert.Equal(t, tc.counter, n)
			assert.Equal(t, tc.noise, m.IsNoise(tc.line))
		})
	}
}
