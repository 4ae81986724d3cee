package runner

import (
	"regexp"
	"strconv"
	"strings"
)

// Matcher classifies tool output lines. Keep tool specific heuristics here
// so output format drift between tool versions is fixed in one place.
type Matcher interface {
	IsProgress(line string) bool
	Counter(line string) (int, bool)
	IsNoise(line string) bool
}

type FFmpegMatcher struct {
	ProgressKeys []string
	Noise        []string
	counter      *regexp.Regexp
}

func NewFFmpegMatcher() *FFmpegMatcher {
	return &FFmpegMatcher{
		ProgressKeys: []string{"frame=", "time=", "speed="},
		Noise: []string{
			"Press [q] to stop",
			"encoder",
			"Stream mapping",
			"Output #",
			"Past duration",
			"conversion failed",
			"averaging frame rate",
		},
		counter: regexp.MustCompile(`frame=\s*(\d+)`),
	}
}

func (m *FFmpegMatcher) IsProgress(line string) bool {
	return containsAny(line, m.ProgressKeys)
}

func (m *FFmpegMatcher) Counter(line string) (int, bool) {
	match := m.counter.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (m *FFmpegMatcher) IsNoise(line string) bool {
	return containsAny(line, m.Noise)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
