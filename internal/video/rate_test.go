package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	testCases := []struct {
		in    string
		want  Rate
		float float64
		str   string
		ok    bool
	}{
		{"25/1", Rate{25, 1}, 25, "25", true},
		{"30000/1001\n", Rate{30000, 1001}, 29.97002997, "30000/1001", true},
		{"50/2", Rate{25, 1}, 25, "25", true},
		{"29.97", Rate{2997, 100}, 29.97, "2997/100", true},
		{"24", Rate{24, 1}, 24, "24", true},
		{"0/0", Rate{}, 0, "", false},
		{"0/1", Rate{}, 0, "", false},
		{"N/A", Rate{}, 0, "", false},
		{"", Rate{}, 0, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRate(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.InDelta(t, tc.float, got.Float(), 1e-6)
			assert.Equal(t, tc.str, got.String())
		})
	}
}
