package video

import (
	"fmt"
	"math/big"
	"strings"
)

// Rate is a frame rate as reported by ffprobe, kept rational so
// 30000/1001 style rates reach ffmpeg unchanged.
type Rate struct {
	Num int64
	Den int64
}

func ParseRate(s string) (Rate, error) {
	s = strings.TrimSpace(s)
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Rate{}, fmt.Errorf("bad frame rate %q", s)
	}
	if r.Sign() <= 0 {
		return Rate{}, fmt.Errorf("frame rate must be positive, got %q", s)
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Rate{}, fmt.Errorf("frame rate out of range: %q", s)
	}
	return Rate{Num: r.Num().Int64(), Den: r.Denom().Int64()}, nil
}

func (r Rate) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rate) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
