package job

import (
	"fmt"

	"github.com/1F47E/go-tracemark/internal/storage"
)

// job for the marking worker
type JobMark struct {
	Frame     storage.Frame
	Payload   string
	Frequency int
}

// res from the marking worker
type JobMarkRes struct {
	Frame  storage.Frame
	Marked bool
	Err    error
}

func New(f storage.Frame, payload string, frequency int) JobMark {
	return JobMark{
		Frame:     f,
		Payload:   payload,
		Frequency: frequency,
	}
}

func (j *JobMark) Print() string {
	return fmt.Sprintf("Job: Frame: %d, File: %s, Frequency: %d", j.Frame.Index, j.Frame.Path, j.Frequency)
}
