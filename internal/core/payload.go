package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewPayload returns a fresh mark text, unique per run.
func NewPayload(now time.Time) string {
	id := uuid.New().String()[:8]
	return fmt.Sprintf("UID_%s_%s_CONFIDENTIAL", id, now.Format("20060102_150405"))
}
