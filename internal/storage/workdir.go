package storage

import (
	"fmt"
	"os"

	"github.com/1F47E/go-tracemark/internal/logger"
)

// WorkDir is the run scoped directory holding the frame sequence.
// It must not be shared between concurrent runs.
type WorkDir struct {
	Path string
}

// OpenWorkDir creates dir from scratch, anything already there is destroyed.
func OpenWorkDir(dir string) (*WorkDir, error) {
	if err := ResetDir(dir); err != nil {
		return nil, err
	}
	logger.Scope("storage").Debugf("work dir ready: %s", dir)
	return &WorkDir{Path: dir}, nil
}

func (w *WorkDir) Close() error {
	if err := os.RemoveAll(w.Path); err != nil {
		return fmt.Errorf("remove work dir %s: %w", w.Path, err)
	}
	logger.Scope("storage").Debugf("cleaned up work dir: %s", w.Path)
	return nil
}

func ResetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// RemoveFile deletes path, a missing file is fine.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
