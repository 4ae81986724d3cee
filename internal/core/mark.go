package core

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/1F47E/go-tracemark/internal/job"
	"github.com/1F47E/go-tracemark/internal/logger"
	"github.com/1F47E/go-tracemark/internal/storage"
	"github.com/1F47E/go-tracemark/internal/workers"
)

// markFrames fans the frames out to workers and reduces their results.
// Unreadable frames are skipped unless the config is strict, any other error stops the run.
func (c *Core) markFrames(frames []storage.Frame, payload string) (marked, skipped int, err error) {
	log := logger.Scope("core mark frames")

	ctx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	cores := c.cfg.Workers
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	jobs := make(chan job.JobMark, cores) // buff by G count
	results := make(chan job.JobMarkRes, cores)

	log.Debugf("Starting %d workers", cores)
	worker := workers.NewWorker(ctx, c.embedder)
	wg := sync.WaitGroup{}
	for i := 0; i < cores; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			worker.WorkerMark(i+1, jobs, results)
		}()
	}

	// send all the jobs in index order
	go func() {
		defer close(jobs)
		for _, f := range frames {
			select {
			case jobs <- job.New(f, payload, c.cfg.Frequency):
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	c.reporter.Start("Applying watermark", len(frames))
	defer c.reporter.Finish()

	var firstErr error
	for res := range results {
		c.reporter.Add(1)
		if res.Err != nil {
			var ufe *storage.UnreadableFrameError
			if errors.As(res.Err, &ufe) && !c.cfg.Strict {
				log.Warnf("Could not read frame %s. Skipping: %v", ufe.Path, ufe.Err)
				skipped++
				continue
			}
			if firstErr == nil {
				firstErr = res.Err
				cancel()
			}
			continue
		}
		if res.Marked {
			marked++
		}
	}

	if firstErr != nil {
		return marked, skipped, firstErr
	}
	// cancelled runs may have dropped results
	if err := c.ctx.Err(); err != nil {
		return marked, skipped, err
	}
	return marked, skipped, nil
}
