package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/1F47E/go-tracemark/internal/job"
	"github.com/1F47E/go-tracemark/internal/logger"
	"github.com/1F47E/go-tracemark/internal/mark"
	"github.com/1F47E/go-tracemark/internal/storage"
)

var log = logger.Log

type Worker struct {
	ctx      context.Context
	embedder *mark.Embedder
}

func NewWorker(ctx context.Context, embedder *mark.Embedder) *Worker {
	return &Worker{
		ctx:      ctx,
		embedder: embedder,
	}
}

// WorkerMark marks frames from jobs until the channel closes or ctx is done.
// Every job gets exactly one result unless ctx is cancelled.
func (w *Worker) WorkerMark(id int, jobs <-chan job.JobMark, results chan<- job.JobMarkRes) {
	name := fmt.Sprintf("WorkerMark #%d", id)
	log.Debugf("%s started", name)
	defer log.Debugf("%s finished", name)

	for {
		select {
		case <-w.ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			res := w.mark(name, j)
			select {
			case results <- res:
			case <-w.ctx.Done():
				return
			}
		}
	}
}

// frames not due for a mark are left on disk untouched, no lossy re-encode
func (w *Worker) mark(name string, j job.JobMark) job.JobMarkRes {
	res := job.JobMarkRes{Frame: j.Frame}
	if !mark.ShouldMark(j.Frame.Index, j.Frequency) {
		return res
	}

	log.Debugf("%s got %s", name, j.Print())
	now := time.Now()
	img, err := storage.ReadFrame(j.Frame.Path)
	if err != nil {
		res.Err = err
		return res
	}
	marked := w.embedder.Embed(img, j.Payload, j.Frame.Index, j.Frequency)
	if err := storage.WriteFrame(j.Frame.Path, img); err != nil {
		res.Err = err
		return res
	}
	res.Marked = marked
	log.Debugf("%s marked frame %d. Took time: %s", name, j.Frame.Index, time.Since(now))
	return res
}
