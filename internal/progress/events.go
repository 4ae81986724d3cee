package progress

import (
	"context"
	"fmt"
	"sync"

	"github.com/1F47E/go-tracemark/internal/tui"
)

// Events forwards progress to the tui widget.
// Bar updates are dropped when the widget lags behind, phase changes only
// when ctx is done.
type Events struct {
	ctx     context.Context
	mu      sync.Mutex
	ch      chan<- tui.Event
	desc    string
	total   int
	current int
}

func NewEvents(ctx context.Context, ch chan<- tui.Event) *Events {
	return &Events{ctx: ctx, ch: ch}
}

func (e *Events) Start(desc string, total int) {
	e.mu.Lock()
	e.desc, e.total, e.current = desc, total, 0
	e.mu.Unlock()
	if total > 0 {
		e.send(tui.NewEventBar(e.title(0, total), 0))
	} else {
		e.send(tui.NewEventSpin(desc))
	}
}

func (e *Events) Add(n int) {
	e.mu.Lock()
	e.current += n
	cur := e.current
	e.mu.Unlock()
	e.update(cur)
}

func (e *Events) Set(n int) {
	e.mu.Lock()
	e.current = n
	e.mu.Unlock()
	e.update(n)
}

func (e *Events) Line(s string) {
	select {
	case e.ch <- tui.NewEventSpin(s):
	default:
	}
}

func (e *Events) Finish() {
	e.mu.Lock()
	desc := e.desc
	e.mu.Unlock()
	e.send(tui.NewEventText(desc + " done."))
}

func (e *Events) send(ev tui.Event) {
	select {
	case e.ch <- ev:
	case <-e.ctx.Done():
	}
}

func (e *Events) update(cur int) {
	e.mu.Lock()
	total := e.total
	e.mu.Unlock()
	if total <= 0 {
		return
	}
	select {
	case e.ch <- tui.NewEventBar(e.title(cur, total), float64(cur)/float64(total)):
	default:
	}
}

func (e *Events) title(cur, total int) string {
	return fmt.Sprintf("%s %d/%d", e.desc, cur, total)
}
