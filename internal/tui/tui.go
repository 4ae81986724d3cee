package tui

import (
	"context"
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

type TUI struct {
	ctx      context.Context
	cancel   context.CancelFunc
	eventsCh chan Event
}

// New returns a TUI that renders events until the channel is closed or a done event arrives.
// cancel is called when the operator aborts from the keyboard.
func New(ctx context.Context, cancel context.CancelFunc, eventsCh chan Event) *TUI {
	return &TUI{ctx: ctx, cancel: cancel, eventsCh: eventsCh}
}

func (t *TUI) Run() error {
	widget := NewWidget(t.cancel)
	p := tea.NewProgram(widget, tea.WithContext(t.ctx), tea.WithOutput(os.Stderr))

	// forward events into the bubbletea loop
	go func() {
		for {
			select {
			case <-t.ctx.Done():
				return
			case event, ok := <-t.eventsCh:
				if !ok {
					p.Quit()
					return
				}
				p.Send(event)
				if event.IsDone() {
					return
				}
			}
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
