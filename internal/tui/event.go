package tui

type eventType int

const (
	eventTypeSpin eventType = iota
	eventTypeBar
	eventTypeText
	eventTypeDone
)

type Event struct {
	eventType eventType
	text      string
	percent   float64
}

func NewEventSpin(text string) Event {
	return Event{
		eventType: eventTypeSpin,
		text:      text,
	}
}

func NewEventBar(text string, percent float64) Event {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	return Event{
		eventType: eventTypeBar,
		text:      text,
		percent:   percent,
	}
}

func NewEventText(text string) Event {
	return Event{
		eventType: eventTypeText,
		text:      text,
	}
}

// NewEventDone closes the widget after rendering the final text.
func NewEventDone(text string) Event {
	return Event{
		eventType: eventTypeDone,
		text:      text,
	}
}

func (e Event) Text() string     { return e.text }
func (e Event) Percent() float64 { return e.percent }
func (e Event) IsBar() bool      { return e.eventType == eventTypeBar }
func (e Event) IsDone() bool     { return e.eventType == eventTypeDone }
