package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render

const (
	padding  = 2
	maxWidth = 80
)

type tickMsg time.Time

type mode int

const (
	spin mode = iota
	bar
	text
)

type Widget struct {
	mode     mode
	title    string
	spinner  spinner.Model
	progress progress.Model
	percent  float64
	done     bool

	// called when the operator interrupts the program
	onQuit func()
}

func NewWidget(onQuit func()) *Widget {
	s := spinner.New()
	s.Spinner = spinner.Line
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Widget{
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		onQuit:   onQuit,
	}
}

func (w *Widget) apply(e Event) {
	switch e.eventType {
	case eventTypeSpin:
		w.mode = spin
	case eventTypeBar:
		w.mode = bar
		w.percent = e.percent
	case eventTypeText, eventTypeDone:
		w.mode = text
	}
	w.title = e.text
}

func (w *Widget) Init() tea.Cmd {
	return tea.Batch(tickCmd(), w.spinner.Tick)
}

func (w *Widget) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case Event:
		w.apply(msg)
		if msg.IsDone() {
			w.done = true
			return w, tea.Quit
		}
		return w, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			if w.onQuit != nil {
				w.onQuit()
			}
			return w, tea.Quit
		}
		return w, nil

	case tea.WindowSizeMsg:
		w.progress.Width = msg.Width - padding*2 - 4
		if w.progress.Width > maxWidth {
			w.progress.Width = maxWidth
		}
		return w, nil

	case tickMsg:
		cmd := w.progress.SetPercent(w.percent)
		return w, tea.Batch(tickCmd(), cmd)

	// FrameMsg is sent when the progress bar wants to animate itself
	case progress.FrameMsg:
		progressModel, cmd := w.progress.Update(msg)
		w.progress = progressModel.(progress.Model)
		return w, cmd

	default:
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd
	}
}

func (w *Widget) View() string {
	pad := strings.Repeat(" ", padding)
	var body string
	switch w.mode {
	case text:
		body = fmt.Sprintf("\n\n%s%s\n", pad, w.title)
	case spin:
		body = fmt.Sprintf("\n\n%s%s %s\n", pad, w.spinner.View(), w.title)
	case bar:
		body = "\n" +
			pad + w.title + "\n\n" +
			pad + w.progress.View() + "\n"
	}
	// nothing left to abort once the run reported back
	if w.done {
		return body + "\n"
	}
	return body + pad + helpStyle("Press q to abort") + "\n"
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
