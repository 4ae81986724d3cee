package runner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrTimeout = errors.New("external tool timed out")

// ExternalToolError is returned when the tool exits non-zero or cannot be started.
// ExitCode is -1 when the process never ran.
type ExternalToolError struct {
	Command  []string
	ExitCode int
	Tail     []string
	Err      error
}

func (e *ExternalToolError) Error() string {
	name := toolName(e.Command)
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s could not be started: %v", name, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", name, e.ExitCode)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// Diagnostic renders the failing command with the trailing tool output.
func (e *ExternalToolError) Diagnostic() string {
	return diagnostic(e.Error(), e.Command, e.Tail)
}

type TimeoutError struct {
	Command []string
	Timeout time.Duration
	Tail    []string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s killed after %s", toolName(e.Command), e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

func (e *TimeoutError) Diagnostic() string {
	return diagnostic(e.Error(), e.Command, e.Tail)
}

func toolName(command []string) string {
	if len(command) == 0 {
		return "external tool"
	}
	return command[0]
}

func diagnostic(head string, command, tail []string) string {
	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\ncommand: ")
	b.WriteString(strings.Join(command, " "))
	if len(tail) > 0 {
		b.WriteString("\nlast output:")
		for _, l := range tail {
			b.WriteString("\n> ")
			b.WriteString(l)
		}
	}
	return b.String()
}
