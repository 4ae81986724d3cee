package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	cfg "github.com/1F47E/go-tracemark/internal/config"
	"github.com/1F47E/go-tracemark/internal/logger"
	"github.com/1F47E/go-tracemark/internal/progress"
	"github.com/sirupsen/logrus"
)

type ProgressMode int

const (
	ProgressPercent ProgressMode = iota
	// ProgressIndeterminate means the total is unknown and raw progress lines are echoed
	ProgressIndeterminate
)

const maxLineSize = 1024 * 1024

// waitDelay bounds how long Wait waits on output held open by stray children
const waitDelay = 2 * time.Second

type Command struct {
	Name        string
	Args        []string
	Description string
	// Total is the expected number of progress units, 0 if unknown
	Total int
}

func (c Command) argv() []string {
	return append([]string{c.Name}, c.Args...)
}

func (c Command) String() string {
	return strings.Join(c.argv(), " ")
}

type Result struct {
	History      []string
	Mode         ProgressMode
	LastProgress int
}

// Runner executes external tools with merged stdout/stderr, streaming their
// output line by line into the progress reporter.
type Runner struct {
	Matcher   Matcher
	Reporter  progress.Reporter
	Timeout   time.Duration // per invocation, 0 disables
	TailLines int
}

func New(r progress.Reporter) *Runner {
	if r == nil {
		r = progress.Nop{}
	}
	return &Runner{
		Matcher:   NewFFmpegMatcher(),
		Reporter:  r,
		TailLines: cfg.TailLines,
	}
}

func (r *Runner) Run(ctx context.Context, c Command) (*Result, error) {
	log := logger.Scope(c.Name)
	log.Infof("--- %s ---", c.Description)
	log.Debugf("Executing command: %s", c)

	runCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	res := &Result{Mode: ProgressPercent}
	if c.Total <= 0 {
		res.Mode = ProgressIndeterminate
		log.Debug("total unknown, progress is indeterminate")
	}

	// single pipe for both streams keeps the tool's own interleaving
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}
	cmd := exec.CommandContext(runCtx, c.Name, c.Args...)
	setProcessGroup(cmd)
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, &ExternalToolError{Command: c.argv(), ExitCode: -1, Err: err}
	}
	// child holds its own copy, ours must be closed to see EOF
	pw.Close()
	// a detached grandchild may still hold the write end, stop reading anyway
	stopClose := context.AfterFunc(runCtx, func() { pr.Close() })
	defer stopClose()

	r.Reporter.Start(c.Description, c.Total)
	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	scanner.Split(scanLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res.History = append(res.History, line)
		r.handleLine(log, res, c, line)
	}
	if err := scanner.Err(); err != nil && runCtx.Err() == nil {
		log.Warnf("reading output: %v", err)
	}
	pr.Close()
	waitErr := cmd.Wait()
	r.Reporter.Finish()

	if waitErr == nil {
		log.Infof("Successfully completed %s", c.Description)
		return res, nil
	}

	tail := r.tail(res.History)
	if ctx.Err() != nil {
		return res, fmt.Errorf("%s: %w", c.Description, ctx.Err())
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, &TimeoutError{Command: c.argv(), Timeout: r.Timeout, Tail: tail}
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		code = exitErr.ExitCode()
	}
	return res, &ExternalToolError{Command: c.argv(), ExitCode: code, Tail: tail, Err: waitErr}
}

// Output runs a short lived tool and returns its trimmed stdout.
// Stderr only ends up in the error.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	runCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, name, args...)
	setProcessGroup(cmd)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logger.Scope(name).Debugf("Executing command: %s %s", name, strings.Join(args, " "))

	err := cmd.Run()
	if err == nil {
		return strings.TrimSpace(stdout.String()), nil
	}
	argv := append([]string{name}, args...)
	tail := r.tail(splitLines(stderr.String()))
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", &TimeoutError{Command: argv, Timeout: r.Timeout, Tail: tail}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", &ExternalToolError{Command: argv, ExitCode: exitErr.ExitCode(), Tail: tail, Err: err}
	}
	return "", &ExternalToolError{Command: argv, ExitCode: -1, Tail: tail, Err: err}
}

func (r *Runner) handleLine(log *logrus.Entry, res *Result, c Command, line string) {
	if r.Matcher.IsProgress(line) {
		n, ok := r.Matcher.Counter(line)
		if ok && c.Total > 0 {
			res.LastProgress = n
			r.Reporter.Set(n)
			return
		}
		r.Reporter.Line(line)
		return
	}
	if !r.Matcher.IsNoise(line) {
		log.Info(line)
	}
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return context.WithCancel(ctx)
}

func (r *Runner) tail(lines []string) []string {
	n := r.TailLines
	if n < cfg.TailLines {
		n = cfg.TailLines
	}
	if len(lines) <= n {
		return append([]string(nil), lines...)
	}
	return append([]string(nil), lines[len(lines)-n:]...)
}

// scanLines splits on both \n and \r, ffmpeg rewrites its stats line with \r.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
