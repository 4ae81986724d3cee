package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/1F47E/go-tracemark/internal/config"
	"github.com/1F47E/go-tracemark/internal/core"
	"github.com/1F47E/go-tracemark/internal/ledger"
	"github.com/1F47E/go-tracemark/internal/logger"
	"github.com/1F47E/go-tracemark/internal/mark"
	"github.com/1F47E/go-tracemark/internal/progress"
	"github.com/1F47E/go-tracemark/internal/runner"
	"github.com/1F47E/go-tracemark/internal/tui"
	"github.com/1F47E/go-tracemark/internal/video"

	"github.com/urfave/cli"
)

var app = cli.NewApp()
var log = logger.Log

var markFlags = []cli.Flag{
	cli.StringFlag{Name: "payload, p", Usage: "mark text, generated when empty"},
	cli.IntFlag{Name: "frequency, f", Usage: "mark every n-th frame"},
	cli.Float64Flag{Name: "opacity", Usage: "mark opacity in [0, 1]"},
	cli.StringFlag{Name: "encoder, e", Usage: "ffmpeg video encoder, e.g. libx264"},
	cli.IntFlag{Name: "quality, q", Usage: "jpeg quality of extracted frames, 1 is best, 31 worst"},
	cli.IntFlag{Name: "workers, w", Usage: "marking workers, 0 for one per cpu"},
	cli.StringFlag{Name: "workdir", Usage: "frames dir, wiped before and after the run"},
	cli.DurationFlag{Name: "timeout", Usage: "kill a single ffmpeg run after this long"},
	cli.BoolFlag{Name: "strict", Usage: "fail on unreadable frames instead of skipping them"},
	cli.BoolFlag{Name: "tui", Usage: "render progress in a terminal ui"},
}

func init() {
	app.Name = "tracemark"
	app.Usage = "Embed a faint traceable mark into a video"
	app.UsageText = "tracemark [command] [options] args"
	app.HideVersion = true
	app.Commands = []cli.Command{
		{
			Name:      "mark",
			Aliases:   []string{"m"},
			Usage:     "Mark a video",
			ArgsUsage: "input [output]",
			Flags:     markFlags,
			Action:    markAction,
		},
		{
			Name:      "probe",
			Aliases:   []string{"p"},
			Usage:     "Print frame rate, frame count and mark area of a video",
			ArgsUsage: "input",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "payload, p", Usage: "mark text to measure, a generated sample when empty"},
			},
			Action: probeAction,
		},
		{
			Name:      "lookup",
			Aliases:   []string{"l"},
			Usage:     "Find issued marks by payload text",
			ArgsUsage: "text",
			Action:    lookupAction,
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	conf, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.IsSet("frequency") {
		conf.Frequency = c.Int("frequency")
	}
	if c.IsSet("opacity") {
		conf.Opacity = c.Float64("opacity")
	}
	if c.IsSet("encoder") {
		conf.Encoder = c.String("encoder")
	}
	if c.IsSet("quality") {
		conf.Quality = c.Int("quality")
	}
	if c.IsSet("workers") {
		conf.Workers = c.Int("workers")
	}
	if c.IsSet("workdir") {
		conf.WorkDir = c.String("workdir")
	}
	if c.IsSet("timeout") {
		conf.ToolTimeout = c.Duration("timeout")
	}
	if c.IsSet("strict") {
		conf.Strict = c.Bool("strict")
	}
	return conf, conf.Validate()
}

func markAction(c *cli.Context) error {
	src, err := getFilename(c)
	if err != nil {
		return err
	}
	output := c.Args().Get(1)
	if output == "" {
		output = filepath.Join(filepath.Dir(src), "watermarked_"+filepath.Base(src))
	}
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !c.Bool("tui") {
		report, err := runMark(ctx, conf, progress.NewBar(os.Stderr), src, output, c.String("payload"))
		if err != nil {
			return err
		}
		fmt.Println(report)
		return nil
	}

	// tui owns the terminal, logs would tear it
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	events := make(chan tui.Event, 64)
	var report *core.Report
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		report, runErr = runMark(ctx, conf, progress.NewEvents(ctx, events), src, output, c.String("payload"))
		msg := "Failed: " + fmt.Sprint(runErr)
		if runErr == nil {
			msg = report.String()
		}
		select {
		case events <- tui.NewEventDone(msg):
		case <-ctx.Done():
		}
	}()

	if err := tui.New(ctx, cancel, events).Run(); err != nil {
		log.SetOutput(os.Stderr)
		log.Warnf("tui failed, continuing without it: %v", err)
		go func() {
			for range events {
			}
		}()
	}
	<-done

	if runErr != nil {
		return runErr
	}
	fmt.Println(report)
	return nil
}

func runMark(ctx context.Context, conf *config.Config, reporter progress.Reporter, src, output, payload string) (*core.Report, error) {
	r := runner.New(reporter)
	r.Timeout = conf.ToolTimeout
	v := video.New(r, video.ToolsFromConfig(conf))
	cr := core.NewCore(ctx, conf, v, reporter)

	if conf.Ledger != "" {
		l, err := ledger.Open(conf.Ledger)
		if err != nil {
			log.Warnf("ledger unavailable, run will not be recorded: %v", err)
		} else {
			defer l.Close()
			cr.WithRecorder(l)
		}
	}
	return cr.Mark(src, output, payload)
}

func probeAction(c *cli.Context) error {
	src, err := getFilename(c)
	if err != nil {
		return err
	}
	conf, err := config.Load()
	if err != nil {
		return err
	}
	v := video.New(runner.New(nil), video.ToolsFromConfig(conf))
	payload := c.String("payload")
	if payload == "" {
		payload = core.NewPayload(time.Now())
	}
	return printProbe(context.Background(), os.Stdout, v.Open(src), mark.NewEmbedder(conf.Opacity), payload)
}

func printProbe(ctx context.Context, w io.Writer, h *video.Handle, e *mark.Embedder, payload string) error {
	rate := h.FrameRate(ctx)
	fmt.Fprintf(w, "frame rate:  %s (%.3f fps)\n", rate, rate.Float())
	if n := h.FrameCount(ctx); n > 0 {
		fmt.Fprintf(w, "frame count: %d\n", n)
	} else {
		fmt.Fprintln(w, "frame count: unknown")
	}
	size, err := h.Resolution(ctx)
	if err != nil {
		return err
	}
	area := e.Bounds(image.Rect(0, 0, size.X, size.Y), payload)
	fmt.Fprintf(w, "resolution:  %dx%d\n", size.X, size.Y)
	fmt.Fprintf(w, "mark area:   %v for %q\n", area, payload)
	return nil
}

func lookupAction(c *cli.Context) error {
	text := c.Args().Get(0)
	if text == "" {
		return fmt.Errorf("Payload text is required")
	}
	conf, err := config.Load()
	if err != nil {
		return err
	}
	if conf.Ledger == "" {
		return fmt.Errorf("Ledger is disabled, set TRACEMARK_LEDGER")
	}
	l, err := ledger.Open(conf.Ledger)
	if err != nil {
		return err
	}
	defer l.Close()

	records, err := l.Find(context.Background(), text)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Infof("No marks matching %q", text)
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tPAYLOAD\tSOURCE\tOUTPUT\tMARKED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\n",
			r.CreatedAt.Local().Format(time.RFC822), r.Payload, r.Source, r.Output, r.FramesMarked, r.TotalFrames)
	}
	return w.Flush()
}

func getFilename(c *cli.Context) (string, error) {
	f := c.Args().Get(0)
	if f == "" {
		return "", fmt.Errorf("Filename is required")
	}
	return f, nil
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		var d interface{ Diagnostic() string }
		if errors.As(err, &d) {
			log.Error(d.Diagnostic())
		}
		log.Fatal(err)
	}
}
