// tally keeps a live, categorized count of test results.
//
// Usage:
//
//	go test -json ./... | tally
//	go test -json ./... | tally --format table --fail-on failed,errored
//	go test -json ./... -update | tally --update --env linux/amd64
//
// Every test is counted in exactly one category (skipped, warned, errored,
// updated, passed, failed); a later report for the same test replaces the
// earlier one.
//
// Exit codes:
//
//	0    no fail-on category has tests
//	1    a fail-on category has tests
//	2    usage, config or input error
//	130  interrupted
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/dkoosis/tally/internal/config"
	"github.com/dkoosis/tally/internal/detect"
	"github.com/dkoosis/tally/internal/metrics"
	"github.com/dkoosis/tally/internal/version"
	"github.com/dkoosis/tally/pkg/live"
	"github.com/dkoosis/tally/pkg/render"
	"github.com/dkoosis/tally/pkg/runner"
	"github.com/dkoosis/tally/pkg/stats"
	"github.com/dkoosis/tally/pkg/testjson"
)

// Exit codes.
const (
	ExitClean       = 0
	ExitFailures    = 1
	ExitError       = 2
	ExitInterrupted = 130
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newApp(stdin, stdout, stderr)
	err := app.RunContext(ctx, args)
	if err == nil {
		return ExitClean
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintf(stderr, "tally: %s\n", msg)
		}
		return exitErr.ExitCode()
	}
	fmt.Fprintf(stderr, "tally: %v\n", err)
	return ExitError
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "tally"
	app.Usage = "Live categorized tally of go test -json results"
	app.Version = version.String()
	app.Flags = Flags
	app.Reader = stdin
	app.Writer = stdout
	app.ErrWriter = stderr
	// Exit codes are mapped by run; never let cli call os.Exit.
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Action = func(c *cli.Context) error {
		return action(c, stdin, stdout, stderr)
	}
	return app
}

func action(c *cli.Context, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitError)
	}
	failOn, err := parseFailOn(cfg.FailOn)
	if err != nil {
		return cli.Exit(err.Error(), ExitError)
	}
	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return cli.Exit(err.Error(), ExitError)
	}
	theme, err := render.ThemeByName(cfg.Theme)
	if err != nil {
		return cli.Exit(err.Error(), ExitError)
	}
	format := resolveFormat(cfg.Format, stdout)
	renderer, err := render.ByName(format, theme, termWidth(stdout))
	if err != nil {
		return cli.Exit(err.Error(), ExitError)
	}

	input := stdin
	if path := c.String(InputFlag.Name); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("opening input: %v", err), ExitError)
		}
		defer f.Close()
		input = f
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()
	// Close the underlying reader on cancel to unblock Stream's scanner goroutine.
	if closer, ok := input.(io.Closer); ok {
		stopClose := context.AfterFunc(ctx, func() { _ = closer.Close() })
		defer stopClose()
	}

	// Peek to check the format without consuming the stream.
	br := bufio.NewReaderSize(input, 8*1024)
	peeked, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		if ctx.Err() != nil {
			return cli.Exit("interrupted", ExitInterrupted)
		}
		return cli.Exit(fmt.Sprintf("opening input: %v", err), ExitError)
	}
	if len(peeked) == 0 {
		return cli.Exit("no input", ExitError)
	}
	if kind := detect.Sniff(peeked); kind != detect.GoTestJSON {
		return cli.Exit(fmt.Sprintf("unrecognized input format %s (expected go test -json)", kind), ExitError)
	}

	runID := uuid.New().String()
	logger = logger.New("run_id", runID)
	logger.Debug("starting run", "format", format, "config", cfg.Path, "fail_on", cfg.FailOn)

	r, err := newRun(runID, cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), ExitError)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := r.exporter.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	var view *live.View
	if cfg.Live && isTTYWriter(stdout) {
		view = live.Start(ctx, stdout, theme)
	}

	malformed, streamErr := testjson.Stream(ctx, br, func(e testjson.TestEvent) error {
		if err := r.source.Handle(e); err != nil {
			return err
		}
		snap := r.tally.Snapshot()
		r.exporter.Observe(snap)
		if view != nil {
			view.Update(snap)
		}
		return nil
	})

	if view != nil {
		if err := view.Stop(r.tally.Snapshot()); err != nil {
			logger.Warn("live view exited with error", "err", err)
		}
	}
	if malformed > 0 {
		logger.Warn("skipped malformed lines", "count", malformed)
	}

	if streamErr != nil {
		if ctx.Err() != nil {
			return cli.Exit("interrupted", ExitInterrupted)
		}
		return cli.Exit(fmt.Sprintf("reading test events: %v", streamErr), ExitError)
	}

	fmt.Fprint(stdout, renderer.Render(render.NewSummary(runID, r.tally)))
	logger.Info("run complete", "total", r.tally.Total())

	for _, cat := range failOn {
		if r.tally.Get(cat) > 0 {
			return cli.Exit("", ExitFailures)
		}
	}
	return nil
}

// tallyRun wires the event source to its listeners for one invocation.
type tallyRun struct {
	tally    *stats.Stats
	exporter *metrics.Exporter
	source   *testjson.Source
}

func newRun(runID string, cfg *config.AppConfig, logger log.Logger) (*tallyRun, error) {
	em := runner.NewEmitter()
	tally, err := stats.New(em)
	if err != nil {
		return nil, err
	}
	exporter := metrics.NewExporter(runID, logger)
	if err := exporter.Listen(em); err != nil {
		return nil, err
	}
	src := testjson.NewSource(em, testjson.SourceConfig{
		Environment:    cfg.Environment,
		Update:         cfg.Update,
		WarningMarkers: cfg.WarningMarkers,
		UpdateMarkers:  cfg.UpdateMarkers,
	}, logger)
	return &tallyRun{tally: tally, exporter: exporter, source: src}, nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg, err := config.Load(c.String(ConfigFlag.Name))
	if err != nil {
		return nil, err
	}
	if c.IsSet(FormatFlag.Name) {
		cfg.Format = c.String(FormatFlag.Name)
	}
	if c.IsSet(ThemeFlag.Name) {
		cfg.Theme = c.String(ThemeFlag.Name)
	}
	if c.IsSet(EnvironmentFlag.Name) {
		cfg.Environment = c.String(EnvironmentFlag.Name)
	}
	if c.IsSet(UpdateFlag.Name) {
		cfg.Update = c.Bool(UpdateFlag.Name)
	}
	if c.IsSet(LiveFlag.Name) {
		cfg.Live = c.Bool(LiveFlag.Name)
	}
	if c.IsSet(MetricsAddrFlag.Name) {
		cfg.MetricsAddr = c.String(MetricsAddrFlag.Name)
	}
	if c.IsSet(FailOnFlag.Name) {
		cfg.FailOn = splitList(c.StringSlice(FailOnFlag.Name))
	}
	if c.IsSet(LogLevelFlag.Name) {
		cfg.LogLevel = c.String(LogLevelFlag.Name)
	}
	return cfg, nil
}

// splitList accepts both repeated flags and comma-separated values.
func splitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseFailOn(names []string) ([]stats.Category, error) {
	cats := make([]stats.Category, 0, len(names))
	for _, name := range names {
		c, err := stats.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("fail-on: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, nil
}

func newLogger(level string, w io.Writer) (log.Logger, error) {
	var lvl slog.Level
	switch level {
	case "trace":
		lvl = log.LevelTrace
	case "debug":
		lvl = log.LevelDebug
	case "info":
		lvl = log.LevelInfo
	case "warn", "":
		lvl = log.LevelWarn
	case "error":
		lvl = log.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return log.NewLogger(log.NewTerminalHandlerWithLevel(w, lvl, isTTYWriter(w))), nil
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width for w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}

func resolveFormat(format string, w io.Writer) string {
	if format != "auto" {
		return format
	}
	// Auto-detect: TTY = terminal, piped = plain
	if isTTYWriter(w) {
		return "terminal"
	}
	return "plain"
}
