package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"tally/internal/meter"
	"tally/internal/model"
	"tally/internal/sink"
	"tally/internal/stream"
)

type runMode struct {
	ForceTUI bool
	PlanOnly bool
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run [files...]",
		Short:         "Relay records to stdout while reporting progress",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PreRunE:       runPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{})
		},
	}
	// Bind same flags as root for explicit subcommand usage
	bindRunFlags(cmd.Flags())
	return cmd
}

type ctxKey string

const runInputsKey ctxKey = "runInputs"

type runInputs struct {
	Sources []stream.Source
	Options model.Options
}

func runPreRun(cmd *cobra.Command, args []string) error {
	sources, opts, err := assembleRunInputs(cmd, args)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ctx := context.WithValue(cmd.Context(), runInputsKey, runInputs{
		Sources: sources,
		Options: opts,
	})
	cmd.SetContext(ctx)
	return nil
}

func assembleRunInputs(cmd *cobra.Command, args []string) ([]stream.Source, model.Options, error) {
	// Persistent flags with precedence: flag > env/config > default
	interval := getPersistentInt(cmd, "interval", 0)
	suffix := getPersistentString(cmd, "suffix", "records")
	logFormat := getPersistentString(cmd, "log-format", string(model.LogText))
	jobs := getPersistentInt(cmd, "jobs", 2)
	if jobs <= 0 {
		jobs = 2
	}
	quiet := getPersistentBool(cmd, "quiet", false)

	// Run flags
	label, _ := cmd.Flags().GetString("label")
	total, _ := cmd.Flags().GetUint64("total")
	null, _ := cmd.Flags().GetBool("null")
	preCount, _ := cmd.Flags().GetBool("pre-count")
	output, _ := cmd.Flags().GetString("output")
	logPath, _ := cmd.Flags().GetString("log")
	noUI, _ := cmd.Flags().GetBool("no-ui")

	switch model.LogFormat(logFormat) {
	case model.LogText, model.LogJSON:
	default:
		return nil, model.Options{}, fmt.Errorf("invalid --log-format: %q (valid: text|json)", logFormat)
	}

	opts := model.Options{
		Label:     label,
		Suffix:    suffix,
		Total:     total,
		Interval:  interval,
		Null:      null,
		PreCount:  preCount,
		Output:    output,
		LogPath:   logPath,
		LogFormat: model.LogFormat(logFormat),
		NoUI:      noUI,
		Quiet:     quiet,
		Jobs:      jobs,
	}

	// TUI-only flag; absent on run and plan.
	if f := cmd.Flags().Lookup("out-dir"); f != nil {
		opts.OutDir, _ = cmd.Flags().GetString("out-dir")
	}

	sources := stream.Sources(args)

	// An explicit total beats counting; stdin cannot be counted at all.
	if opts.PreCount && opts.Total == 0 {
		for _, s := range sources {
			if s.Stdin() {
				return nil, model.Options{}, errors.New("--pre-count needs file sources; pass --total for stdin")
			}
		}
	}

	return sources, opts, nil
}

func runExecute(cmd *cobra.Command, args []string, mode runMode) error {
	// Grab inputs from context; if not present (root directly called without PreRunE), assemble now.
	var in runInputs
	if v := cmd.Context().Value(runInputsKey); v != nil {
		in = v.(runInputs)
	} else {
		sources, opts, err := assembleRunInputs(cmd, args)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		in = runInputs{Sources: sources, Options: opts}
	}

	if mode.PlanOnly {
		return planExecute(cmd, in)
	}
	if mode.ForceTUI {
		return tuiExecute(cmd, in)
	}

	out, closeOut, err := openOutput(in.Options.Output)
	if err != nil {
		return &ExitError{Code: ExitIOError, Err: err}
	}
	defer closeOut()

	display, logSink, closeSinks, err := buildSinks(in.Options)
	if err != nil {
		return &ExitError{Code: ExitIOError, Err: err}
	}
	defer closeSinks()

	pump := stream.NewPump(
		stream.WithDelimiter(in.Options.Delimiter()),
		stream.WithDisplay(display),
		stream.WithLog(logSink),
	)
	for slot, src := range in.Sources {
		if err := pumpOne(cmd.Context(), pump, slot, src, out, in.Options); err != nil {
			if errors.Is(err, meter.ErrInvalidConfiguration) {
				return &ExitError{Code: ExitConfigError, Err: err}
			}
			return &ExitError{Code: ExitIOError, Err: err}
		}
	}
	return nil
}

func pumpOne(ctx context.Context, pump *stream.Pump, slot int, src stream.Source, out io.Writer, opts model.Options) error {
	total, _, err := resolveTotal(src, opts)
	if err != nil {
		return err
	}

	label := opts.Label
	if label == "" {
		label = src.Label
	}

	r, err := src.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	n, err := pump.Run(ctx, r, out, meter.Config{
		Activity: label,
		Suffix:   opts.Suffix,
		Total:    total,
		Interval: opts.Interval,
		Slot:     slot,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", src.Label, err)
	}
	logger.Debug("session complete",
		zap.String("source", src.Label),
		zap.Uint64("records", n))
	return nil
}

// resolveTotal picks the expected record count for a source. An explicit
// --total wins; otherwise --pre-count scans file sources. The bool reports
// whether the value came from counting.
func resolveTotal(src stream.Source, opts model.Options) (uint64, bool, error) {
	if opts.Total > 0 || !opts.PreCount {
		return opts.Total, false, nil
	}
	n, err := src.PreCount(opts.Delimiter())
	if err != nil {
		return 0, false, err
	}
	logger.Debug("pre-counted source",
		zap.String("source", src.Label),
		zap.Uint64("records", n))
	return n, true, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

// buildSinks picks the display and log destinations for a plain run.
// Records own stdout, so all reporting goes to stderr or a file: a live
// status line when stderr is a terminal, plain log lines otherwise.
func buildSinks(opts model.Options) (meter.Display, meter.LogSink, func(), error) {
	cleanup := func() {}

	var display meter.Display
	inline := !opts.NoUI && !opts.Quiet && isTerminal()
	if inline {
		display = sink.NewInline(os.Stderr)
	}

	if opts.Quiet {
		return display, nil, cleanup, nil
	}
	// With the status line live on stderr and no explicit log file,
	// per-report log lines would tear the repaint. Keep the log off.
	if inline && opts.LogPath == "" {
		return display, nil, cleanup, nil
	}

	if opts.LogFormat == model.LogJSON {
		zcfg := zap.NewProductionConfig()
		if opts.LogPath != "" {
			zcfg.OutputPaths = []string{opts.LogPath}
		} else {
			zcfg.OutputPaths = []string{"stderr"}
		}
		l, err := zcfg.Build()
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("open progress log: %w", err)
		}
		cleanup = func() { _ = l.Sync() }
		return display, sink.NewZap(l), cleanup, nil
	}

	if opts.LogPath == "" {
		return display, sink.NewWriter(os.Stderr), cleanup, nil
	}
	f, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, cleanup, fmt.Errorf("open progress log: %w", err)
	}
	cleanup = func() { _ = f.Close() }
	return display, sink.NewWriter(f), cleanup, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
