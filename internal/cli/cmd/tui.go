package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tally/internal/meter"
	"tally/internal/model"
	"tally/internal/sink"
	"tally/internal/stream"
	"tally/internal/ui"
)

func newTuiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tui [files...]",
		Short:         "Monitor several sources in a full-screen dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PreRunE:       runPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{ForceTUI: true})
		},
	}
	bindRunFlags(cmd.Flags())
	cmd.Flags().String("out-dir", "", "Directory for relayed record files (default: discard records)")
	// The dashboard owns the terminal, so single-stream output flags make no sense here.
	if f := cmd.Flags().Lookup("output"); f != nil {
		f.Hidden = true
	}
	if f := cmd.Flags().Lookup("no-ui"); f != nil {
		f.Hidden = true
	}
	return cmd
}

func tuiExecute(cmd *cobra.Command, in runInputs) error {
	opts := in.Options
	if opts.OutDir != "" {
		if err := ensureDir(opts.OutDir); err != nil {
			return &ExitError{Code: ExitIOError, Err: fmt.Errorf("failed to create output dir: %v", err)}
		}
	}

	logSink, closeLog, err := fileLogSink(opts)
	if err != nil {
		return &ExitError{Code: ExitIOError, Err: err}
	}
	defer closeLog()

	outPaths := jobOutputPaths(in.Sources, opts.OutDir)

	jobs := make([]ui.Job, len(in.Sources))
	for slot, src := range in.Sources {
		slot, src := slot, src
		outPath := ""
		if outPaths != nil {
			outPath = outPaths[slot]
		}
		jobs[slot] = ui.Job{
			Label: src.Label,
			Slot:  slot,
			Run: func(ctx context.Context, d meter.Display) error {
				return pumpJob(ctx, slot, src, outPath, opts, d, logSink)
			},
		}
	}

	if err := ui.Run(cmd.Context(), jobs, opts.Jobs); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return nil
}

// pumpJob streams one source inside a dashboard slot. Pre-counting, when
// asked for, happens inside the job so slow scans overlap.
func pumpJob(ctx context.Context, slot int, src stream.Source, outPath string, opts model.Options, d meter.Display, log meter.LogSink) error {
	total, _, err := resolveTotal(src, opts)
	if err != nil {
		return err
	}

	r, err := src.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	out, closeOut, err := jobOutput(outPath)
	if err != nil {
		return err
	}
	defer closeOut()

	pumpOpts := []stream.PumpOption{
		stream.WithDelimiter(opts.Delimiter()),
		stream.WithDisplay(d),
	}
	if log != nil {
		pumpOpts = append(pumpOpts, stream.WithLog(log))
	}
	pump := stream.NewPump(pumpOpts...)

	label := opts.Label
	if label == "" {
		label = src.Label
	}
	_, err = pump.Run(ctx, r, out, meter.Config{
		Activity: label,
		Suffix:   opts.Suffix,
		Total:    total,
		Interval: opts.Interval,
		Slot:     slot,
	})
	return err
}

// jobOutputPaths assigns one output file per source under dir, numbering
// colliding basenames so no two jobs relay into the same file. An empty
// dir means records are discarded and yields nil.
func jobOutputPaths(sources []stream.Source, dir string) []string {
	if dir == "" {
		return nil
	}
	paths := make([]string, len(sources))
	used := make(map[string]bool, len(sources))
	for i, src := range sources {
		name := filepath.Base(src.Label)
		if used[name] {
			ext := filepath.Ext(name)
			stem := strings.TrimSuffix(name, ext)
			for n := 2; ; n++ {
				next := fmt.Sprintf("%s-%d%s", stem, n, ext)
				if !used[next] {
					name = next
					break
				}
			}
		}
		used[name] = true
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}

func jobOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

// fileLogSink opens the progress log for dashboard modes. The dashboard
// owns the terminal, so without --log the reports go nowhere.
func fileLogSink(opts model.Options) (meter.LogSink, func(), error) {
	cleanup := func() {}
	if opts.Quiet || opts.LogPath == "" {
		return nil, cleanup, nil
	}
	if opts.LogFormat == model.LogJSON {
		zcfg := zap.NewProductionConfig()
		zcfg.OutputPaths = []string{opts.LogPath}
		l, err := zcfg.Build()
		if err != nil {
			return nil, cleanup, fmt.Errorf("open progress log: %w", err)
		}
		return sink.NewZap(l), func() { _ = l.Sync() }, nil
	}
	f, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, cleanup, fmt.Errorf("open progress log: %w", err)
	}
	return sink.NewWriter(f), func() { _ = f.Close() }, nil
}
