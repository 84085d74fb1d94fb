package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tally/internal/meter"
	"tally/internal/model"
	"tally/internal/scenario"
	"tally/internal/ui"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "simulate <scenario.yaml>",
		Short:         "Replay a scripted set of sessions from a scenario file",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulateExecute(cmd, args[0])
		},
	}
	cmd.Flags().Bool("no-ui", false, "Report with plain status lines instead of the dashboard")
	cmd.Flags().String("log", "", "Append progress log lines to file")
	return cmd
}

func simulateExecute(cmd *cobra.Command, path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}

	noUI, _ := cmd.Flags().GetBool("no-ui")
	logPath, _ := cmd.Flags().GetString("log")
	logFormat := getPersistentString(cmd, "log-format", string(model.LogText))
	jobs := getPersistentInt(cmd, "jobs", 2)
	if jobs <= 0 {
		jobs = 2
	}

	switch model.LogFormat(logFormat) {
	case model.LogText, model.LogJSON:
	default:
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("invalid --log-format: %q (valid: text|json)", logFormat)}
	}

	opts := model.Options{
		LogPath:   logPath,
		LogFormat: model.LogFormat(logFormat),
		NoUI:      noUI,
		Quiet:     getPersistentBool(cmd, "quiet", false),
		Jobs:      jobs,
	}

	if !noUI && term.IsTerminal(int(os.Stdout.Fd())) {
		return simulateTUI(cmd.Context(), sc, opts)
	}
	return simulateInline(cmd.Context(), sc, opts)
}

// simulateTUI runs every scripted session as a dashboard job.
func simulateTUI(ctx context.Context, sc *scenario.Scenario, opts model.Options) error {
	logSink, closeLog, err := fileLogSink(opts)
	if err != nil {
		return &ExitError{Code: ExitIOError, Err: err}
	}
	defer closeLog()

	jobs := make([]ui.Job, len(sc.Sessions))
	for slot, s := range sc.Sessions {
		slot, s := slot, s
		jobs[slot] = ui.Job{
			Label: s.Activity,
			Slot:  slot,
			Run: func(ctx context.Context, d meter.Display) error {
				ropts := []scenario.RunnerOption{scenario.WithDisplay(d)}
				if logSink != nil {
					ropts = append(ropts, scenario.WithLog(logSink))
				}
				return scenario.NewRunner(ropts...).RunSession(ctx, s, slot)
			},
		}
	}

	if err := ui.Run(ctx, jobs, opts.Jobs); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return nil
}

// simulateInline runs the whole scenario against the same sinks a plain
// run would use.
func simulateInline(ctx context.Context, sc *scenario.Scenario, opts model.Options) error {
	display, logSink, closeSinks, err := buildSinks(opts)
	if err != nil {
		return &ExitError{Code: ExitIOError, Err: err}
	}
	defer closeSinks()

	var ropts []scenario.RunnerOption
	if display != nil {
		ropts = append(ropts, scenario.WithDisplay(display))
	}
	if logSink != nil {
		ropts = append(ropts, scenario.WithLog(logSink))
	}

	if err := scenario.NewRunner(ropts...).Run(ctx, sc); err != nil {
		if errors.Is(err, meter.ErrInvalidConfiguration) {
			return &ExitError{Code: ExitConfigError, Err: err}
		}
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return nil
}
