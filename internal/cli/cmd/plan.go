package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tally/internal/meter"
	"tally/internal/model"
	"tally/internal/stream"
	"tally/internal/util/format"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "plan [files...]",
		Short:         "Show per-source session plan without moving records",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PreRunE:       runPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, args, runMode{PlanOnly: true})
		},
	}
	// Reuse same flags; plan only resolves them, it never streams
	bindRunFlags(cmd.Flags())
	return cmd
}

func planExecute(cmd *cobra.Command, in runInputs) error {
	w := cmd.OutOrStdout()
	for slot, src := range in.Sources {
		total, counted, err := resolveTotal(src, in.Options)
		if err != nil {
			return &ExitError{Code: ExitIOError, Err: err}
		}
		printPlan(w, slot, src, total, counted, in.Options)
	}
	return nil
}

// printPlan outputs the resolved session settings without executing them.
func printPlan(w io.Writer, slot int, src stream.Source, total uint64, counted bool, opts model.Options) {
	interval := opts.Interval
	if interval == 0 {
		interval = meter.DefaultInterval
	}
	label := opts.Label
	if label == "" {
		label = src.Label
	}

	fmt.Fprintf(w, "Session %d:\n", slot+1)
	fmt.Fprintf(w, "- Source:        %s\n", src.Label)
	if size, ok := src.Size(); ok {
		fmt.Fprintf(w, "- Size:          %s\n", format.HumanizeBytes(size))
	}
	fmt.Fprintf(w, "- Label:         %s\n", label)
	fmt.Fprintf(w, "- Delimiter:     %s\n", delimiterName(opts))
	switch {
	case total > 0 && counted:
		fmt.Fprintf(w, "- Total:         %d %s (pre-counted)\n", total, opts.Suffix)
	case total > 0:
		fmt.Fprintf(w, "- Total:         %d %s\n", total, opts.Suffix)
	default:
		fmt.Fprintf(w, "- Total:         unknown (running counter only)\n")
	}
	fmt.Fprintf(w, "- Interval:      every %d %s\n", interval, opts.Suffix)
	if total > 0 {
		fmt.Fprintf(w, "- Reports:       %d\n", 2+total/uint64(interval))
	}
	fmt.Fprintf(w, "- Output:        %s\n", outputName(opts.Output))
	fmt.Fprintf(w, "- Progress log:  %s\n", logName(opts))
}

func delimiterName(opts model.Options) string {
	if opts.Null {
		return "NUL"
	}
	return "newline"
}

func outputName(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}

func logName(opts model.Options) string {
	if opts.Quiet {
		return "disabled"
	}
	dest := "stderr"
	if opts.LogPath != "" {
		dest = opts.LogPath
	}
	return fmt.Sprintf("%s (%s)", dest, opts.LogFormat)
}
