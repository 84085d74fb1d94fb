package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tally/internal/config"
)

const (
	ExitOK          = 0
	ExitCLIError    = 1
	ExitConfigError = 2
	ExitIOError     = 3
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// logger carries diagnostic output for all subcommands. Progress reporting
// has its own sinks; this is only for --verbose plumbing detail.
var logger = zap.NewNop()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tally [files...]",
		Short:         "Progress meter for record streams",
		Long:          "Tally relays records from files or standard input to standard output unchanged, while counting them and reporting progress out of band. Give it a total and it adds percentages and a completion estimate; give it nothing and it is a plain running counter for any pipeline stage.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs, // no files means read stdin
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			zcfg := zap.NewProductionConfig()
			if getPersistentBool(cmd, "verbose", false) {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			} else {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			}
			l, err := zcfg.Build()
			if err != nil {
				return &ExitError{Code: ExitConfigError, Err: err}
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default to the same behavior as `tally run` when no subcommand is specified.
			return runExecute(cmd, args, runMode{})
		},
	}

	// Persistent flags available to all subcommands
	root.PersistentFlags().IntP("interval", "n", 0, "Report progress every N records (0 = default)")
	root.PersistentFlags().String("suffix", "records", "Noun for counted records in status lines")
	root.PersistentFlags().String("log-format", "text", "Progress log encoding: text, json")
	root.PersistentFlags().Int("jobs", 2, "Max concurrent sessions in TUI mode")
	root.PersistentFlags().BoolP("verbose", "v", false, "Show internal diagnostics on stderr")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress log lines")

	// Also bind run-specific flags on root, so `tally <file>` continues to work.
	bindRunFlags(root.Flags())

	// Subcommands
	root.AddCommand(newRunCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newSimulateCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.String("label", "", "Activity label for reports (default: source name)")
	fs.Uint64P("total", "s", 0, "Expected record count; 0 means unknown")
	fs.BoolP("null", "0", false, "Records are NUL-delimited instead of newline-delimited")
	fs.Bool("pre-count", false, "Count records in file sources before streaming")
	fs.StringP("output", "o", "", "Write records to file instead of stdout ('-' = stdout)")
	fs.String("log", "", "Append progress log lines to file instead of stderr")
	fs.Bool("no-ui", false, "Disable the live status line even on a terminal")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	if err := config.Init(root); err != nil {
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	return root.ExecuteContext(ctx)
}

// Helpers

// getPersistentString reads a persistent flag with Viper fallback, so
// values from config file or TALLY_* env apply when the flag is unset.
// cmd.Flags() holds the merged set after parsing, on the root command
// (which carries these flags itself) as well as on subcommands.
func getPersistentString(cmd *cobra.Command, name, def string) string {
	fs := cmd.Flags()
	if f := fs.Lookup(name); f != nil && f.Changed {
		if v, err := fs.GetString(name); err == nil {
			return v
		}
	}
	if key := viperKey(name); viper.IsSet(key) {
		return viper.GetString(key)
	}
	v, err := fs.GetString(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

func getPersistentBool(cmd *cobra.Command, name string, def bool) bool {
	fs := cmd.Flags()
	if f := fs.Lookup(name); f != nil && f.Changed {
		if v, err := fs.GetBool(name); err == nil {
			return v
		}
	}
	if key := viperKey(name); viper.IsSet(key) {
		return viper.GetBool(key)
	}
	v, err := fs.GetBool(name)
	if err != nil {
		return def
	}
	return v
}

func getPersistentInt(cmd *cobra.Command, name string, def int) int {
	fs := cmd.Flags()
	if f := fs.Lookup(name); f != nil && f.Changed {
		if v, err := fs.GetInt(name); err == nil {
			return v
		}
	}
	if key := viperKey(name); viper.IsSet(key) {
		return viper.GetInt(key)
	}
	v, err := fs.GetInt(name)
	if err != nil {
		return def
	}
	return v
}

// viperKey maps a flag name to its bound Viper key.
func viperKey(flag string) string {
	switch flag {
	case "log-format":
		return "log_format"
	default:
		return flag
	}
}

func ensureDir(path string) error {
	if path == "" {
		path = "."
	}
	return os.MkdirAll(filepath.Clean(path), 0o755)
}
