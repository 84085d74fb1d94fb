package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"tally/internal/dirs"
	"tally/internal/meter"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose terminal, config, and reporting defaults",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			fmt.Fprintf(w, "Stdin:  %s\n", describeFd(int(os.Stdin.Fd())))
			fmt.Fprintf(w, "Stdout: %s\n", describeFd(int(os.Stdout.Fd())))
			fmt.Fprintf(w, "Stderr: %s\n", describeFd(int(os.Stderr.Fd())))

			if cfg := viper.ConfigFileUsed(); cfg != "" {
				fmt.Fprintf(w, "Config: %s\n", cfg)
			} else if dir, err := dirs.ConfigDir(); err == nil {
				fmt.Fprintf(w, "Config: none (searched %s)\n", dir)
			}
			if state, err := dirs.StateDir(); err == nil {
				fmt.Fprintf(w, "State:  %s\n", state)
			}

			fmt.Fprintf(w, "Report interval: every %d records\n", effectiveInterval(cmd))
			fmt.Fprintf(w, "Log format:      %s\n", getPersistentString(cmd, "log-format", "text"))
			return nil
		},
	}
}

func describeFd(fd int) string {
	if !term.IsTerminal(fd) {
		return "pipe or file"
	}
	if w, h, err := term.GetSize(fd); err == nil {
		return fmt.Sprintf("terminal (%dx%d)", w, h)
	}
	return "terminal"
}

func effectiveInterval(cmd *cobra.Command) int {
	n := getPersistentInt(cmd, "interval", 0)
	if n == 0 {
		return meter.DefaultInterval
	}
	return n
}
