// Package ui renders live progress sessions as a full-screen terminal
// application: one progress bar per display slot, driven by the same
// structured updates every other display sink consumes.
package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Run drives the jobs under the TUI, at most workers at a time, and
// returns once every job finished or the user quit. Job errors are
// collected into one summary error rather than aborting the others.
func Run(ctx context.Context, jobs []Job, workers int) error {
	m := NewModel(ctx, jobs, workers)
	defer m.cancel()

	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		var failed []string
		for _, slot := range fm.order {
			st := fm.states[slot]
			if st != nil && st.err != nil {
				failed = append(failed, fmt.Sprintf("- %s: %s", st.label, st.err))
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d session(s) failed:\n%s", len(failed), strings.Join(failed, "\n"))
		}
	}
	return nil
}
