package ui

import (
	"context"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"tally/internal/meter"
)

// Job is one metered unit of work the TUI drives: a function that streams
// items through a progress session publishing to the given display. Each
// job owns one display slot.
type Job struct {
	Label string
	Slot  int
	Run   func(ctx context.Context, d meter.Display) error
}

type slotState struct {
	label     string
	status    string
	operation string
	percent   float64 // -1 means unknown
	err       error
	done      bool
	started   bool

	spinner spinner.Model
	bar     bubblesprogress.Model
}

func newSlotState(label string, styles Styles) *slotState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	bar := bubblesprogress.New(
		bubblesprogress.WithDefaultGradient(),
		bubblesprogress.WithWidth(40),
	)
	return &slotState{
		label:   label,
		percent: -1,
		spinner: sp,
		bar:     bar,
	}
}
