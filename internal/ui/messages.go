package ui

import "tally/internal/meter"

type startMsg struct{}

type slotUpdateMsg struct {
	U meter.Update
}

type jobDoneMsg struct {
	Slot  int
	Label string
	Err   error
}

type allDoneMsg struct{}
