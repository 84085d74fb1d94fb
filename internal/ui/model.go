package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"tally/internal/meter"
)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	// Jobs
	jobs    []Job
	order   []int // slots in job order
	states  map[int]*slotState
	workers int
	running int
	next    int // next index in jobs to start

	// UI
	width, height int
	styles        Styles

	// Internal event channel used by session displays to feed tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, jobs []Job, workers int) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	states := make(map[int]*slotState, len(jobs))
	order := make([]int, 0, len(jobs))
	for _, j := range jobs {
		states[j.Slot] = newSlotState(j.Label, sty)
		order = append(order, j.Slot)
	}

	if workers <= 0 {
		workers = 2
	}

	return Model{
		ctx:     c,
		cancel:  cancel,
		jobs:    jobs,
		order:   order,
		states:  states,
		workers: workers,
		styles:  sty,
		eventCh: make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		func() tea.Msg { return startMsg{} },
		m.listenEventsCmd(),
	}
	for _, slot := range m.order {
		sp := m.states[slot].spinner
		cmds = append(cmds, sp.Tick)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case startMsg:
		cmd := m.startJobs()
		return m, cmd

	case slotUpdateMsg:
		u := msg.U
		if st, ok := m.states[u.Slot]; ok {
			if u.Completed {
				// The session is over: blank the live fields. The done
				// mark arrives with jobDoneMsg.
				st.status = ""
				st.operation = ""
				st.percent = -1
			} else {
				st.status = u.Status
				st.operation = u.Operation
				st.percent = u.Percent
			}
		}
		// Re-arm the listener that delivered this message.
		return m, m.listenEventsCmd()

	case jobDoneMsg:
		if st, ok := m.states[msg.Slot]; ok {
			st.done = true
			st.err = msg.Err
			if msg.Err != nil {
				st.status = msg.Err.Error()
			}
		}
		m.running--
		cmd := m.startJobs()
		return m, cmd

	case allDoneMsg:
		m.cancel()
		return m, tea.Quit
	}

	// Update per-slot components (spinner)
	var cmds []tea.Cmd
	for _, slot := range m.order {
		st := m.states[slot]
		var c tea.Cmd
		st.spinner, c = st.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return m.viewHeader() + "\n\n" + m.viewSlots()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

// startJobs launches queued jobs up to the worker limit. Accounting stays
// on the model here in Update; the returned commands only run the jobs.
func (m *Model) startJobs() tea.Cmd {
	select {
	case <-m.ctx.Done():
		return func() tea.Msg { return allDoneMsg{} }
	default:
	}

	var cmds []tea.Cmd
	for m.running < m.workers && m.next < len(m.jobs) {
		job := m.jobs[m.next]
		m.next++
		m.running++
		if st, ok := m.states[job.Slot]; ok {
			st.started = true
		}
		cmds = append(cmds, m.runJobCmd(job))
	}
	if m.next >= len(m.jobs) && m.running == 0 {
		return func() tea.Msg { return allDoneMsg{} }
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m Model) runJobCmd(job Job) tea.Cmd {
	return func() tea.Msg {
		err := job.Run(m.ctx, display{ctx: m.ctx, ch: m.eventCh})
		return jobDoneMsg{Slot: job.Slot, Label: job.Label, Err: err}
	}
}

// display feeds session updates into the tea event loop. Completion
// updates must be delivered, so they block until taken or the program is
// gone; periodic updates may drop under backpressure.
type display struct {
	ctx context.Context
	ch  chan<- tea.Msg
}

func (d display) Publish(u meter.Update) {
	if u.Completed {
		select {
		case d.ch <- slotUpdateMsg{U: u}:
		case <-d.ctx.Done():
		}
		return
	}
	select {
	case d.ch <- slotUpdateMsg{U: u}:
	default:
	}
}
