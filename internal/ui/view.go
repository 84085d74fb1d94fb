package ui

import (
	"fmt"
	"strings"
)

func (m Model) viewHeader() string {
	done, total := 0, len(m.order)
	for _, slot := range m.order {
		if m.states[slot].done {
			done++
		}
	}
	title := m.styles.Title.Render("tally")
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Sessions: %d/%d done • q: quit", done, total))
	return title + "\n" + sub
}

func (m Model) viewSlots() string {
	var b strings.Builder
	for _, slot := range m.order {
		b.WriteString(m.viewSlot(m.states[slot]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewSlot(st *slotState) string {
	left := m.styles.SlotName.Render(truncate(st.label, 48))

	var right string
	switch {
	case st.done && st.err == nil:
		right = m.styles.Success.Render("✓ done")
	case st.done:
		right = m.styles.Error.Render("✗ error")
	case st.percent >= 0 && st.percent <= 100:
		right = fmt.Sprintf("%s %5.1f%%", st.bar.ViewAs(st.percent/100.0), st.percent)
	case st.started:
		right = m.styles.Spinner.Render(st.spinner.View()) + " " + m.styles.Faint.Render("running")
	default:
		right = m.styles.Faint.Render("waiting")
	}

	info := st.status
	if st.operation != "" {
		info += "  " + st.operation
	}
	line1 := fmt.Sprintf("%s  %s", left, right)
	line2 := m.styles.SlotInfo.Render(info)
	return m.styles.Box.Render(line1 + "\n" + line2)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
