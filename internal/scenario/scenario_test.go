package scenario

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tally/internal/meter"
)

// syncDisplay records updates from concurrently running sessions.
type syncDisplay struct {
	mu      sync.Mutex
	updates []meter.Update
}

func (d *syncDisplay) Publish(u meter.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, u)
}

func (d *syncDisplay) bySlot() map[int][]meter.Update {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := make(map[int][]meter.Update)
	for _, u := range d.updates {
		m[u.Slot] = append(m[u.Slot], u)
	}
	return m
}

func TestLoad(t *testing.T) {
	doc := `
sessions:
  - activity: ingest
    suffix: records
    total: 5000
    interval: 500
    items: 5000
    delay: 1ms
  - activity: scan
    suffix: rows
    interval: 1000
    items: 2500
`
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, sc.Sessions, 2)

	first := sc.Sessions[0]
	assert.Equal(t, "ingest", first.Activity)
	assert.Equal(t, "records", first.Suffix)
	assert.Equal(t, uint64(5000), first.Total)
	assert.Equal(t, 500, first.Interval)
	assert.Equal(t, time.Millisecond, first.ItemDelay())

	second := sc.Sessions[1]
	assert.Equal(t, uint64(0), second.Total)
	assert.Equal(t, time.Duration(0), second.ItemDelay())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "{{nope"},
		{name: "no sessions", doc: "sessions: []"},
		{name: "zero items", doc: "sessions:\n  - activity: x\n    items: 0"},
		{name: "bad delay", doc: "sessions:\n  - activity: x\n    items: 5\n    delay: soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestRunner_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	sc := &Scenario{Sessions: []Session{
		{Activity: "a", Suffix: "items", Total: 10, Interval: 5, Items: 10},
		{Activity: "b", Suffix: "rows", Interval: 4, Items: 9},
	}}
	d := &syncDisplay{}

	r := NewRunner(WithDisplay(d))
	require.NoError(t, r.Run(context.Background(), sc))

	slots := d.bySlot()
	require.Len(t, slots, 2)
	// Initializing, each interval boundary, terminal.
	assert.Len(t, slots[0], 4)
	assert.Len(t, slots[1], 4)
	for slot, updates := range slots {
		assert.True(t, updates[len(updates)-1].Completed, "slot %d missing terminal update", slot)
	}
}

func TestRunner_InvalidInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	sc := &Scenario{Sessions: []Session{{Activity: "bad", Items: 1, Interval: -1}}}
	err := NewRunner().Run(context.Background(), sc)
	require.Error(t, err)
	assert.ErrorIs(t, err, meter.ErrInvalidConfiguration)
}

func TestRunner_Canceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &syncDisplay{}
	sc := &Scenario{Sessions: []Session{
		{Activity: "slow", Suffix: "items", Items: 100000, Delay: "10ms"},
	}}

	err := NewRunner(WithDisplay(d)).Run(ctx, sc)
	assert.ErrorIs(t, err, context.Canceled)

	// The terminal report still fired on the way out.
	slots := d.bySlot()
	updates := slots[0]
	require.NotEmpty(t, updates)
	assert.True(t, updates[len(updates)-1].Completed)
}
