package botmonitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Counters(t *testing.T) {
	m := New(10, 0)
	var hooks []string
	m.OnIncrement = func(key string) { hooks = append(hooks, key) }

	m.Record(Event{Stage: StageInbound, Status: StatusOK})
	m.Record(Event{Stage: StageNluRequest, Status: StatusOK, Agent: "first"})
	m.Record(Event{Stage: StageNluResponse, Status: StatusOK})
	m.Record(Event{Stage: StageNluResponse, Status: StatusError, Error: "timeout"})
	m.Record(Event{Stage: StageOutbound, Status: StatusOK})

	stats := m.GetStats()
	assert.EqualValues(t, 1, stats.TotalInbound)
	assert.EqualValues(t, 1, stats.TotalNluRequests)
	assert.EqualValues(t, 1, stats.TotalNluReplies)
	assert.EqualValues(t, 1, stats.TotalOutbound)
	assert.EqualValues(t, 1, stats.TotalErrors)
	assert.Len(t, stats.RecentEvents, 5)
	assert.Equal(t, []string{"error", "processed"}, hooks)
}

func TestMonitor_RingBufferKeepsNewest(t *testing.T) {
	m := New(3, 0)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		m.Record(Event{TraceID: id, Stage: StageInbound})
	}

	events := m.GetStats().RecentEvents
	require.Len(t, events, 3)
	assert.Equal(t, "c", events[0].TraceID)
	assert.Equal(t, "e", events[2].TraceID)
}

func TestMonitor_TTLHidesOldEvents(t *testing.T) {
	m := New(5, 20*time.Millisecond)
	m.Record(Event{TraceID: "old"})
	time.Sleep(40 * time.Millisecond)
	m.Record(Event{TraceID: "new"})

	events := m.GetStats().RecentEvents
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].TraceID)
}

func TestMonitor_NilIsNoop(t *testing.T) {
	var m *Monitor
	m.Record(Event{Stage: StageInbound})
	assert.Empty(t, m.GetStats().RecentEvents)
}
