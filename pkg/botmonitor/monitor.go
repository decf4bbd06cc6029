package botmonitor

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	StageInbound     = "inbound"
	StageNluRequest  = "nlu_request"
	StageNluResponse = "nlu_response"
	StageOutbound    = "outbound"

	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	TraceID    string            `json:"trace_id"`
	Platform   string            `json:"platform"`
	UserID     string            `json:"user_id"`
	Agent      string            `json:"agent,omitempty"`
	Stage      string            `json:"stage"`  // inbound | nlu_request | nlu_response | outbound
	Kind       string            `json:"kind"`   // request or message type
	Status     string            `json:"status"` // ok | error | skipped
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

type Stats struct {
	TotalInbound     int64   `json:"total_inbound"`
	TotalNluRequests int64   `json:"total_nlu_requests"`
	TotalNluReplies  int64   `json:"total_nlu_replies"`
	TotalOutbound    int64   `json:"total_outbound"`
	TotalErrors      int64   `json:"total_errors"`
	RecentEvents     []Event `json:"recent_events"`
}

// Monitor keeps counters and a ring buffer of the most recent pipeline
// events. A nil *Monitor ignores every call.
type Monitor struct {
	eventsMu sync.Mutex
	events   []Event
	idx      int
	count    int
	ttl      time.Duration

	totalInbound     int64
	totalNluRequests int64
	totalNluReplies  int64
	totalOutbound    int64
	totalErrors      int64

	// OnIncrement, when set, is called with "processed" or "error".
	OnIncrement func(key string)
}

// New creates a monitor keeping size events. Events older than ttl are
// hidden from GetStats; zero keeps them until overwritten.
func New(size int, ttl time.Duration) *Monitor {
	if size <= 0 {
		size = 200
	}
	return &Monitor{events: make([]Event, size), ttl: ttl}
}

func (m *Monitor) Record(e Event) {
	if m == nil {
		return
	}
	e.Timestamp = time.Now().UTC()

	switch e.Stage {
	case StageInbound:
		atomic.AddInt64(&m.totalInbound, 1)
	case StageNluRequest:
		atomic.AddInt64(&m.totalNluRequests, 1)
	case StageNluResponse:
		if e.Status == StatusOK {
			atomic.AddInt64(&m.totalNluReplies, 1)
		}
	case StageOutbound:
		if e.Status == StatusOK {
			atomic.AddInt64(&m.totalOutbound, 1)
			if m.OnIncrement != nil {
				m.OnIncrement("processed")
			}
		}
	}

	if e.Status == StatusError {
		atomic.AddInt64(&m.totalErrors, 1)
		if m.OnIncrement != nil {
			m.OnIncrement("error")
		}
	}

	m.eventsMu.Lock()
	m.events[m.idx] = e
	m.idx = (m.idx + 1) % len(m.events)
	if m.count < len(m.events) {
		m.count++
	}
	m.eventsMu.Unlock()
}

// GetStats returns the counters and the buffered events, oldest first.
func (m *Monitor) GetStats() Stats {
	if m == nil {
		return Stats{RecentEvents: []Event{}}
	}

	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	res := make([]Event, 0, m.count)
	cutoff := time.Time{}
	if m.ttl > 0 {
		cutoff = time.Now().UTC().Add(-m.ttl)
	}
	start := (m.idx - m.count) % len(m.events)
	if start < 0 {
		start += len(m.events)
	}
	for i := 0; i < m.count; i++ {
		e := m.events[(start+i)%len(m.events)]
		if !cutoff.IsZero() && e.Timestamp.Before(cutoff) {
			continue
		}
		res = append(res, e)
	}

	return Stats{
		TotalInbound:     atomic.LoadInt64(&m.totalInbound),
		TotalNluRequests: atomic.LoadInt64(&m.totalNluRequests),
		TotalNluReplies:  atomic.LoadInt64(&m.totalNluReplies),
		TotalOutbound:    atomic.LoadInt64(&m.totalOutbound),
		TotalErrors:      atomic.LoadInt64(&m.totalErrors),
		RecentEvents:     res,
	}
}
