package report

import (
	"sync"
	"time"

	"github.com/maltedev/frame-scraper/internal/catalog"
)

// Snapshot is a point-in-time view of a run in progress.
type Snapshot struct {
	Counts    map[catalog.EventKind]int `json:"counts"`
	LastKind  catalog.EventKind         `json:"last_kind,omitempty"`
	LastURL   string                    `json:"last_url,omitempty"`
	LastError string                    `json:"last_error,omitempty"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// Recorder keeps event counts for status reporting. It is safe for
// concurrent use.
type Recorder struct {
	mu        sync.RWMutex
	counts    map[catalog.EventKind]int
	last      catalog.Event
	lastError string
}

func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[catalog.EventKind]int)}
}

func (r *Recorder) OnEvent(e catalog.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[e.Kind]++
	r.last = e
	if e.Err != nil {
		r.lastError = e.Err.Error()
	}
}

func (r *Recorder) Count(kind catalog.EventKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counts[kind]
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[catalog.EventKind]int, len(r.counts))
	for k, v := range r.counts {
		counts[k] = v
	}
	return Snapshot{
		Counts:    counts,
		LastKind:  r.last.Kind,
		LastURL:   r.last.URL,
		LastError: r.lastError,
		UpdatedAt: r.last.Time,
	}
}
