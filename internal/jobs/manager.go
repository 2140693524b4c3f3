package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/maltedev/frame-scraper/internal/report"
)

var (
	// ErrRunInProgress is returned by Start while another run holds the
	// browsing session.
	ErrRunInProgress = errors.New("a run is already in progress")
	ErrRunNotFound   = errors.New("run not found")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is the externally visible state of one crawl.
type Run struct {
	ID          string          `json:"id"`
	Status      Status          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Stats       *catalog.Stats  `json:"stats,omitempty"`
	Progress    report.Snapshot `json:"progress"`
	Error       string          `json:"error,omitempty"`
}

// SessionFactory opens an authenticated session for one run. release is
// called once the run no longer needs the session.
type SessionFactory func(ctx context.Context) (sess catalog.Session, release func(), err error)

// SinkFactory returns the sink a run persists to.
type SinkFactory func(runID string) catalog.Sink

type Config struct {
	Sessions  SessionFactory
	Sinks     SinkFactory
	Provider  catalog.CategoryProvider
	Pipeline  catalog.Options
	Observers []catalog.Observer
}

type runState struct {
	run      Run
	recorder *report.Recorder
	records  catalog.ScrapeResult
}

// Manager starts crawl runs in the background, one at a time, and keeps
// their state in memory.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	runs   map[string]*runState
	order  []string
	active string
}

func NewManager(cfg Config, logger *slog.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:    cfg,
		logger: logger.With("component", "job_manager"),
		ctx:    ctx,
		cancel: cancel,
		runs:   make(map[string]*runState),
	}
}

// Start registers a new run and executes it asynchronously.
func (m *Manager) Start() (Run, error) {
	m.mu.Lock()
	if m.active != "" {
		active := m.active
		m.mu.Unlock()
		return Run{}, fmt.Errorf("%w: %s", ErrRunInProgress, active)
	}
	if m.ctx.Err() != nil {
		m.mu.Unlock()
		return Run{}, fmt.Errorf("manager is shut down: %w", m.ctx.Err())
	}

	state := &runState{
		run: Run{
			ID:        uuid.New().String(),
			Status:    StatusPending,
			CreatedAt: time.Now(),
		},
		recorder: report.NewRecorder(),
	}
	m.runs[state.run.ID] = state
	m.order = append(m.order, state.run.ID)
	m.active = state.run.ID
	run := m.viewLocked(state)
	m.mu.Unlock()

	m.logger.Info("run created", "run_id", run.ID)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.execute(state)
	}()

	return run, nil
}

func (m *Manager) execute(state *runState) {
	id := state.run.ID
	m.update(id, func(s *runState) {
		now := time.Now()
		s.run.Status = StatusRunning
		s.run.StartedAt = &now
	})

	outcome, err := m.crawl(id, state.recorder)

	m.update(id, func(s *runState) {
		now := time.Now()
		s.run.CompletedAt = &now
		if outcome != nil {
			stats := outcome.Stats
			s.run.Stats = &stats
			s.records = outcome.Result
		}
		if err != nil {
			s.run.Status = StatusFailed
			s.run.Error = err.Error()
		} else {
			s.run.Status = StatusCompleted
		}
	})

	m.mu.Lock()
	m.active = ""
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("run failed", "run_id", id, "error", err)
		return
	}
	m.logger.Info("run completed", "run_id", id)
}

func (m *Manager) crawl(runID string, recorder *report.Recorder) (*catalog.Outcome, error) {
	sess, release, err := m.cfg.Sessions(m.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	if release != nil {
		defer release()
	}

	observers := report.Multi{recorder}
	if m.cfg.Pipeline.Observer != nil {
		observers = append(observers, m.cfg.Pipeline.Observer)
	}
	observers = append(observers, m.cfg.Observers...)

	opts := m.cfg.Pipeline
	opts.Observer = observers
	coordinator := catalog.NewCoordinator(opts, m.logger.With("run_id", runID))

	return coordinator.Run(m.ctx, sess, m.cfg.Provider, m.cfg.Sinks(runID))
}

func (m *Manager) update(id string, fn func(*runState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.runs[id]; ok {
		fn(s)
	}
}

func (m *Manager) viewLocked(s *runState) Run {
	run := s.run
	run.Progress = s.recorder.Snapshot()
	return run
}

func (m *Manager) Get(id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.runs[id]
	if !ok {
		return Run{}, ErrRunNotFound
	}
	return m.viewLocked(s), nil
}

// List returns all runs, newest first.
func (m *Manager) List() []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]Run, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		runs = append(runs, m.viewLocked(m.runs[m.order[i]]))
	}
	return runs
}

// Products returns the records of a finished run. A run still in progress
// has none yet.
func (m *Manager) Products(id string) (catalog.ScrapeResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	out := make(catalog.ScrapeResult, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Active returns the id of the run in progress, if any.
func (m *Manager) Active() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active, m.active != ""
}

// Shutdown stops the active run from starting new work and waits for it to
// persist, or for ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until no run is executing.
func (m *Manager) Wait() {
	m.wg.Wait()
}
