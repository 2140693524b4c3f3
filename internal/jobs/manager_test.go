package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/maltedev/frame-scraper/internal/htmlsession"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://shop.test"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sitePages() map[string]string {
	return map[string]string{
		base + "/home": `<div class="main-megamenu"><div class="list-featured">
<a onclick="document.location.href='/cat-1-25-index'">Frames</a></div></div>`,
		base + "/cat-1-25-index": `<div class="list-product-content">
<div class="item-product"><a onclick="gotoproductpage(1)"></a></div>
<div class="item-product"><a onclick="gotoproductpage(2)"></a></div></div>`,
		base + "/1-cfm": `<div class="text-product"><span class="brand">Ray-Ban</span><h1>RB2140</h1><span class="color">UPC: 1</span></div>`,
		base + "/2-cfm": `<div class="text-product"><span class="brand">Oakley</span><h1>OX8046</h1><span class="color">UPC: 2</span></div>`,
	}
}

type recordingSink struct {
	mu   sync.Mutex
	runs map[string]int
}

func (s *recordingSink) forRun(runID string) catalog.Sink {
	return sinkFunc(func(_ context.Context, result catalog.ScrapeResult) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.runs == nil {
			s.runs = map[string]int{}
		}
		s.runs[runID] = len(result)
		return nil
	})
}

type sinkFunc func(context.Context, catalog.ScrapeResult) error

func (f sinkFunc) Persist(ctx context.Context, r catalog.ScrapeResult) error { return f(ctx, r) }

func newManager(sessions SessionFactory, sinks SinkFactory) *Manager {
	return NewManager(Config{
		Sessions: sessions,
		Sinks:    sinks,
		Provider: catalog.MenuCategories{BaseURL: base, Selectors: catalog.DefaultSelectors()},
		Pipeline: catalog.Options{
			BaseURL:   base,
			Selectors: catalog.DefaultSelectors(),
			Timing:    catalog.DefaultTiming(),
		},
	}, testLogger())
}

func htmlSessions(released *int) SessionFactory {
	return func(context.Context) (catalog.Session, func(), error) {
		return htmlsession.New(sitePages(), testLogger()), func() { *released++ }, nil
	}
}

func TestManagerCompletesRun(t *testing.T) {
	sink := &recordingSink{}
	released := 0
	m := newManager(htmlSessions(&released), sink.forRun)

	run, err := m.Start()
	require.NoError(t, err)
	assert.Equal(t, StatusPending, run.Status)
	m.Wait()

	got, err := m.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 2, got.Stats.Records)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 2, got.Progress.Counts[catalog.EventProductScraped])

	products, err := m.Products(run.ID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Ray-Ban", products[0].Brand)

	assert.Equal(t, 2, sink.runs[run.ID])
	assert.Equal(t, 1, released, "session is released after the run")

	_, active := m.Active()
	assert.False(t, active)
}

func TestManagerRejectsConcurrentRuns(t *testing.T) {
	gate := make(chan struct{})
	sessions := func(ctx context.Context) (catalog.Session, func(), error) {
		<-gate
		return htmlsession.New(sitePages(), testLogger()), nil, nil
	}
	m := newManager(sessions, (&recordingSink{}).forRun)

	first, err := m.Start()
	require.NoError(t, err)

	_, err = m.Start()
	assert.ErrorIs(t, err, ErrRunInProgress)

	id, active := m.Active()
	assert.True(t, active)
	assert.Equal(t, first.ID, id)

	close(gate)
	m.Wait()

	second, err := m.Start()
	require.NoError(t, err, "a new run may start once the previous one finished")
	m.Wait()

	runs := m.List()
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")
}

func TestManagerSessionFailure(t *testing.T) {
	sessions := func(context.Context) (catalog.Session, func(), error) {
		return nil, nil, errors.New("login failed: bad credentials")
	}
	m := newManager(sessions, (&recordingSink{}).forRun)

	run, err := m.Start()
	require.NoError(t, err)
	m.Wait()

	got, err := m.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Contains(t, got.Error, "bad credentials")
	assert.Nil(t, got.Stats)
}

func TestManagerPersistFailureMarksRunFailed(t *testing.T) {
	released := 0
	sinks := func(string) catalog.Sink {
		return sinkFunc(func(context.Context, catalog.ScrapeResult) error { return fmt.Errorf("disk full") })
	}
	m := newManager(htmlSessions(&released), sinks)

	run, err := m.Start()
	require.NoError(t, err)
	m.Wait()

	got, err := m.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 2, got.Stats.Records, "records are kept even when the sink fails")
}

func TestManagerUnknownRun(t *testing.T) {
	m := newManager(htmlSessions(new(int)), (&recordingSink{}).forRun)

	_, err := m.Get("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = m.Products("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestManagerShutdown(t *testing.T) {
	m := newManager(htmlSessions(new(int)), (&recordingSink{}).forRun)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	_, err := m.Start()
	assert.Error(t, err)
}
