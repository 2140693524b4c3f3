package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() catalog.ScrapeResult {
	return catalog.ScrapeResult{
		{URL: "https://www.nywd.com/101-cfm", Brand: "Ray-Ban", Name: "RB2140 Wayfarer", Code: "805289126577", RawText: "Ray-Ban\nRB2140 Wayfarer"},
		{URL: "https://www.nywd.com/102-cfm", Brand: "Oakley", Name: "OX8046 Airdrop", Code: "888392114327", RawText: "Oakley\nOX8046 Airdrop"},
	}
}

func TestJSONFileSinkPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage", "app", "frames_data.json")
	sink := NewJSONFileSink(path)

	require.NoError(t, sink.Persist(context.Background(), sampleResult()))

	got, err := sink.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), got)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not be left behind")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"raw_text": "Ray-Ban\nRB2140 Wayfarer"`)
}

func TestJSONFileSinkReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.json")
	sink := NewJSONFileSink(path)

	require.NoError(t, sink.Persist(context.Background(), sampleResult()))
	require.NoError(t, sink.Persist(context.Background(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

type failingSink struct{ err error }

func (f failingSink) Persist(context.Context, catalog.ScrapeResult) error { return f.err }

func TestMultiSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.json")
	boom := errors.New("database unavailable")

	multi := MultiSink{failingSink{boom}, NewJSONFileSink(path)}
	err := multi.Persist(context.Background(), sampleResult())

	assert.ErrorIs(t, err, boom)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "later sinks still run after a failure")

	assert.NoError(t, MultiSink{}.Persist(context.Background(), sampleResult()))
}
