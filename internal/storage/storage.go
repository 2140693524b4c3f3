package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/maltedev/frame-scraper/internal/catalog"
)

// JSONFileSink writes the scrape result as a pretty-printed JSON array.
type JSONFileSink struct {
	mu   sync.Mutex
	path string
}

func NewJSONFileSink(path string) *JSONFileSink {
	return &JSONFileSink{path: path}
}

func (s *JSONFileSink) Path() string {
	return s.path
}

// Persist replaces the file contents. A nil result is written as [].
func (s *JSONFileSink) Persist(ctx context.Context, result catalog.ScrapeResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result == nil {
		result = catalog.ScrapeResult{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Write to temp file first for atomicity
	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpFile, err)
	}

	if err := os.Rename(tmpFile, s.path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}

// Load reads a result previously written by Persist.
func (s *JSONFileSink) Load() (catalog.ScrapeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var result catalog.ScrapeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return result, nil
}

// MultiSink persists to every sink in order. A failing sink does not stop
// the others; all failures are returned joined.
type MultiSink []catalog.Sink

func (m MultiSink) Persist(ctx context.Context, result catalog.ScrapeResult) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Persist(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
