package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/maltedev/frame-scraper/internal/catalog"
)

// FrameSink stores scraped records in the frames table and announces them
// through the outbox, all in one transaction.
type FrameSink struct {
	db     *DB
	outbox *OutboxRepository
	stream string
	runID  string
	logger *slog.Logger
}

func NewFrameSink(db *DB, stream string, logger *slog.Logger) *FrameSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &FrameSink{
		db:     db,
		outbox: NewOutboxRepository(db),
		stream: stream,
		runID:  uuid.NewString(),
		logger: logger.With("component", "frame_sink"),
	}
}

// ForRun returns a copy of the sink that tags rows and events with runID.
func (s *FrameSink) ForRun(runID string) *FrameSink {
	c := *s
	c.runID = runID
	return &c
}

type frameScrapedPayload struct {
	RunID string `json:"run_id"`
	catalog.ProductRecord
}

type scrapeCompletedPayload struct {
	RunID       string    `json:"run_id"`
	Records     int       `json:"records"`
	CompletedAt time.Time `json:"completed_at"`
}

const upsertFrame = `
	INSERT INTO frames (url, brand, name, code, raw_text, run_id, scraped_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	ON CONFLICT (url) DO UPDATE SET
		brand = EXCLUDED.brand,
		name = EXCLUDED.name,
		code = EXCLUDED.code,
		raw_text = EXCLUDED.raw_text,
		run_id = EXCLUDED.run_id,
		scraped_at = EXCLUDED.scraped_at`

func (s *FrameSink) Persist(ctx context.Context, result catalog.ScrapeResult) error {
	events, err := buildEvents(s.runID, s.stream, result, time.Now())
	if err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, rec := range result {
			if _, err := tx.Exec(ctx, upsertFrame, rec.URL, rec.Brand, rec.Name, rec.Code, rec.RawText, s.runID); err != nil {
				return fmt.Errorf("failed to upsert frame %s: %w", rec.URL, err)
			}
		}
		for _, event := range events {
			if err := s.outbox.InsertWithTx(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist frames: %w", err)
	}

	s.logger.Info("frames persisted", "run_id", s.runID, "records", len(result), "events", len(events))
	return nil
}

// buildEvents returns one FRAME_SCRAPED event per record followed by a
// single SCRAPE_COMPLETED event.
func buildEvents(runID, stream string, result catalog.ScrapeResult, now time.Time) ([]*OutboxEvent, error) {
	events := make([]*OutboxEvent, 0, len(result)+1)

	for _, rec := range result {
		payload, err := json.Marshal(frameScrapedPayload{RunID: runID, ProductRecord: rec})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal frame payload: %w", err)
		}
		events = append(events, &OutboxEvent{
			AggregateType: AggregateFrame,
			AggregateID:   rec.URL,
			EventType:     EventFrameScraped,
			Payload:       payload,
			TargetStream:  stream,
		})
	}

	payload, err := json.Marshal(scrapeCompletedPayload{RunID: runID, Records: len(result), CompletedAt: now.UTC()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion payload: %w", err)
	}
	events = append(events, &OutboxEvent{
		AggregateType: AggregateRun,
		AggregateID:   runID,
		EventType:     EventScrapeCompleted,
		Payload:       payload,
		TargetStream:  stream,
	})

	return events, nil
}
