package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/frame-scraper/internal/browser"
	"github.com/maltedev/frame-scraper/internal/catalog"
	"github.com/maltedev/frame-scraper/internal/config"
	"github.com/maltedev/frame-scraper/internal/database"
	"github.com/maltedev/frame-scraper/internal/htmlsession"
	"github.com/maltedev/frame-scraper/internal/jobs"
	"github.com/maltedev/frame-scraper/internal/storage"
	"github.com/redis/go-redis/v9"
)

func pipelineOptions(cfg *config.Config, obs catalog.Observer) catalog.Options {
	return catalog.Options{
		BaseURL:   cfg.Catalog.BaseURL,
		Selectors: catalog.DefaultSelectors(),
		Timing:    timing(cfg),
		Resolver:  catalog.PageURLResolver{Strict: cfg.Scraper.StrictPageURLs},
		Observer:  obs,
	}
}

func timing(cfg *config.Config) catalog.Timing {
	return catalog.Timing{
		LandingSettle:  cfg.Scraper.LandingSettle,
		CategorySettle: cfg.Scraper.CategorySettle,
		PageSettle:     cfg.Scraper.PageSettle,
		ProductSettle:  cfg.Scraper.ProductSettle,
		WaitTimeout:    cfg.Scraper.WaitTimeout,
	}
}

func categoryProvider(cfg *config.Config) catalog.CategoryProvider {
	return catalog.MenuCategories{
		BaseURL:   cfg.Catalog.BaseURL,
		Selectors: catalog.DefaultSelectors(),
		Settle:    cfg.Scraper.LandingSettle,
	}
}

// browserSessions launches a browser per run, logs in and switches to a
// random user agent for the crawl itself.
func browserSessions(cfg *config.Config, logger *slog.Logger) jobs.SessionFactory {
	return func(ctx context.Context) (catalog.Session, func(), error) {
		b, err := browser.New(&browser.Options{
			Headless:       cfg.Browser.Headless,
			Timeout:        cfg.Browser.Timeout,
			UserAgent:      browser.PickUserAgent(cfg.Scraper.UserAgents),
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			AcceptLanguage: cfg.Browser.AcceptLanguage,
			TimezoneID:     cfg.Browser.TimezoneID,
			Locale:         cfg.Browser.Locale,
			ProxyServer:    cfg.Browser.ProxyServer,
		}, logger)
		if err != nil {
			return nil, nil, err
		}

		sess, err := b.NewSession()
		if err != nil {
			b.Close()
			return nil, nil, err
		}

		release := func() {
			if err := sess.Close(); err != nil {
				logger.Warn("failed to close session", "error", err)
			}
			if err := b.Close(); err != nil {
				logger.Warn("failed to close browser", "error", err)
			}
		}

		err = sess.Login(ctx, browser.Credentials{
			Username: cfg.Catalog.Username,
			Password: cfg.Catalog.Password,
		}, browser.LoginOptions{
			BaseURL:  cfg.Catalog.BaseURL,
			Timeout:  cfg.Scraper.LoginTimeout,
			Attempts: cfg.Scraper.LoginAttempts,
		})
		if err != nil {
			release()
			return nil, nil, err
		}

		if err := sess.SetUserAgent(browser.PickUserAgent(cfg.Scraper.UserAgents)); err != nil {
			release()
			return nil, nil, err
		}

		return sess, release, nil
	}
}

func replaySessions(dir string, logger *slog.Logger) jobs.SessionFactory {
	return func(context.Context) (catalog.Session, func(), error) {
		sess, err := htmlsession.Load(dir, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load replay directory: %w", err)
		}
		return sess, func() {}, nil
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	db, err := database.New(ctx, database.Config{
		DSN:      cfg.Database.DSN(),
		MaxConns: 10,
	})
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// sinks always writes the JSON file and, with the database enabled, the
// frames table and outbox as well.
func sinks(jsonPath string, frames *database.FrameSink) jobs.SinkFactory {
	file := storage.NewJSONFileSink(jsonPath)
	return func(runID string) catalog.Sink {
		if frames == nil {
			return file
		}
		return storage.MultiSink{file, frames.ForRun(runID)}
	}
}

func newRelay(db *database.DB, client *redis.Client, cfg *config.Config, logger *slog.Logger) *database.Relay {
	return database.NewRelay(database.NewOutboxRepository(db), client, logger, database.RelayConfig{
		PollInterval: cfg.Relay.PollInterval,
		BatchSize:    cfg.Relay.BatchSize,
	})
}
