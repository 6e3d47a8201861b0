package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	platformcfg "github.com/example/catalog-graph/internal/platform/config"
	"github.com/example/catalog-graph/internal/platform/db"
	"github.com/example/catalog-graph/internal/platform/events"
	"github.com/example/catalog-graph/internal/platform/logging"
	"github.com/example/catalog-graph/internal/platform/natsconn"
	inkcfg "github.com/example/catalog-graph/services/ingestion/internal/config"
	"github.com/example/catalog-graph/services/ingestion/internal/jobs"
	"github.com/example/catalog-graph/services/ingestion/internal/normalize"
	"github.com/example/catalog-graph/services/ingestion/internal/ratelimit"
	"github.com/example/catalog-graph/services/ingestion/internal/store"
	"github.com/example/catalog-graph/services/ingestion/internal/tmdb"
)

// app holds the wired dependencies shared by run and serve.
type app struct {
	cfg platformcfg.AppConfig
	ink inkcfg.Config
	log *zap.Logger

	client   *tmdb.Client
	pool     *pgxpool.Pool
	nc       *nats.Conn
	js       nats.JetStreamContext
	pipeline *jobs.Pipeline
}

func loadConfig(flags *runFlags) (platformcfg.AppConfig, inkcfg.Config, error) {
	cfg, err := platformcfg.Load()
	if err != nil {
		return cfg, inkcfg.Config{}, err
	}
	ink, err := inkcfg.Load()
	if err != nil {
		return cfg, ink, fmt.Errorf("load ingestion config: %w", err)
	}
	if flags.moviePages < 0 || flags.showPages < 0 {
		return cfg, ink, errors.New("page caps must not be negative")
	}
	if flags.moviePages > 0 {
		ink.MoviePages = flags.moviePages
	}
	if flags.showPages > 0 {
		ink.ShowPages = flags.showPages
	}
	if dir := strings.TrimSpace(flags.outputDir); dir != "" {
		ink.OutputDir = dir
	}
	return cfg, ink, nil
}

// newApp wires logging, the TMDB client and every configured sink.
// Postgres and NATS are optional and only connected when configured.
func newApp(ctx context.Context, flags *runFlags) (*app, error) {
	cfg, ink, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &app{cfg: cfg, ink: ink, log: log}

	a.client, err = tmdb.New(ink.TMDB.BaseURL, ink.TMDB.APIKey,
		tmdb.WithBearerToken(ink.TMDB.BearerToken),
		tmdb.WithLanguage(ink.TMDB.Language),
		tmdb.WithHTTPClient(&http.Client{Timeout: ink.TMDB.Timeout}),
		tmdb.WithQueue(ratelimit.New(ink.TMDB.RateLimit, ink.TMDB.RateInterval)),
		tmdb.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	var sinks []jobs.Sink
	if ink.OutputDir != "" {
		sinks = append(sinks, jobs.DirSink{Dir: ink.OutputDir})
	}
	if ink.DatabaseURL != "" {
		a.pool, err = db.Open(ctx, ink.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open database: %w", err)
		}
		sinks = append(sinks, store.NewPostgresLoader(a.pool, log))
	}

	var publisher *events.Publisher
	if ink.NATSURL != "" {
		a.nc, err = natsconn.Connect(natsconn.Options{URL: ink.NATSURL, Name: cfg.ServiceName})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.js, err = a.nc.JetStream()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("jetstream: %w", err)
		}
		publisher = events.New(a.js, log)
		if err := publisher.EnsureStream(ctx); err != nil {
			log.Warn("events stream unavailable, run events may be dropped", zap.Error(err))
		}
	}
	if len(sinks) == 0 {
		log.Warn("no sink configured: set OUTPUT_DIR or DATABASE_URL to keep run output")
	}

	a.pipeline = &jobs.Pipeline{
		Provider:   a.client,
		Limits:     normalize.DefaultLimits(),
		MoviePages: ink.MoviePages,
		ShowPages:  ink.ShowPages,
		Sinks:      sinks,
		Events:     publisher,
		Log:        log,
	}
	return a, nil
}

func (a *app) ready() error {
	if a.pool != nil {
		if err := a.pool.Ping(context.Background()); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if a.nc != nil && !a.nc.IsConnected() {
		return errors.New("nats: not connected")
	}
	return nil
}

func (a *app) Close() {
	if a.nc != nil {
		_ = a.nc.Drain()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.log.Sync()
}
