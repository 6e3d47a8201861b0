// Package jobs runs ingestion batches and exposes them over HTTP.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/catalog-graph/internal/platform/events"
	"github.com/example/catalog-graph/internal/platform/logging"
	"github.com/example/catalog-graph/services/ingestion/internal/normalize"
	"github.com/example/catalog-graph/services/ingestion/internal/output"
	"github.com/example/catalog-graph/services/ingestion/internal/pagination"
	"github.com/example/catalog-graph/services/ingestion/internal/tmdb"
)

// RunOptions overrides the pipeline's page caps for one run. Zero keeps the default.
type RunOptions struct {
	MoviePages int `json:"movie_pages,omitempty"`
	ShowPages  int `json:"show_pages,omitempty"`
}

// PassStats summarises one list walk and its detail fetches.
type PassStats struct {
	Pages    pagination.Stats `json:"pages"`
	Listed   int              `json:"listed"`
	Ingested int              `json:"ingested"`
	Skipped  int              `json:"skipped"`
}

type RunResult struct {
	RunID          string         `json:"run_id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Genres         int            `json:"genres"`
	Movies         PassStats      `json:"movies"`
	Shows          PassStats      `json:"shows"`
	SeasonsFetched int            `json:"seasons_fetched"`
	SeasonsSkipped int            `json:"seasons_skipped"`
	Cancelled      bool           `json:"cancelled"`
	Counts         []output.Count `json:"counts"`
	Error          string         `json:"error,omitempty"`

	Tables *output.Tables `json:"-"`
}

func (r *RunResult) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Pipeline fetches popular movies and shows, normalizes them and hands the
// tables to every sink.
type Pipeline struct {
	Provider   tmdb.Provider
	Limits     normalize.Limits
	MoviePages int
	ShowPages  int
	Sinks      []Sink
	Events     *events.Publisher
	Log        *zap.Logger

	now func() time.Time
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now().UTC()
}

// Run executes one batch. Entity fetch failures are skipped; only sink
// failures are returned. A cancelled ctx stops fetching between entities and
// the partial tables are still handed to the sinks.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	log := logging.OrNop(p.Log)
	moviePages := firstPositive(opts.MoviePages, p.MoviePages)
	showPages := firstPositive(opts.ShowPages, p.ShowPages)

	res := &RunResult{RunID: uuid.NewString(), StartedAt: p.clock()}
	log = log.With(zap.String("run_id", res.RunID))
	log.Info("run started", zap.Int("movie_pages", moviePages), zap.Int("show_pages", showPages))
	p.Events.Publish(events.SubjectRunStarted, res.RunID, map[string]any{
		"movie_pages": moviePages,
		"show_pages":  showPages,
	})

	engine := normalize.NewEngine(p.Limits, log)

	genres, err := p.Provider.Genres(ctx)
	if err != nil {
		log.Warn("genre vocabulary unavailable, stub genre ids stay unnamed", zap.Error(err))
	}
	engine.LoadGenres(genres)
	res.Genres = len(genres)

	p.movies(ctx, log, engine, moviePages, res)
	p.shows(ctx, log, engine, showPages, res)

	res.Cancelled = ctx.Err() != nil
	res.Tables = engine.Tables().Snapshot()
	res.Counts = res.Tables.Counts()

	// Sinks run even after cancellation so a partial batch is not lost.
	sinkCtx := context.WithoutCancel(ctx)
	var sinkErrs []error
	for _, s := range p.Sinks {
		if err := s.Consume(sinkCtx, res.RunID, res.Tables); err != nil {
			log.Error("sink failed", zap.String("sink", s.Name()), zap.Error(err))
			sinkErrs = append(sinkErrs, fmt.Errorf("sink %s: %w", s.Name(), err))
		}
	}
	res.FinishedAt = p.clock()

	props := map[string]any{
		"duration_ms":     res.Duration().Milliseconds(),
		"counts":          res.Tables.CountMap(),
		"movies_skipped":  res.Movies.Skipped,
		"shows_skipped":   res.Shows.Skipped,
		"seasons_skipped": res.SeasonsSkipped,
		"cancelled":       res.Cancelled,
	}
	if err := errors.Join(sinkErrs...); err != nil {
		res.Error = err.Error()
		props["error"] = res.Error
		p.Events.Publish(events.SubjectRunFailed, res.RunID, props)
		return res, err
	}
	p.Events.Publish(events.SubjectRunCompleted, res.RunID, props)
	log.Info("run completed",
		zap.Duration("duration", res.Duration()),
		zap.Int("movies", res.Movies.Ingested),
		zap.Int("shows", res.Shows.Ingested),
		zap.Int("media_skipped", res.Movies.Skipped+res.Shows.Skipped),
		zap.Int("seasons_skipped", res.SeasonsSkipped),
		zap.Bool("cancelled", res.Cancelled))
	return res, nil
}

func (p *Pipeline) movies(ctx context.Context, log *zap.Logger, engine *normalize.Engine, pages int, res *RunResult) {
	stubs, st := pagination.Walk(ctx, log.With(zap.String("list", "movie")), p.Provider.PopularMovies, pages)
	res.Movies.Pages = st
	res.Movies.Listed = len(stubs)
	for _, stub := range stubs {
		if ctx.Err() != nil {
			return
		}
		detail, err := p.Provider.MovieDetail(ctx, stub.ID)
		if err != nil {
			log.Debug("movie skipped", zap.Int64("tmdb_id", stub.ID), zap.Error(err))
			res.Movies.Skipped++
			continue
		}
		engine.AddMovie(stub, detail)
		res.Movies.Ingested++
	}
}

func (p *Pipeline) shows(ctx context.Context, log *zap.Logger, engine *normalize.Engine, pages int, res *RunResult) {
	stubs, st := pagination.Walk(ctx, log.With(zap.String("list", "tv")), p.Provider.PopularShows, pages)
	res.Shows.Pages = st
	res.Shows.Listed = len(stubs)
	for _, stub := range stubs {
		if ctx.Err() != nil {
			return
		}
		detail, err := p.Provider.ShowDetail(ctx, stub.ID)
		if err != nil {
			log.Debug("show skipped", zap.Int64("tmdb_id", stub.ID), zap.Error(err))
			res.Shows.Skipped++
			continue
		}
		engine.AddShow(stub, detail)
		res.Shows.Ingested++

		showID := detail.ID
		if showID == 0 {
			showID = stub.ID
		}
		for _, n := range engine.SelectSeasons(detail) {
			if ctx.Err() != nil {
				return
			}
			season, err := p.Provider.SeasonDetail(ctx, showID, n)
			if err != nil {
				log.Debug("season skipped", zap.Int64("show_id", showID), zap.Int("season", n), zap.Error(err))
				res.SeasonsSkipped++
				continue
			}
			if season.SeasonNumber == 0 {
				season.SeasonNumber = n
			}
			engine.AddSeason(showID, season)
			res.SeasonsFetched++
		}
	}
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 1
}
