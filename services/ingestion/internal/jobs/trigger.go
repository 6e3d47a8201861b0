package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/catalog-graph/internal/platform/api"
	"github.com/example/catalog-graph/internal/platform/auth"
	"github.com/example/catalog-graph/internal/platform/httpserver"
	"github.com/example/catalog-graph/internal/platform/logging"
)

// Trigger exposes run status and a run trigger over HTTP.
type Trigger struct {
	Log     *zap.Logger
	Service *Service
	// Enqueue hands the run to the job queue. When nil the run starts in the
	// background inside this process.
	Enqueue func(ctx context.Context, opts RunOptions) error
	// Verifier protects POST /v1/runs when set.
	Verifier *auth.JWTVerifier
	// BaseCtx bounds background runs; it is cancelled on shutdown.
	BaseCtx context.Context
}

type statusResponse struct {
	Running        bool   `json:"running"`
	PendingFetches int    `json:"pending_fetches"`
	LastRunID      string `json:"last_run_id,omitempty"`
}

type triggerResponse struct {
	Status string     `json:"status"`
	Run    RunOptions `json:"run"`
}

const maxTriggerBody = 1 << 16

func (t Trigger) Register(r chi.Router) {
	r.Get("/v1/status", t.status)
	r.Get("/v1/runs/last", t.lastRun)
	r.Group(func(r chi.Router) {
		if t.Verifier != nil {
			r.Use(auth.RequireOperator(*t.Verifier))
		}
		r.Post("/v1/runs", t.trigger)
	})
}

func (t Trigger) status(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Running: t.Service.Running(), PendingFetches: t.Service.Pending()}
	if last := t.Service.Last(); last != nil {
		resp.LastRunID = last.RunID
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

func (t Trigger) lastRun(w http.ResponseWriter, r *http.Request) {
	last := t.Service.Last()
	if last == nil {
		api.NotFound(w, "NO_RUNS", "No ingestion run has finished yet", httpserver.RequestIDFromContext(r.Context()))
		return
	}
	api.WriteJSON(w, http.StatusOK, last)
}

func (t Trigger) trigger(w http.ResponseWriter, r *http.Request) {
	rid := httpserver.RequestIDFromContext(r.Context())
	log := logging.OrNop(t.Log)

	var opts RunOptions
	if err := json.NewDecoder(io.LimitReader(r.Body, maxTriggerBody)).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		api.BadRequest(w, "VALIDATION_BODY", "Invalid JSON body", rid, nil)
		return
	}
	if opts.MoviePages < 0 || opts.ShowPages < 0 {
		api.BadRequest(w, "VALIDATION_PAGES", "Page caps must not be negative", rid,
			map[string]any{"movie_pages": opts.MoviePages, "show_pages": opts.ShowPages})
		return
	}

	if t.Enqueue != nil {
		if err := t.Enqueue(r.Context(), opts); err != nil {
			log.Warn("enqueue run failed", zap.String("request_id", rid), zap.Error(err))
			api.WriteError(w, http.StatusBadGateway, "ENQUEUE_FAILED", "Could not enqueue run", rid, nil)
			return
		}
		api.WriteJSON(w, http.StatusAccepted, triggerResponse{Status: "queued", Run: opts})
		return
	}

	ctx := t.BaseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if !t.Service.Start(ctx, opts) {
		api.Conflict(w, "RUN_IN_PROGRESS", "An ingestion run is already in progress", rid, nil)
		return
	}
	log.Info("run started from http trigger", zap.String("request_id", rid))
	api.WriteJSON(w, http.StatusAccepted, triggerResponse{Status: "started", Run: opts})
}
