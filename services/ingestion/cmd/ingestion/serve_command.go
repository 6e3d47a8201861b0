package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/catalog-graph/internal/platform/auth"
	"github.com/example/catalog-graph/internal/platform/httpserver"
	"github.com/example/catalog-graph/internal/platform/run"
	"github.com/example/catalog-graph/services/ingestion/internal/jobs"
	"github.com/example/catalog-graph/services/ingestion/internal/queue"
)

func newServeCommand(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the status API and consume run jobs from NATS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()

			code := run.New(a.log).WithSignals(func(ctx context.Context) error {
				return serve(ctx, a)
			})
			if code != 0 {
				return fmt.Errorf("ingestion service exited with code %d", code)
			}
			return nil
		},
	}
}

func serve(ctx context.Context, a *app) error {
	log := a.log
	svc := jobs.NewService(a.pipeline)

	trigger := jobs.Trigger{Log: log, Service: svc, BaseCtx: ctx}
	if secret := strings.TrimSpace(a.ink.JWTSecret); secret != "" {
		trigger.Verifier = &auth.JWTVerifier{Secret: []byte(secret)}
	}

	if a.nc != nil {
		wrk, err := queue.NewWorker(log, a.nc, queue.Handlers{
			Run: func(ctx context.Context, j queue.RunJob) error {
				_, err := svc.Run(ctx, jobs.RunOptions{MoviePages: j.MoviePages, ShowPages: j.ShowPages})
				return err
			},
		})
		if err != nil {
			return err
		}
		if err := wrk.EnsureStream(ctx); err != nil {
			return err
		}
		trigger.Enqueue = func(_ context.Context, opts jobs.RunOptions) error {
			return queue.Enqueue(wrk.JS, queue.RunJob{MoviePages: opts.MoviePages, ShowPages: opts.ShowPages})
		}
		go func() {
			if err := wrk.Run(ctx); err != nil {
				log.Error("worker stopped", zap.Error(err))
			}
		}()
	} else {
		log.Info("NATS_URL not set, runs triggered over HTTP execute in-process")
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: a.ready, Logger: log})
	trigger.Register(r)

	srv := httpserver.New(httpserver.Options{Addr: a.cfg.HTTP.Addr, ServiceName: a.cfg.ServiceName, Logger: log, Router: r})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.Start(log)
}
