// Package queue consumes ingestion run jobs from NATS JetStream.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// JetStream is the subset of nats.JetStreamContext used by Worker.
type JetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	UpdateStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	PullSubscribe(subj, durable string, opts ...nats.SubOpt) (*nats.Subscription, error)
}

type Handlers struct {
	Run func(ctx context.Context, job RunJob) error
}

type Worker struct {
	Log      *zap.Logger
	JS       JetStream
	Handlers Handlers

	MaxDeliver int
}

func NewWorker(log *zap.Logger, nc *nats.Conn, handlers Handlers) (*Worker, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{Log: log, JS: js, Handlers: handlers, MaxDeliver: 5}, nil
}

var streamSubjects = []string{"ingestion.tmdb.>", SubjectDLQ}

func (w *Worker) EnsureStream(_ context.Context) error {
	info, err := w.JS.StreamInfo(StreamJobs)
	if err == nil {
		missing := false
		for _, s := range streamSubjects {
			if !slices.Contains(info.Config.Subjects, s) {
				missing = true
				break
			}
		}
		if missing {
			cfg := info.Config
			cfg.Subjects = streamSubjects
			_, err := w.JS.UpdateStream(&cfg)
			return err
		}
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = w.JS.AddStream(&nats.StreamConfig{
		Name:     StreamJobs,
		Subjects: streamSubjects,
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	return err
}

// Enqueue publishes a run job.
func Enqueue(js JetStream, job RunJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = js.Publish(SubjectRun, b)
	return err
}

func (w *Worker) Run(ctx context.Context) error {
	if err := w.EnsureStream(ctx); err != nil {
		return err
	}
	sub, err := w.JS.PullSubscribe(SubjectRun, durableRun)
	if err != nil {
		return err
	}
	return w.consumeLoop(ctx, sub)
}

func (w *Worker) consumeLoop(ctx context.Context, sub *nats.Subscription) error {
	w.Log.Info("consumer started", zap.String("subject", SubjectRun))
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := sub.Fetch(1, nats.MaxWait(2*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, m := range msgs {
			// A run can outlast the ack wait; keep the message alive meanwhile.
			stop := keepAlive(ctx, m, 20*time.Second)
			_ = w.handleMsg(ctx, m)
			stop()
		}
	}
}

func keepAlive(ctx context.Context, m *nats.Msg, every time.Duration) func() {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_ = m.InProgress()
			}
		}
	}()
	return cancel
}

func (w *Worker) handleMsg(ctx context.Context, m *nats.Msg) error {
	md, _ := m.Metadata()
	numDelivered := uint64(1)
	if md != nil {
		numDelivered = md.NumDelivered
	}

	if w.MaxDeliver > 0 && int(numDelivered) > w.MaxDeliver {
		if err := w.publishDLQ(m.Subject, m.Data, fmt.Sprintf("max deliveries exceeded: %d", numDelivered)); err != nil {
			w.Log.Warn("dlq publish failed", zap.Error(err))
		}
		_ = m.Ack()
		return nil
	}

	var j RunJob
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &j); err != nil {
			w.Log.Warn("bad payload", zap.String("subject", m.Subject), zap.Error(err))
			_ = m.Ack()
			return nil
		}
	}
	if j.MoviePages < 0 || j.ShowPages < 0 {
		w.Log.Warn("bad page caps", zap.Int("movie_pages", j.MoviePages), zap.Int("show_pages", j.ShowPages))
		_ = m.Ack()
		return nil
	}
	if err := w.Handlers.Run(ctx, j); err != nil {
		w.Log.Warn("ingestion run failed", zap.Uint64("attempt", numDelivered), zap.Error(err))
		_ = m.NakWithDelay(backoffDelay(numDelivered))
		return err
	}
	_ = m.Ack()
	return nil
}

func (w *Worker) publishDLQ(subject string, data []byte, reason string) error {
	msg := map[string]any{"subject": subject, "reason": reason, "payload": json.RawMessage(data)}
	if len(data) == 0 {
		msg["payload"] = nil
	}
	b, _ := json.Marshal(msg)
	_, err := w.JS.Publish(SubjectDLQ, b)
	return err
}
