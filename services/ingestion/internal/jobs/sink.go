package jobs

import (
	"context"
	"path/filepath"

	"github.com/example/catalog-graph/services/ingestion/internal/output"
)

// Sink receives the tables of a finished run.
type Sink interface {
	Name() string
	Consume(ctx context.Context, runID string, t *output.Tables) error
}

// DirSink writes each run into <Dir>/<run id>/<table>.json.
type DirSink struct {
	Dir string
}

func (s DirSink) Name() string { return "file" }

func (s DirSink) Consume(_ context.Context, runID string, t *output.Tables) error {
	return output.WriteDir(filepath.Join(s.Dir, runID), t)
}
