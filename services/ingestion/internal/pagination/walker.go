// Package pagination walks paginated list endpoints page by page.
package pagination

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/catalog-graph/services/ingestion/internal/tmdb"
)

// Stats describes how a walk ended.
type Stats struct {
	PagesFetched int
	TotalPages   int // as reported by the last successful page
	TotalResults int
	Failed       bool // a page failed and the walk stopped early
}

// Walk calls fetch for pages 1..maxPages sequentially and concatenates their results.
// It stops once the source-reported total page count is reached. A failed
// page ends the walk; what was accumulated so far is returned.
func Walk[T any](ctx context.Context, log *zap.Logger, fetch func(ctx context.Context, page int) (*tmdb.Page[T], error), maxPages int) ([]T, Stats) {
	if log == nil {
		log = zap.NewNop()
	}
	var out []T
	var st Stats
	for p := 1; p <= maxPages; p++ {
		if ctx.Err() != nil {
			st.Failed = true
			break
		}
		page, err := fetch(ctx, p)
		if err != nil || page == nil {
			log.Warn("pagination: page fetch failed, keeping partial result",
				zap.Int("page", p), zap.Int("accumulated", len(out)), zap.Error(err))
			st.Failed = true
			break
		}
		st.PagesFetched++
		st.TotalPages = page.TotalPages
		st.TotalResults = page.TotalResults
		out = append(out, page.Results...)
		if page.TotalPages > 0 && p >= page.TotalPages {
			break
		}
	}
	return out, st
}
