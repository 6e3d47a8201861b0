package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/catalog-graph/services/ingestion/internal/output"
	"github.com/example/catalog-graph/services/ingestion/internal/tmdb"
)

type seasonRef struct {
	show   int64
	season int
}

// fakeProvider serves canned payloads; ids listed in the fail sets return a FetchError.
type fakeProvider struct {
	mu sync.Mutex

	movies      []tmdb.MovieStub
	shows       []tmdb.ShowStub
	movieDetail map[int64]*tmdb.MovieDetail
	showDetail  map[int64]*tmdb.ShowDetail
	seasons     map[seasonRef]*tmdb.SeasonDetail
	genres      []tmdb.Genre

	failSeasons map[seasonRef]bool
	failGenres  bool

	calls []string
	// onDetail runs before every detail fetch.
	onDetail func()
}

func (f *fakeProvider) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func fail(op string) error {
	return &tmdb.FetchError{Op: op, Status: 404, Err: fmt.Errorf("not found")}
}

func (f *fakeProvider) PopularMovies(_ context.Context, page int) (*tmdb.Page[tmdb.MovieStub], error) {
	f.record(fmt.Sprintf("movies page %d", page))
	if page > 1 {
		return nil, fail("popular movies")
	}
	return &tmdb.Page[tmdb.MovieStub]{Page: 1, Results: f.movies, TotalPages: 1, TotalResults: len(f.movies)}, nil
}

func (f *fakeProvider) PopularShows(_ context.Context, page int) (*tmdb.Page[tmdb.ShowStub], error) {
	f.record(fmt.Sprintf("shows page %d", page))
	if page > 1 {
		return nil, fail("popular shows")
	}
	return &tmdb.Page[tmdb.ShowStub]{Page: 1, Results: f.shows, TotalPages: 1, TotalResults: len(f.shows)}, nil
}

func (f *fakeProvider) MovieDetail(_ context.Context, id int64) (*tmdb.MovieDetail, error) {
	f.record(fmt.Sprintf("movie %d", id))
	if f.onDetail != nil {
		f.onDetail()
	}
	d, ok := f.movieDetail[id]
	if !ok {
		return nil, fail("movie detail")
	}
	return d, nil
}

func (f *fakeProvider) ShowDetail(_ context.Context, id int64) (*tmdb.ShowDetail, error) {
	f.record(fmt.Sprintf("show %d", id))
	if f.onDetail != nil {
		f.onDetail()
	}
	d, ok := f.showDetail[id]
	if !ok {
		return nil, fail("show detail")
	}
	return d, nil
}

func (f *fakeProvider) SeasonDetail(_ context.Context, showID int64, n int) (*tmdb.SeasonDetail, error) {
	f.record(fmt.Sprintf("season %d/%d", showID, n))
	ref := seasonRef{showID, n}
	if f.failSeasons[ref] {
		return nil, fail("season detail")
	}
	s, ok := f.seasons[ref]
	if !ok {
		return nil, fail("season detail")
	}
	return s, nil
}

func (f *fakeProvider) Genres(context.Context) ([]tmdb.Genre, error) {
	f.record("genres")
	if f.failGenres {
		return nil, fail("genres")
	}
	return f.genres, nil
}

func (f *fakeProvider) Pending() int { return 0 }

// catalog builds two movies sharing an actor and genre, one missing movie,
// and a show with three numbered seasons plus specials.
func catalog() *fakeProvider {
	actor := tmdb.CastCredit{ID: 287, Name: "Actor X", Character: "Lead"}
	drama := tmdb.Genre{ID: 18, Name: "Drama"}
	episodes := func(n int) []tmdb.Episode {
		out := make([]tmdb.Episode, n)
		for i := range out {
			out[i] = tmdb.Episode{EpisodeNumber: i + 1, Name: fmt.Sprintf("Episode %d", i+1)}
		}
		return out
	}
	return &fakeProvider{
		movies: []tmdb.MovieStub{{ID: 1, Title: "M1"}, {ID: 2, Title: "M2"}, {ID: 3, Title: "Gone"}},
		shows:  []tmdb.ShowStub{{ID: 1399, Name: "Show"}},
		movieDetail: map[int64]*tmdb.MovieDetail{
			1: {ID: 1, Title: "M1", Genres: []tmdb.Genre{drama}, Credits: tmdb.Credits{Cast: []tmdb.CastCredit{actor}}},
			2: {ID: 2, Title: "M2", Genres: []tmdb.Genre{drama}, Credits: tmdb.Credits{Cast: []tmdb.CastCredit{actor}}},
		},
		showDetail: map[int64]*tmdb.ShowDetail{
			1399: {ID: 1399, Name: "Show", Seasons: []tmdb.SeasonSummary{
				{SeasonNumber: 0}, {SeasonNumber: 1}, {SeasonNumber: 2}, {SeasonNumber: 3}, {SeasonNumber: 4},
			}},
		},
		seasons: map[seasonRef]*tmdb.SeasonDetail{
			{1399, 1}: {SeasonNumber: 1, Episodes: episodes(2)},
			{1399, 2}: {SeasonNumber: 2, Episodes: episodes(3)},
			{1399, 3}: {SeasonNumber: 3, Episodes: episodes(4)},
		},
		genres: []tmdb.Genre{drama, {ID: 35, Name: "Comedy"}},
	}
}

type recordingSink struct {
	name   string
	err    error
	runIDs []string
	tables []*output.Tables
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Consume(ctx context.Context, runID string, t *output.Tables) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.runIDs = append(s.runIDs, runID)
	s.tables = append(s.tables, t)
	return s.err
}
