package tmdb

import "context"

// Provider is the port for fetching catalog data from TMDB.
// A nil result is always accompanied by a *FetchError.
type Provider interface {
	PopularMovies(ctx context.Context, page int) (*Page[MovieStub], error)
	PopularShows(ctx context.Context, page int) (*Page[ShowStub], error)
	MovieDetail(ctx context.Context, movieID int64) (*MovieDetail, error)
	ShowDetail(ctx context.Context, showID int64) (*ShowDetail, error)
	SeasonDetail(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetail, error)
	Genres(ctx context.Context) ([]Genre, error)
	Pending() int
}
