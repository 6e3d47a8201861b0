package normalize

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/example/catalog-graph/services/ingestion/internal/output"
	"github.com/example/catalog-graph/services/ingestion/internal/tmdb"
)

const dateLayout = "2006-01-02"

// parseDate returns nil for empty or malformed dates.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func text(s string) string { return strings.TrimSpace(s) }

func firstText(vals ...string) string {
	for _, v := range vals {
		if v = text(v); v != "" {
			return v
		}
	}
	return ""
}

func nonNegative[T cmp.Ordered](v T) T {
	var zero T
	if v < zero {
		return zero
	}
	return v
}

func buildGenre(g tmdb.Genre, id int64) output.Genre {
	return output.Genre{ID: id, TMDBID: g.ID, Name: text(g.Name)}
}

func buildCollection(c tmdb.Collection, id int64) output.Collection {
	return output.Collection{
		ID:           id,
		TMDBID:       c.ID,
		Name:         text(c.Name),
		Overview:     text(c.Overview),
		PosterPath:   text(c.PosterPath),
		BackdropPath: text(c.BackdropPath),
	}
}

func buildCompany(c tmdb.Company, id int64) output.Company {
	return output.Company{
		ID:            id,
		TMDBID:        c.ID,
		Name:          text(c.Name),
		OriginCountry: text(c.OriginCountry),
		LogoPath:      text(c.LogoPath),
	}
}

// personFields is the part of a credit that describes the person.
type personFields struct {
	TMDBID             int64
	Name               string
	OriginalName       string
	Gender             int
	ProfilePath        string
	KnownForDepartment string
}

func castPerson(c tmdb.CastCredit) personFields {
	return personFields{c.ID, c.Name, c.OriginalName, c.Gender, c.ProfilePath, c.KnownForDepartment}
}

func crewPerson(c tmdb.CrewCredit) personFields {
	return personFields{c.ID, c.Name, c.OriginalName, c.Gender, c.ProfilePath, c.KnownForDepartment}
}

// buildPerson fills what credits carry. Biography, dates and birthplace are
// only on the person endpoint and default to empty.
func buildPerson(p personFields, id int64) output.Person {
	return output.Person{
		ID:                 id,
		TMDBID:             p.TMDBID,
		Name:               firstText(p.Name, p.OriginalName),
		Gender:             nonNegative(p.Gender),
		ProfilePath:        text(p.ProfilePath),
		KnownForDepartment: text(p.KnownForDepartment),
	}
}

func buildMovieItem(stub tmdb.MovieStub, d *tmdb.MovieDetail, id int64) output.MediaItem {
	return output.MediaItem{
		ID:               id,
		TMDBID:           d.ID,
		MediaType:        output.MediaMovie,
		Title:            firstText(d.Title, stub.Title, d.OriginalTitle),
		OriginalTitle:    firstText(d.OriginalTitle, stub.OriginalTitle),
		Overview:         firstText(d.Overview, stub.Overview),
		OriginalLanguage: firstText(d.OriginalLanguage, stub.OriginalLanguage),
		Status:           text(d.Status),
		Popularity:       nonNegative(max(d.Popularity, stub.Popularity)),
		VoteAverage:      nonNegative(d.VoteAverage),
		VoteCount:        nonNegative(d.VoteCount),
		PosterPath:       firstText(d.PosterPath, stub.PosterPath),
		BackdropPath:     firstText(d.BackdropPath, stub.BackdropPath),
	}
}

func buildMovie(stub tmdb.MovieStub, d *tmdb.MovieDetail, mediaID int64, collectionID *int64) output.Movie {
	release := parseDate(d.ReleaseDate)
	if release == nil {
		release = parseDate(stub.ReleaseDate)
	}
	return output.Movie{
		MediaID:      mediaID,
		ReleaseDate:  release,
		Budget:       nonNegative(d.Budget),
		Revenue:      nonNegative(d.Revenue),
		Adult:        d.Adult || stub.Adult,
		Runtime:      nonNegative(d.Runtime),
		CollectionID: collectionID,
	}
}

func buildShowItem(stub tmdb.ShowStub, d *tmdb.ShowDetail, id int64) output.MediaItem {
	return output.MediaItem{
		ID:               id,
		TMDBID:           d.ID,
		MediaType:        output.MediaTV,
		Title:            firstText(d.Name, stub.Name, d.OriginalName),
		OriginalTitle:    firstText(d.OriginalName, stub.OriginalName),
		Overview:         firstText(d.Overview, stub.Overview),
		OriginalLanguage: firstText(d.OriginalLanguage, stub.OriginalLanguage),
		Status:           text(d.Status),
		Popularity:       nonNegative(max(d.Popularity, stub.Popularity)),
		VoteAverage:      nonNegative(d.VoteAverage),
		VoteCount:        nonNegative(d.VoteCount),
		PosterPath:       firstText(d.PosterPath, stub.PosterPath),
		BackdropPath:     firstText(d.BackdropPath, stub.BackdropPath),
	}
}

func buildShow(stub tmdb.ShowStub, d *tmdb.ShowDetail, mediaID int64) output.TVShow {
	first := parseDate(d.FirstAirDate)
	if first == nil {
		first = parseDate(stub.FirstAirDate)
	}
	return output.TVShow{
		MediaID:          mediaID,
		FirstAirDate:     first,
		LastAirDate:      parseDate(d.LastAirDate),
		InProduction:     d.InProduction,
		NumberOfSeasons:  nonNegative(d.NumberOfSeasons),
		NumberOfEpisodes: nonNegative(d.NumberOfEpisodes),
		ShowType:         text(d.Type),
	}
}

func buildSeason(s *tmdb.SeasonDetail, id, mediaID int64) output.Season {
	return output.Season{
		ID:           id,
		MediaID:      mediaID,
		TMDBID:       s.ID,
		SeasonNumber: s.SeasonNumber,
		Name:         text(s.Name),
		Overview:     text(s.Overview),
		AirDate:      parseDate(s.AirDate),
		EpisodeCount: len(s.Episodes),
		PosterPath:   text(s.PosterPath),
	}
}

func buildEpisode(e tmdb.Episode, id, seasonID int64) output.Episode {
	return output.Episode{
		ID:            id,
		SeasonID:      seasonID,
		TMDBID:        e.ID,
		EpisodeNumber: e.EpisodeNumber,
		Name:          text(e.Name),
		Overview:      text(e.Overview),
		AirDate:       parseDate(e.AirDate),
		Runtime:       nonNegative(e.Runtime),
		StillPath:     text(e.StillPath),
		VoteAverage:   nonNegative(e.VoteAverage),
	}
}

// rankedCast is a cast credit with its effective billing order.
type rankedCast struct {
	credit tmdb.CastCredit
	order  int
}

// topCast orders credits by their source order, using the list index where
// the source has none, and keeps the first n.
func topCast(cast []tmdb.CastCredit, n int) []rankedCast {
	ranked := make([]rankedCast, 0, len(cast))
	for i, c := range cast {
		order := i
		if c.Order != nil {
			order = *c.Order
		}
		ranked = append(ranked, rankedCast{credit: c, order: order})
	}
	slices.SortStableFunc(ranked, func(a, b rankedCast) int { return cmp.Compare(a.order, b.order) })
	return truncate(ranked, n)
}

func truncate[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}
