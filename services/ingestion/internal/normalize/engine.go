// Package normalize flattens TMDB detail payloads into the seventeen output tables.
package normalize

import (
	"go.uber.org/zap"

	"github.com/example/catalog-graph/services/ingestion/internal/output"
	"github.com/example/catalog-graph/services/ingestion/internal/tmdb"
)

// Limits bounds how much of each payload is kept.
type Limits struct {
	TitleCast   int
	TitleCrew   int
	EpisodeCast int
	EpisodeCrew int
	Seasons     int
}

func DefaultLimits() Limits {
	return Limits{TitleCast: 20, TitleCrew: 30, EpisodeCast: 10, EpisodeCrew: 15, Seasons: 3}
}

// withDefaults replaces non-positive limits with the defaults.
func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.TitleCast <= 0 {
		l.TitleCast = d.TitleCast
	}
	if l.TitleCrew <= 0 {
		l.TitleCrew = d.TitleCrew
	}
	if l.EpisodeCast <= 0 {
		l.EpisodeCast = d.EpisodeCast
	}
	if l.EpisodeCrew <= 0 {
		l.EpisodeCrew = d.EpisodeCrew
	}
	if l.Seasons <= 0 {
		l.Seasons = d.Seasons
	}
	return l
}

// Engine owns the identity registries and output tables of one run.
// Calls must be sequential; an Engine is not safe for concurrent use.
type Engine struct {
	limits Limits
	log    *zap.Logger
	tables *output.Tables

	genres      Registry[int64]
	collections Registry[int64]
	companies   Registry[int64]
	persons     Registry[int64]
	media       Registry[mediaKey]
	seasons     Registry[seasonKey]
	episodes    Registry[episodeKey]

	actors         map[int64]struct{}
	crewMembers    map[int64]struct{}
	mediaGenres    map[output.MediaGenre]struct{}
	mediaCompanies map[output.MediaCompany]struct{}

	titleCastings   Sequence
	titleCrew       Sequence
	episodeCastings Sequence
	episodeCrew     Sequence
}

func NewEngine(limits Limits, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		limits:         limits.withDefaults(),
		log:            log,
		tables:         &output.Tables{},
		actors:         make(map[int64]struct{}),
		crewMembers:    make(map[int64]struct{}),
		mediaGenres:    make(map[output.MediaGenre]struct{}),
		mediaCompanies: make(map[output.MediaCompany]struct{}),
	}
}

// Tables returns the live output tables. Take a Snapshot before handing them off.
func (e *Engine) Tables() *output.Tables { return e.tables }

func (e *Engine) Limits() Limits { return e.limits }

// LoadGenres registers the genre vocabulary so stub genre ids resolve to named genres.
func (e *Engine) LoadGenres(genres []tmdb.Genre) {
	for _, g := range genres {
		e.genre(g)
	}
}

func (e *Engine) genre(g tmdb.Genre) int64 {
	return e.genres.Resolve(g.ID, func(id int64) {
		e.tables.Genres = append(e.tables.Genres, buildGenre(g, id))
	})
}

func (e *Engine) company(c tmdb.Company) int64 {
	return e.companies.Resolve(c.ID, func(id int64) {
		e.tables.Companies = append(e.tables.Companies, buildCompany(c, id))
	})
}

func (e *Engine) person(p personFields) int64 {
	return e.persons.Resolve(p.TMDBID, func(id int64) {
		e.tables.Persons = append(e.tables.Persons, buildPerson(p, id))
	})
}

func (e *Engine) actor(personID int64) {
	if _, ok := e.actors[personID]; ok {
		return
	}
	e.actors[personID] = struct{}{}
	e.tables.Actors = append(e.tables.Actors, output.Actor{PersonID: personID})
}

func (e *Engine) crewMember(personID int64) {
	if _, ok := e.crewMembers[personID]; ok {
		return
	}
	e.crewMembers[personID] = struct{}{}
	e.tables.CrewMembers = append(e.tables.CrewMembers, output.CrewMember{PersonID: personID})
}

func (e *Engine) linkGenre(mediaID, genreID int64) {
	link := output.MediaGenre{MediaID: mediaID, GenreID: genreID}
	if _, ok := e.mediaGenres[link]; ok {
		return
	}
	e.mediaGenres[link] = struct{}{}
	e.tables.MediaGenres = append(e.tables.MediaGenres, link)
}

func (e *Engine) linkCompany(mediaID int64, c tmdb.Company, role string) {
	link := output.MediaCompany{MediaID: mediaID, CompanyID: e.company(c), Role: role}
	if _, ok := e.mediaCompanies[link]; ok {
		return
	}
	e.mediaCompanies[link] = struct{}{}
	e.tables.MediaCompanies = append(e.tables.MediaCompanies, link)
}

// linkGenres prefers the detail's genre list and falls back to the stub's ids.
func (e *Engine) linkGenres(mediaID int64, detail []tmdb.Genre, stubIDs []int64) {
	if len(detail) > 0 {
		for _, g := range detail {
			e.linkGenre(mediaID, e.genre(g))
		}
		return
	}
	for _, gid := range stubIDs {
		// Ids missing from the vocabulary still get a row, with an empty name.
		e.linkGenre(mediaID, e.genre(tmdb.Genre{ID: gid}))
	}
}

func (e *Engine) titleCredits(mediaID int64, credits tmdb.Credits) {
	for _, c := range topCast(credits.Cast, e.limits.TitleCast) {
		personID := e.person(castPerson(c.credit))
		e.actor(personID)
		e.tables.TitleCastings = append(e.tables.TitleCastings, output.TitleCasting{
			ID:            e.titleCastings.Next(),
			MediaID:       mediaID,
			PersonID:      personID,
			CharacterName: text(c.credit.Character),
			CastOrder:     c.order,
		})
	}
	for _, c := range truncate(credits.Crew, e.limits.TitleCrew) {
		personID := e.person(crewPerson(c))
		e.crewMember(personID)
		e.tables.TitleCrewAssignments = append(e.tables.TitleCrewAssignments, output.TitleCrewAssignment{
			ID:         e.titleCrew.Next(),
			MediaID:    mediaID,
			PersonID:   personID,
			Department: text(c.Department),
			Job:        text(c.Job),
		})
	}
}

// AddMovie flattens one movie. A movie already seen in this run is a lookup
// only and its existing media id is returned. detail must be non-nil.
func (e *Engine) AddMovie(stub tmdb.MovieStub, detail *tmdb.MovieDetail) int64 {
	if detail.ID == 0 {
		d := *detail
		d.ID = stub.ID
		detail = &d
	}
	key := mediaKey{mediaType: output.MediaMovie, tmdbID: detail.ID}
	mediaID, created := e.media.resolve(key, func(id int64) {
		e.tables.MediaItems = append(e.tables.MediaItems, buildMovieItem(stub, detail, id))
	})
	if !created {
		e.log.Debug("normalize: movie already ingested", zap.Int64("tmdb_id", detail.ID))
		return mediaID
	}

	var collectionID *int64
	if c := detail.BelongsToCollection; c != nil && c.ID != 0 {
		id := e.collections.Resolve(c.ID, func(id int64) {
			e.tables.Collections = append(e.tables.Collections, buildCollection(*c, id))
		})
		collectionID = &id
	}
	e.tables.Movies = append(e.tables.Movies, buildMovie(stub, detail, mediaID, collectionID))

	e.linkGenres(mediaID, detail.Genres, stub.GenreIDs)
	for _, c := range detail.ProductionCompanies {
		e.linkCompany(mediaID, c, output.RoleProduction)
	}
	e.titleCredits(mediaID, detail.Credits)
	return mediaID
}

// AddShow flattens one show without its seasons; see SelectSeasons and AddSeason.
// detail must be non-nil.
func (e *Engine) AddShow(stub tmdb.ShowStub, detail *tmdb.ShowDetail) int64 {
	if detail.ID == 0 {
		d := *detail
		d.ID = stub.ID
		detail = &d
	}
	key := mediaKey{mediaType: output.MediaTV, tmdbID: detail.ID}
	mediaID, created := e.media.resolve(key, func(id int64) {
		e.tables.MediaItems = append(e.tables.MediaItems, buildShowItem(stub, detail, id))
	})
	if !created {
		e.log.Debug("normalize: show already ingested", zap.Int64("tmdb_id", detail.ID))
		return mediaID
	}
	e.tables.TVShows = append(e.tables.TVShows, buildShow(stub, detail, mediaID))

	e.linkGenres(mediaID, detail.Genres, stub.GenreIDs)
	for _, c := range detail.ProductionCompanies {
		e.linkCompany(mediaID, c, output.RoleProduction)
	}
	for _, c := range detail.Networks {
		e.linkCompany(mediaID, c, output.RoleNetwork)
	}
	e.titleCredits(mediaID, detail.Credits)
	return mediaID
}

// SelectSeasons returns the season numbers to fetch: the first numbered
// seasons in listing order, specials (season 0) excluded.
func (e *Engine) SelectSeasons(detail *tmdb.ShowDetail) []int {
	var out []int
	seen := make(map[int]struct{})
	for _, s := range detail.Seasons {
		if s.SeasonNumber <= 0 {
			continue
		}
		if _, ok := seen[s.SeasonNumber]; ok {
			continue
		}
		seen[s.SeasonNumber] = struct{}{}
		out = append(out, s.SeasonNumber)
		if len(out) == e.limits.Seasons {
			break
		}
	}
	return out
}

// AddSeason flattens one season of a show added with AddShow and returns the
// season id. A season already seen is a lookup only.
func (e *Engine) AddSeason(showTMDBID int64, season *tmdb.SeasonDetail) int64 {
	showMediaID, ok := e.media.Lookup(mediaKey{mediaType: output.MediaTV, tmdbID: showTMDBID})
	if !ok {
		e.log.Warn("normalize: season for unknown show dropped",
			zap.Int64("show_id", showTMDBID), zap.Int("season", season.SeasonNumber))
		return 0
	}
	key := seasonKey{showID: showTMDBID, season: season.SeasonNumber}
	seasonID, created := e.seasons.resolve(key, func(id int64) {
		e.tables.Seasons = append(e.tables.Seasons, buildSeason(season, id, showMediaID))
	})
	if !created {
		return seasonID
	}

	for _, ep := range season.Episodes {
		ekey := episodeKey{showID: showTMDBID, season: season.SeasonNumber, episode: ep.EpisodeNumber}
		episodeID, created := e.episodes.resolve(ekey, func(id int64) {
			e.tables.Episodes = append(e.tables.Episodes, buildEpisode(ep, id, seasonID))
		})
		if !created {
			continue
		}
		e.episodeCredits(episodeID, ep)
	}
	return seasonID
}

func (e *Engine) episodeCredits(episodeID int64, ep tmdb.Episode) {
	for _, c := range topCast(ep.GuestStars, e.limits.EpisodeCast) {
		personID := e.person(castPerson(c.credit))
		e.actor(personID)
		e.tables.EpisodeCastings = append(e.tables.EpisodeCastings, output.EpisodeCasting{
			ID:            e.episodeCastings.Next(),
			EpisodeID:     episodeID,
			PersonID:      personID,
			CharacterName: text(c.credit.Character),
			CastOrder:     c.order,
		})
	}
	for _, c := range truncate(ep.Crew, e.limits.EpisodeCrew) {
		personID := e.person(crewPerson(c))
		e.crewMember(personID)
		e.tables.EpisodeCrewAssignments = append(e.tables.EpisodeCrewAssignments, output.EpisodeCrewAssignment{
			ID:         e.episodeCrew.Next(),
			EpisodeID:  episodeID,
			PersonID:   personID,
			Department: text(c.Department),
			Job:        text(c.Job),
		})
	}
}
