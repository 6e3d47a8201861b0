// Package output aggregates the normalized tables produced by one ingestion run.
package output

import "slices"

// Table names, in load dependency order.
const (
	TableGenres                 = "genres"
	TableCollections            = "collections"
	TableCompanies              = "companies"
	TablePersons                = "persons"
	TableMediaItems             = "media_items"
	TableMovies                 = "movies"
	TableTVShows                = "tv_shows"
	TableSeasons                = "seasons"
	TableEpisodes               = "episodes"
	TableActors                 = "actors"
	TableCrewMembers            = "crew_members"
	TableMediaGenres            = "media_genres"
	TableMediaCompanies         = "media_companies"
	TableTitleCastings          = "title_castings"
	TableTitleCrewAssignments   = "title_crew_assignments"
	TableEpisodeCastings        = "episode_castings"
	TableEpisodeCrewAssignments = "episode_crew_assignments"
)

// Tables holds the seventeen growing output collections of a run.
// It is not safe for concurrent mutation; a run appends from one goroutine.
type Tables struct {
	Genres                 []Genre
	Collections            []Collection
	Companies              []Company
	Persons                []Person
	MediaItems             []MediaItem
	Movies                 []Movie
	TVShows                []TVShow
	Seasons                []Season
	Episodes               []Episode
	Actors                 []Actor
	CrewMembers            []CrewMember
	MediaGenres            []MediaGenre
	MediaCompanies         []MediaCompany
	TitleCastings          []TitleCasting
	TitleCrewAssignments   []TitleCrewAssignment
	EpisodeCastings        []EpisodeCasting
	EpisodeCrewAssignments []EpisodeCrewAssignment
}

// Snapshot returns a copy whose slices are independent of further appends.
func (t *Tables) Snapshot() *Tables {
	return &Tables{
		Genres:                 slices.Clone(t.Genres),
		Collections:            slices.Clone(t.Collections),
		Companies:              slices.Clone(t.Companies),
		Persons:                slices.Clone(t.Persons),
		MediaItems:             slices.Clone(t.MediaItems),
		Movies:                 slices.Clone(t.Movies),
		TVShows:                slices.Clone(t.TVShows),
		Seasons:                slices.Clone(t.Seasons),
		Episodes:               slices.Clone(t.Episodes),
		Actors:                 slices.Clone(t.Actors),
		CrewMembers:            slices.Clone(t.CrewMembers),
		MediaGenres:            slices.Clone(t.MediaGenres),
		MediaCompanies:         slices.Clone(t.MediaCompanies),
		TitleCastings:          slices.Clone(t.TitleCastings),
		TitleCrewAssignments:   slices.Clone(t.TitleCrewAssignments),
		EpisodeCastings:        slices.Clone(t.EpisodeCastings),
		EpisodeCrewAssignments: slices.Clone(t.EpisodeCrewAssignments),
	}
}

// Table describes one output collection for sinks that iterate generically.
type Table struct {
	Name    string
	Columns []string
	Len     int
	// Row returns the column values of row i, aligned with Columns.
	Row func(i int) []any
	// Data is the typed slice, for encoders.
	Data any
}

func describe[R any](name string, cols []string, rows []R, values func(R) []any) Table {
	return Table{
		Name:    name,
		Columns: cols,
		Len:     len(rows),
		Row:     func(i int) []any { return values(rows[i]) },
		Data:    rows,
	}
}

// Ordered returns every table in load dependency order: independent entities,
// media items, subtype and child tables, then link tables.
func (t *Tables) Ordered() []Table {
	return []Table{
		describe(TableGenres, []string{"id", "tmdb_id", "name"}, t.Genres,
			func(r Genre) []any { return []any{r.ID, r.TMDBID, r.Name} }),
		describe(TableCollections, []string{"id", "tmdb_id", "name", "overview", "poster_path", "backdrop_path"}, t.Collections,
			func(r Collection) []any {
				return []any{r.ID, r.TMDBID, r.Name, r.Overview, r.PosterPath, r.BackdropPath}
			}),
		describe(TableCompanies, []string{"id", "tmdb_id", "name", "origin_country", "logo_path"}, t.Companies,
			func(r Company) []any { return []any{r.ID, r.TMDBID, r.Name, r.OriginCountry, r.LogoPath} }),
		describe(TablePersons, []string{"id", "tmdb_id", "name", "gender", "biography", "birthday", "deathday", "place_of_birth", "profile_path", "known_for_department"}, t.Persons,
			func(r Person) []any {
				return []any{r.ID, r.TMDBID, r.Name, r.Gender, r.Biography, r.Birthday, r.Deathday, r.PlaceOfBirth, r.ProfilePath, r.KnownForDepartment}
			}),
		describe(TableMediaItems, []string{"id", "tmdb_id", "media_type", "title", "original_title", "overview", "original_language", "status", "popularity", "vote_average", "vote_count", "poster_path", "backdrop_path"}, t.MediaItems,
			func(r MediaItem) []any {
				return []any{r.ID, r.TMDBID, r.MediaType, r.Title, r.OriginalTitle, r.Overview, r.OriginalLanguage, r.Status, r.Popularity, r.VoteAverage, r.VoteCount, r.PosterPath, r.BackdropPath}
			}),
		describe(TableMovies, []string{"media_id", "release_date", "budget", "revenue", "adult", "runtime", "collection_id"}, t.Movies,
			func(r Movie) []any {
				return []any{r.MediaID, r.ReleaseDate, r.Budget, r.Revenue, r.Adult, r.Runtime, r.CollectionID}
			}),
		describe(TableTVShows, []string{"media_id", "first_air_date", "last_air_date", "in_production", "number_of_seasons", "number_of_episodes", "show_type"}, t.TVShows,
			func(r TVShow) []any {
				return []any{r.MediaID, r.FirstAirDate, r.LastAirDate, r.InProduction, r.NumberOfSeasons, r.NumberOfEpisodes, r.ShowType}
			}),
		describe(TableSeasons, []string{"id", "media_id", "tmdb_id", "season_number", "name", "overview", "air_date", "episode_count", "poster_path"}, t.Seasons,
			func(r Season) []any {
				return []any{r.ID, r.MediaID, r.TMDBID, r.SeasonNumber, r.Name, r.Overview, r.AirDate, r.EpisodeCount, r.PosterPath}
			}),
		describe(TableEpisodes, []string{"id", "season_id", "tmdb_id", "episode_number", "name", "overview", "air_date", "runtime", "still_path", "vote_average"}, t.Episodes,
			func(r Episode) []any {
				return []any{r.ID, r.SeasonID, r.TMDBID, r.EpisodeNumber, r.Name, r.Overview, r.AirDate, r.Runtime, r.StillPath, r.VoteAverage}
			}),
		describe(TableActors, []string{"person_id"}, t.Actors,
			func(r Actor) []any { return []any{r.PersonID} }),
		describe(TableCrewMembers, []string{"person_id"}, t.CrewMembers,
			func(r CrewMember) []any { return []any{r.PersonID} }),
		describe(TableMediaGenres, []string{"media_id", "genre_id"}, t.MediaGenres,
			func(r MediaGenre) []any { return []any{r.MediaID, r.GenreID} }),
		describe(TableMediaCompanies, []string{"media_id", "company_id", "role"}, t.MediaCompanies,
			func(r MediaCompany) []any { return []any{r.MediaID, r.CompanyID, r.Role} }),
		describe(TableTitleCastings, []string{"id", "media_id", "person_id", "character_name", "cast_order"}, t.TitleCastings,
			func(r TitleCasting) []any { return []any{r.ID, r.MediaID, r.PersonID, r.CharacterName, r.CastOrder} }),
		describe(TableTitleCrewAssignments, []string{"id", "media_id", "person_id", "department", "job"}, t.TitleCrewAssignments,
			func(r TitleCrewAssignment) []any { return []any{r.ID, r.MediaID, r.PersonID, r.Department, r.Job} }),
		describe(TableEpisodeCastings, []string{"id", "episode_id", "person_id", "character_name", "cast_order"}, t.EpisodeCastings,
			func(r EpisodeCasting) []any {
				return []any{r.ID, r.EpisodeID, r.PersonID, r.CharacterName, r.CastOrder}
			}),
		describe(TableEpisodeCrewAssignments, []string{"id", "episode_id", "person_id", "department", "job"}, t.EpisodeCrewAssignments,
			func(r EpisodeCrewAssignment) []any { return []any{r.ID, r.EpisodeID, r.PersonID, r.Department, r.Job} }),
	}
}

// Count is the row count of one table.
type Count struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// Counts returns per-table row counts in load order.
func (t *Tables) Counts() []Count {
	ordered := t.Ordered()
	out := make([]Count, 0, len(ordered))
	for _, tb := range ordered {
		out = append(out, Count{Table: tb.Name, Rows: tb.Len})
	}
	return out
}

// CountMap returns the counts keyed by table name.
func (t *Tables) CountMap() map[string]int {
	m := make(map[string]int, 17)
	for _, c := range t.Counts() {
		m[c.Table] = c.Rows
	}
	return m
}
