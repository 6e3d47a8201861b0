package normalize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/catalog-graph/services/ingestion/internal/output"
	"github.com/example/catalog-graph/services/ingestion/internal/tmdb"
)

var (
	drama  = tmdb.Genre{ID: 18, Name: "Drama"}
	comedy = tmdb.Genre{ID: 35, Name: "Comedy"}
	actorX = tmdb.CastCredit{ID: 287, Name: "Actor X", Character: "Lead"}
)

func movie(id int64, cast []tmdb.CastCredit, genres ...tmdb.Genre) (tmdb.MovieStub, *tmdb.MovieDetail) {
	stub := tmdb.MovieStub{ID: id, Title: fmt.Sprintf("Movie %d", id)}
	d := &tmdb.MovieDetail{
		ID:      id,
		Title:   stub.Title,
		Genres:  genres,
		Credits: tmdb.Credits{Cast: cast},
	}
	return stub, d
}

func manyCast(n int, base int64) []tmdb.CastCredit {
	out := make([]tmdb.CastCredit, n)
	for i := range out {
		out[i] = tmdb.CastCredit{ID: base + int64(i), Name: fmt.Sprintf("Cast %d", i)}
	}
	return out
}

func manyCrew(n int, base int64) []tmdb.CrewCredit {
	out := make([]tmdb.CrewCredit, n)
	for i := range out {
		out[i] = tmdb.CrewCredit{ID: base + int64(i), Name: fmt.Sprintf("Crew %d", i), Department: "Writing", Job: "Writer"}
	}
	return out
}

func season(number int, episodes ...tmdb.Episode) *tmdb.SeasonDetail {
	return &tmdb.SeasonDetail{ID: int64(1000 + number), SeasonNumber: number, Name: fmt.Sprintf("Season %d", number), Episodes: episodes}
}

func TestTwoMoviesShareActorAndGenre(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)

	m1 := e.AddMovie(movie(1, []tmdb.CastCredit{actorX}, drama))
	m2 := e.AddMovie(movie(2, []tmdb.CastCredit{actorX}, drama))
	tables := e.Tables()

	require.NotEqual(t, m1, m2)
	assert.Len(t, tables.Persons, 1)
	assert.Len(t, tables.Actors, 1)
	assert.Len(t, tables.Genres, 1)
	assert.Len(t, tables.MediaGenres, 2)
	require.Len(t, tables.TitleCastings, 2)

	personID := tables.Persons[0].ID
	for _, c := range tables.TitleCastings {
		assert.Equal(t, personID, c.PersonID)
	}
	assert.Equal(t, m1, tables.TitleCastings[0].MediaID)
	assert.Equal(t, m2, tables.TitleCastings[1].MediaID)
	assertReferentiallyComplete(t, tables)
}

func TestDedupIdempotence(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	acme := tmdb.Company{ID: 9, Name: "Acme"}
	coll := &tmdb.Collection{ID: 10, Name: "Saga"}

	for id := int64(1); id <= 3; id++ {
		stub, d := movie(id, []tmdb.CastCredit{actorX}, drama, comedy)
		d.ProductionCompanies = []tmdb.Company{acme}
		d.BelongsToCollection = coll
		d.Credits.Crew = []tmdb.CrewCredit{{ID: 287, Department: "Directing", Job: "Director"}}
		e.AddMovie(stub, d)
	}
	tables := e.Tables()

	assert.Len(t, tables.Genres, 2)
	assert.Len(t, tables.Companies, 1)
	assert.Len(t, tables.Collections, 1)
	assert.Len(t, tables.Persons, 1)
	assert.Len(t, tables.Actors, 1)
	assert.Len(t, tables.CrewMembers, 1)
	assert.Len(t, tables.MediaCompanies, 3)
	assert.Len(t, tables.TitleCrewAssignments, 3)
	for _, m := range tables.Movies {
		require.NotNil(t, m.CollectionID)
		assert.Equal(t, tables.Collections[0].ID, *m.CollectionID)
	}
	assertReferentiallyComplete(t, tables)
}

func TestSurrogateIdsIncreaseInEncounterOrder(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	e.AddMovie(movie(5, manyCast(3, 100), comedy, drama))
	e.AddMovie(movie(6, manyCast(3, 102), drama, tmdb.Genre{ID: 27, Name: "Horror"}))
	tables := e.Tables()

	assertIncreasing(t, "genres", ids(tables.Genres, func(r output.Genre) int64 { return r.ID }))
	assertIncreasing(t, "persons", ids(tables.Persons, func(r output.Person) int64 { return r.ID }))
	assertIncreasing(t, "media_items", ids(tables.MediaItems, func(r output.MediaItem) int64 { return r.ID }))
	assertIncreasing(t, "title_castings", ids(tables.TitleCastings, func(r output.TitleCasting) int64 { return r.ID }))

	assert.Equal(t, []int64{35, 18, 27}, ids(tables.Genres, func(r output.Genre) int64 { return r.TMDBID }))
	assert.Len(t, tables.Persons, 5)
	assert.Equal(t, int64(1), tables.Persons[0].ID)
}

func TestRepeatedMovieIsLookupOnly(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	first := e.AddMovie(movie(1, []tmdb.CastCredit{actorX}, drama))

	stub, d := movie(1, manyCast(5, 500), comedy)
	d.Title = "Renamed"
	second := e.AddMovie(stub, d)
	tables := e.Tables()

	assert.Equal(t, first, second)
	assert.Len(t, tables.MediaItems, 1)
	assert.Len(t, tables.Movies, 1)
	assert.Len(t, tables.TitleCastings, 1)
	assert.Equal(t, "Movie 1", tables.MediaItems[0].Title)
}

func TestMovieAndShowWithSameTMDBIDAreDistinct(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	m := e.AddMovie(movie(42, nil))
	s := e.AddShow(tmdb.ShowStub{ID: 42}, &tmdb.ShowDetail{ID: 42, Name: "Show 42"})
	assert.NotEqual(t, m, s)
	assert.Len(t, e.Tables().MediaItems, 2)
}

func TestStubGenreIDsAreFallback(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	e.LoadGenres([]tmdb.Genre{drama, comedy})

	stub, d := movie(1, nil)
	stub.GenreIDs = []int64{35, 99}
	e.AddMovie(stub, d)
	tables := e.Tables()

	require.Len(t, tables.MediaGenres, 2)
	require.Len(t, tables.Genres, 3)
	assert.Equal(t, "Comedy", tables.Genres[1].Name)
	assert.Equal(t, int64(99), tables.Genres[2].TMDBID)
	assert.Equal(t, "", tables.Genres[2].Name)

	// Detail genres win over stub ids.
	stub2, d2 := movie(2, nil, drama)
	stub2.GenreIDs = []int64{35}
	e.AddMovie(stub2, d2)
	assert.Len(t, tables.MediaGenres, 3)
	assert.Equal(t, tables.Genres[0].ID, tables.MediaGenres[2].GenreID)
}

func TestDuplicateGenreInOnePayloadLinksOnce(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	e.AddMovie(movie(1, nil, drama, drama))
	assert.Len(t, e.Tables().MediaGenres, 1)
}

func TestTitleBounding(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	stub, d := movie(1, manyCast(45, 1000))
	d.Credits.Crew = manyCrew(60, 5000)
	e.AddMovie(stub, d)
	tables := e.Tables()

	assert.Len(t, tables.TitleCastings, 20)
	assert.Len(t, tables.TitleCrewAssignments, 30)
	assert.Len(t, tables.Persons, 50)
	assert.Equal(t, 19, tables.TitleCastings[19].CastOrder)
}

func TestCastOrderFromSource(t *testing.T) {
	e := NewEngine(Limits{TitleCast: 2}, nil)
	five, one, three := 5, 1, 3
	cast := []tmdb.CastCredit{
		{ID: 1, Name: "A", Order: &five},
		{ID: 2, Name: "B", Order: &one},
		{ID: 3, Name: "C", Order: &three},
	}
	e.AddMovie(movie(1, cast))
	castings := e.Tables().TitleCastings

	require.Len(t, castings, 2)
	assert.Equal(t, 1, castings[0].CastOrder)
	assert.Equal(t, 3, castings[1].CastOrder)
}

func TestDefaultSubstitution(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	e.AddMovie(tmdb.MovieStub{ID: 77}, &tmdb.MovieDetail{ID: 77})
	e.AddShow(tmdb.ShowStub{ID: 78}, &tmdb.ShowDetail{ID: 78})
	e.AddSeason(78, &tmdb.SeasonDetail{SeasonNumber: 1, Episodes: []tmdb.Episode{{EpisodeNumber: 1}}})
	tables := e.Tables()

	require.Len(t, tables.MediaItems, 2)
	assert.Equal(t, "", tables.MediaItems[0].Overview)
	assert.Equal(t, "", tables.MediaItems[0].Status)
	require.Len(t, tables.Movies, 1)
	assert.Nil(t, tables.Movies[0].ReleaseDate)
	assert.Nil(t, tables.Movies[0].CollectionID)
	require.Len(t, tables.TVShows, 1)
	assert.Nil(t, tables.TVShows[0].FirstAirDate)
	assert.Equal(t, "", tables.TVShows[0].ShowType)
	require.Len(t, tables.Episodes, 1)
	assert.Nil(t, tables.Episodes[0].AirDate)
	assert.Zero(t, tables.Episodes[0].Runtime)
	assert.Empty(t, tables.EpisodeCastings)
}

func TestShowCompaniesAndNetworks(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	hbo := tmdb.Company{ID: 49, Name: "HBO"}
	mediaID := e.AddShow(tmdb.ShowStub{ID: 1399}, &tmdb.ShowDetail{
		ID:                  1399,
		Name:                "Game of Thrones",
		ProductionCompanies: []tmdb.Company{{ID: 76043, Name: "Revolution Sun Studios"}, hbo},
		Networks:            []tmdb.Company{hbo},
	})
	tables := e.Tables()

	assert.Len(t, tables.Companies, 2)
	require.Len(t, tables.MediaCompanies, 3)
	assert.Equal(t, output.MediaCompany{MediaID: mediaID, CompanyID: tables.Companies[1].ID, Role: output.RoleNetwork}, tables.MediaCompanies[2])
	assert.Equal(t, output.MediaTV, tables.MediaItems[0].MediaType)
}

func TestSelectSeasons(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	d := &tmdb.ShowDetail{Seasons: []tmdb.SeasonSummary{
		{SeasonNumber: 0}, {SeasonNumber: 1}, {SeasonNumber: 2}, {SeasonNumber: 2}, {SeasonNumber: 3}, {SeasonNumber: 4},
	}}
	assert.Equal(t, []int{1, 2, 3}, e.SelectSeasons(d))
	assert.Empty(t, e.SelectSeasons(&tmdb.ShowDetail{Seasons: []tmdb.SeasonSummary{{SeasonNumber: 0}}}))
}

func TestSeasonCompositeKeys(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	e.AddShow(tmdb.ShowStub{ID: 1}, &tmdb.ShowDetail{ID: 1})
	e.AddShow(tmdb.ShowStub{ID: 2}, &tmdb.ShowDetail{ID: 2})

	a := e.AddSeason(1, season(1, tmdb.Episode{EpisodeNumber: 1}))
	b := e.AddSeason(2, season(1, tmdb.Episode{EpisodeNumber: 1}))
	again := e.AddSeason(1, season(1, tmdb.Episode{EpisodeNumber: 1}, tmdb.Episode{EpisodeNumber: 2}))
	tables := e.Tables()

	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
	assert.Len(t, tables.Seasons, 2)
	assert.Len(t, tables.Episodes, 2)
	assert.NotEqual(t, tables.Episodes[0].SeasonID, tables.Episodes[1].SeasonID)
}

func TestSeasonForUnknownShowIsDropped(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	assert.Zero(t, e.AddSeason(5, season(1)))
	assert.Empty(t, e.Tables().Seasons)
}

func TestEpisodeBoundingAndSharedPeople(t *testing.T) {
	e := NewEngine(DefaultLimits(), nil)
	e.AddShow(tmdb.ShowStub{ID: 1}, &tmdb.ShowDetail{ID: 1, Credits: tmdb.Credits{Cast: []tmdb.CastCredit{actorX}}})

	ep := tmdb.Episode{
		EpisodeNumber: 1,
		GuestStars:    append([]tmdb.CastCredit{actorX}, manyCast(20, 100)...),
		Crew:          manyCrew(25, 200),
	}
	e.AddSeason(1, season(1, ep))
	tables := e.Tables()

	assert.Len(t, tables.EpisodeCastings, 10)
	assert.Len(t, tables.EpisodeCrewAssignments, 15)
	assert.Len(t, tables.Actors, 10)
	assert.Len(t, tables.CrewMembers, 15)
	assert.Equal(t, tables.Persons[0].ID, tables.EpisodeCastings[0].PersonID)
	assertReferentiallyComplete(t, tables)
}

func TestIndependentEngines(t *testing.T) {
	a := NewEngine(DefaultLimits(), nil)
	b := NewEngine(DefaultLimits(), nil)
	a.AddMovie(movie(1, []tmdb.CastCredit{actorX}, drama))
	id := b.AddMovie(movie(2, []tmdb.CastCredit{actorX}, drama))

	assert.Equal(t, int64(1), id)
	assert.Len(t, b.Tables().Persons, 1)
	assert.Equal(t, int64(1), b.Tables().Persons[0].ID)
}

func TestLimitsDefaults(t *testing.T) {
	l := Limits{TitleCast: 5}.withDefaults()
	assert.Equal(t, Limits{TitleCast: 5, TitleCrew: 30, EpisodeCast: 10, EpisodeCrew: 15, Seasons: 3}, l)
}

func ids[R any](rows []R, id func(R) int64) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = id(r)
	}
	return out
}

func assertIncreasing(t *testing.T, name string, ids []int64) {
	t.Helper()
	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1], "%s ids not increasing at %d", name, i)
	}
}

// assertReferentiallyComplete checks every foreign key against its parent table.
func assertReferentiallyComplete(t *testing.T, tb *output.Tables) {
	t.Helper()
	set := func(ids []int64) map[int64]bool {
		m := make(map[int64]bool, len(ids))
		for _, id := range ids {
			m[id] = true
		}
		return m
	}
	media := set(ids(tb.MediaItems, func(r output.MediaItem) int64 { return r.ID }))
	persons := set(ids(tb.Persons, func(r output.Person) int64 { return r.ID }))
	genres := set(ids(tb.Genres, func(r output.Genre) int64 { return r.ID }))
	companies := set(ids(tb.Companies, func(r output.Company) int64 { return r.ID }))
	collections := set(ids(tb.Collections, func(r output.Collection) int64 { return r.ID }))
	seasons := set(ids(tb.Seasons, func(r output.Season) int64 { return r.ID }))
	episodes := set(ids(tb.Episodes, func(r output.Episode) int64 { return r.ID }))

	for _, r := range tb.Movies {
		assert.True(t, media[r.MediaID], "movie media %d", r.MediaID)
		if r.CollectionID != nil {
			assert.True(t, collections[*r.CollectionID], "movie collection %d", *r.CollectionID)
		}
	}
	for _, r := range tb.TVShows {
		assert.True(t, media[r.MediaID], "show media %d", r.MediaID)
	}
	for _, r := range tb.Seasons {
		assert.True(t, media[r.MediaID], "season media %d", r.MediaID)
	}
	for _, r := range tb.Episodes {
		assert.True(t, seasons[r.SeasonID], "episode season %d", r.SeasonID)
	}
	for _, r := range tb.Actors {
		assert.True(t, persons[r.PersonID], "actor person %d", r.PersonID)
	}
	for _, r := range tb.CrewMembers {
		assert.True(t, persons[r.PersonID], "crew person %d", r.PersonID)
	}
	for _, r := range tb.MediaGenres {
		assert.True(t, media[r.MediaID] && genres[r.GenreID], "media_genre %+v", r)
	}
	for _, r := range tb.MediaCompanies {
		assert.True(t, media[r.MediaID] && companies[r.CompanyID], "media_company %+v", r)
	}
	for _, r := range tb.TitleCastings {
		assert.True(t, media[r.MediaID] && persons[r.PersonID], "title_casting %+v", r)
	}
	for _, r := range tb.TitleCrewAssignments {
		assert.True(t, media[r.MediaID] && persons[r.PersonID], "title_crew %+v", r)
	}
	for _, r := range tb.EpisodeCastings {
		assert.True(t, episodes[r.EpisodeID] && persons[r.PersonID], "episode_casting %+v", r)
	}
	for _, r := range tb.EpisodeCrewAssignments {
		assert.True(t, episodes[r.EpisodeID] && persons[r.PersonID], "episode_crew %+v", r)
	}
}
