package output

import "time"

// Media types stored on MediaItem.MediaType.
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

// Company roles stored on MediaCompany.Role.
const (
	RoleProduction = "production"
	RoleNetwork    = "network"
)

type Genre struct {
	ID     int64  `json:"id"`
	TMDBID int64  `json:"tmdb_id"`
	Name   string `json:"name"`
}

type Collection struct {
	ID           int64  `json:"id"`
	TMDBID       int64  `json:"tmdb_id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

type Company struct {
	ID            int64  `json:"id"`
	TMDBID        int64  `json:"tmdb_id"`
	Name          string `json:"name"`
	OriginCountry string `json:"origin_country"`
	LogoPath      string `json:"logo_path"`
}

type Person struct {
	ID                 int64      `json:"id"`
	TMDBID             int64      `json:"tmdb_id"`
	Name               string     `json:"name"`
	Gender             int        `json:"gender"`
	Biography          string     `json:"biography"`
	Birthday           *time.Time `json:"birthday"`
	Deathday           *time.Time `json:"deathday"`
	PlaceOfBirth       string     `json:"place_of_birth"`
	ProfilePath        string     `json:"profile_path"`
	KnownForDepartment string     `json:"known_for_department"`
}

type MediaItem struct {
	ID               int64   `json:"id"`
	TMDBID           int64   `json:"tmdb_id"`
	MediaType        string  `json:"media_type"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	OriginalLanguage string  `json:"original_language"`
	Status           string  `json:"status"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
}

type Movie struct {
	MediaID      int64      `json:"media_id"`
	ReleaseDate  *time.Time `json:"release_date"`
	Budget       int64      `json:"budget"`
	Revenue      int64      `json:"revenue"`
	Adult        bool       `json:"adult"`
	Runtime      int        `json:"runtime"`
	CollectionID *int64     `json:"collection_id"`
}

type TVShow struct {
	MediaID          int64      `json:"media_id"`
	FirstAirDate     *time.Time `json:"first_air_date"`
	LastAirDate      *time.Time `json:"last_air_date"`
	InProduction     bool       `json:"in_production"`
	NumberOfSeasons  int        `json:"number_of_seasons"`
	NumberOfEpisodes int        `json:"number_of_episodes"`
	ShowType         string     `json:"show_type"`
}

type Season struct {
	ID           int64      `json:"id"`
	MediaID      int64      `json:"media_id"`
	TMDBID       int64      `json:"tmdb_id"`
	SeasonNumber int        `json:"season_number"`
	Name         string     `json:"name"`
	Overview     string     `json:"overview"`
	AirDate      *time.Time `json:"air_date"`
	EpisodeCount int        `json:"episode_count"`
	PosterPath   string     `json:"poster_path"`
}

type Episode struct {
	ID            int64      `json:"id"`
	SeasonID      int64      `json:"season_id"`
	TMDBID        int64      `json:"tmdb_id"`
	EpisodeNumber int        `json:"episode_number"`
	Name          string     `json:"name"`
	Overview      string     `json:"overview"`
	AirDate       *time.Time `json:"air_date"`
	Runtime       int        `json:"runtime"`
	StillPath     string     `json:"still_path"`
	VoteAverage   float64    `json:"vote_average"`
}

type Actor struct {
	PersonID int64 `json:"person_id"`
}

type CrewMember struct {
	PersonID int64 `json:"person_id"`
}

type MediaGenre struct {
	MediaID int64 `json:"media_id"`
	GenreID int64 `json:"genre_id"`
}

type MediaCompany struct {
	MediaID   int64  `json:"media_id"`
	CompanyID int64  `json:"company_id"`
	Role      string `json:"role"`
}

type TitleCasting struct {
	ID            int64  `json:"id"`
	MediaID       int64  `json:"media_id"`
	PersonID      int64  `json:"person_id"`
	CharacterName string `json:"character_name"`
	CastOrder     int    `json:"cast_order"`
}

type TitleCrewAssignment struct {
	ID         int64  `json:"id"`
	MediaID    int64  `json:"media_id"`
	PersonID   int64  `json:"person_id"`
	Department string `json:"department"`
	Job        string `json:"job"`
}

type EpisodeCasting struct {
	ID            int64  `json:"id"`
	EpisodeID     int64  `json:"episode_id"`
	PersonID      int64  `json:"person_id"`
	CharacterName string `json:"character_name"`
	CastOrder     int    `json:"cast_order"`
}

type EpisodeCrewAssignment struct {
	ID         int64  `json:"id"`
	EpisodeID  int64  `json:"episode_id"`
	PersonID   int64  `json:"person_id"`
	Department string `json:"department"`
	Job        string `json:"job"`
}
