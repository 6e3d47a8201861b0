package tmdb

// Page is the envelope of every paginated TMDB listing.
type Page[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// MovieStub is one entry of /movie/popular.
type MovieStub struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
	GenreIDs         []int64 `json:"genre_ids"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	Adult            bool    `json:"adult"`
}

// ShowStub is one entry of /tv/popular.
type ShowStub struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	OriginalName     string   `json:"original_name"`
	Overview         string   `json:"overview"`
	FirstAirDate     string   `json:"first_air_date"`
	OriginalLanguage string   `json:"original_language"`
	OriginCountry    []string `json:"origin_country"`
	GenreIDs         []int64  `json:"genre_ids"`
	Popularity       float64  `json:"popularity"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int64    `json:"vote_count"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

// Company is a production company or a network.
type Company struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LogoPath      string `json:"logo_path"`
	OriginCountry string `json:"origin_country"`
}

// Collection is the belongs_to_collection block of a movie.
type Collection struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// CastCredit is a cast entry; Order is nil when the source omits it.
type CastCredit struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	OriginalName       string `json:"original_name"`
	Gender             int    `json:"gender"`
	Character          string `json:"character"`
	Order              *int   `json:"order"`
	ProfilePath        string `json:"profile_path"`
	KnownForDepartment string `json:"known_for_department"`
}

type CrewCredit struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	OriginalName       string `json:"original_name"`
	Gender             int    `json:"gender"`
	Department         string `json:"department"`
	Job                string `json:"job"`
	ProfilePath        string `json:"profile_path"`
	KnownForDepartment string `json:"known_for_department"`
}

type Credits struct {
	Cast []CastCredit `json:"cast"`
	Crew []CrewCredit `json:"crew"`
}

// MovieDetail is /movie/{id} with append_to_response=credits.
type MovieDetail struct {
	ID                  int64       `json:"id"`
	Title               string      `json:"title"`
	OriginalTitle       string      `json:"original_title"`
	Overview            string      `json:"overview"`
	ReleaseDate         string      `json:"release_date"`
	Runtime             int         `json:"runtime"`
	Budget              int64       `json:"budget"`
	Revenue             int64       `json:"revenue"`
	Adult               bool        `json:"adult"`
	Status              string      `json:"status"`
	OriginalLanguage    string      `json:"original_language"`
	Popularity          float64     `json:"popularity"`
	VoteAverage         float64     `json:"vote_average"`
	VoteCount           int64       `json:"vote_count"`
	PosterPath          string      `json:"poster_path"`
	BackdropPath        string      `json:"backdrop_path"`
	Genres              []Genre     `json:"genres"`
	ProductionCompanies []Company   `json:"production_companies"`
	BelongsToCollection *Collection `json:"belongs_to_collection"`
	Credits             Credits     `json:"credits"`
}

// SeasonSummary is an entry of the seasons list on a show detail.
type SeasonSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	AirDate      string `json:"air_date"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	PosterPath   string `json:"poster_path"`
}

// ShowDetail is /tv/{id} with append_to_response=credits.
type ShowDetail struct {
	ID                  int64           `json:"id"`
	Name                string          `json:"name"`
	OriginalName        string          `json:"original_name"`
	Overview            string          `json:"overview"`
	FirstAirDate        string          `json:"first_air_date"`
	LastAirDate         string          `json:"last_air_date"`
	InProduction        bool            `json:"in_production"`
	NumberOfSeasons     int             `json:"number_of_seasons"`
	NumberOfEpisodes    int             `json:"number_of_episodes"`
	Type                string          `json:"type"`
	Status              string          `json:"status"`
	OriginalLanguage    string          `json:"original_language"`
	Popularity          float64         `json:"popularity"`
	VoteAverage         float64         `json:"vote_average"`
	VoteCount           int64           `json:"vote_count"`
	PosterPath          string          `json:"poster_path"`
	BackdropPath        string          `json:"backdrop_path"`
	Genres              []Genre         `json:"genres"`
	ProductionCompanies []Company       `json:"production_companies"`
	Networks            []Company       `json:"networks"`
	Seasons             []SeasonSummary `json:"seasons"`
	Credits             Credits         `json:"credits"`
}

// Episode is an entry of a season detail, with its own guest cast and crew.
type Episode struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Overview      string       `json:"overview"`
	AirDate       string       `json:"air_date"`
	EpisodeNumber int          `json:"episode_number"`
	SeasonNumber  int          `json:"season_number"`
	Runtime       int          `json:"runtime"`
	StillPath     string       `json:"still_path"`
	VoteAverage   float64      `json:"vote_average"`
	GuestStars    []CastCredit `json:"guest_stars"`
	Crew          []CrewCredit `json:"crew"`
}

// SeasonDetail is /tv/{id}/season/{n}.
type SeasonDetail struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview"`
	AirDate      string    `json:"air_date"`
	SeasonNumber int       `json:"season_number"`
	PosterPath   string    `json:"poster_path"`
	Episodes     []Episode `json:"episodes"`
}
