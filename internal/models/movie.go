package models

// Movie is the external-catalog view of a film, as returned by the movie
// metadata collaborator. Fields beyond the identity block may be absent.
type Movie struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	Genre       string   `json:"genre"`
	PosterPath  string   `json:"poster_path"`
	VoteAverage float64  `json:"vote_average"`
	VoteCount   int      `json:"vote_count"`
	Budget      int64    `json:"budget"`
	Revenue     int64    `json:"revenue"`
	OscarStatus string   `json:"oscar_status"`
	Blockbuster bool     `json:"is_blockbuster"`
	Genres      []string `json:"genres,omitempty"`
}

// MovieMetadata is the enrichment payload for an already-picked movie.
// Any field may be nil; scoring degrades gracefully around gaps.
type MovieMetadata struct {
	CriticsScore    *float64     `json:"rt_critics_score,omitempty"`
	AudienceScore   *float64     `json:"rt_audience_score,omitempty"`
	MetacriticScore *float64     `json:"metacritic_score,omitempty"`
	IMDBRating      *float64     `json:"imdb_rating,omitempty"`
	Budget          *int64       `json:"budget,omitempty"`
	Revenue         *int64       `json:"revenue,omitempty"`
	OscarStatus     *OscarStatus `json:"oscar_status,omitempty"`
	PosterPath      *string      `json:"poster_path,omitempty"`
}
