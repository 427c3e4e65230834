package types

import "time"

// Movie is read-only catalog reference data. Genres, production fields and
// spoken languages are comma-delimited label lists as imported.
type Movie struct {
	ID                  int64      `gorm:"primaryKey" json:"id"`
	Title               string     `gorm:"type:varchar(500)" json:"title"`
	OriginalTitle       string     `gorm:"type:varchar(500)" json:"original_title"`
	Overview            string     `gorm:"type:text" json:"overview"`
	Tagline             string     `gorm:"type:text" json:"tagline"`
	ReleaseDate         *time.Time `gorm:"type:date;index" json:"release_date"`
	Budget              *float64   `json:"budget"`
	Revenue             *float64   `json:"revenue"`
	Runtime             *float64   `json:"runtime"`
	Status              string     `gorm:"type:varchar(50)" json:"status"`
	Adult               *bool      `json:"adult"`
	Video               *bool      `json:"video"`
	Popularity          *float64   `gorm:"index" json:"popularity"`
	VoteAverage         *float64   `json:"vote_average"`
	VoteCount           *float64   `json:"vote_count"`
	ImdbID              string     `gorm:"type:varchar(20)" json:"imdb_id"`
	OriginalLanguage    string     `gorm:"type:varchar(10)" json:"original_language"`
	Homepage            string     `gorm:"type:text" json:"homepage"`
	PosterPath          string     `gorm:"type:text" json:"poster_path"`
	CollectionName      string     `gorm:"type:varchar(500)" json:"collection_name"`
	Genres              string     `gorm:"type:text" json:"genres"`
	ProductionCompanies string     `gorm:"type:text" json:"production_companies"`
	ProductionCountries string     `gorm:"type:text" json:"production_countries"`
	SpokenLanguages     string     `gorm:"type:text" json:"spoken_languages"`
}

func (Movie) TableName() string { return "movies" }
