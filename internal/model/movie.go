package model

import "time"

// Movie statuses.  Deleting a movie from the admin API deactivates it.
const (
	MovieActive   = "active"
	MovieInactive = "inactive"
)

// Movie is a catalog entry.  Image is the single poster field; request
// payloads using the legacy "poster" name are normalised by the handler.
type Movie struct {
	ID          uint64    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Genre       string    `db:"genre" json:"genre"`
	Duration    string    `db:"duration" json:"duration"`
	Rating      string    `db:"rating" json:"rating"`
	Image       string    `db:"image" json:"image"`
	Description string    `db:"description" json:"description"`
	Trailer     string    `db:"trailer" json:"trailer"`
	Subtitles   string    `db:"subtitles" json:"subtitles"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	CategoryIDs []uint64  `db:"-" json:"categoryIds"`
}

// Category groups movies by genre-like labels.
type Category struct {
	ID          uint64    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Color       string    `db:"color" json:"color"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
