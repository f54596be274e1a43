package models

import "time"

// Watchlist links a user to a movie they saved. A user may hold several
// entries for the same movie; the schema does not enforce uniqueness on
// the (UserID, MovieID) pair.
type Watchlist struct {
	ID            int        `json:"id"`
	UserID        int        `json:"userId"`
	MovieID       int        `json:"movieId"`
	IsWatched     bool       `json:"isWatched"`
	WatchedAt     *time.Time `json:"watchedAt,omitempty"`
	AddedAt       time.Time  `json:"addedAt"`
	WatchProgress int        `json:"watchProgress"` // in seconds
}
