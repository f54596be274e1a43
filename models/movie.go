// Package models defines the data structures used throughout the application.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Movie represents a single entry in the streaming catalog
type Movie struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ReleaseYear     int       `json:"releaseYear"`
	Genre           string    `json:"genre"`
	DurationMinutes int       `json:"durationMinutes"`
	ImageURL        string    `json:"imageUrl"`
	TrailerURL      string    `json:"trailerUrl"`
	Rating          float64   `json:"rating"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	Version         int       `json:"-"` // row version, bumped on every update
}

// Field length limits for Movie
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxGenreLength       = 100
	MaxURLLength         = 500
)

// ValidationError reports the first field constraint a Movie violates
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid movie: %s %s", e.Field, e.Reason)
}

// Validate checks the required/length constraints on the movie fields
func (m *Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if len(m.Title) > MaxTitleLength {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("must be at most %d characters", MaxTitleLength)}
	}
	if len(m.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)}
	}
	if len(m.Genre) > MaxGenreLength {
		return &ValidationError{Field: "genre", Reason: fmt.Sprintf("must be at most %d characters", MaxGenreLength)}
	}
	if len(m.ImageURL) > MaxURLLength {
		return &ValidationError{Field: "imageUrl", Reason: fmt.Sprintf("must be at most %d characters", MaxURLLength)}
	}
	if len(m.TrailerURL) > MaxURLLength {
		return &ValidationError{Field: "trailerUrl", Reason: fmt.Sprintf("must be at most %d characters", MaxURLLength)}
	}
	return nil
}
