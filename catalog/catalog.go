// Package catalog is the single authority for reading and mutating the
// movie catalog. Handlers call it instead of touching storage directly.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MuHe200206/toktiktok/models"
	"github.com/MuHe200206/toktiktok/repository"
)

var (
	// ErrNotFound is returned when no movie exists with the requested id.
	ErrNotFound = errors.New("movie not found")

	// ErrIDMismatch is returned when the id in an update payload does not
	// match the id the update was addressed to.
	ErrIDMismatch = errors.New("movie id does not match requested id")

	// ErrConflict is returned when a movie was modified by another writer
	// between this caller's read and its write. The operation is not
	// retried; the caller must restart from a fresh read.
	ErrConflict = errors.New("movie was modified concurrently")
)

// MovieStore is the storage contract the service runs against.
type MovieStore interface {
	GetAll() ([]models.Movie, error)
	GetByID(id int) (*models.Movie, error)
	Create(movie *models.Movie) error
	Update(id, expectedVersion int, movie *models.Movie) error
	Delete(id int) error
}

// Service implements the catalog operations over a MovieStore
type Service struct {
	movies MovieStore
}

// NewService creates a new catalog service
func NewService(movies MovieStore) *Service {
	return &Service{movies: movies}
}

// List returns every movie in storage order
func (s *Service) List() ([]models.Movie, error) {
	movies, err := s.movies.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	if movies == nil {
		movies = []models.Movie{}
	}
	return movies, nil
}

// Get returns the movie with the given id
func (s *Service) Get(id int) (*models.Movie, error) {
	movie, err := s.movies.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return movie, nil
}

// ListByGenre returns every movie whose genre contains the given string,
// compared case-insensitively. The empty string matches everything.
func (s *Service) ListByGenre(genre string) ([]models.Movie, error) {
	movies, err := s.List()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(genre)
	matched := []models.Movie{}
	for _, movie := range movies {
		if strings.Contains(strings.ToLower(movie.Genre), needle) {
			matched = append(matched, movie)
		}
	}
	return matched, nil
}

// Create validates and persists a new movie. Both timestamps are assigned
// server-side; caller-supplied values and id are ignored.
func (s *Service) Create(movie *models.Movie) (*models.Movie, error) {
	if err := movie.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	movie.ID = 0
	movie.CreatedAt = now
	movie.UpdatedAt = now

	if err := s.movies.Create(movie); err != nil {
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}
	return movie, nil
}

// Update performs a full replace of the stored movie. The payload id must
// equal the addressed id. The write is conditioned on the row version read
// here; a conflicting write that is explained by deletion becomes
// ErrNotFound, any other conflict becomes ErrConflict.
func (s *Service) Update(id int, movie *models.Movie) error {
	if movie.ID != id {
		return ErrIDMismatch
	}
	if err := movie.Validate(); err != nil {
		return err
	}

	current, err := s.movies.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read movie before update: %w", err)
	}

	movie.CreatedAt = current.CreatedAt
	movie.UpdatedAt = time.Now().UTC()

	err = s.movies.Update(id, current.Version, movie)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrVersionMismatch) {
		return fmt.Errorf("failed to update movie: %w", err)
	}

	// The conditional write lost. If the row is gone the conflict is just
	// a deletion; otherwise another writer got there first.
	if _, err := s.movies.GetByID(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to re-check movie after conflict: %w", err)
	}
	return ErrConflict
}

// Delete removes the movie with the given id. Watchlist rows referencing
// it are removed by the storage cascade.
func (s *Service) Delete(id int) error {
	if err := s.movies.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	return nil
}
