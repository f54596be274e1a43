package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/MuHe200206/toktiktok/database"
	"github.com/MuHe200206/toktiktok/models"

	"go.uber.org/zap"
)

// MovieRepository handles database operations for movies
type MovieRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewMovieRepository creates a new movie repository
func NewMovieRepository(db *database.DB, logger *zap.Logger) *MovieRepository {
	return &MovieRepository{db: db, logger: logger}
}

const movieColumns = `id, title, description, release_year, genre, duration_minutes,
	   image_url, trailer_url, rating, version, created_at, updated_at`

func scanMovie(row interface{ Scan(...any) error }) (*models.Movie, error) {
	var movie models.Movie
	err := row.Scan(
		&movie.ID, &movie.Title, &movie.Description, &movie.ReleaseYear,
		&movie.Genre, &movie.DurationMinutes, &movie.ImageURL,
		&movie.TrailerURL, &movie.Rating, &movie.Version,
		&movie.CreatedAt, &movie.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetAll retrieves all movies in storage order (ascending id)
func (r *MovieRepository) GetAll() ([]models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies ORDER BY id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close rows", zap.Error(err))
		}
	}()

	var movies []models.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, *movie)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return movies, nil
}

// GetByID retrieves a movie by its ID
func (r *MovieRepository) GetByID(id int) (*models.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = ?`

	movie, err := scanMovie(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("movie with id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	return movie, nil
}

// Create inserts a new movie and fills in its store-assigned id and
// initial version. Timestamps are taken from the record as given.
func (r *MovieRepository) Create(movie *models.Movie) error {
	query := `
		INSERT INTO movies (title, description, release_year, genre, duration_minutes,
							image_url, trailer_url, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		movie.Title, movie.Description, movie.ReleaseYear, movie.Genre,
		movie.DurationMinutes, movie.ImageURL, movie.TrailerURL, movie.Rating,
		movie.CreatedAt, movie.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	movie.ID = int(id)
	movie.Version = 1
	return nil
}

// Update replaces the stored record, but only if its version still equals
// expectedVersion. A row that was modified or deleted since that version
// was read yields ErrVersionMismatch.
func (r *MovieRepository) Update(id, expectedVersion int, movie *models.Movie) error {
	query := `
		UPDATE movies
		SET title = ?, description = ?, release_year = ?, genre = ?,
			duration_minutes = ?, image_url = ?, trailer_url = ?, rating = ?,
			created_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Exec(query,
		movie.Title, movie.Description, movie.ReleaseYear, movie.Genre,
		movie.DurationMinutes, movie.ImageURL, movie.TrailerURL, movie.Rating,
		movie.CreatedAt, movie.UpdatedAt,
		id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("movie with id %d at version %d: %w", id, expectedVersion, ErrVersionMismatch)
	}

	movie.ID = id
	movie.Version = expectedVersion + 1
	return nil
}

// Delete removes a movie. Watchlist rows referencing it are removed by the
// cascade rule on the foreign key.
func (r *MovieRepository) Delete(id int) error {
	result, err := r.db.Exec(`DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("movie with id %d: %w", id, ErrNotFound)
	}

	return nil
}
