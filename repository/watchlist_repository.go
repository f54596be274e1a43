package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/MuHe200206/toktiktok/database"
	"github.com/MuHe200206/toktiktok/models"

	"go.uber.org/zap"
)

// WatchlistRepository handles database operations for watchlist entries
type WatchlistRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *database.DB, logger *zap.Logger) *WatchlistRepository {
	return &WatchlistRepository{db: db, logger: logger}
}

// Create inserts a new watchlist entry. Both foreign keys must point at
// existing rows. Duplicate (user, movie) pairs are permitted.
func (r *WatchlistRepository) Create(entry *models.Watchlist) error {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	var watchedAt sql.NullTime
	if entry.WatchedAt != nil {
		watchedAt = sql.NullTime{Time: *entry.WatchedAt, Valid: true}
	}

	result, err := r.db.Exec(`
		INSERT INTO watchlists (user_id, movie_id, is_watched, watched_at, added_at, watch_progress)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.MovieID, entry.IsWatched, watchedAt, entry.AddedAt, entry.WatchProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to create watchlist entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = int(id)
	return nil
}

// GetByMovieID returns all watchlist entries referencing a movie
func (r *WatchlistRepository) GetByMovieID(movieID int) ([]models.Watchlist, error) {
	return r.query(`WHERE movie_id = ?`, movieID)
}

// GetByUserID returns all watchlist entries belonging to a user
func (r *WatchlistRepository) GetByUserID(userID int) ([]models.Watchlist, error) {
	return r.query(`WHERE user_id = ?`, userID)
}

func (r *WatchlistRepository) query(where string, arg int) ([]models.Watchlist, error) {
	query := `SELECT id, user_id, movie_id, is_watched, watched_at, added_at, watch_progress
			  FROM watchlists ` + where + ` ORDER BY id`

	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist entries: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("failed to close rows", zap.Error(err))
		}
	}()

	var entries []models.Watchlist
	for rows.Next() {
		var entry models.Watchlist
		var watchedAt sql.NullTime

		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.MovieID, &entry.IsWatched,
			&watchedAt, &entry.AddedAt, &entry.WatchProgress,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}

		if watchedAt.Valid {
			t := watchedAt.Time
			entry.WatchedAt = &t
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	return entries, nil
}
