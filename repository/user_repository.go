package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MuHe200206/toktiktok/database"
	"github.com/MuHe200206/toktiktok/models"

	"go.uber.org/zap"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// Create inserts a new user and fills in its store-assigned id
func (r *UserRepository) Create(user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(
		`INSERT INTO users (username, email, created_at) VALUES (?, ?, ?)`,
		user.Username, user.Email, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = int(id)
	return nil
}

// GetByID retrieves a user by its ID
func (r *UserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(
		`SELECT id, username, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// Delete removes a user. Watchlist rows referencing it are removed by the
// cascade rule on the foreign key.
func (r *UserRepository) Delete(id int) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user with id %d: %w", id, ErrNotFound)
	}

	return nil
}
