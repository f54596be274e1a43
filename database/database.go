// Package database provides database connectivity and schema management.
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection. Foreign key enforcement is
// switched on for every connection; the cascade rules on watchlists
// depend on it.
func NewDB(dataSourceName string) (*DB, error) {
	dsn := dataSourceName
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// InitSchema initializes the database schema
func (db *DB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS movies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		release_year INTEGER NOT NULL DEFAULT 0,
		genre TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		image_url TEXT NOT NULL DEFAULT '',
		trailer_url TEXT NOT NULL DEFAULT '',
		rating REAL NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title);
	CREATE INDEX IF NOT EXISTS idx_movies_genre ON movies(genre);
	CREATE INDEX IF NOT EXISTS idx_movies_release_year ON movies(release_year);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS watchlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		movie_id INTEGER NOT NULL,
		is_watched INTEGER NOT NULL DEFAULT 0,
		watched_at DATETIME,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		watch_progress INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_watchlists_user_id ON watchlists(user_id);
	CREATE INDEX IF NOT EXISTS idx_watchlists_movie_id ON watchlists(movie_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// seedMovie mirrors the sample catalog shipped with the original deployment
type seedMovie struct {
	id              int
	title           string
	description     string
	releaseYear     int
	genre           string
	durationMinutes int
	imageURL        string
	trailerURL      string
	rating          float64
}

var seedMovies = []seedMovie{
	{
		id:              1,
		title:           "The Shawshank Redemption",
		description:     "Two imprisoned men bond over a number of years, finding solace and eventual redemption through acts of common decency.",
		releaseYear:     1994,
		genre:           "Drama",
		durationMinutes: 142,
		imageURL:        "https://example.com/shawshank.jpg",
		trailerURL:      "https://example.com/shawshank-trailer.mp4",
		rating:          9.3,
	},
	{
		id:              2,
		title:           "The Godfather",
		description:     "The aging patriarch of an organized crime dynasty transfers control of his clandestine empire to his reluctant son.",
		releaseYear:     1972,
		genre:           "Crime",
		durationMinutes: 175,
		imageURL:        "https://example.com/godfather.jpg",
		trailerURL:      "https://example.com/godfather-trailer.mp4",
		rating:          9.2,
	},
	{
		id:              3,
		title:           "Pulp Fiction",
		description:     "The lives of two mob hitmen, a boxer, a gangster and his wife, and a pair of diner bandits intertwine in four tales of violence and redemption.",
		releaseYear:     1994,
		genre:           "Crime",
		durationMinutes: 154,
		imageURL:        "https://example.com/pulp-fiction.jpg",
		trailerURL:      "https://example.com/pulp-fiction-trailer.mp4",
		rating:          8.9,
	},
}

// SeedMovies inserts the three sample catalog entries with fixed ids 1-3.
// Rows that already exist are left untouched, so startup can call this
// unconditionally.
func (db *DB) SeedMovies() error {
	query := `
		INSERT OR IGNORE INTO movies
			(id, title, description, release_year, genre, duration_minutes,
			 image_url, trailer_url, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	for _, m := range seedMovies {
		if _, err := db.Exec(query,
			m.id, m.title, m.description, m.releaseYear, m.genre,
			m.durationMinutes, m.imageURL, m.trailerURL, m.rating, now, now,
		); err != nil {
			return fmt.Errorf("failed to seed movie %d: %w", m.id, err)
		}
	}

	return nil
}
