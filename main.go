// Package main provides the main entry point for the streaming catalog API.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/MuHe200206/toktiktok/catalog"
	"github.com/MuHe200206/toktiktok/database"
	"github.com/MuHe200206/toktiktok/models"
	"github.com/MuHe200206/toktiktok/repository"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// App represents the application with its dependencies
type App struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Warn("could not load .env file", zap.Error(err))
	}

	// Initialize database
	db, err := database.NewDB(envOr("DATABASE_PATH", "toktiktok.db"))
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	// Initialize schema
	if err := db.InitSchema(); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	// Seed the sample catalog unless disabled
	if envOr("SEED_DATA", "true") != "false" {
		if err := db.SeedMovies(); err != nil {
			logger.Fatal("failed to seed movies", zap.Error(err))
		}
	}

	movieRepo := repository.NewMovieRepository(db, logger)

	app := &App{
		catalog: catalog.NewService(movieRepo),
		logger:  logger,
	}

	limiter := rate.NewLimiter(
		rate.Limit(envFloat(logger, "RATE_LIMIT_RPS", 50)),
		envInt(logger, "RATE_LIMIT_BURST", 100),
	)

	addr := envOr("ADDR", ":8080")
	logger.Info("server starting", zap.String("addr", addr))

	server := &http.Server{
		Addr:         addr,
		Handler:      app.router(limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Fatal("server stopped", zap.Error(server.ListenAndServe()))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(logger *zap.Logger, key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn("invalid numeric value, using default", zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return f
}

func envInt(logger *zap.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid numeric value, using default", zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return n
}

// router builds the route table. The genre route is registered before the
// id route so "genre" is never parsed as an id.
func (app *App) router(limiter *rate.Limiter) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(app.loggingMiddleware)
	api.Use(rateLimitMiddleware(limiter))

	api.HandleFunc("/Movies", app.listMoviesHandler).Methods("GET")
	api.HandleFunc("/Movies/genre/{genre}", app.listMoviesByGenreHandler).Methods("GET")
	api.HandleFunc("/Movies/{id}", app.getMovieHandler).Methods("GET")
	api.HandleFunc("/Movies", app.createMovieHandler).Methods("POST")
	api.HandleFunc("/Movies/{id}", app.updateMovieHandler).Methods("PUT")
	api.HandleFunc("/Movies/{id}", app.deleteMovieHandler).Methods("DELETE")

	return r
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (app *App) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		app.logger.Info("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (app *App) listMoviesHandler(w http.ResponseWriter, _ *http.Request) {
	movies, err := app.catalog.List()
	if err != nil {
		app.logger.Error("failed to list movies", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(movies); err != nil {
		app.logger.Error("failed to encode movies", zap.Error(err))
	}
}

func (app *App) getMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid movie id", http.StatusBadRequest)
		return
	}

	movie, err := app.catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		app.logger.Error("failed to get movie", zap.Int("id", id), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(movie); err != nil {
		app.logger.Error("failed to encode movie", zap.Error(err))
	}
}

func (app *App) listMoviesByGenreHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := app.catalog.ListByGenre(mux.Vars(r)["genre"])
	if err != nil {
		app.logger.Error("failed to list movies by genre", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(movies); err != nil {
		app.logger.Error("failed to encode movies", zap.Error(err))
	}
}

func (app *App) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	var movie models.Movie
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := app.catalog.Create(&movie)
	if err != nil {
		var ve *models.ValidationError
		if errors.As(err, &ve) {
			http.Error(w, ve.Error(), http.StatusBadRequest)
			return
		}
		app.logger.Error("failed to create movie", zap.Error(err))
		http.Error(w, "Failed to create movie", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", fmt.Sprintf("/api/Movies/%d", created.ID))
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		app.logger.Error("failed to encode movie", zap.Error(err))
	}
}

func (app *App) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid movie id", http.StatusBadRequest)
		return
	}

	var movie models.Movie
	if err := json.NewDecoder(r.Body).Decode(&movie); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := app.catalog.Update(id, &movie); err != nil {
		var ve *models.ValidationError
		switch {
		case errors.Is(err, catalog.ErrIDMismatch):
			http.Error(w, "Movie id does not match requested id", http.StatusBadRequest)
		case errors.As(err, &ve):
			http.Error(w, ve.Error(), http.StatusBadRequest)
		case errors.Is(err, catalog.ErrNotFound):
			http.Error(w, "Movie not found", http.StatusNotFound)
		case errors.Is(err, catalog.ErrConflict):
			app.logger.Error("concurrent modification on update", zap.Int("id", id), zap.Error(err))
			http.Error(w, "Movie was modified concurrently", http.StatusInternalServerError)
		default:
			app.logger.Error("failed to update movie", zap.Int("id", id), zap.Error(err))
			http.Error(w, "Failed to update movie", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *App) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid movie id", http.StatusBadRequest)
		return
	}

	if err := app.catalog.Delete(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		app.logger.Error("failed to delete movie", zap.Int("id", id), zap.Error(err))
		http.Error(w, "Failed to delete movie", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
