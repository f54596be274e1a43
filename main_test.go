package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/MuHe200206/toktiktok/catalog"
	"github.com/MuHe200206/toktiktok/database"
	"github.com/MuHe200206/toktiktok/models"
	"github.com/MuHe200206/toktiktok/repository"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func setupTestApp(t *testing.T) (*App, *database.DB, func()) {
	testDB, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := testDB.InitSchema(); err != nil {
		t.Fatalf("Failed to initialize test schema: %v", err)
	}

	logger := zap.NewNop()
	app := &App{
		catalog: catalog.NewService(repository.NewMovieRepository(testDB, logger)),
		logger:  logger,
	}

	cleanup := func() {
		if err := testDB.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	}

	return app, testDB, cleanup
}

func testRouter(app *App) *mux.Router {
	return app.router(rate.NewLimiter(rate.Inf, 0))
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, path, &buf)
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func testMoviePayload(title string) *models.Movie {
	return &models.Movie{
		Title:           title,
		Description:     "A test movie",
		ReleaseYear:     2023,
		Genre:           "Action",
		DurationMinutes: 120,
		ImageURL:        "https://example.com/poster.jpg",
		TrailerURL:      "https://example.com/trailer.mp4",
		Rating:          7.5,
	}
}

func TestListMoviesHandler_EmptyCatalog(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	rr := doJSON(t, testRouter(app), "GET", "/api/Movies", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var movies []models.Movie
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &movies))
	assert.NotNil(t, movies)
	assert.Empty(t, movies)
}

func TestGetMovieHandler_InvalidID(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	rr := doJSON(t, testRouter(app), "GET", "/api/Movies/invalid", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetMovieHandler_NotFound(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	rr := doJSON(t, testRouter(app), "GET", "/api/Movies/99", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateMovieHandler_Success(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	router := testRouter(app)
	rr := doJSON(t, router, "POST", "/api/Movies", testMoviePayload("Created Movie"))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var created models.Movie
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
	assert.Equal(t, "/api/Movies/1", rr.Header().Get("Location"))

	// The Location header resolves to the created record
	rr = doJSON(t, router, "GET", rr.Header().Get("Location"), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateMovieHandler_ValidationFailure(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	payload := testMoviePayload("")
	rr := doJSON(t, testRouter(app), "POST", "/api/Movies", payload)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "title")
}

func TestCreateMovieHandler_MalformedBody(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	req, err := http.NewRequest("POST", "/api/Movies", bytes.NewBufferString("{not json"))
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	testRouter(app).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateMovieHandler_Success(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	router := testRouter(app)
	rr := doJSON(t, router, "POST", "/api/Movies", testMoviePayload("Before"))
	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Movie
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	payload := testMoviePayload("After")
	payload.ID = created.ID
	rr = doJSON(t, router, "PUT", "/api/Movies/1", payload)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, "GET", "/api/Movies/1", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var updated models.Movie
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "After", updated.Title)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestUpdateMovieHandler_IDMismatch(t *testing.T) {
	app, db, cleanup := setupTestApp(t)
	defer cleanup()

	assert.NoError(t, db.SeedMovies())

	payload := testMoviePayload("Mismatch")
	payload.ID = 2
	rr := doJSON(t, testRouter(app), "PUT", "/api/Movies/1", payload)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateMovieHandler_NotFound(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	payload := testMoviePayload("Ghost")
	payload.ID = 99
	rr := doJSON(t, testRouter(app), "PUT", "/api/Movies/99", payload)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteMovieHandler(t *testing.T) {
	app, db, cleanup := setupTestApp(t)
	defer cleanup()

	assert.NoError(t, db.SeedMovies())
	router := testRouter(app)

	rr := doJSON(t, router, "DELETE", "/api/Movies/2", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, "GET", "/api/Movies/2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, "DELETE", "/api/Movies/2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// TestSeededCatalogScenario walks the seeded catalog (ids 1-3, genres
// Drama/Crime/Crime) through the documented request sequence.
func TestSeededCatalogScenario(t *testing.T) {
	app, db, cleanup := setupTestApp(t)
	defer cleanup()

	assert.NoError(t, db.SeedMovies())
	router := testRouter(app)

	ids := func(rr *httptest.ResponseRecorder) []int {
		var movies []models.Movie
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &movies))
		out := []int{}
		for _, m := range movies {
			out = append(out, m.ID)
		}
		return out
	}

	rr := doJSON(t, router, "GET", "/api/Movies", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{1, 2, 3}, ids(rr))

	rr = doJSON(t, router, "GET", "/api/Movies/genre/crime", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{2, 3}, ids(rr))

	rr = doJSON(t, router, "GET", "/api/Movies/genre/CRIME", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{2, 3}, ids(rr))

	rr = doJSON(t, router, "GET", "/api/Movies/genre/western", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, ids(rr))

	rr = doJSON(t, router, "GET", "/api/Movies/99", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	mismatched := testMoviePayload("The Shawshank Redemption")
	mismatched.ID = 2
	rr = doJSON(t, router, "PUT", "/api/Movies/1", mismatched)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, "DELETE", "/api/Movies/2", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, "GET", "/api/Movies/2", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, router, "GET", "/api/Movies", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int{1, 3}, ids(rr))
}

func TestHealthHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/health", nil)
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(healthHandler)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	// One request allowed, then the bucket is dry
	router := app.router(rate.NewLimiter(rate.Limit(0.001), 1))

	rr := doJSON(t, router, "GET", "/api/Movies", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, "GET", "/api/Movies", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
