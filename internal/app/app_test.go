package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-api/internal/config"
)

func sqliteConfig(t *testing.T) *config.App {
	t.Helper()
	return &config.App{
		Name:     "trivia-api-test",
		Env:      "test",
		HTTPAddr: "127.0.0.1:0",
		Store: config.Store{
			Driver:     config.DriverSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "trivia.db"),
			SQLiteSeed: true,
		},
		Import: config.Import{
			Enabled:   true,
			QueueSize: 2,
			MaxAmount: 10,
		},
		CORS: config.CORS{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

// New registers collectors on the default registry, so it runs once per test binary.
func TestNewServesQuestionRoutes(t *testing.T) {
	a, err := New(context.Background(), sqliteConfig(t))
	require.NoError(t, err)
	t.Cleanup(a.closeStore)

	assert.Nil(t, a.redis)
	assert.Nil(t, a.bankBroadcaster)
	require.NotNil(t, a.importWorker)

	h := a.http.Handler

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/questions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(19), body["total_questions"])
	assert.Len(t, body["questions"], 10)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/questions",
		strings.NewReader(`{"question":"Q?","answer":"A","category":1,"difficulty":1}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/questions",
		strings.NewReader(`{"question":"Q?","answer":"A","category":99,"difficulty":1}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "trivia_http_request_duration_seconds")
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Store.Driver = "mongo"

	_, _, _, err := openStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestOpenStoreSeedsSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)

	repo, _, closeStore, err := openStore(ctx, cfg)
	require.NoError(t, err)
	cats, err := repo.AllCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 6)
	closeStore()

	// reopening an already seeded file leaves it alone
	repo, _, closeStore, err = openStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(closeStore)
	cats, err = repo.AllCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 6)
}

func TestOpenStoreWithoutSeed(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	cfg.Store.SQLiteSeed = false

	repo, _, closeStore, err := openStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	cats, err := repo.AllCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}
