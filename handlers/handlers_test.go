package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/ai"
	"querydesk/cache"
	"querydesk/db"
	"querydesk/models"
	"querydesk/seed"
	"querydesk/service"
	"querydesk/validation"
)

func newTestRouter(t *testing.T) (*gin.Engine, *db.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "ecommerce.db")
	sqlDB, err := seed.Open(path)
	require.NoError(t, err)
	require.NoError(t, seed.Seed(context.Background(), sqlDB, seed.Options{Rand: rand.New(rand.NewSource(1))}))
	require.NoError(t, sqlDB.Close())

	exec, err := service.NewSQLiteExecutor(path, 100)
	require.NoError(t, err)
	t.Cleanup(func() { exec.Close() })

	history, err := db.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	appCache := cache.New()
	aiService := ai.New("", "test-model", "", appCache)

	qs := service.NewQueryService(service.QueryServiceOptions{
		Executor:       exec,
		History:        history,
		Examples:       history,
		Cache:          appCache,
		MaxQueryLength: 500,
	})

	h := New(qs, history, aiService, t.TempDir())
	return NewRouter(h, RouterOptions{CORSOrigins: []string{"*"}}), history
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQueryHandler_SQL(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/query", `{"query":"SELECT first_name, city FROM customers ORDER BY id"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SELECT first_name, city FROM customers ORDER BY id", resp.SQL)
	assert.Equal(t, []string{"first_name", "city"}, resp.Columns)
	assert.Equal(t, 3, resp.RowCount)
	assert.Contains(t, resp.HTML, `<table class="results-table">`)
	assert.Contains(t, resp.HTML, "<td>London</td>")
}

func TestQueryHandler_Errors(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"malformed json", `{"query":`, "Invalid request body"},
		{"empty query", `{"query":"   "}`, validation.ErrEmptyQuery.Error()},
		{"missing field", `{}`, validation.ErrEmptyQuery.Error()},
		{"gibberish", `{"query":"asdf qwer zxcv"}`, validation.ErrInvalidPrompt.Error()},
		{"second statement", `{"query":"SELECT 1; DROP TABLE customers"}`, "unsafe SQL: only a single statement is allowed"},
		{"write keyword", `{"query":"SELECT * FROM customers WHERE id IN (DELETE FROM orders)"}`, "unsafe SQL: DELETE is not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/api/query", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.detail, resp.Detail)
		})
	}
}

func TestQueryHandler_ExecutionError(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/query", `{"query":"SELECT * FROM no_such_table"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Detail, "query execution failed:"), resp.Detail)
}

func TestQueryHandler_NaturalLanguageWithoutModel(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/query", `{"query":"show me every customer in London"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "detail")
}

func TestHistoryHandlers(t *testing.T) {
	r, _ := newTestRouter(t)

	doJSON(r, http.MethodPost, "/api/query", `{"query":"SELECT COUNT(*) AS n FROM orders"}`)
	doJSON(r, http.MethodPost, "/api/query", `{"query":"SELECT name FROM products"}`)

	w := doJSON(r, http.MethodGet, "/api/history?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var entries []models.QueryHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "SELECT name FROM products", entries[0].Query)
	assert.Equal(t, 4, entries[0].RowCount)

	w = doJSON(r, http.MethodGet, "/api/history/"+entries[0].ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var entry models.QueryHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, entries[0].ID, entry.ID)

	w = doJSON(r, http.MethodGet, "/api/history/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandler_Empty(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSchemaHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/schema", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp SchemaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SQLite", resp.Dialect)

	var names []string
	for _, table := range resp.Tables {
		names = append(names, table.Name)
	}
	assert.Contains(t, names, "customers")
	assert.Contains(t, names, "order_details")
	assert.NotContains(t, names, "goose_db_version")
	assert.Contains(t, resp.Description, "customers")
}

func TestHealthHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status["status"])
	assert.Equal(t, "connected", status["db"])
	assert.Equal(t, "connected", status["database"])
	assert.Equal(t, "not_configured", status["ai_service"])
	assert.Equal(t, "SQLite", status["dialect"])
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSQLFileHandlers(t *testing.T) {
	r, _ := newTestRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "top_customers.sql")
	require.NoError(t, err)
	_, err = part.Write([]byte("SELECT customer_id, SUM(total_amount) FROM orders GROUP BY customer_id;"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sql/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/api/sql/files", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"files":["top_customers.sql"]}`, w.Body.String())
}

func TestUploadSQLFileHandler_RejectsOtherFiles(t *testing.T) {
	r, _ := newTestRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hello"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sql/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
