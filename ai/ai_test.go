package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"querydesk/cache"
	"querydesk/models"
)

var testSchema = &models.Schema{
	Dialect: "SQLite",
	Tables: []models.Table{
		{Name: "customers", Columns: []models.Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "first_name", Type: "TEXT"},
		}},
	},
}

func newTestService(t *testing.T, handler http.HandlerFunc) *AIService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := New("test-key", "test-model", srv.URL, cache.New())
	svc.limiter = rate.NewLimiter(rate.Inf, 1)
	svc.baseDelay = time.Millisecond
	return svc
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestGenerateSQL(t *testing.T) {
	var calls int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		if !assert.Len(t, req.Messages, 2) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, "customers(id INTEGER PRIMARY KEY, first_name TEXT)")
		assert.Contains(t, req.Messages[1].Content, "How many customers?")

		reply(w, "```sql\nSELECT COUNT(*) FROM customers;\n```")
	})

	ctx := context.Background()
	sql, err := svc.GenerateSQL(ctx, "How many customers?", testSchema, []string{"SELECT"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM customers;", sql)

	// Second call is served from the cache.
	sql, err = svc.GenerateSQL(ctx, "How many customers?", testSchema, []string{"SELECT"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM customers;", sql)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateSQL_RetriesRateLimit(t *testing.T) {
	var calls int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
			return
		}
		reply(w, "SELECT 1")
	})

	sql, err := svc.GenerateSQL(context.Background(), "anything", testSchema, []string{"SELECT"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", sql)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGenerateSQL_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	})

	_, err := svc.GenerateSQL(context.Background(), "anything", testSchema, []string{"SELECT"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateSQL_MaxRetries(t *testing.T) {
	var calls int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := svc.GenerateSQL(context.Background(), "anything", testSchema, []string{"SELECT"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestGenerateSQL_EmptyReply(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		reply(w, "```sql\n```")
	})

	_, err := svc.GenerateSQL(context.Background(), "anything", testSchema, []string{"SELECT"}, nil)
	assert.ErrorIs(t, err, ErrEmptySQL)
}

func TestGenerateSQL_NilCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		reply(w, "SELECT COUNT(*) FROM customers")
	}))
	t.Cleanup(srv.Close)

	svc := New("test-key", "test-model", srv.URL, nil)
	svc.limiter = rate.NewLimiter(rate.Inf, 1)

	for i := 0; i < 2; i++ {
		sql, err := svc.GenerateSQL(context.Background(), "how many customers", testSchema, []string{"SELECT"}, nil)
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) FROM customers", sql)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateSQL_NotConfigured(t *testing.T) {
	svc := New("", "m", "http://unused", cache.New())
	assert.False(t, svc.Configured())

	_, err := svc.GenerateSQL(context.Background(), "anything", testSchema, []string{"SELECT"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExtractSQL(t *testing.T) {
	tests := map[string]string{
		"SELECT 1":                                   "SELECT 1",
		"  SELECT 1  ":                               "SELECT 1",
		"```sql\nSELECT 1\n```":                      "SELECT 1",
		"```SQL\nSELECT 1\n```":                      "SELECT 1",
		"```\nSELECT 1\n```":                         "SELECT 1",
		"Here you go:\n```sql\nSELECT 2\n```\nDone.": "SELECT 2",
	}
	for in, want := range tests {
		assert.Equal(t, want, extractSQL(in), in)
	}
}

func TestBuildSQLPrompt_IncludesExamples(t *testing.T) {
	prompt := BuildSQLPrompt("top customers", testSchema, []string{"SELECT", "PRAGMA"}, []models.SQLFile{
		{Name: "top.sql", Content: "SELECT * FROM customers LIMIT 5\n"},
	})

	assert.Contains(t, prompt, "Database dialect: SQLite")
	assert.Contains(t, prompt, "--- Reference SQL: top.sql ---\nSELECT * FROM customers LIMIT 5\n")
	assert.Contains(t, prompt, "start with one of: SELECT, PRAGMA")
	assert.Contains(t, prompt, "--- User Request ---\ntop customers")
}
