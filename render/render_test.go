package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/models"
)

func TestRowCount(t *testing.T) {
	assert.Equal(t, `<div class="result-count">0 rows returned</div>`, RowCount(0))
	assert.Equal(t, `<div class="result-count">42 rows returned</div>`, RowCount(42))
}

func TestErrorAlert(t *testing.T) {
	assert.Equal(t,
		`<div class="error-alert"><div class="error-icon">!</div><div class="error-message">Invalid syntax</div></div>`,
		ErrorAlert("Invalid syntax"))
}

func TestErrorAlert_EscapesMarkup(t *testing.T) {
	out := ErrorAlert(`<script>alert(1)</script>`)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestTable(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &models.QueryResult{
		Columns: []string{"id", "name", "email", "created_at"},
		Rows: [][]interface{}{
			{int64(1), "John", nil, created},
			{int64(2), []byte("<b>Jane</b>"), "jane@example.com", nil},
		},
	}

	html, err := Table(result)
	require.NoError(t, err)

	assert.Contains(t, html, `<table class="results-table">`)
	assert.Contains(t, html, `<thead><tr><th>id</th><th>name</th><th>email</th><th>created_at</th></tr></thead>`)
	assert.Contains(t, html, `<tr><td>1</td><td>John</td><td class="null"></td><td>2024-03-01T12:00:00Z</td></tr>`)
	assert.Contains(t, html, `<td>&lt;b&gt;Jane&lt;/b&gt;</td>`)
	assert.NotContains(t, html, `class="truncated"`)
}

func TestTable_Truncated(t *testing.T) {
	html, err := Table(&models.QueryResult{
		Columns:   []string{"n"},
		Rows:      [][]interface{}{{1}, {2}},
		Truncated: true,
	})
	require.NoError(t, err)
	assert.Contains(t, html, `<div class="truncated">Showing the first 2 rows</div>`)
}

func TestTable_Empty(t *testing.T) {
	html, err := Table(&models.QueryResult{Columns: []string{"id"}})
	require.NoError(t, err)
	assert.Equal(t, `<div class="no-results">No results found</div>`, html)

	html, err = Table(nil)
	require.NoError(t, err)
	assert.Equal(t, `<div class="no-results">No results found</div>`, html)
}
