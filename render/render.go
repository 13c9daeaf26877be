// Package render produces the HTML fragments exchanged between the query API
// and the query panel: the results table, the loading block, the row count
// block and the error alert. Every template autoescapes its values.
package render

import (
	"fmt"
	"time"

	"github.com/flosch/pongo2/v6"
	log "github.com/sirupsen/logrus"

	"querydesk/models"
)

const (
	loadingTemplate = `<div class="loading">Processing...</div>`

	rowCountTemplate = `<div class="result-count">{{ count }} rows returned</div>`

	errorAlertTemplate = `<div class="error-alert">` +
		`<div class="error-icon">!</div>` +
		`<div class="error-message">{{ message }}</div>` +
		`</div>`

	emptyTemplate = `<div class="no-results">No results found</div>`

	tableTemplate = `<table class="results-table">` +
		`<thead><tr>{% for column in columns %}<th>{{ column }}</th>{% endfor %}</tr></thead>` +
		`<tbody>{% for row in rows %}<tr>{% for cell in row %}` +
		`{% if cell.Null %}<td class="null"></td>{% else %}<td>{{ cell.Value }}</td>{% endif %}` +
		`{% endfor %}</tr>{% endfor %}</tbody>` +
		`</table>` +
		`{% if truncated %}<div class="truncated">Showing the first {{ rows|length }} rows</div>{% endif %}`
)

var (
	rowCountTpl   = pongo2.Must(pongo2.FromString(rowCountTemplate))
	errorAlertTpl = pongo2.Must(pongo2.FromString(errorAlertTemplate))
	tableTpl      = pongo2.Must(pongo2.FromString(tableTemplate))
)

type cell struct {
	Value string
	Null  bool
}

// Loading returns the block shown while a query is in flight.
func Loading() string {
	return loadingTemplate
}

// RowCount returns the "{n} rows returned" block.
func RowCount(n int) string {
	return execute(rowCountTpl, pongo2.Context{"count": n})
}

// ErrorAlert returns the alert block for a failed query. The message is escaped,
// so the rendered text equals message exactly.
func ErrorAlert(message string) string {
	return execute(errorAlertTpl, pongo2.Context{"message": message})
}

// Table renders a query result as an HTML table.
func Table(result *models.QueryResult) (string, error) {
	if result == nil || len(result.Rows) == 0 {
		return emptyTemplate, nil
	}

	rows := make([][]cell, len(result.Rows))
	for i, row := range result.Rows {
		cells := make([]cell, len(row))
		for j, val := range row {
			cells[j] = toCell(val)
		}
		rows[i] = cells
	}

	html, err := tableTpl.Execute(pongo2.Context{
		"columns":   result.Columns,
		"rows":      rows,
		"truncated": result.Truncated,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render results table: %w", err)
	}
	return html, nil
}

func toCell(val interface{}) cell {
	switch v := val.(type) {
	case nil:
		return cell{Null: true}
	case []byte:
		return cell{Value: string(v)}
	case time.Time:
		return cell{Value: v.Format(time.RFC3339)}
	default:
		return cell{Value: fmt.Sprintf("%v", v)}
	}
}

func execute(tpl *pongo2.Template, ctx pongo2.Context) string {
	out, err := tpl.Execute(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to render fragment")
		return ""
	}
	return out
}
