// Package panel drives the query panel: it submits the user's text to the query
// API and splices the answer into the results, SQL preview and count regions.
package panel

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"querydesk/client"
	"querydesk/models"
	"querydesk/render"
)

// View is the set of UI regions the handler writes to.
type View interface {
	// SetSQLText sets the SQL preview. The text is never interpreted as markup.
	SetSQLText(text string)
	// SetResultsMarkup replaces the results region.
	SetResultsMarkup(markup string)
	// PrependResults inserts a block at the top of the results region.
	PrependResults(markup string)
}

type Querier interface {
	Query(ctx context.Context, text string) (*models.QueryResponse, error)
}

type Handler struct {
	querier Querier
	view    View
	logger  log.FieldLogger

	mu     sync.Mutex
	latest uint64
}

func NewHandler(querier Querier, view View, logger log.FieldLogger) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Handler{
		querier: querier,
		view:    view,
		logger:  logger,
	}
}

// Submit sends input to the query API once and renders the outcome. Only the
// outcome of the most recent Submit is applied; earlier ones are dropped.
func (h *Handler) Submit(ctx context.Context, input string) {
	query := strings.TrimSpace(input)

	h.mu.Lock()
	h.latest++
	token := h.latest
	h.view.SetResultsMarkup(render.Loading())
	h.view.SetSQLText("")
	h.mu.Unlock()

	resp, err := h.querier.Query(ctx, query)

	h.mu.Lock()
	defer h.mu.Unlock()

	if token != h.latest {
		h.logger.WithField("token", token).Debug("Dropping stale query response")
		return
	}

	if err != nil {
		h.logger.WithError(err).WithField("query", query).Warn("Query failed")
		h.view.SetResultsMarkup(render.ErrorAlert(client.UserMessage(err)))
		return
	}

	h.view.SetSQLText(resp.SQL)
	h.view.SetResultsMarkup(resp.HTML)
	h.view.PrependResults(render.RowCount(resp.RowCount))
}
