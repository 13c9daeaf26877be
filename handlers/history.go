package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"querydesk/db"
	"querydesk/models"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// HistoryHandler lists recent queries
// @Summary      List recent queries
// @Description  Returns the most recent query exchanges, newest first, including failed ones
// @Tags         History
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of entries (default 20, max 200)"
// @Success      200    {array}   models.QueryHistory   "Recent queries"
// @Failure      400    {object}  models.ErrorResponse  "Invalid limit"
// @Failure      500    {object}  models.ErrorResponse  "History could not be read"
// @Router       /api/history [get]
func (h *Handlers) HistoryHandler(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := h.db.RecentQueries(limit)
	if err != nil {
		log.WithError(err).Error("Failed to read query history")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to read query history"})
		return
	}
	if entries == nil {
		entries = []models.QueryHistory{}
	}

	c.JSON(http.StatusOK, entries)
}

// HistoryEntryHandler returns one recorded query
// @Summary      Get a recorded query
// @Tags         History
// @Produce      json
// @Param        id   path      string  true  "History entry ID"
// @Success      200  {object}  models.QueryHistory   "History entry"
// @Failure      404  {object}  models.ErrorResponse  "Not found"
// @Failure      500  {object}  models.ErrorResponse  "History could not be read"
// @Router       /api/history/{id} [get]
func (h *Handlers) HistoryEntryHandler(c *gin.Context) {
	entry, err := h.db.GetQueryHistory(c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Detail: "History entry not found"})
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to read query history")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to read query history"})
		return
	}

	c.JSON(http.StatusOK, entry)
}
