package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"querydesk/models"
)

// QueryHandler answers a question with SQL and an HTML table of its rows
// @Summary      Run a natural-language or SQL query
// @Description  Turns the question into read-only SQL (text that already is SELECT or PRAGMA is used as-is), runs it and returns the rows rendered as an HTML table
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      models.QueryRequest    true  "Question to answer"
// @Success      200      {object}  models.QueryResponse   "Generated SQL and rendered rows"
// @Failure      400      {object}  models.ErrorResponse   "Invalid question, unsafe SQL or execution error"
// @Router       /api/query [post]
func (h *Handlers) QueryHandler(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Invalid request body"})
		return
	}

	resp, err := h.queryService.Run(c.Request.Context(), req.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
