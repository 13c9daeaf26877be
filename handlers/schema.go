package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"querydesk/ai"
	"querydesk/models"
)

type SchemaResponse struct {
	models.Schema
	Description string `json:"description"`
}

// SchemaHandler returns the tables queries can use
// @Summary      Describe the queryable schema
// @Description  Lists the tables and columns of the target database together with the description given to the model
// @Tags         Query
// @Produce      json
// @Success      200  {object}  SchemaResponse        "Schema"
// @Failure      500  {object}  models.ErrorResponse  "Schema could not be read"
// @Router       /api/schema [get]
func (h *Handlers) SchemaHandler(c *gin.Context) {
	schema, err := h.queryService.Schema(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, SchemaResponse{
		Schema:      *schema,
		Description: ai.DescribeSchema(schema),
	})
}
