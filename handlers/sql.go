package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"querydesk/models"
)

const maxSQLFileSize = 256 << 10

// UploadSQLFileHandler uploads a SQL file as reference
// @Summary      Upload SQL reference file
// @Description  Upload a SQL file that will be shown to the model as an example when generating SQL queries
// @Tags         SQL Files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "SQL file to upload"
// @Success      200   {object}  map[string]string     "File uploaded successfully"
// @Failure      400   {object}  models.ErrorResponse  "No file provided"
// @Failure      500   {object}  models.ErrorResponse  "Failed to store file"
// @Router       /api/sql/upload [post]
func (h *Handlers) UploadSQLFileHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "No file provided"})
		return
	}

	name := filepath.Base(file.Filename)
	if !strings.HasSuffix(strings.ToLower(name), ".sql") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "Only .sql files are accepted"})
		return
	}
	if file.Size > maxSQLFileSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "SQL file is too large"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to open file"})
		return
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to read file"})
		return
	}

	if err := h.db.StoreSQLFile(name, string(content)); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to store SQL file"})
		return
	}

	// Also save to filesystem
	if h.sqlFilesDir != "" {
		if err := os.MkdirAll(h.sqlFilesDir, 0o755); err != nil {
			log.WithError(err).Warn("Failed to create SQL files directory")
		} else if err := os.WriteFile(filepath.Join(h.sqlFilesDir, name), content, 0o644); err != nil {
			log.WithError(err).Warn("Failed to save SQL file to filesystem")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "SQL file uploaded successfully", "filename": name})
}

// ListSQLFilesHandler lists all stored SQL reference files
// @Summary      List SQL reference files
// @Description  Get a list of all SQL files stored as references
// @Tags         SQL Files
// @Produce      json
// @Success      200  {object}  map[string][]string   "List of SQL file names"
// @Failure      500  {object}  models.ErrorResponse  "Failed to load files"
// @Router       /api/sql/files [get]
func (h *Handlers) ListSQLFilesHandler(c *gin.Context) {
	sqlFiles, err := h.db.GetSQLFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Detail: "Failed to load SQL files"})
		return
	}

	names := make([]string, len(sqlFiles))
	for i, f := range sqlFiles {
		names[i] = f.Name
	}

	c.JSON(http.StatusOK, gin.H{"files": names})
}
