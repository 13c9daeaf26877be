package handlers

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "querydesk/docs" // Swagger docs
)

// RouterOptions controls the parts of the router that come from configuration.
type RouterOptions struct {
	CORSOrigins []string
	FrontendDir string
}

// NewRouter registers every route of the API on a new gin engine.
func NewRouter(h *Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", h.HealthHandler)
	r.POST("/api/query", h.QueryHandler)
	r.GET("/api/schema", h.SchemaHandler)
	r.GET("/api/history", h.HistoryHandler)
	r.GET("/api/history/:id", h.HistoryEntryHandler)
	r.POST("/api/sql/upload", h.UploadSQLFileHandler)
	r.GET("/api/sql/files", h.ListSQLFilesHandler)

	// Serve the static frontend when it is present
	if opts.FrontendDir != "" {
		if info, err := os.Stat(opts.FrontendDir); err == nil && info.IsDir() {
			index := filepath.Join(opts.FrontendDir, "index.html")
			r.StaticFile("/", index)
			r.NoRoute(func(c *gin.Context) {
				path := filepath.Join(opts.FrontendDir, filepath.Clean("/"+c.Request.URL.Path))
				if st, err := os.Stat(path); err == nil && !st.IsDir() {
					c.File(path)
					return
				}
				c.File(index)
			})
		} else {
			log.WithField("dir", opts.FrontendDir).Debug("Frontend directory not found, not serving static files")
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        24 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}

	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	}
}
