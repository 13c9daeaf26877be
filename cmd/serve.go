package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"querydesk/ai"
	"querydesk/cache"
	"querydesk/config"
	"querydesk/db"
	"querydesk/handlers"
	"querydesk/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the query API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "port to listen on (default 9090)")
	serveCmd.Flags().String("database-path", "", "SQLite database to query (default ecommerce.db)")
	serveCmd.Flags().String("frontend-dir", "", "static frontend served at / when present")
}

func newExecutor(cfg *config.Config) (service.Executor, error) {
	if cfg.UsesSQLServer() {
		return service.NewSQLServerExecutor(cfg.SQLServer, cfg.MaxRows)
	}
	return service.NewSQLiteExecutor(cfg.DatabasePath, cfg.MaxRows)
}

func serve(ctx context.Context, cfg *config.Config) error {
	// Initialize history store
	database, err := db.New(cfg.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to initialize history store: %w", err)
	}
	defer database.Close()

	// Load existing SQL files from directory into DB
	sqlFiles, err := db.LoadSQLFilesFromDir(cfg.SQLFilesDir)
	if err != nil {
		log.WithError(err).Warn("Failed to read SQL reference files")
	}
	for _, sqlFile := range sqlFiles {
		if err := database.StoreSQLFile(sqlFile.Name, sqlFile.Content); err != nil {
			log.WithError(err).WithField("file", sqlFile.Name).Warn("Failed to store SQL reference file")
		}
	}
	log.Printf("Loaded %d SQL files into database", len(sqlFiles))

	appCache := cache.New()

	aiService := ai.New(cfg.GroqAPIKey, cfg.ModelName, cfg.APIURL, appCache)
	defer aiService.Close()
	if !aiService.Configured() {
		log.Warn("GROQ_API_KEY is not set; only SQL input can be answered")
	}

	executor, err := newExecutor(cfg)
	if err != nil {
		return fmt.Errorf("failed to open target database: %w", err)
	}
	defer executor.Close()
	log.WithField("dialect", executor.Dialect()).Info("Target database ready")

	opts := service.QueryServiceOptions{
		Executor:          executor,
		History:           database,
		Examples:          database,
		Cache:             appCache,
		MaxQueryLength:    cfg.MaxQueryLength,
		AllowedOperations: cfg.AllowedOperations,
	}
	if aiService.Configured() {
		opts.Generator = aiService
	}
	queryService := service.NewQueryService(opts)

	if log.GetLevel() < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.New(queryService, database, aiService, cfg.SQLFilesDir)
	router := handlers.NewRouter(h, handlers.RouterOptions{
		CORSOrigins: cfg.CORSOrigins,
		FrontendDir: cfg.FrontendDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
