package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"querydesk/cache"
	"querydesk/models"
	"querydesk/render"
	"querydesk/validation"
)

var (
	// ErrExecution wraps every error returned by the target database.
	ErrExecution = errors.New("query execution failed")
	// ErrNoGenerator is returned for natural-language input when no model is configured.
	ErrNoGenerator = errors.New("natural-language queries are not available")
)

// SQLGenerator turns a natural-language question into SQL.
type SQLGenerator interface {
	GenerateSQL(ctx context.Context, question string, schema *models.Schema, allowed []string, examples []models.SQLFile) (string, error)
}

// HistoryStore records every query exchange.
type HistoryStore interface {
	StoreQueryHistory(entry models.QueryHistory) (models.QueryHistory, error)
}

// ExampleStore provides reference SQL files for prompts.
type ExampleStore interface {
	GetSQLFiles() ([]models.SQLFile, error)
}

type QueryServiceOptions struct {
	Executor          Executor
	Generator         SQLGenerator
	History           HistoryStore // optional
	Examples          ExampleStore // optional
	Cache             *cache.Cache
	MaxQueryLength    int
	AllowedOperations []string
	SchemaTTL         time.Duration
}

// QueryService answers /api/query: it turns a question into SQL, checks it is
// read-only, runs it and renders the rows.
type QueryService struct {
	executor  Executor
	generator SQLGenerator
	history   HistoryStore
	examples  ExampleStore
	cache     *cache.Cache
	maxLen    int
	allowed   []string
	schemaTTL time.Duration
}

func NewQueryService(opts QueryServiceOptions) *QueryService {
	c := opts.Cache
	if c == nil {
		c = cache.New()
	}
	allowed := opts.AllowedOperations
	if len(allowed) == 0 {
		allowed = []string{"SELECT", "PRAGMA"}
	}
	ttl := opts.SchemaTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}

	return &QueryService{
		executor:  opts.Executor,
		generator: opts.Generator,
		history:   opts.History,
		examples:  opts.Examples,
		cache:     c,
		maxLen:    opts.MaxQueryLength,
		allowed:   allowed,
		schemaTTL: ttl,
	}
}

func (s *QueryService) Executor() Executor {
	return s.executor
}

// Run answers one question. Every failure is returned as an error whose text is
// suitable for the user.
func (s *QueryService) Run(ctx context.Context, question string) (*models.QueryResponse, error) {
	question = strings.TrimSpace(question)
	entry := models.QueryHistory{Query: question}
	logger := log.WithField("query", question)

	resp, err := s.run(ctx, question, &entry)
	if err != nil {
		entry.Error = err.Error()
		logger.WithError(err).Warn("Query failed")
	} else {
		logger.WithFields(log.Fields{"sql": resp.SQL, "rows": resp.RowCount}).Info("Query answered")
	}

	s.record(entry)

	return resp, err
}

func (s *QueryService) run(ctx context.Context, question string, entry *models.QueryHistory) (*models.QueryResponse, error) {
	if err := validation.ValidateQueryInput(question, s.maxLen); err != nil {
		return nil, err
	}

	// Text that starts like SQL is tried as-is first. A question such as
	// "Select the five most expensive products" fails to execute and is then
	// handed to the generator.
	if validation.LooksLikeSQL(question, s.allowed) {
		resp, err := s.execute(ctx, question, entry)
		if err == nil || !errors.Is(err, ErrExecution) || s.generator == nil || !validation.IsValidPrompt(question) {
			return resp, err
		}
		log.WithError(err).WithField("query", question).Debug("Input did not run as SQL, generating SQL instead")
		entry.RowCount = 0
	}

	sql, err := s.generateSQL(ctx, question)
	if err != nil {
		return nil, err
	}

	return s.execute(ctx, sql, entry)
}

// execute checks sql is read-only, runs it and renders the rows.
func (s *QueryService) execute(ctx context.Context, sql string, entry *models.QueryHistory) (*models.QueryResponse, error) {
	entry.SQL = sql

	if err := validation.ValidateSQL(sql, s.allowed); err != nil {
		return nil, err
	}

	result, err := s.executor.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	entry.RowCount = result.RowCount()

	html, err := render.Table(result)
	if err != nil {
		return nil, err
	}

	return &models.QueryResponse{
		SQL:      sql,
		HTML:     html,
		Columns:  result.Columns,
		RowCount: result.RowCount(),
	}, nil
}

func (s *QueryService) generateSQL(ctx context.Context, question string) (string, error) {
	if !validation.IsValidPrompt(question) {
		return "", validation.ErrInvalidPrompt
	}

	if s.generator == nil {
		return "", ErrNoGenerator
	}

	schema, err := s.Schema(ctx)
	if err != nil {
		return "", err
	}

	var examples []models.SQLFile
	if s.examples != nil {
		examples, err = s.examples.GetSQLFiles()
		if err != nil {
			log.WithError(err).Warn("Failed to load reference SQL files")
			examples = nil
		}
	}

	return s.generator.GenerateSQL(ctx, question, schema, s.allowed, examples)
}

// Schema returns the executor schema, cached for the schema TTL.
func (s *QueryService) Schema(ctx context.Context) (*models.Schema, error) {
	key := "schema:" + s.executor.Dialect()
	if cached, found := s.cache.Get(key); found {
		if schema, ok := cached.(*models.Schema); ok {
			return schema, nil
		}
	}

	schema, err := s.executor.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	s.cache.Set(key, schema, s.schemaTTL)
	return schema, nil
}

func (s *QueryService) record(entry models.QueryHistory) {
	if s.history == nil || entry.Query == "" {
		return
	}
	if _, err := s.history.StoreQueryHistory(entry); err != nil {
		log.WithError(err).Warn("Failed to store query history")
	}
}
