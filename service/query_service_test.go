package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/models"
	"querydesk/validation"
)

type fakeExecutor struct {
	result      *models.QueryResult
	err         error
	errFor      map[string]error
	queries     []string
	schemaCalls int
}

func (f *fakeExecutor) Query(ctx context.Context, query string) (*models.QueryResult, error) {
	f.queries = append(f.queries, query)
	if err, ok := f.errFor[query]; ok {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeExecutor) Schema(ctx context.Context) (*models.Schema, error) {
	f.schemaCalls++
	return &models.Schema{Dialect: "SQLite", Tables: []models.Table{{Name: "customers"}}}, nil
}

func (f *fakeExecutor) Ping(ctx context.Context) error { return nil }
func (f *fakeExecutor) Dialect() string                { return "SQLite" }
func (f *fakeExecutor) Close() error                   { return nil }

type fakeGenerator struct {
	sql       string
	err       error
	questions []string
	examples  []models.SQLFile
}

func (f *fakeGenerator) GenerateSQL(ctx context.Context, question string, schema *models.Schema, allowed []string, examples []models.SQLFile) (string, error) {
	f.questions = append(f.questions, question)
	f.examples = examples
	return f.sql, f.err
}

type fakeHistory struct {
	entries []models.QueryHistory
}

func (f *fakeHistory) StoreQueryHistory(entry models.QueryHistory) (models.QueryHistory, error) {
	f.entries = append(f.entries, entry)
	return entry, nil
}

type fakeExamples []models.SQLFile

func (f fakeExamples) GetSQLFiles() ([]models.SQLFile, error) { return f, nil }

func customersResult() *models.QueryResult {
	return &models.QueryResult{
		Columns: []string{"id", "first_name"},
		Rows:    [][]interface{}{{int64(1), "John"}, {int64(2), "Jane"}},
	}
}

func TestQueryService_SQLPassthrough(t *testing.T) {
	exec := &fakeExecutor{result: customersResult()}
	gen := &fakeGenerator{}
	hist := &fakeHistory{}
	svc := NewQueryService(QueryServiceOptions{Executor: exec, Generator: gen, History: hist, MaxQueryLength: 500})

	resp, err := svc.Run(context.Background(), "  SELECT id, first_name FROM customers  ")
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, first_name FROM customers", resp.SQL)
	assert.Equal(t, 2, resp.RowCount)
	assert.Equal(t, []string{"id", "first_name"}, resp.Columns)
	assert.Contains(t, resp.HTML, "<td>John</td>")
	assert.Empty(t, gen.questions, "SQL input must not reach the generator")
	assert.Equal(t, []string{"SELECT id, first_name FROM customers"}, exec.queries)

	require.Len(t, hist.entries, 1)
	assert.Equal(t, 2, hist.entries[0].RowCount)
	assert.Empty(t, hist.entries[0].Error)
}

func TestQueryService_NaturalLanguage(t *testing.T) {
	exec := &fakeExecutor{result: customersResult()}
	gen := &fakeGenerator{sql: "SELECT id, first_name FROM customers"}
	examples := fakeExamples{{Name: "a.sql", Content: "SELECT 1"}}
	svc := NewQueryService(QueryServiceOptions{Executor: exec, Generator: gen, Examples: examples})

	resp, err := svc.Run(context.Background(), "show me all customers")
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, first_name FROM customers", resp.SQL)
	assert.Equal(t, []string{"show me all customers"}, gen.questions)
	assert.Len(t, gen.examples, 1)

	// The schema is cached between questions.
	_, err = svc.Run(context.Background(), "list every customer")
	require.NoError(t, err)
	assert.Equal(t, 1, exec.schemaCalls)
}

func TestQueryService_RejectsUnsafeGeneratedSQL(t *testing.T) {
	exec := &fakeExecutor{result: customersResult()}
	gen := &fakeGenerator{sql: "DELETE FROM customers"}
	hist := &fakeHistory{}
	svc := NewQueryService(QueryServiceOptions{Executor: exec, Generator: gen, History: hist})

	_, err := svc.Run(context.Background(), "remove all customers please")
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrUnsafeSQL)
	assert.Empty(t, exec.queries)

	require.Len(t, hist.entries, 1)
	assert.Equal(t, "DELETE FROM customers", hist.entries[0].SQL)
	assert.NotEmpty(t, hist.entries[0].Error)
}

func TestQueryService_InputErrors(t *testing.T) {
	svc := NewQueryService(QueryServiceOptions{Executor: &fakeExecutor{}, Generator: &fakeGenerator{}, MaxQueryLength: 10})

	_, err := svc.Run(context.Background(), "   ")
	assert.ErrorIs(t, err, validation.ErrEmptyQuery)

	_, err = svc.Run(context.Background(), "show me every customer in the database")
	assert.ErrorIs(t, err, validation.ErrQueryTooLong)

	_, err = svc.Run(context.Background(), "asdf qwer")
	assert.ErrorIs(t, err, validation.ErrInvalidPrompt)
}

func TestQueryService_ExecutionError(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("no such table: orderz")}
	svc := NewQueryService(QueryServiceOptions{Executor: exec})

	_, err := svc.Run(context.Background(), "SELECT * FROM orderz")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)
	assert.Equal(t, "query execution failed: no such table: orderz", err.Error())
}

func TestQueryService_SQLLikeQuestionFallsBackToGenerator(t *testing.T) {
	question := "Select the five most expensive products"
	exec := &fakeExecutor{
		result: customersResult(),
		errFor: map[string]error{question: errors.New(`near "the": syntax error`)},
	}
	gen := &fakeGenerator{sql: "SELECT name, price FROM products ORDER BY price DESC LIMIT 5"}
	hist := &fakeHistory{}
	svc := NewQueryService(QueryServiceOptions{Executor: exec, Generator: gen, History: hist})

	resp, err := svc.Run(context.Background(), question)
	require.NoError(t, err)

	assert.Equal(t, []string{question}, gen.questions)
	assert.Equal(t, []string{question, gen.sql}, exec.queries)
	assert.Equal(t, gen.sql, resp.SQL)
	assert.Equal(t, 2, resp.RowCount)

	require.Len(t, hist.entries, 1)
	assert.Equal(t, gen.sql, hist.entries[0].SQL)
	assert.Empty(t, hist.entries[0].Error)
}

func TestQueryService_SQLLikeQuestionWithoutGenerator(t *testing.T) {
	question := "Select the five most expensive products"
	exec := &fakeExecutor{errFor: map[string]error{question: errors.New(`near "the": syntax error`)}}
	svc := NewQueryService(QueryServiceOptions{Executor: exec})

	_, err := svc.Run(context.Background(), question)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExecution)
	assert.Equal(t, []string{question}, exec.queries)
}

func TestQueryService_UnsafeSQLInputIsNotRegenerated(t *testing.T) {
	exec := &fakeExecutor{result: customersResult()}
	gen := &fakeGenerator{sql: "SELECT 1"}
	svc := NewQueryService(QueryServiceOptions{Executor: exec, Generator: gen})

	_, err := svc.Run(context.Background(), "SELECT * INTO customers_copy FROM customers")
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrUnsafeSQL)
	assert.Empty(t, gen.questions)
	assert.Empty(t, exec.queries)
}

func TestQueryService_GeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("AI service is not configured")}
	svc := NewQueryService(QueryServiceOptions{Executor: &fakeExecutor{}, Generator: gen})

	_, err := svc.Run(context.Background(), "how many orders were shipped")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
