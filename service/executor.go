package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"querydesk/models"
)

// Executor runs validated read-only SQL against a target database.
type Executor interface {
	Query(ctx context.Context, query string) (*models.QueryResult, error)
	Schema(ctx context.Context) (*models.Schema, error)
	Ping(ctx context.Context) error
	Dialect() string
	Close() error
}

// DefaultMaxRows caps the rows returned by a single query.
const DefaultMaxRows = 1000

// sqlExecutor holds the database/sql plumbing shared by the concrete executors.
type sqlExecutor struct {
	db      *sql.DB
	maxRows int
	dialect string
}

func (e *sqlExecutor) Dialect() string {
	return e.dialect
}

func (e *sqlExecutor) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

func (e *sqlExecutor) Ping(ctx context.Context) error {
	if e.db == nil {
		return errors.New("database connection is not initialized")
	}
	return e.db.PingContext(ctx)
}

func (e *sqlExecutor) Query(ctx context.Context, query string) (*models.QueryResult, error) {
	if e.db == nil {
		return nil, errors.New("database connection is not initialized")
	}

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows, e.maxRows)
}

// scanRows reads at most maxRows rows and flags the result as truncated when
// more were available.
func scanRows(rows *sql.Rows, maxRows int) (*models.QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	result := &models.QueryResult{
		Columns: columns,
		Rows:    [][]interface{}{},
	}

	for rows.Next() {
		if len(result.Rows) == maxRows {
			result.Truncated = true
			break
		}

		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make([]interface{}, len(columns))
		for i, val := range values {
			row[i] = normalizeValue(val)
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// normalizeValue converts driver values into JSON friendly ones.
func normalizeValue(val interface{}) interface{} {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case int64, float64, bool, string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
