package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"querydesk/models"
)

// SQLiteExecutor runs queries against a SQLite file opened read-only.
type SQLiteExecutor struct {
	sqlExecutor
	path string
}

var _ Executor = (*SQLiteExecutor)(nil)

func NewSQLiteExecutor(path string, maxRows int) (*SQLiteExecutor, error) {
	if path == "" {
		return nil, fmt.Errorf("SQLite database path is empty")
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	return &SQLiteExecutor{
		sqlExecutor: sqlExecutor{db: db, maxRows: maxRows, dialect: "SQLite"},
		path:        path,
	}, nil
}

func (e *SQLiteExecutor) Path() string {
	return e.path
}

// Schema lists user tables with their columns.
func (e *SQLiteExecutor) Schema(ctx context.Context) (*models.Schema, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'goose_db_version'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	schema := &models.Schema{Dialect: e.dialect, Tables: []models.Table{}}
	for _, name := range names {
		columns, err := e.tableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, models.Table{Name: name, Columns: columns})
	}

	return schema, nil
}

func (e *SQLiteExecutor) tableColumns(ctx context.Context, table string) ([]models.Column, error) {
	quoted := `"` + strings.ReplaceAll(table, `"`, `""`) + `"`
	rows, err := e.db.QueryContext(ctx, "PRAGMA table_info("+quoted+")")
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, models.Column{
			Name:       name,
			Type:       colType,
			NotNull:    notNull != 0,
			PrimaryKey: pk != 0,
		})
	}

	return columns, rows.Err()
}
