package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	log "github.com/sirupsen/logrus"

	"querydesk/config"
	"querydesk/models"
)

// SQLServerExecutor runs queries against Microsoft SQL Server.
type SQLServerExecutor struct {
	sqlExecutor
}

var _ Executor = (*SQLServerExecutor)(nil)

func NewSQLServerExecutor(cfg config.SQLServerConfig, maxRows int) (*SQLServerExecutor, error) {
	if cfg.Server == "" || cfg.Database == "" {
		return nil, fmt.Errorf("SQL Server configuration is incomplete")
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL Server connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		// Start anyway; the server may come up later and /health reports it.
		log.Warnf("Failed to ping SQL Server during initialization: %v", err)
	}

	return newSQLServerExecutor(db, maxRows), nil
}

func newSQLServerExecutor(db *sql.DB, maxRows int) *SQLServerExecutor {
	return &SQLServerExecutor{
		sqlExecutor: sqlExecutor{db: db, maxRows: maxRows, dialect: "Microsoft SQL Server (T-SQL)"},
	}
}

func buildConnectionString(cfg config.SQLServerConfig) string {
	connStr := fmt.Sprintf("server=%s;port=%s;database=%s",
		cfg.Server, cfg.Port, cfg.Database)

	if cfg.UserID != "" {
		connStr += fmt.Sprintf(";user id=%s;password=%s", cfg.UserID, cfg.Password)
	} else {
		connStr += ";trusted_connection=true"
	}

	if cfg.Encrypt {
		// TLS without CA verification so self-signed internal certificates work.
		connStr += ";encrypt=true;TrustServerCertificate=true"
	} else {
		connStr += ";encrypt=false"
	}

	return connStr
}

const sqlServerSchemaQuery = `SELECT c.TABLE_SCHEMA, c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE, c.IS_NULLABLE
FROM INFORMATION_SCHEMA.COLUMNS c
JOIN INFORMATION_SCHEMA.TABLES t
  ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
WHERE t.TABLE_TYPE = 'BASE TABLE'
ORDER BY c.TABLE_SCHEMA, c.TABLE_NAME, c.ORDINAL_POSITION`

// Schema lists base tables as schema.table with their columns.
func (e *SQLServerExecutor) Schema(ctx context.Context) (*models.Schema, error) {
	rows, err := e.db.QueryContext(ctx, sqlServerSchemaQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to read INFORMATION_SCHEMA: %w", err)
	}
	defer rows.Close()

	schema := &models.Schema{Dialect: e.dialect, Tables: []models.Table{}}
	index := map[string]int{}

	for rows.Next() {
		var tableSchema, tableName, columnName, dataType, nullable string
		if err := rows.Scan(&tableSchema, &tableName, &columnName, &dataType, &nullable); err != nil {
			return nil, err
		}

		name := tableSchema + "." + tableName
		i, ok := index[name]
		if !ok {
			i = len(schema.Tables)
			index[name] = i
			schema.Tables = append(schema.Tables, models.Table{Name: name})
		}
		schema.Tables[i].Columns = append(schema.Tables[i].Columns, models.Column{
			Name:    columnName,
			Type:    dataType,
			NotNull: nullable == "NO",
		})
	}

	return schema, rows.Err()
}
