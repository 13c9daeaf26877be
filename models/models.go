package models

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query string `json:"query" example:"Top 5 customers by total order amount"`
}

// QueryResponse is the successful answer of POST /api/query.
type QueryResponse struct {
	SQL      string   `json:"sql"`
	HTML     string   `json:"html"`
	Columns  []string `json:"columns,omitempty"`
	RowCount int      `json:"row_count"`
}

// ErrorResponse is returned with every non-2xx status of the query API.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type QueryResult struct {
	Columns   []string        `json:"columns"`
	Rows      [][]interface{} `json:"rows"`
	Truncated bool            `json:"truncated,omitempty"`
}

// RowCount returns the number of rows held by the result.
func (r *QueryResult) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null,omitempty"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Schema describes the tables the model is allowed to query.
type Schema struct {
	Dialect string  `json:"dialect"`
	Tables  []Table `json:"tables"`
}

type QueryHistory struct {
	ID        string `json:"id"`
	Query     string `json:"query"`
	SQL       string `json:"sql,omitempty"`
	RowCount  int    `json:"row_count"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// SQLFile is a reference query shown to the model as an example.
type SQLFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
