// Package client talks to the query API: one JSON POST per question, no retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"

	"querydesk/models"
)

// QueryPath is the endpoint every question is posted to.
const QueryPath = "/api/query"

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	var urlErr *url.Error
	if errors.As(e.Err, &urlErr) {
		return urlErr.Err.Error()
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-2xx answer carrying the server's detail message.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string { return e.Detail }

// DecodeError means a response body could not be understood.
type DecodeError struct {
	StatusCode int
	Err        error
}

func (e *DecodeError) Error() string { return e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.FieldLogger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger log.FieldLogger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query posts text as {"query": text} and returns the decoded answer. Errors are
// *TransportError, *ServerError or *DecodeError.
func (c *Client) Query(ctx context.Context, text string) (*models.QueryResponse, error) {
	payload, err := json.Marshal(models.QueryRequest{Query: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+QueryPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithField("query", text).Debug("Submitting query")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeFailure(resp.StatusCode, body)
	}

	return decodeSuccess(resp.StatusCode, body)
}

type successBody struct {
	SQL      *string  `json:"sql"`
	HTML     *string  `json:"html"`
	Columns  []string `json:"columns"`
	RowCount *int     `json:"row_count"`
}

// decodeSuccess insists on sql, html and an integer row_count; no defaults are
// invented for missing fields.
func decodeSuccess(status int, body []byte) (*models.QueryResponse, error) {
	var parsed successBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &DecodeError{StatusCode: status, Err: err}
	}

	switch {
	case parsed.SQL == nil:
		return nil, &DecodeError{StatusCode: status, Err: errors.New(`response is missing "sql"`)}
	case parsed.HTML == nil:
		return nil, &DecodeError{StatusCode: status, Err: errors.New(`response is missing "html"`)}
	case parsed.RowCount == nil:
		return nil, &DecodeError{StatusCode: status, Err: errors.New(`response is missing "row_count"`)}
	}

	return &models.QueryResponse{
		SQL:      *parsed.SQL,
		HTML:     *parsed.HTML,
		Columns:  parsed.Columns,
		RowCount: *parsed.RowCount,
	}, nil
}

func decodeFailure(status int, body []byte) error {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &DecodeError{StatusCode: status, Err: err}
	}

	detail := fmt.Sprintf("request failed with status %d", status)
	if len(parsed.Detail) > 0 && string(parsed.Detail) != "null" {
		var text string
		if err := json.Unmarshal(parsed.Detail, &text); err == nil {
			detail = text
		} else {
			// Structured details (validation error lists) are shown as JSON.
			var compact bytes.Buffer
			if json.Compact(&compact, parsed.Detail) == nil {
				detail = compact.String()
			}
		}
	}

	return &ServerError{StatusCode: status, Detail: detail}
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
