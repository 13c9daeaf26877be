package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"querydesk/cache"
	"querydesk/models"
)

var (
	ErrNotConfigured = errors.New("AI service is not configured: set GROQ_API_KEY")
	ErrEmptySQL      = errors.New("Generated SQL query is empty")
)

type AIService struct {
	apiKey     string
	modelName  string
	apiURL     string
	cache      *cache.Cache
	httpClient *http.Client
	limiter    *rate.Limiter // Minimum spacing between upstream calls
	maxRetries int
	baseDelay  time.Duration
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New returns a client for the chat-completions endpoint at apiURL. A nil
// replyCache gets a private cache.
func New(apiKey string, modelName string, apiURL string, replyCache *cache.Cache) *AIService {
	if replyCache == nil {
		replyCache = cache.New()
	}
	return &AIService{
		apiKey:    apiKey,
		modelName: modelName,
		apiURL:    apiURL,
		cache:     replyCache,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		maxRetries: 3,
		baseDelay:  2 * time.Second,
	}
}

// Configured reports whether an API key is available.
func (a *AIService) Configured() bool {
	return a.apiKey != ""
}

func (a *AIService) ModelName() string {
	return a.modelName
}

func (a *AIService) Close() error {
	// HTTP client doesn't require explicit closing
	return nil
}

// GenerateSQL translates a question into SQL for the given schema. Results are
// cached per question and schema.
func (a *AIService) GenerateSQL(ctx context.Context, question string, schema *models.Schema, allowed []string, examples []models.SQLFile) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}

	prompt := BuildSQLPrompt(question, schema, allowed, examples)
	cacheKey := "sql:" + hashKey(a.modelName, prompt)
	if cached, found := a.cache.GetString(cacheKey); found {
		log.WithField("question", question).Debug("SQL served from cache")
		return cached, nil
	}

	messages := []ChatMessage{
		{Role: "system", Content: systemPromptSQL},
		{Role: "user", Content: prompt},
	}

	response, err := a.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}

	sql := extractSQL(response)
	if sql == "" {
		return "", ErrEmptySQL
	}

	a.cache.SetDefault(cacheKey, sql)

	return sql, nil
}

// Complete sends a chat completion request, retrying with exponential backoff on
// rate limiting and transport errors.
func (a *AIService) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(chatRequest{
		Model:       a.modelName,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 2s, 4s, 8s
			delay := a.baseDelay * time.Duration(1<<uint(attempt-1))
			log.WithFields(log.Fields{"attempt": attempt, "delay": delay}).Warnf("Retrying completion: %v", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := a.limiter.Wait(ctx); err != nil {
			return "", err
		}

		content, retry, err := a.send(ctx, payload)
		if err == nil {
			return content, nil
		}
		if !retry {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// send performs one upstream call. The boolean reports whether the failure is
// worth retrying.
func (a *AIService) send(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	parseErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if parseErr == nil && parsed.Error != nil {
			return "", retry, fmt.Errorf("API error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", retry, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if parseErr != nil {
		return "", false, fmt.Errorf("failed to unmarshal response: %w", parseErr)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("no response from AI model")
	}

	return parsed.Choices[0].Message.Content, false, nil
}

func hashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
