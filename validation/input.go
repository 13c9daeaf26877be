package validation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyQuery    = errors.New("Query cannot be empty")
	ErrQueryTooLong  = errors.New("Query is too long")
	ErrInvalidPrompt = errors.New("The request appears to be invalid or gibberish. Please provide a meaningful question.")
)

// ValidateQueryInput checks the raw text submitted to the query API.
// maxLen <= 0 disables the length check.
func ValidateQueryInput(query string, maxLen int) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return ErrEmptyQuery
	}
	if maxLen > 0 && len([]rune(trimmed)) > maxLen {
		return fmt.Errorf("%w: %d characters, maximum is %d", ErrQueryTooLong, len([]rune(trimmed)), maxLen)
	}
	return nil
}
