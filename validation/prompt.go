package validation

import (
	"strings"
	"unicode"
)

// IsValidPrompt reports whether a natural-language question looks like real text
// rather than keyboard mashing. It is lenient: anything that passes the negative
// checks is accepted.
func IsValidPrompt(prompt string) bool {
	trimmed := strings.TrimSpace(prompt)
	if len(trimmed) < 3 {
		return false
	}

	words := strings.Fields(trimmed)
	if len(words) == 1 && isRepeatedCharacters(words[0]) {
		return false
	}

	if hasExcessiveRepetition(trimmed) || hasKeyboardMashing(trimmed) {
		return false
	}

	var letters, digits, punct, total int
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			punct++
		}
	}
	if total == 0 {
		return false
	}

	// At least 30% letters, at most half digits, at most 30% punctuation.
	if float64(letters)/float64(total) < 0.3 {
		return false
	}
	if float64(digits)/float64(total) > 0.5 {
		return false
	}
	if float64(punct)/float64(total) > 0.3 {
		return false
	}

	return true
}

func isRepeatedCharacters(s string) bool {
	if len(s) < 3 {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// hasExcessiveRepetition catches runs like "aaaa" and short patterns like
// "abababab" repeated four or more times. Digits are ignored so amounts like
// 10000 pass.
func hasExcessiveRepetition(s string) bool {
	for size := 1; size <= 3; size++ {
		for i := 0; i+size*4 <= len(s); i++ {
			pattern := s[i : i+size]
			if strings.TrimSpace(pattern) == "" || strings.IndexFunc(pattern, unicode.IsDigit) >= 0 {
				continue
			}
			repeats := 1
			for j := i + size; j+size <= len(s) && s[j:j+size] == pattern; j += size {
				repeats++
			}
			if repeats >= 4 {
				return true
			}
		}
	}
	return false
}

func hasKeyboardMashing(s string) bool {
	if len(s) >= 30 {
		return false
	}
	lower := strings.ToLower(s)
	for _, pattern := range []string{"asdf", "qwer", "zxcv", "hjkl"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
