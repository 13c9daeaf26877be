package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsafeSQL is wrapped by every rejection from ValidateSQL.
var ErrUnsafeSQL = errors.New("unsafe SQL")

// Keywords that modify data, schema or the connection. INTO covers SELECT ... INTO,
// which creates a table on SQL Server. REPLACE is only rejected as a statement
// (REPLACE INTO) because replace() is a common string function.
var writeKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "DROP": true, "ALTER": true,
	"CREATE": true, "ATTACH": true, "DETACH": true, "VACUUM": true, "TRUNCATE": true,
	"GRANT": true, "REVOKE": true, "EXEC": true, "EXECUTE": true, "MERGE": true,
	"REINDEX": true, "INTO": true,
}

// Pragmas that take an argument and only read.
var readPragmas = map[string]bool{
	"table_info": true, "table_xinfo": true, "table_list": true, "index_list": true,
	"index_info": true, "index_xinfo": true, "foreign_key_list": true,
	"foreign_key_check": true, "integrity_check": true, "quick_check": true,
}

var wordPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z_0-9]*`)

// ValidateSQL accepts a single read-only statement whose leading keyword is one
// of allowed. WITH is accepted whenever SELECT is.
func ValidateSQL(sql string, allowed []string) error {
	stripped, statements := scrub(sql)

	switch {
	case statements == 0:
		return fmt.Errorf("%w: empty statement", ErrUnsafeSQL)
	case statements > 1:
		return fmt.Errorf("%w: only a single statement is allowed", ErrUnsafeSQL)
	}

	words := wordPattern.FindAllString(stripped, -1)
	if len(words) == 0 {
		return fmt.Errorf("%w: empty statement", ErrUnsafeSQL)
	}

	first := strings.ToUpper(words[0])
	if !operationAllowed(first, allowed) {
		return fmt.Errorf("%w: only %s queries are allowed", ErrUnsafeSQL, strings.Join(allowed, ", "))
	}

	for i, w := range words {
		upper := strings.ToUpper(w)
		if upper == "REPLACE" && i+1 < len(words) && strings.EqualFold(words[i+1], "INTO") {
			return fmt.Errorf("%w: REPLACE is not allowed", ErrUnsafeSQL)
		}
		if writeKeywords[upper] {
			return fmt.Errorf("%w: %s is not allowed", ErrUnsafeSQL, upper)
		}
	}

	if first == "PRAGMA" {
		return checkPragma(stripped)
	}

	return nil
}

// checkPragma rejects both assignment forms, PRAGMA name = value and
// PRAGMA name(value), unless the pragma only reads.
func checkPragma(stripped string) error {
	if strings.Contains(stripped, "=") {
		return fmt.Errorf("%w: PRAGMA assignments are not allowed", ErrUnsafeSQL)
	}

	open := strings.Index(stripped, "(")
	if open < 0 {
		return nil
	}

	fields := strings.Fields(stripped[:open])
	if len(fields) < 2 || !strings.EqualFold(fields[0], "PRAGMA") {
		return fmt.Errorf("%w: PRAGMA assignments are not allowed", ErrUnsafeSQL)
	}
	name := fields[len(fields)-1]
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	if !readPragmas[strings.ToLower(name)] {
		return fmt.Errorf("%w: PRAGMA assignments are not allowed", ErrUnsafeSQL)
	}
	return nil
}

// LooksLikeSQL reports whether text already starts with an allowed SQL keyword
// and can skip natural-language translation.
func LooksLikeSQL(text string, allowed []string) bool {
	words := wordPattern.FindAllString(strings.TrimSpace(text), 1)
	if len(words) == 0 {
		return false
	}
	first := strings.ToUpper(words[0])
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(text)), first) {
		return false
	}
	return operationAllowed(first, allowed)
}

func operationAllowed(keyword string, allowed []string) bool {
	for _, op := range allowed {
		op = strings.ToUpper(op)
		if keyword == op || (op == "SELECT" && keyword == "WITH") {
			return true
		}
	}
	return false
}

// scrub blanks out string literals, quoted identifiers and comments, and counts
// the non-empty statements separated by semicolons.
func scrub(sql string) (string, int) {
	var out strings.Builder
	statements := 0
	current := false

	flush := func() {
		if current {
			statements++
		}
		current = false
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`' || c == '[':
			closing := c
			if c == '[' {
				closing = ']'
			}
			i++
			for i < len(sql) {
				if sql[i] == closing {
					// '' and "" are escaped quotes inside a literal.
					if closing != ']' && i+1 < len(sql) && sql[i+1] == closing {
						i += 2
						continue
					}
					break
				}
				i++
			}
			out.WriteString(" ? ")
			current = true
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			out.WriteByte(' ')
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			i += 2
			for i+1 < len(sql) && !(sql[i] == '*' && sql[i+1] == '/') {
				i++
			}
			i++
			out.WriteByte(' ')
		case c == ';':
			flush()
			out.WriteByte(' ')
		default:
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				current = true
			}
			out.WriteByte(c)
		}
	}
	flush()

	return out.String(), statements
}
