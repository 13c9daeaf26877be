package ai

import (
	"fmt"
	"strings"

	"querydesk/models"
)

const systemPromptSQL = "You are a SQL expert assistant that translates questions into a single read-only SQL query. " +
	"Return only the SQL query without any explanation or markdown formatting."

// DescribeSchema renders the schema as the compact table listing used in prompts.
func DescribeSchema(schema *models.Schema) string {
	if schema == nil {
		return ""
	}

	var b strings.Builder
	for _, table := range schema.Tables {
		cols := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			desc := col.Name
			if col.Type != "" {
				desc += " " + col.Type
			}
			if col.PrimaryKey {
				desc += " PRIMARY KEY"
			}
			cols[i] = desc
		}
		fmt.Fprintf(&b, "%s(%s)\n", table.Name, strings.Join(cols, ", "))
	}
	return b.String()
}

// BuildSQLPrompt constructs the user message for SQL generation from the schema,
// optional reference queries and the user's question.
func BuildSQLPrompt(question string, schema *models.Schema, allowed []string, examples []models.SQLFile) string {
	var b strings.Builder

	dialect := "SQLite"
	if schema != nil && schema.Dialect != "" {
		dialect = schema.Dialect
	}

	fmt.Fprintf(&b, "Database dialect: %s\n\n", dialect)
	b.WriteString("--- Schema ---\n")
	b.WriteString(DescribeSchema(schema))
	b.WriteString("\n")

	for _, example := range examples {
		fmt.Fprintf(&b, "--- Reference SQL: %s ---\n", example.Name)
		b.WriteString(strings.TrimSpace(example.Content))
		b.WriteString("\n\n")
	}

	b.WriteString("--- Rules ---\n")
	fmt.Fprintf(&b, "- The statement must start with one of: %s.\n", strings.Join(allowed, ", "))
	b.WriteString("- Use only the tables and columns listed in the schema.\n")
	b.WriteString("- Never modify data or schema.\n\n")

	b.WriteString("--- User Request ---\n")
	b.WriteString(question)
	b.WriteString("\n\nGenerate the SQL query for the user's request.")

	return b.String()
}

// extractSQL strips markdown fences and trailing chatter around a model reply.
func extractSQL(reply string) string {
	text := strings.TrimSpace(reply)

	if start := strings.Index(text, "```"); start >= 0 {
		body := text[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			lang := strings.TrimSpace(body[:nl])
			if lang == "" || strings.EqualFold(lang, "sql") {
				body = body[nl+1:]
			}
		}
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		text = body
	}

	return strings.TrimSpace(text)
}
