package tools

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/deskmate-ai/deskmate/internal/database"
)

// noRowsMessage is returned verbatim for a SELECT with an empty result set.
const noRowsMessage = "Query executed successfully, but returned no results."

// sqlSystemPrompt instructs the model to emit exactly one SELECT statement.
const sqlSystemPrompt = `You are an expert SQLite analyst. Given a database schema and a question,
write a single SQLite SELECT statement that answers the question.

Rules:
- Only SELECT statements. Never write INSERT, UPDATE, DELETE, DROP or any
  other statement that modifies data.
- Use only tables and columns present in the schema.
- Return the query without explanation or markdown fences.`

// sqlStatement is the structured output the model must produce.
type sqlStatement struct {
	Query string `json:"query" jsonschema_description:"A single SQLite SELECT statement"`
}

// generateFunc turns a natural-language question plus schema into SQL text.
type generateFunc func(ctx context.Context, question, schema string) (string, error)

// SQLTool answers questions about the company database by generating a
// SELECT statement with the model and executing it read-only.
type SQLTool struct {
	db       *sql.DB
	generate generateFunc
	logger   *slog.Logger
}

// NewSQLTool creates a SQL tool using the given model for query generation.
// db should be a read-only connection; the SELECT gate here is a tripwire
// for obviously wrong output, not the security boundary.
func NewSQLTool(g *genkit.Genkit, modelName string, db *sql.DB, logger *slog.Logger) *SQLTool {
	if logger == nil {
		logger = slog.Default()
	}
	t := &SQLTool{db: db, logger: logger}
	t.generate = func(ctx context.Context, question, schema string) (string, error) {
		stmt, _, err := genkit.GenerateData[sqlStatement](ctx, g,
			ai.WithModelName(modelName),
			ai.WithSystem(sqlSystemPrompt),
			ai.WithPrompt("Schema:\n%s\n\nQuestion: %s", schema, question),
			ai.WithConfig(&genai.GenerateContentConfig{
				Temperature: genai.Ptr(float32(0)),
			}),
		)
		if err != nil {
			return "", err
		}
		return stmt.Query, nil
	}
	return t
}

// newSQLToolWithGenerator is the test seam for stubbing query generation.
func newSQLToolWithGenerator(db *sql.DB, gen generateFunc, logger *slog.Logger) *SQLTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLTool{db: db, generate: gen, logger: logger}
}

// Answer generates, validates and executes a query for the question.
// Every failure mode comes back as a readable string.
func (t *SQLTool) Answer(ctx context.Context, question string) string {
	schema, err := database.Schema(ctx, t.db)
	if err != nil {
		t.logger.Error("reading schema failed", "error", err)
		return fmt.Sprintf("Error: could not read database schema: %v", err)
	}

	query, err := t.generate(ctx, question, schema)
	if err != nil {
		t.logger.Error("query generation failed", "error", err)
		return fmt.Sprintf("Error during SQL generation: %v", err)
	}
	query = strings.TrimSpace(query)
	t.logger.Debug("generated query", "query", query)

	if !isSelect(query) {
		return fmt.Sprintf("Error: Invalid query generated. Must be a 'SELECT' statement. The LLM returned: %s", query)
	}

	result, err := t.execute(ctx, query)
	if err != nil {
		t.logger.Error("query execution failed", "query", query, "error", err)
		return fmt.Sprintf("Database query failed with error: %v\nAttempted Query: %s", err, query)
	}
	return result
}

// isSelect reports whether the statement starts with the SELECT keyword.
func isSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}

// execute runs the SELECT and formats columns plus row tuples.
func (t *SQLTool) execute(ctx context.Context, query string) (string, error) {
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var lines []string
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		lines = append(lines, formatRow(values))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if len(lines) == 0 {
		return noRowsMessage, nil
	}

	var sb strings.Builder
	sb.WriteString("Query Result:\n")
	sb.WriteString("Columns: " + strings.Join(cols, ", ") + "\n")
	sb.WriteString(strings.Join(lines, "\n"))
	return sb.String(), nil
}

// formatRow renders a scanned row as a tuple like ('Bob', 13).
func formatRow(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil:
			parts[i] = "NULL"
		case []byte:
			parts[i] = fmt.Sprintf("'%s'", x)
		case string:
			parts[i] = fmt.Sprintf("'%s'", x)
		default:
			parts[i] = fmt.Sprintf("%v", x)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
