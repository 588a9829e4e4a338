package tools

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/deskmate-ai/deskmate/internal/database"
	"github.com/deskmate-ai/deskmate/internal/log"
)

func seedCompanyDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Rebuild(filepath.Join(t.TempDir(), "company.db"))
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func staticQuery(query string) generateFunc {
	return func(ctx context.Context, question, schema string) (string, error) {
		return query, nil
	}
}

func TestSQLAnswerRejectsNonSelect(t *testing.T) {
	db := seedCompanyDB(t)
	tool := newSQLToolWithGenerator(db, staticQuery("DROP TABLE employees"), log.NewNop())

	got := tool.Answer(context.Background(), "delete everything")
	want := "Error: Invalid query generated. Must be a 'SELECT' statement. The LLM returned: DROP TABLE employees"
	if got != want {
		t.Errorf("Answer = %q, want %q", got, want)
	}

	// The statement must never have reached the database.
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM employees").Scan(&n); err != nil {
		t.Fatalf("employees table gone: %v", err)
	}
	if n != 4 {
		t.Errorf("employees = %d, want 4", n)
	}
}

func TestSQLAnswerSalesByEmployee(t *testing.T) {
	db := seedCompanyDB(t)
	tool := newSQLToolWithGenerator(db, staticQuery(
		`SELECT e.name, SUM(s.quantity) FROM employees e
		 JOIN sales s ON s.employee_id = e.id
		 GROUP BY e.name ORDER BY e.name`), log.NewNop())

	got := tool.Answer(context.Background(), "how many units did each employee sell")
	if !strings.HasPrefix(got, "Query Result:\n") {
		t.Fatalf("Answer = %q, want result block", got)
	}
	if !strings.Contains(got, "('Bob', 13)") {
		t.Errorf("missing Bob's total in %q", got)
	}
	if !strings.Contains(got, "('Diana', 10)") {
		t.Errorf("missing Diana's total in %q", got)
	}
}

func TestSQLAnswerIncludesColumns(t *testing.T) {
	db := seedCompanyDB(t)
	tool := newSQLToolWithGenerator(db, staticQuery(
		"SELECT name, department FROM employees ORDER BY id LIMIT 1"), log.NewNop())

	got := tool.Answer(context.Background(), "who works here")
	if !strings.Contains(got, "Columns: name, department") {
		t.Errorf("missing columns line in %q", got)
	}
}

func TestSQLAnswerNoRows(t *testing.T) {
	db := seedCompanyDB(t)
	tool := newSQLToolWithGenerator(db, staticQuery(
		"SELECT name FROM employees WHERE department = 'Nonexistent'"), log.NewNop())

	got := tool.Answer(context.Background(), "who works in the nonexistent department")
	want := "Query executed successfully, but returned no results."
	if got != want {
		t.Errorf("Answer = %q, want %q", got, want)
	}
}

func TestSQLAnswerGenerationFailure(t *testing.T) {
	db := seedCompanyDB(t)
	tool := newSQLToolWithGenerator(db, func(ctx context.Context, question, schema string) (string, error) {
		return "", errors.New("model unavailable")
	}, log.NewNop())

	got := tool.Answer(context.Background(), "anything")
	if !strings.HasPrefix(got, "Error during SQL generation:") {
		t.Errorf("Answer = %q, want generation error text", got)
	}
}

func TestSQLAnswerBadQuery(t *testing.T) {
	db := seedCompanyDB(t)
	tool := newSQLToolWithGenerator(db, staticQuery("SELECT nope FROM nothing"), log.NewNop())

	got := tool.Answer(context.Background(), "anything")
	if !strings.HasPrefix(got, "Database query failed with error:") {
		t.Errorf("Answer = %q, want execution error text", got)
	}
	if !strings.Contains(got, "Attempted Query: SELECT nope FROM nothing") {
		t.Errorf("Answer = %q, want the attempted query echoed", got)
	}
}

func TestSQLGeneratorSeesSchema(t *testing.T) {
	db := seedCompanyDB(t)
	var seenSchema string
	tool := newSQLToolWithGenerator(db, func(ctx context.Context, question, schema string) (string, error) {
		seenSchema = schema
		return "SELECT 1", nil
	}, log.NewNop())

	tool.Answer(context.Background(), "anything")
	for _, table := range []string{"employees", "products", "sales"} {
		if !strings.Contains(seenSchema, table) {
			t.Errorf("schema prompt missing table %q", table)
		}
	}
}

func TestIsSelect(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"SELECT * FROM employees", true},
		{"  select name from products", true},
		{"\nSeLeCt 1", true},
		{"DROP TABLE employees", false},
		{"UPDATE employees SET name = 'x'", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isSelect(tc.query); got != tc.want {
			t.Errorf("isSelect(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}
