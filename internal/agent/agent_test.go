package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/deskmate-ai/deskmate/internal/log"
	"github.com/deskmate-ai/deskmate/internal/testutil"
)

// recordingTool captures the queries a capability receives.
type recordingTool struct {
	mu      sync.Mutex
	queries []string
	answer  string
	err     error
}

func (r *recordingTool) call(ctx context.Context, query string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	return r.answer, r.err
}

func (r *recordingTool) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

func newTestAgent(t *testing.T, model *testutil.ScriptedModel, db, pdf *recordingTool) *Agent {
	t.Helper()
	g := genkit.Init(context.Background())
	model.Register(g)

	reg := NewRegistry(g, []Capability{
		{Name: "CompanyDatabaseTool", Description: "Answers questions about the company database.", Call: db.call},
		{Name: "PDFDocumentSearchTool", Description: "Answers questions about the indexed PDF document.", Call: pdf.call},
	}, log.NewNop())

	return New(g, testutil.ScriptedModelName, 10, reg, log.NewNop())
}

func databaseRequest(query string) *ai.ToolRequest {
	return &ai.ToolRequest{
		Name:  "CompanyDatabaseTool",
		Input: map[string]any{"query": query},
	}
}

func TestAskDispatchesToolThenAnswers(t *testing.T) {
	db := &recordingTool{answer: "Query Result:\nColumns: name, total\n('Bob', 13)"}
	pdf := &recordingTool{answer: "unused"}
	model := testutil.NewScriptedModel(
		testutil.Step{ToolRequests: []*ai.ToolRequest{databaseRequest("total units sold by Bob")}},
		testutil.Step{Text: "Bob sold 13 units."},
	)
	a := newTestAgent(t, model, db, pdf)

	conv := NewConversation()
	answer, err := a.Ask(context.Background(), conv, "how many units did Bob sell?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != "Bob sold 13 units." {
		t.Errorf("answer = %q", answer)
	}

	if got := db.calls(); len(got) != 1 || got[0] != "total units sold by Bob" {
		t.Errorf("database tool calls = %v", got)
	}
	if got := pdf.calls(); len(got) != 0 {
		t.Errorf("pdf tool called unexpectedly: %v", got)
	}

	// user, model tool request, tool response, final model answer
	if conv.Len() != 4 {
		t.Errorf("conversation length = %d, want 4", conv.Len())
	}
}

func TestAskTurnBudgetExceeded(t *testing.T) {
	db := &recordingTool{answer: "some rows"}
	pdf := &recordingTool{}
	model := testutil.NewScriptedModel(
		testutil.Step{ToolRequests: []*ai.ToolRequest{databaseRequest("again")}},
	).Repeat()
	a := newTestAgent(t, model, db, pdf)

	_, err := a.Ask(context.Background(), NewConversation(), "loop forever")
	if !errors.Is(err, ErrTurnBudget) {
		t.Fatalf("err = %v, want ErrTurnBudget", err)
	}
	if model.Calls() != 10 {
		t.Errorf("model calls = %d, want exactly the turn budget", model.Calls())
	}
}

func TestAskFoldsToolFailureIntoToolMessage(t *testing.T) {
	db := &recordingTool{err: errors.New("connection refused")}
	pdf := &recordingTool{}
	model := testutil.NewScriptedModel(
		testutil.Step{ToolRequests: []*ai.ToolRequest{databaseRequest("anything")}},
		testutil.Step{Text: "I could not reach the database."},
	)
	a := newTestAgent(t, model, db, pdf)

	conv := NewConversation()
	answer, err := a.Ask(context.Background(), conv, "query the db")
	if err != nil {
		t.Fatalf("Ask must not fail on a tool error: %v", err)
	}
	if answer != "I could not reach the database." {
		t.Errorf("answer = %q", answer)
	}

	msgs := conv.Messages()
	toolMsg := msgs[2]
	if toolMsg.Role != ai.RoleTool {
		t.Fatalf("message 2 role = %v, want tool", toolMsg.Role)
	}
	out, ok := toolMsg.Content[0].ToolResponse.Output.(string)
	if !ok || !strings.Contains(out, "connection refused") {
		t.Errorf("tool output = %v, want folded error text", toolMsg.Content[0].ToolResponse.Output)
	}
}

func TestAskKeepsHistoryAcrossQuestions(t *testing.T) {
	db := &recordingTool{}
	pdf := &recordingTool{}
	model := testutil.NewScriptedModel(
		testutil.Step{Text: "First answer."},
		testutil.Step{Text: "Second answer."},
	)
	a := newTestAgent(t, model, db, pdf)

	conv := NewConversation()
	if _, err := a.Ask(context.Background(), conv, "first question"); err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	if _, err := a.Ask(context.Background(), conv, "second question"); err != nil {
		t.Fatalf("second Ask: %v", err)
	}

	reqs := model.Requests()
	last := reqs[len(reqs)-1]
	var sawFirstQuestion, sawFirstAnswer bool
	for _, msg := range last.Messages {
		text := msg.Text()
		if strings.Contains(text, "first question") {
			sawFirstQuestion = true
		}
		if strings.Contains(text, "First answer.") {
			sawFirstAnswer = true
		}
	}
	if !sawFirstQuestion || !sawFirstAnswer {
		t.Error("second turn did not see the first exchange")
	}
}

func TestQueryArgument(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"map", map[string]any{"query": "who sold most"}, "who sold most"},
		{"bare string", "who sold most", "who sold most"},
		{"missing key", map[string]any{"other": 1}, ""},
		{"nil", nil, ""},
	}
	for _, tc := range cases {
		if got := queryArgument(tc.input); got != tc.want {
			t.Errorf("%s: queryArgument = %q, want %q", tc.name, got, tc.want)
		}
	}
}
