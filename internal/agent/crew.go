package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

// Specialist is a role-scoped worker with exactly one tool. The role,
// goal and backstory become its system prompt.
type Specialist struct {
	Name      string
	Role      string
	Goal      string
	Backstory string
	Tool      ai.ToolRef
	MaxTurns  int
}

// routing is the manager's structured delegation decision.
type routing struct {
	Specialist string `json:"specialist" jsonschema_description:"Name of the specialist to delegate to"`
	Task       string `json:"task" jsonschema_description:"The task to hand to that specialist"`
}

// Crew is the delegation-style orchestrator: a manager picks one
// specialist per question, the specialist works its tool through the
// framework's own loop, and the manager composes the final answer.
type Crew struct {
	g           *genkit.Genkit
	modelName   string
	specialists []Specialist
	logger      *slog.Logger
}

// NewCrew creates a crew from the given specialists.
func NewCrew(g *genkit.Genkit, modelName string, specialists []Specialist, logger *slog.Logger) *Crew {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crew{
		g:           g,
		modelName:   modelName,
		specialists: specialists,
		logger:      logger,
	}
}

// DataAnalystSpecialist builds the database-focused worker.
func DataAnalystSpecialist(tool ai.ToolRef, maxTurns int) Specialist {
	return Specialist{
		Name:      "DataAnalyst",
		Role:      "Expert Database Analyst",
		Goal:      "Answer questions about company data accurately using the database tool.",
		Backstory: "You are an experienced data analyst who knows the company database inside out and always grounds answers in real query results.",
		Tool:      tool,
		MaxTurns:  maxTurns,
	}
}

// DocumentSpecialist builds the PDF-focused worker.
func DocumentSpecialist(tool ai.ToolRef, maxTurns int) Specialist {
	return Specialist{
		Name:      "DocumentExpert",
		Role:      "Lead Document Researcher",
		Goal:      "Answer questions about the indexed PDF document using the retrieval tool.",
		Backstory: "You are a meticulous researcher who only reports what the document actually says.",
		Tool:      tool,
		MaxTurns:  maxTurns,
	}
}

// Kickoff routes the question to one specialist and returns the
// manager's composed final answer.
func (c *Crew) Kickoff(ctx context.Context, question string) (string, error) {
	spec, task, err := c.route(ctx, question)
	if err != nil {
		return "", fmt.Errorf("routing question: %w", err)
	}
	c.logger.Info("delegating", "specialist", spec.Name, "task", task)

	finding, err := c.runSpecialist(ctx, spec, task)
	if err != nil {
		return "", fmt.Errorf("specialist %s: %w", spec.Name, err)
	}

	answer, err := c.compose(ctx, question, spec.Name, finding)
	if err != nil {
		return "", fmt.Errorf("composing answer: %w", err)
	}
	return answer, nil
}

// route asks the manager to pick a specialist as structured output.
func (c *Crew) route(ctx context.Context, question string) (Specialist, string, error) {
	var roster strings.Builder
	for _, s := range c.specialists {
		fmt.Fprintf(&roster, "- %s: %s (%s)\n", s.Name, s.Role, s.Goal)
	}

	decision, _, err := genkit.GenerateData[routing](ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem("You are a project manager. Delegate the user's question to exactly one specialist from the roster and phrase the task for them."),
		ai.WithPrompt("Roster:\n%s\nQuestion: %s", roster.String(), question),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0)),
		}),
	)
	if err != nil {
		return Specialist{}, "", err
	}

	for _, s := range c.specialists {
		if s.Name == decision.Specialist {
			return s, decision.Task, nil
		}
	}
	return Specialist{}, "", fmt.Errorf("manager chose unknown specialist %q", decision.Specialist)
}

// runSpecialist lets the worker drive its tool through the framework's
// internal loop until it has an answer or hits its turn limit.
func (c *Crew) runSpecialist(ctx context.Context, spec Specialist, task string) (string, error) {
	system := fmt.Sprintf("Role: %s\nGoal: %s\nBackstory: %s\nUse your tool to complete the task, then report your findings.",
		spec.Role, spec.Goal, spec.Backstory)

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem(system),
		ai.WithPrompt("%s", task),
		ai.WithTools(spec.Tool),
		ai.WithMaxTurns(spec.MaxTurns),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0)),
		}),
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// compose has the manager turn the specialist's finding into the reply.
func (c *Crew) compose(ctx context.Context, question, specialist, finding string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithSystem("You are a project manager. Write the final answer to the user's question based on your specialist's findings. Be direct and do not mention the delegation."),
		ai.WithPrompt("Question: %s\n\nFindings from %s:\n%s", question, specialist, finding),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0)),
		}),
	)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
