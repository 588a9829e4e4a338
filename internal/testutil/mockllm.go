// Package testutil provides deterministic model and embedder fakes for
// testing agent behavior without network calls.
package testutil

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ScriptedModelName is the model name the scripted fake registers under.
const ScriptedModelName = "mock/scripted-model"

// Step is one scripted model response: optional tool requests plus text.
type Step struct {
	Text         string
	ToolRequests []*ai.ToolRequest
}

// ScriptedModel replays a fixed sequence of responses, one per generate
// call. When the script runs out it either repeats the last step (Repeat)
// or returns an empty text response.
//
// Thread-safe for concurrent use.
type ScriptedModel struct {
	mu         sync.Mutex
	steps      []Step
	next       int
	repeatLast bool
	requests   []*ai.ModelRequest
}

// NewScriptedModel creates a model that plays the given steps in order.
func NewScriptedModel(steps ...Step) *ScriptedModel {
	return &ScriptedModel{steps: steps}
}

// Repeat makes the model replay its last step forever once the script is
// exhausted. Useful for driving turn-budget paths.
func (m *ScriptedModel) Repeat() *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repeatLast = true
	return m
}

// Calls returns how many generate calls the model has served.
func (m *ScriptedModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request the model has seen.
func (m *ScriptedModel) Requests() []*ai.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]*ai.ModelRequest, len(m.requests))
	copy(cp, m.requests)
	return cp
}

// Register registers the scripted model with Genkit.
func (m *ScriptedModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, ScriptedModelName, &ai.ModelOptions{
		Label: "Scripted Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
			Media:      false,
		},
	}, m.generate)
}

func (m *ScriptedModel) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)

	var step Step
	switch {
	case m.next < len(m.steps):
		step = m.steps[m.next]
		m.next++
	case m.repeatLast && len(m.steps) > 0:
		step = m.steps[len(m.steps)-1]
	}
	m.mu.Unlock()

	var parts []*ai.Part
	for _, tr := range step.ToolRequests {
		parts = append(parts, &ai.Part{
			Kind:        ai.PartToolRequest,
			ToolRequest: tr,
		})
	}
	if step.Text != "" || len(parts) == 0 {
		parts = append(parts, ai.NewTextPart(step.Text))
	}

	if cb != nil && step.Text != "" {
		_ = cb(ctx, &ai.ModelResponseChunk{
			Content: []*ai.Part{ai.NewTextPart(step.Text)},
		})
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: parts,
		},
	}, nil
}
