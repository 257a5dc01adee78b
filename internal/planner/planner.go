package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chainsight/internal/conversation"
	"chainsight/internal/llm_client"
)

// Generator produces one strict-JSON completion (the routing call).
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, schema any) (string, error)
}

// Planner decides routing for one turn.
type Planner interface {
	Plan(ctx context.Context, turn conversation.Turn, history []conversation.Message) (*DispatchPlan, error)
}

// LLMGenerator backs the planner with the active completion provider.
type LLMGenerator struct {
	Model string
}

func (g LLMGenerator) GenerateJSON(ctx context.Context, prompt string, schema any) (string, error) {
	return llm_client.GenerateJSON(ctx, prompt, g.Model, schema)
}

var planSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"direct_reply": map[string]any{"type": "string"},
		"steps": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"agent":       map[string]any{"type": "string"},
					"instruction": map[string]any{"type": "string"},
				},
			},
		},
	},
}

// LLMPlanner asks a model to route the turn across the declared capabilities.
type LLMPlanner struct {
	gen          Generator
	capabilities []Capability
	known        map[string]bool
}

func NewLLMPlanner(gen Generator, capabilities []Capability) *LLMPlanner {
	known := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		known[c.Name] = true
	}
	return &LLMPlanner{gen: gen, capabilities: capabilities, known: known}
}

func (p *LLMPlanner) Plan(ctx context.Context, turn conversation.Turn, history []conversation.Message) (*DispatchPlan, error) {
	prompt := p.buildRoutePrompt(turn, history)

	raw, err := p.gen.GenerateJSON(ctx, prompt, planSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dispatch plan from LLM: %w", err)
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(plan, p.known); err != nil {
		return nil, fmt.Errorf("generated plan invalid: %w", err)
	}
	return plan, nil
}

// ParsePlan decodes the raw routing output.
func ParsePlan(raw string) (*DispatchPlan, error) {
	var plan DispatchPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("error parsing generated plan JSON: %v\nRaw Response: %s", err, raw)
	}
	return &plan, nil
}

// Fallback routes the whole turn to the quantitative-analysis agent when
// routing itself failed.
func Fallback(turn conversation.Turn) *DispatchPlan {
	return &DispatchPlan{
		Steps: []Step{{Agent: FallbackAgent, Instruction: turn.Text}},
	}
}

func (p *LLMPlanner) buildRoutePrompt(turn conversation.Turn, history []conversation.Message) string {
	var sb strings.Builder

	sb.WriteString("You are the supervisor of a team of actuarial analysis agents. ")
	sb.WriteString("Convert the user's request into a STRICT JSON dispatch plan.\n")
	sb.WriteString("Respond ONLY with JSON. No extra text.\n\n")

	sb.WriteString("YOUR TEAM:\n")
	for _, c := range p.capabilities {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", c.Name, c.Description))
	}
	sb.WriteString("\n")

	sb.WriteString("OUTPUT JSON SCHEMA:\n")
	sb.WriteString("{\"direct_reply\": \"<string or empty>\", \"steps\": [{\"agent\": \"<team member name>\", \"instruction\": \"<short task>\"}]}\n\n")

	sb.WriteString("SEMANTICS:\n")
	sb.WriteString("- Steps run SEQUENTIALLY; later agents see earlier agents' output.\n")
	sb.WriteString("- Each instruction is a short, self-contained task derived from the request. Name the triangle explicitly.\n")
	sb.WriteString("- Order work naturally: prepare data first, then analyze, then visualize, then explain.\n")
	sb.WriteString("- Use the FEWEST steps that fully answer the request; one step is the common case.\n")
	sb.WriteString("- If the request is conversational or about your own capabilities, return ZERO steps and answer in direct_reply.\n\n")

	if len(history) > 0 {
		sb.WriteString("CONVERSATION HISTORY (context):\n")
		for _, m := range history {
			sb.WriteString(fmt.Sprintf("[%s] %s\n", m.Role, m.Content))
		}
		sb.WriteString("\n")
	}
	if turn.HintDataset != "" {
		sb.WriteString(fmt.Sprintf("SELECTED TRIANGLE: %s\n\n", turn.HintDataset))
	}

	sb.WriteString("Generate the plan now for this request:\n")
	sb.WriteString(fmt.Sprintf("User Request: \"%s\"\n", turn.Text))
	sb.WriteString("Assistant: ")
	return sb.String()
}
