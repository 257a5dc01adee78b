package planner

import (
	"context"
	"strings"
	"testing"

	"chainsight/internal/conversation"
)

var knownAgents = map[string]bool{
	"data_agent":          true,
	"analysis_agent":      true,
	"visualization_agent": true,
	"explanation_agent":   true,
}

func TestParsePlan(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		wantErr   bool
		wantSteps int
	}{
		{
			name:      "single step",
			raw:       `{"direct_reply": "", "steps": [{"agent": "analysis_agent", "instruction": "run chain ladder on raa"}]}`,
			wantSteps: 1,
		},
		{
			name:      "direct reply only",
			raw:       `{"direct_reply": "I coordinate actuarial agents.", "steps": []}`,
			wantSteps: 0,
		},
		{
			name:    "malformed JSON",
			raw:     `{"steps": [`,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := ParsePlan(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(plan.Steps) != tc.wantSteps {
				t.Errorf("expected %d steps, got %d", tc.wantSteps, len(plan.Steps))
			}
		})
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		plan    *DispatchPlan
		wantErr bool
	}{
		{
			name: "valid multi-step plan",
			plan: &DispatchPlan{Steps: []Step{
				{Agent: "analysis_agent", Instruction: "run chain ladder on raa"},
				{Agent: "explanation_agent", Instruction: "interpret the results"},
			}},
		},
		{
			name: "unknown agent",
			plan: &DispatchPlan{Steps: []Step{
				{Agent: "pricing_agent", Instruction: "price this"},
			}},
			wantErr: true,
		},
		{
			name: "empty instruction",
			plan: &DispatchPlan{Steps: []Step{
				{Agent: "analysis_agent", Instruction: "  "},
			}},
			wantErr: true,
		},
		{
			name:    "empty plan without direct reply",
			plan:    &DispatchPlan{},
			wantErr: true,
		},
		{
			name: "empty plan with direct reply",
			plan: &DispatchPlan{DirectReply: "Hello! Ask me about loss triangles."},
		},
		{
			name:    "nil plan",
			plan:    nil,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.plan, knownAgents)
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFallbackRoutesToAnalysisAgent(t *testing.T) {
	turn := conversation.Turn{Text: "Analyze the raa triangle using chain ladder method"}

	plan := Fallback(turn)

	if len(plan.Steps) != 1 {
		t.Fatalf("expected exactly one fallback step, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Agent != FallbackAgent {
		t.Errorf("fallback must target %s, got %s", FallbackAgent, plan.Steps[0].Agent)
	}
	if plan.Steps[0].Instruction != turn.Text {
		t.Errorf("fallback must carry the full turn text, got %q", plan.Steps[0].Instruction)
	}
	if err := Validate(plan, knownAgents); err != nil {
		t.Errorf("fallback plan must validate: %v", err)
	}
}

type cannedGenerator struct {
	raw string
	err error
}

func (g cannedGenerator) GenerateJSON(ctx context.Context, prompt string, schema any) (string, error) {
	return g.raw, g.err
}

func TestLLMPlannerRejectsInvalidOutput(t *testing.T) {
	caps := []Capability{{Name: "analysis_agent", Description: "quantitative analysis"}}
	p := NewLLMPlanner(cannedGenerator{raw: `{"steps": [{"agent": "nonexistent", "instruction": "x"}]}`}, caps)

	if _, err := p.Plan(context.Background(), conversation.Turn{Text: "hi"}, nil); err == nil {
		t.Error("expected validation error for unknown agent in model output")
	}
}

func TestLLMPlannerPromptMentionsCapabilitiesAndHint(t *testing.T) {
	caps := []Capability{
		{Name: "analysis_agent", Description: "quantitative analysis"},
		{Name: "visualization_agent", Description: "plots and charts"},
	}
	p := NewLLMPlanner(cannedGenerator{raw: `{"direct_reply": "ok", "steps": []}`}, caps)

	prompt := p.buildRoutePrompt(
		conversation.Turn{Text: "Analyze the raa triangle", HintDataset: "raa"},
		[]conversation.Message{{Role: conversation.RoleUser, Content: "earlier question"}},
	)

	for _, want := range []string{"analysis_agent", "visualization_agent", "SELECTED TRIANGLE: raa", "earlier question", "Analyze the raa triangle"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("routing prompt missing %q", want)
		}
	}
}
