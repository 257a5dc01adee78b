package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"chainsight/internal/conversation"
)

// scriptedGenerator returns canned JSON steps in order.
type scriptedGenerator struct {
	steps []string
	err   error
	calls int
}

func (g *scriptedGenerator) GenerateJSON(ctx context.Context, prompt string, schema any) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if g.calls >= len(g.steps) {
		return "", errors.New("scripted generator ran out of steps")
	}
	step := g.steps[g.calls]
	g.calls++
	return step, nil
}

type fakeExecutor struct {
	results map[string]map[string]any
	err     error
	called  []string
}

func (e *fakeExecutor) Execute(ctx context.Context, name string, payload map[string]any) (map[string]any, error) {
	e.called = append(e.called, name)
	if e.err != nil {
		return nil, e.err
	}
	return e.results[name], nil
}

func (e *fakeExecutor) PromptPart(names []string) string {
	return "AVAILABLE TOOLS: " + strings.Join(names, ", ") + "\n"
}

func testDefinition() Definition {
	return Definition{
		Name:        "analysis_agent",
		Description: "quantitative analysis",
		Prompt:      "You are an actuary.",
		Tools:       []string{"analysis.ibnr", "data.triangle_summary"},
	}
}

func TestHandleToolCallThenReply(t *testing.T) {
	gen := &scriptedGenerator{steps: []string{
		`{"reply": "", "tool_call": {"name": "analysis.ibnr", "payload": {"triangle": "raa", "method": "chainladder"}}}`,
		`{"reply": "The chain ladder IBNR for raa totals 52,135 across accident years.", "tool_call": null}`,
	}}
	exec := &fakeExecutor{results: map[string]map[string]any{
		"analysis.ibnr": {"ibnr_estimates": map[string]any{"1981": 0.0}},
	}}

	out := NewWorker(testDefinition(), gen, exec).Handle(context.Background(), "compute ibnr for raa", nil)

	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	if len(out.Messages) != 2 {
		t.Fatalf("expected tool message + final reply, got %d messages", len(out.Messages))
	}
	if out.Messages[0].Role != conversation.RoleTool {
		t.Errorf("expected first message to be a tool message, got %s", out.Messages[0].Role)
	}
	if !strings.Contains(out.Messages[0].Content, "ibnr_estimates") {
		t.Errorf("tool result not recorded: %s", out.Messages[0].Content)
	}
	final := out.Messages[1]
	if final.Role != conversation.RoleAssistant || final.Producer != "analysis_agent" {
		t.Errorf("unexpected final message: %+v", final)
	}
	if len(exec.called) != 1 || exec.called[0] != "analysis.ibnr" {
		t.Errorf("unexpected tool calls: %v", exec.called)
	}
}

func TestHandleGeneratorFailureBecomesWorkerError(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("completion backend down")}

	out := NewWorker(testDefinition(), gen, &fakeExecutor{}).Handle(context.Background(), "anything", nil)

	if out.Error == "" {
		t.Fatal("expected WorkerOutput.Error to be set")
	}
	if !strings.Contains(out.Error, "completion backend down") {
		t.Errorf("error should carry the cause: %s", out.Error)
	}
	if len(out.Messages) != 0 {
		t.Errorf("failed turn should produce no usable messages, got %d", len(out.Messages))
	}
}

func TestHandleToolFailureIsRecoverable(t *testing.T) {
	// The tool fails, the model sees the failure message and still answers.
	gen := &scriptedGenerator{steps: []string{
		`{"tool_call": {"name": "data.triangle_summary", "payload": {"triangle": "raa"}}}`,
		`{"reply": "I could not load the summary, but raa is a reinsurance triangle."}`,
	}}
	exec := &fakeExecutor{err: errors.New("engine unreachable")}

	out := NewWorker(testDefinition(), gen, exec).Handle(context.Background(), "summarize raa", nil)

	if out.Error != "" {
		t.Fatalf("tool failure should not fail the turn: %s", out.Error)
	}
	if !strings.Contains(out.Messages[0].Content, "engine unreachable") {
		t.Errorf("tool failure not surfaced to the model: %s", out.Messages[0].Content)
	}
	if out.Messages[1].Role != conversation.RoleAssistant {
		t.Errorf("expected a final assistant reply, got %+v", out.Messages[1])
	}
}

func TestHandleDisallowedTool(t *testing.T) {
	gen := &scriptedGenerator{steps: []string{
		`{"tool_call": {"name": "viz.plot", "payload": {"triangle": "raa", "plot_type": "heatmap"}}}`,
		`{"reply": "That plot is outside my remit; ask the visualization agent."}`,
	}}
	exec := &fakeExecutor{}

	out := NewWorker(testDefinition(), gen, exec).Handle(context.Background(), "plot raa", nil)

	if len(exec.called) != 0 {
		t.Errorf("disallowed tool must not execute, but saw calls: %v", exec.called)
	}
	if !strings.Contains(out.Messages[0].Content, "not available") {
		t.Errorf("expected a not-available tool message: %s", out.Messages[0].Content)
	}
}

func TestHandleToolBudgetExhausted(t *testing.T) {
	steps := make([]string, defaultToolBudget)
	for i := range steps {
		steps[i] = `{"tool_call": {"name": "analysis.ibnr", "payload": {}}}`
	}
	gen := &scriptedGenerator{steps: steps}
	exec := &fakeExecutor{results: map[string]map[string]any{"analysis.ibnr": {}}}

	out := NewWorker(testDefinition(), gen, exec).Handle(context.Background(), "loop forever", nil)

	if out.Error == "" || !strings.Contains(out.Error, "tool budget") {
		t.Errorf("expected tool budget error, got %q", out.Error)
	}
}

func TestHandleCollectsArtifacts(t *testing.T) {
	def := testDefinition()
	def.Tools = append(def.Tools, "viz.plot")
	gen := &scriptedGenerator{steps: []string{
		`{"tool_call": {"name": "viz.plot", "payload": {"triangle": "raa", "plot_type": "heatmap"}}}`,
		`{"reply": "The heatmap for raa is saved and shows accelerating development."}`,
	}}
	exec := &fakeExecutor{results: map[string]map[string]any{
		"viz.plot": {"image_path": "plots/raa_heatmap.png"},
	}}

	out := NewWorker(def, gen, exec).Handle(context.Background(), "plot raa", nil)

	if len(out.Artifacts) != 1 || out.Artifacts[0] != "plots/raa_heatmap.png" {
		t.Errorf("expected the plot path as an artifact, got %v", out.Artifacts)
	}
}

func TestHandleEmptyStep(t *testing.T) {
	gen := &scriptedGenerator{steps: []string{`{"reply": "", "tool_call": null}`}}

	out := NewWorker(testDefinition(), gen, &fakeExecutor{}).Handle(context.Background(), "anything", nil)

	if out.Error == "" {
		t.Error("expected an error for a step with neither reply nor tool call")
	}
}

func TestHandleRecoversPanic(t *testing.T) {
	gen := &panickingGenerator{}

	out := NewWorker(testDefinition(), gen, &fakeExecutor{}).Handle(context.Background(), "anything", nil)

	if out.Error == "" || !strings.Contains(out.Error, "panic") {
		t.Errorf("expected a panic to be converted to a worker error, got %q", out.Error)
	}
}

type panickingGenerator struct{}

func (panickingGenerator) GenerateJSON(ctx context.Context, prompt string, schema any) (string, error) {
	panic(fmt.Errorf("boom"))
}
