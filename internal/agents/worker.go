package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chainsight/internal/conversation"
	"chainsight/internal/llm_client"
)

// Generator produces one strict-JSON completion. Production use goes through
// llm_client; tests substitute a scripted implementation.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, schema any) (string, error)
}

// ToolExecutor runs tool calls on behalf of a worker.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, payload map[string]any) (map[string]any, error)
	PromptPart(names []string) string
}

// LLMGenerator backs a worker with the active completion provider.
type LLMGenerator struct {
	Model string
}

func (g LLMGenerator) GenerateJSON(ctx context.Context, prompt string, schema any) (string, error) {
	return llm_client.GenerateJSON(ctx, prompt, g.Model, schema)
}

const defaultToolBudget = 6

// stepSchema constrains each worker step to either a final reply or one tool
// call.
var stepSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"reply": map[string]any{"type": "string"},
		"tool_call": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":    map[string]any{"type": "string"},
				"payload": map[string]any{"type": "object"},
			},
		},
	},
}

type workerStep struct {
	Reply    string `json:"reply"`
	ToolCall *struct {
		Name    string         `json:"name"`
		Payload map[string]any `json:"payload"`
	} `json:"tool_call"`
}

// Worker drives one capability provider's turn: a bounded loop of
// generate → maybe tool call → generate, ending in a final reply.
type Worker struct {
	def        Definition
	gen        Generator
	tools      ToolExecutor
	toolBudget int
}

func NewWorker(def Definition, gen Generator, tools ToolExecutor) *Worker {
	return &Worker{def: def, gen: gen, tools: tools, toolBudget: defaultToolBudget}
}

func (w *Worker) Name() string        { return w.def.Name }
func (w *Worker) Description() string { return w.def.Description }

// Handle runs the tool loop. All failure modes land in WorkerOutput.Error;
// a panic anywhere below is converted rather than unwound across the
// provider boundary.
func (w *Worker) Handle(ctx context.Context, instruction string, visible []conversation.Message) (out conversation.WorkerOutput) {
	defer func() {
		if rec := recover(); rec != nil {
			out = conversation.WorkerOutput{Error: fmt.Sprintf("panic in agent %s: %v", w.def.Name, rec)}
		}
	}()

	for i := 0; i < w.toolBudget; i++ {
		prompt := w.buildPrompt(instruction, visible, out.Messages)

		raw, err := w.gen.GenerateJSON(ctx, prompt, stepSchema)
		if err != nil {
			return conversation.WorkerOutput{Error: fmt.Sprintf("agent %s completion failed: %v", w.def.Name, err)}
		}

		var step workerStep
		if err := json.Unmarshal([]byte(raw), &step); err != nil {
			return conversation.WorkerOutput{Error: fmt.Sprintf("agent %s returned malformed step: %v", w.def.Name, err)}
		}

		if step.ToolCall != nil && strings.TrimSpace(step.ToolCall.Name) != "" {
			out.Messages = append(out.Messages, w.runTool(ctx, step.ToolCall.Name, step.ToolCall.Payload, &out))
			continue
		}

		if strings.TrimSpace(step.Reply) == "" {
			return conversation.WorkerOutput{Error: fmt.Sprintf("agent %s produced neither a reply nor a tool call", w.def.Name)}
		}
		out.Messages = append(out.Messages, conversation.Message{
			Role:     conversation.RoleAssistant,
			Content:  step.Reply,
			Producer: w.def.Name,
		})
		return out
	}

	out.Error = fmt.Sprintf("agent %s exhausted its tool budget (%d calls) without a final reply", w.def.Name, w.toolBudget)
	return out
}

// runTool executes one call and renders the result (or its failure) as a
// tool message the next generation step can read.
func (w *Worker) runTool(ctx context.Context, name string, payload map[string]any, out *conversation.WorkerOutput) conversation.Message {
	if !w.allowed(name) {
		return conversation.Message{
			Role:     conversation.RoleTool,
			Content:  fmt.Sprintf(`{"tool": %q, "error": "tool not available to this agent"}`, name),
			Producer: w.def.Name,
		}
	}

	result, err := w.tools.Execute(ctx, name, payload)
	if err != nil {
		return conversation.Message{
			Role:     conversation.RoleTool,
			Content:  fmt.Sprintf(`{"tool": %q, "error": %q}`, name, err.Error()),
			Producer: w.def.Name,
		}
	}

	if path, ok := result["image_path"].(string); ok && path != "" {
		out.Artifacts = append(out.Artifacts, path)
	}

	b, err := json.Marshal(result)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"tool": %q, "error": "unencodable result"}`, name))
	}
	return conversation.Message{
		Role:     conversation.RoleTool,
		Content:  string(b),
		Producer: w.def.Name,
	}
}

func (w *Worker) allowed(name string) bool {
	for _, t := range w.def.Tools {
		if t == name {
			return true
		}
	}
	return false
}

func (w *Worker) buildPrompt(instruction string, visible, produced []conversation.Message) string {
	var sb strings.Builder
	sb.WriteString(w.def.Prompt)
	sb.WriteString("\n\n")
	sb.WriteString(w.tools.PromptPart(w.def.Tools))
	sb.WriteString("\nRespond ONLY with JSON: {\"reply\": \"<final answer or empty>\", \"tool_call\": {\"name\": \"<tool>\", \"payload\": {}} or null}.\n")
	sb.WriteString("Use exactly one tool call per step. When you have what you need, set tool_call to null and write the final reply.\n\n")

	if len(visible) > 0 {
		sb.WriteString("CONVERSATION SO FAR:\n")
		for _, m := range visible {
			sb.WriteString(fmt.Sprintf("[%s] %s\n", m.Role, m.Content))
		}
		sb.WriteString("\n")
	}
	if len(produced) > 0 {
		sb.WriteString("YOUR STEPS THIS TURN:\n")
		for _, m := range produced {
			sb.WriteString(fmt.Sprintf("[%s] %s\n", m.Role, m.Content))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("TASK: ")
	sb.WriteString(instruction)
	sb.WriteString("\nAssistant JSON response: ")
	return sb.String()
}
