// Package planner turns one user turn into an explicit, validated dispatch
// plan. The routing decision may come from a model call, but its output is
// checked against this structure before anything executes.
package planner

import (
	"fmt"
	"strings"
)

// Step is one planned provider invocation.
type Step struct {
	Agent       string `json:"agent"`
	Instruction string `json:"instruction"`
}

// DispatchPlan is the ordered work for one turn. An empty Steps list with a
// non-empty DirectReply means the planner answered the turn itself
// (conversational/meta turns that need no specialist).
type DispatchPlan struct {
	DirectReply string `json:"direct_reply"`
	Steps       []Step `json:"steps"`
}

// Capability is what the routing step knows about one provider.
type Capability struct {
	Name        string
	Description string
}

// FallbackAgent receives the whole turn when routing fails.
const FallbackAgent = "analysis_agent"

// Validate checks a plan against the known provider names. Instructions must
// be non-empty; an empty plan must carry a direct reply.
func Validate(plan *DispatchPlan, known map[string]bool) error {
	if plan == nil {
		return fmt.Errorf("plan is nil")
	}
	if len(plan.Steps) == 0 {
		if strings.TrimSpace(plan.DirectReply) == "" {
			return fmt.Errorf("plan has no steps and no direct reply")
		}
		return nil
	}
	for i, s := range plan.Steps {
		if !known[s.Agent] {
			return fmt.Errorf("step %d routes to unknown agent %q", i, s.Agent)
		}
		if strings.TrimSpace(s.Instruction) == "" {
			return fmt.Errorf("step %d for agent %q has an empty instruction", i, s.Agent)
		}
	}
	return nil
}
