package display

import (
	"fmt"
	"strings"

	"chainsight/internal/planner"
)

const maxInstructionLength = 100

func FormatDispatchPlan(plan *planner.DispatchPlan) string {
	var sb strings.Builder
	sb.WriteString("Dispatch plan:\n")
	sb.WriteString("--------------------------------------------------\n")

	if len(plan.Steps) == 0 {
		sb.WriteString("  (direct reply, no specialist steps)\n")
	}
	for i, step := range plan.Steps {
		sb.WriteString(fmt.Sprintf("Step %d: %s\n", i+1, step.Agent))
		sb.WriteString(fmt.Sprintf("  Instruction: %s\n", formatValueForDisplay(step.Instruction)))
	}
	sb.WriteString("--------------------------------------------------")
	return sb.String()
}

func formatValueForDisplay(value string) string {
	s := strings.ReplaceAll(value, "\n", "\\n")
	if len(s) > maxInstructionLength {
		return s[:maxInstructionLength] + "..."
	}
	return s
}
