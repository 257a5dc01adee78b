package display

import (
	"fmt"
	"strings"

	"chainsight/internal/metrics"
)

func FormatTurnMetrics(tm *metrics.TurnMetrics) string {
	if tm == nil {
		return "No metrics available."
	}
	var sb strings.Builder
	sb.WriteString("Turn metrics:\n")
	sb.WriteString(fmt.Sprintf("- Total: %d ms  (success=%v)\n", tm.DurationMs, tm.Succeeded))
	for i, s := range tm.Steps {
		status := "ok"
		if !s.Success {
			status = "err"
		}
		sb.WriteString(fmt.Sprintf("  Step %d: %-22s %5d ms  [%s]\n",
			i+1, s.Agent, s.DurationMs, status))
	}
	return sb.String()
}
