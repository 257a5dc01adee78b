package tools

import (
	"context"
	"fmt"

	"chainsight/internal/analytics"
)

func (r *Registry) handleVizTool(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	switch operation {
	case "plot":
		triangle, err := getStringPayload(payload, "triangle")
		if err != nil {
			return nil, err
		}
		plotType, err := getStringPayload(payload, "plot_type")
		if err != nil {
			return nil, err
		}
		result, err := r.engine.Plot(ctx, analytics.PlotParams{
			Triangle:    analytics.SanitizeDataset(triangle),
			PlotType:    plotType,
			Title:       getOptionalString(payload, "title"),
			CompareWith: getOptionalString(payload, "compare_with"),
		})
		if err != nil {
			return nil, err
		}
		return toOutput(result)
	default:
		return nil, fmt.Errorf("unknown viz operation: %s", operation)
	}
}
