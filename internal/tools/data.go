package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"chainsight/internal/analytics"
)

const listConcurrency = 4

func (r *Registry) handleDataTool(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	switch operation {
	case "list_triangles":
		return r.listTriangles(ctx)
	case "triangle_summary":
		triangle, err := getStringPayload(payload, "triangle")
		if err != nil {
			return nil, err
		}
		summary, err := r.engine.Summary(ctx, analytics.SanitizeDataset(triangle))
		if err != nil {
			return nil, err
		}
		return toOutput(summary)
	case "validate_triangle":
		triangle, err := getStringPayload(payload, "triangle")
		if err != nil {
			return nil, err
		}
		validation, err := r.engine.Validate(ctx, analytics.SanitizeDataset(triangle))
		if err != nil {
			return nil, err
		}
		return toOutput(validation)
	default:
		return nil, fmt.Errorf("unknown data operation: %s", operation)
	}
}

// listTriangles summarizes the whole catalog. Summaries are independent, so
// they fan out with a concurrency cap; a single failing dataset is reported
// inline instead of failing the listing.
func (r *Registry) listTriangles(ctx context.Context) (map[string]any, error) {
	summaries := make([]*analytics.TriangleSummary, len(analytics.SampleDatasets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, name := range analytics.SampleDatasets {
		g.Go(func() error {
			s, err := r.engine.Summary(gctx, name)
			if err != nil {
				s = &analytics.TriangleSummary{Name: name, Error: err.Error()}
			}
			mu.Lock()
			summaries[i] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b, err := json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("encode triangle list: %w", err)
	}
	return map[string]any{
		"count":          len(summaries),
		"triangles_json": string(b),
	}, nil
}
