package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"chainsight/internal/analytics"
)

// defaultCompareMethods is the spread run when the agent names none.
var defaultCompareMethods = []string{"chainladder", "mack_chainladder", "bornhuetterferguson", "capecod"}

func (r *Registry) handleAnalysisTool(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	triangle, err := getStringPayload(payload, "triangle")
	if err != nil {
		return nil, err
	}
	triangle = analytics.SanitizeDataset(triangle)

	switch operation {
	case "development":
		p := analytics.DevelopmentParams{
			Triangle: triangle,
			Methods:  getOptionalStringSlice(payload, "methods"),
			NPeriods: getOptionalInt(payload, "n_periods"),
			Averages: getOptionalIntSlice(payload, "averages"),
		}
		result, err := r.engine.Development(ctx, p)
		if err != nil {
			return nil, err
		}
		return toOutput(result)

	case "tail":
		method, err := getStringPayload(payload, "method")
		if err != nil {
			return nil, err
		}
		result, err := r.engine.Tail(ctx, analytics.TailParams{
			Triangle:      triangle,
			Method:        method,
			TailFactor:    getOptionalFloat(payload, "tail_factor"),
			ExtrapPeriods: getOptionalInt(payload, "extrap_periods"),
		})
		if err != nil {
			return nil, err
		}
		return toOutput(result)

	case "ibnr":
		method, err := getStringPayload(payload, "method")
		if err != nil {
			return nil, err
		}
		result, err := r.engine.IBNR(ctx, analytics.IBNRParams{
			Triangle:     triangle,
			Method:       method,
			NSimulations: getOptionalInt(payload, "n_simulations"),
		})
		if err != nil {
			return nil, err
		}
		return toOutput(result)

	case "bootstrap_ibnr":
		result, err := r.engine.Bootstrap(ctx, analytics.BootstrapParams{
			Triangle:     triangle,
			Method:       getOptionalString(payload, "method"),
			NSimulations: getOptionalInt(payload, "n_simulations"),
		})
		if err != nil {
			return nil, err
		}
		return toOutput(result)

	case "compare_methods":
		return r.compareMethods(ctx, triangle, getOptionalStringSlice(payload, "methods"))

	default:
		return nil, fmt.Errorf("unknown analysis operation: %s", operation)
	}
}

// compareMethods runs one IBNR estimate per method. The estimates are
// independent, so they fan out like the catalog listing; a method the engine
// rejects is reported inline instead of failing the comparison.
func (r *Registry) compareMethods(ctx context.Context, triangle string, methods []string) (map[string]any, error) {
	if len(methods) == 0 {
		methods = defaultCompareMethods
	}

	type comparison struct {
		Method    string  `json:"method"`
		TotalIBNR float64 `json:"total_ibnr"`
		Error     string  `json:"error,omitempty"`
	}
	rows := make([]comparison, len(methods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, method := range methods {
		g.Go(func() error {
			res, err := r.engine.IBNR(gctx, analytics.IBNRParams{Triangle: triangle, Method: method})
			if err != nil {
				rows[i] = comparison{Method: method, Error: err.Error()}
				return nil
			}
			var total float64
			for _, v := range res.IBNR {
				total += v
			}
			rows[i] = comparison{Method: method, TotalIBNR: total}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode method comparison: %w", err)
	}
	return map[string]any{
		"triangle":        triangle,
		"compared":        len(methods),
		"comparison_json": string(b),
	}, nil
}
