// Package agents defines the capability providers the supervisor dispatches
// to, and the LLM-backed worker that drives one provider's turn.
package agents

import (
	"context"

	"chainsight/internal/conversation"
)

// CapabilityProvider is one specialized worker. Handle must be safe to call
// with only the instruction and the prior message list: no shared in-process
// state beyond what is passed in, so a provider can be moved behind a service
// boundary without behavior change. Failures are reported through
// WorkerOutput.Error, never as a panic.
type CapabilityProvider interface {
	Name() string
	Description() string
	Handle(ctx context.Context, instruction string, visible []conversation.Message) conversation.WorkerOutput
}

// Definition is the static configuration of one provider: the routing step
// sees Name and Description; the worker sees Prompt and the allowed Tools.
type Definition struct {
	Name        string
	Description string
	Prompt      string
	Tools       []string
}

// StockDefinitions returns the four built-in specialist agents.
func StockDefinitions() []Definition {
	return []Definition{
		{
			Name:        "data_agent",
			Description: "Loads, summarizes and validates sample loss triangles; explains triangle structure, grain and format.",
			Prompt: `You are a data preparation expert for actuarial triangle data.
Discover and summarize sample triangles, validate them before analysis, and
explain their structure (origin periods, development periods, columns,
cumulative vs incremental format, grain) in clear terms.
Always check that a triangle is valid before recommending analysis on it.`,
			Tools: []string{
				"data.list_triangles",
				"data.triangle_summary",
				"data.validate_triangle",
			},
		},
		{
			Name:        "analysis_agent",
			Description: "Performs quantitative loss reserving: development factors, tail fitting, IBNR via chain ladder and related methods.",
			Prompt: `You are an actuary specialized in loss reserving.
Apply development methods to calculate loss development factors, fit tails to
extend patterns beyond observed data, and estimate IBNR reserves using chain
ladder, Mack chain ladder, Bornhuetter-Ferguson, Benktander or Cape Cod.
Use the bootstrap to quantify uncertainty and the method comparison when the
user wants methods side by side.
Understand the triangle's structure first, then pick methods suited to it.
Report the numeric results of your tools; keep commentary brief.`,
			Tools: []string{
				"data.triangle_summary",
				"analysis.development",
				"analysis.tail",
				"analysis.ibnr",
				"analysis.bootstrap_ibnr",
				"analysis.compare_methods",
			},
		},
		{
			Name:        "visualization_agent",
			Description: "Creates triangle heatmaps, development factor charts, ultimate comparisons and diagnostic plots.",
			Prompt: `You are a visualization expert for actuarial triangle data.
Create plots that communicate development patterns, ultimates and diagnostics:
heatmaps, development factor charts, ultimate comparisons, residual plots.
Give each plot a clear title and, after creating it, say what it shows and how
to read it.`,
			Tools: []string{
				"viz.plot",
			},
		},
		{
			Name:        "explanation_agent",
			Description: "Explains actuarial concepts in plain language and writes structured reports interpreting analysis results.",
			Prompt: `You are an actuarial communication expert.
Explain concepts like IBNR, development factors and tail fitting in plain
language, interpret analysis results for business decisions, and structure
reports with a summary, methodology, results and caveats. Use the concept
glossary for precise definitions, the report tool for structured write-ups,
and the documentation lookup when a source citation helps.`,
			Tools: []string{
				"explain.concept",
				"explain.report",
				"explain.lookup_docs",
			},
		},
	}
}
