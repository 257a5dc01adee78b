// Package tools exposes the engine-backed operations an agent may call.
// The core never calls these directly; a capability provider requests them
// by name during its turn.
package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chainsight/internal/analytics"
)

// Definition describes one tool for the agent prompt and for payload
// validation before dispatch.
type Definition struct {
	Name        string
	Description string
	Required    []string
}

var definitions = []Definition{
	{
		Name:        "data.list_triangles",
		Description: "List every sample triangle with shape and grain.",
	},
	{
		Name:        "data.triangle_summary",
		Description: "Summarize one triangle: shape, grain, valuation dates, latest diagonal.",
		Required:    []string{"triangle"},
	},
	{
		Name:        "data.validate_triangle",
		Description: "Run structural checks on a triangle before analysis.",
		Required:    []string{"triangle"},
	},
	{
		Name:        "analysis.development",
		Description: "Compute link ratios (volume/simple/regression averaging).",
		Required:    []string{"triangle"},
	},
	{
		Name:        "analysis.tail",
		Description: "Fit a tail factor (constant, curve, bondy, clark).",
		Required:    []string{"triangle", "method"},
	},
	{
		Name:        "analysis.ibnr",
		Description: "Estimate IBNR and ultimates (chainladder, mack_chainladder, bornhuetterferguson, benktander, capecod).",
		Required:    []string{"triangle", "method"},
	},
	{
		Name:        "analysis.bootstrap_ibnr",
		Description: "Simulate the IBNR distribution with a bootstrap; returns mean, std and percentiles.",
		Required:    []string{"triangle"},
	},
	{
		Name:        "analysis.compare_methods",
		Description: "Run several reserving methods on one triangle and compare their total IBNR.",
		Required:    []string{"triangle"},
	},
	{
		Name:        "viz.plot",
		Description: "Render a diagnostic plot (heatmap, development, ultimates, residuals, comparison); returns image_path.",
		Required:    []string{"triangle", "plot_type"},
	},
	{
		Name:        "explain.concept",
		Description: "Define an actuarial concept (IBNR, link ratio, tail factor, chain ladder, ...).",
		Required:    []string{"concept"},
	},
	{
		Name:        "explain.report",
		Description: "Compose a structured analysis report with summary, methodology, results and caveats sections.",
		Required:    []string{"triangle", "method"},
	},
	{
		Name:        "explain.lookup_docs",
		Description: "Fetch a documentation page and return its readable text.",
		Required:    []string{"url"},
	},
}

// Registry dispatches tool calls to the analytics engine and local handlers.
type Registry struct {
	engine *analytics.Client
	httpc  *http.Client
	byName map[string]Definition
}

func NewRegistry(engine *analytics.Client) *Registry {
	m := make(map[string]Definition, len(definitions))
	for _, d := range definitions {
		m[d.Name] = d
	}
	return &Registry{
		engine: engine,
		httpc:  &http.Client{Timeout: 30 * time.Second},
		byName: m,
	}
}

func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// PromptPart renders the tool list for an agent prompt, restricted to the
// names the agent is allowed to use.
func (r *Registry) PromptPart(names []string) string {
	var sb strings.Builder
	sb.WriteString("AVAILABLE TOOLS & PAYLOADS:\n")
	for _, name := range names {
		def, ok := r.byName[name]
		if !ok {
			continue
		}
		required := strings.Join(def.Required, ", ")
		sb.WriteString(fmt.Sprintf("- `%s`: %s Payload requires keys: `[%s]`.\n", def.Name, def.Description, required))
	}
	return sb.String()
}

// Validate checks a call's payload against the tool's required keys.
func (r *Registry) Validate(name string, payload map[string]any) error {
	def, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("tool '%s' is not defined in the registry", name)
	}
	for _, key := range def.Required {
		if _, present := payload[key]; !present {
			return fmt.Errorf("tool '%s' is missing required payload key: '%s'", name, key)
		}
	}
	return nil
}

// Execute validates and dispatches one tool call. Tool names follow the
// category.operation form; the category picks the handler family.
func (r *Registry) Execute(ctx context.Context, name string, payload map[string]any) (map[string]any, error) {
	if err := r.Validate(name, payload); err != nil {
		return nil, err
	}

	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid tool name format: '%s'", name)
	}
	category, operation := parts[0], parts[1]

	switch category {
	case "data":
		return r.handleDataTool(ctx, operation, payload)
	case "analysis":
		return r.handleAnalysisTool(ctx, operation, payload)
	case "viz":
		return r.handleVizTool(ctx, operation, payload)
	case "explain":
		return r.handleExplainTool(ctx, operation, payload)
	}
	return nil, fmt.Errorf("unknown tool category: %s", category)
}
