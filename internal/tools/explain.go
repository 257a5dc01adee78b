package tools

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxDocText = 8000

func (r *Registry) handleExplainTool(ctx context.Context, operation string, payload map[string]any) (map[string]any, error) {
	switch operation {
	case "concept":
		return explainConcept(payload)
	case "report":
		return buildReport(payload)
	case "lookup_docs":
		return r.lookupDocs(ctx, payload)
	default:
		return nil, fmt.Errorf("unknown explain operation: %s", operation)
	}
}

var conceptGlossary = map[string]string{
	"ibnr":                 "Incurred But Not Reported: the reserve for claims that have occurred but have not yet been reported to the insurer, plus future development on known claims. Estimated as projected ultimate losses minus the latest paid/reported diagonal.",
	"loss triangle":        "A two-dimensional arrangement of losses by origin period (rows) and development period (columns). Each diagonal corresponds to one valuation date.",
	"development factor":   "The ratio of cumulative losses at one development age to cumulative losses at the previous age, used to project immature origin periods to ultimate.",
	"link ratio":           "Another name for an age-to-age development factor; a selected pattern of link ratios defines the projection to ultimate.",
	"tail factor":          "A factor extending the development pattern beyond the oldest observed age, covering development after the triangle's last column.",
	"ultimate":             "The final expected total loss for an origin period once all development is complete, including the tail.",
	"chain ladder":         "A deterministic reserving method that projects each origin period to ultimate by multiplying the latest diagonal by selected age-to-age factors.",
	"mack chain ladder":    "The chain ladder method with Mack's distribution-free standard error estimates, giving a prediction error around each ultimate.",
	"bornhuetter-ferguson": "A credibility method blending an a priori expected loss with the chain ladder projection; more stable than pure chain ladder for immature periods.",
	"benktander":           "An iterated Bornhuetter-Ferguson: the BF ultimate is used as the a priori for a second pass, sitting between BF and chain ladder.",
	"cape cod":             "A Bornhuetter-Ferguson variant that derives the a priori loss ratio from the triangle itself instead of taking it as an input.",
	"bootstrap":            "A simulation technique that resamples residuals of the fitted development model to produce a full distribution of IBNR outcomes rather than a point estimate.",
}

func explainConcept(payload map[string]any) (map[string]any, error) {
	concept, err := getStringPayload(payload, "concept")
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.TrimSpace(concept))
	definition, ok := conceptGlossary[key]
	if !ok {
		known := make([]string, 0, len(conceptGlossary))
		for k := range conceptGlossary {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("no definition for %q; known concepts: %s", concept, strings.Join(known, ", "))
	}
	return map[string]any{"concept": key, "definition": definition}, nil
}

// buildReport renders the fixed report skeleton the explanation agent fills
// in: the agent supplies findings text, the tool guarantees the structure.
func buildReport(payload map[string]any) (map[string]any, error) {
	triangle, err := getStringPayload(payload, "triangle")
	if err != nil {
		return nil, err
	}
	method, err := getStringPayload(payload, "method")
	if err != nil {
		return nil, err
	}
	findings := getOptionalString(payload, "findings")
	caveats := getOptionalString(payload, "caveats")
	if caveats == "" {
		caveats = "Estimates assume historical development patterns persist; results are sensitive to the selected factors and the tail."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Reserving Analysis Report: %s\n\n", triangle))
	sb.WriteString("## Summary\n")
	sb.WriteString(fmt.Sprintf("IBNR analysis of the %s triangle using the %s method.\n\n", triangle, method))
	sb.WriteString("## Methodology\n")
	sb.WriteString(fmt.Sprintf("Method: %s. Development factors selected from the observed triangle; see results for the projection basis.\n\n", method))
	sb.WriteString("## Results\n")
	if findings != "" {
		sb.WriteString(findings)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("(no findings supplied)\n\n")
	}
	sb.WriteString("## Caveats\n")
	sb.WriteString(caveats)
	sb.WriteString("\n")

	return map[string]any{"triangle": triangle, "method": method, "report": sb.String()}, nil
}

// lookupDocs fetches a documentation page and strips it to readable text so
// the explanation agent can cite it without raw HTML in its context.
func (r *Registry) lookupDocs(ctx context.Context, payload map[string]any) (map[string]any, error) {
	pageURL, err := getStringPayload(payload, "url")
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build docs request: %w", err)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch docs page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docs page %s returned %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse docs page: %w", err)
	}

	// Prefer the main content region; fall back to the whole body.
	body := doc.Find("main, div[role=main], article").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	text := strings.TrimSpace(body.Text())
	if len(text) > maxDocText {
		text = text[:maxDocText] + "..."
	}

	return map[string]any{
		"title": strings.TrimSpace(doc.Find("title").Text()),
		"text":  text,
		"url":   pageURL,
	}, nil
}
