// Package analytics is the boundary to the external loss-triangle engine.
// The engine performs the numeric methods; this package only speaks its
// request/response contract.
package analytics

// TriangleSummary describes one sample triangle.
type TriangleSummary struct {
	Name           string             `json:"name"`
	Shape          []int              `json:"shape"`
	Grain          string             `json:"grain"`
	IsCumulative   *bool              `json:"is_cumulative,omitempty"`
	ValuationDates []string           `json:"valuation_dates,omitempty"`
	LatestDiagonal map[string]float64 `json:"latest_diagonal,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// TriangleValidation reports structural checks on a triangle.
type TriangleValidation struct {
	IsValid bool           `json:"is_valid"`
	Checks  map[string]any `json:"checks,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// DevelopmentParams selects link-ratio averaging for a triangle.
type DevelopmentParams struct {
	Triangle string   `json:"triangle"`
	Methods  []string `json:"methods,omitempty"` // volume, simple, regression
	Averages []int    `json:"averages,omitempty"`
	NPeriods int      `json:"n_periods,omitempty"`
}

type DevelopmentResult struct {
	Triangle      string             `json:"triangle"`
	MethodsUsed   []string           `json:"methods_used"`
	LinkRatios    map[string]float64 `json:"link_ratios,omitempty"`
	SelectedRatio map[string]float64 `json:"selected_link_ratios,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// TailParams fits a tail beyond the observed development periods.
type TailParams struct {
	Triangle      string  `json:"triangle"`
	Method        string  `json:"method"` // constant, curve, bondy, clark
	TailFactor    float64 `json:"tail_factor,omitempty"`
	ExtrapPeriods int     `json:"extrap_periods,omitempty"`
}

type TailResult struct {
	Triangle   string             `json:"triangle"`
	Method     string             `json:"method"`
	TailFactor float64            `json:"tail_factor"`
	Factors    map[string]float64 `json:"development_factors,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// IBNRParams selects a reserving method and its knobs.
type IBNRParams struct {
	Triangle     string             `json:"triangle"`
	Method       string             `json:"method"` // chainladder, mack_chainladder, bornhuetterferguson, benktander, capecod
	Apriori      map[string]float64 `json:"apriori,omitempty"`
	NSimulations int                `json:"n_simulations,omitempty"`
}

type IBNRResult struct {
	Triangle       string             `json:"triangle"`
	Method         string             `json:"method"`
	Ultimates      map[string]float64 `json:"ultimate_losses,omitempty"`
	IBNR           map[string]float64 `json:"ibnr_estimates,omitempty"`
	LatestDiagonal map[string]float64 `json:"latest_diagonal,omitempty"`
	StdErr         map[string]float64 `json:"std_err,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// BootstrapParams requests a simulated IBNR distribution.
type BootstrapParams struct {
	Triangle     string `json:"triangle"`
	Method       string `json:"method,omitempty"` // defaults to odp on the engine side
	NSimulations int    `json:"n_simulations,omitempty"`
}

type BootstrapResult struct {
	Triangle     string             `json:"triangle"`
	NSimulations int                `json:"n_simulations"`
	IBNRMean     float64            `json:"ibnr_mean"`
	IBNRStd      float64            `json:"ibnr_std"`
	Percentiles  map[string]float64 `json:"percentiles,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// PlotParams requests one rendered diagnostic.
type PlotParams struct {
	Triangle    string `json:"triangle"`
	PlotType    string `json:"plot_type"` // heatmap, development, ultimates, residuals, comparison
	Title       string `json:"title,omitempty"`
	CompareWith string `json:"compare_with,omitempty"`
}

type PlotResult struct {
	Triangle  string `json:"triangle"`
	PlotType  string `json:"plot_type"`
	ImagePath string `json:"image_path"`
	Error     string `json:"error,omitempty"`
}
