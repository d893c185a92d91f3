package chart

// ChartType is the chart family the renderer should produce.
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
)

// Series is one plotted data series, positionally aligned with the
// ChartSpec X labels.
type Series struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

// ChartSpec describes a chart for an external renderer. The engine never
// renders anything itself.
type ChartSpec struct {
	Type    ChartType `json:"type"`
	Title   string    `json:"title"`
	XAxis   string    `json:"x_axis"`
	YAxis   string    `json:"y_axis"`
	XLabels []string  `json:"x_labels"`
	Series  []Series  `json:"series"`
}
