package chart

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/pkg/rag/assembler"
)

// maxBarCategories bounds how many categories still read well as a bar chart.
const maxBarCategories = 8

// Planner emits a ChartSpec when the grounded context contains tabular data
// shaped for one, and the query actually asks a quantitative or trend
// question. Everything else yields no chart.
type Planner struct {
	classifier IntentClassifier
}

func NewPlanner(classifier IntentClassifier) *Planner {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &Planner{classifier: classifier}
}

type planConfig struct {
	wantChart bool
}

type PlanOption func(*planConfig)

// WithChartRequested marks the chart as explicitly asked for by the caller,
// bypassing the intent gate. Table and shape preconditions still apply.
func WithChartRequested() PlanOption {
	return func(c *planConfig) {
		c.wantChart = true
	}
}

// Plan returns nil (no chart) unless all preconditions hold: at least one
// table chunk in context, quantitative or trend intent, and a table shape a
// chart family fits. Time axis picks line, few categories pick bar.
func (p *Planner) Plan(ctx context.Context, query string, gctx assembler.GroundedContext, opts ...PlanOption) (*ChartSpec, error) {
	var cfg planConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	table := firstTable(gctx)
	if table == nil {
		return nil, nil
	}

	intent, err := p.classifier.Classify(ctx, query)
	if err != nil {
		return nil, err
	}
	if cfg.wantChart {
		intent.WantsChart = true
	}
	if !intent.Quantitative && !intent.Trend && !intent.WantsChart {
		return nil, nil
	}

	numeric := numericColumns(table)
	if len(numeric) == 0 {
		return nil, nil
	}

	axis := axisColumn(table, numeric)
	if axis < 0 {
		return nil, nil
	}

	chartType := ChartBar
	if isTimeColumn(table, axis) || intent.Trend {
		chartType = ChartLine
	} else if categoryCount(table, axis) > maxBarCategories {
		return nil, nil
	}

	spec := &ChartSpec{
		Type:    chartType,
		Title:   chartTitle(query),
		XAxis:   table.Columns[axis],
		YAxis:   table.Columns[numeric[0]],
		XLabels: columnValues(table, axis),
	}
	for _, col := range numeric {
		spec.Series = append(spec.Series, Series{
			Label:  table.Columns[col],
			Values: numericValues(table, col),
		})
	}
	return spec, nil
}

func firstTable(gctx assembler.GroundedContext) *entity.TableData {
	for _, e := range gctx.Entries {
		if e.Chunk.Modality == entity.ModalityTable && e.Chunk.Table != nil && len(e.Chunk.Table.Columns) > 0 {
			return e.Chunk.Table
		}
	}
	return nil
}

// numericColumns returns the indexes of columns where over 70% of sampled
// values parse as numbers after stripping currency and percent markers.
func numericColumns(t *entity.TableData) []int {
	var out []int
	for col := range t.Columns {
		total, numeric := 0, 0
		for i, row := range t.Rows {
			if i >= 10 {
				break
			}
			if col >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			total++
			if _, err := strconv.ParseFloat(cleanNumber(v), 64); err == nil {
				numeric++
			}
		}
		if total > 0 && float64(numeric)/float64(total) > 0.7 {
			out = append(out, col)
		}
	}
	return out
}

// axisColumn picks the first non-numeric column as the X axis.
func axisColumn(t *entity.TableData, numeric []int) int {
	isNumeric := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		isNumeric[c] = true
	}
	for col := range t.Columns {
		if !isNumeric[col] {
			return col
		}
	}
	return -1
}

var timeNamePattern = regexp.MustCompile(`(?i)\b(date|time|year|month|quarter|period|week|day)\b|^q[1-4]`)
var timeValuePattern = regexp.MustCompile(`(?i)^(q[1-4]([ \-/]?\d{2,4})?|\d{4}([-/]\d{1,2}){0,2}|\d{1,2}[-/]\d{4}|(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s*\d{0,4})$`)

// isTimeColumn detects a temporal axis by column name, falling back to the
// shape of its values (years, quarters, month names).
func isTimeColumn(t *entity.TableData, col int) bool {
	if timeNamePattern.MatchString(t.Columns[col]) {
		return true
	}
	matched, total := 0, 0
	for i, row := range t.Rows {
		if i >= 10 {
			break
		}
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			continue
		}
		total++
		if timeValuePattern.MatchString(strings.TrimSpace(row[col])) {
			matched++
		}
	}
	return total > 0 && float64(matched)/float64(total) > 0.7
}

func categoryCount(t *entity.TableData, col int) int {
	distinct := make(map[string]struct{})
	for _, row := range t.Rows {
		if col < len(row) {
			distinct[row[col]] = struct{}{}
		}
	}
	return len(distinct)
}

func columnValues(t *entity.TableData, col int) []string {
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if col < len(row) {
			out = append(out, row[col])
		} else {
			out = append(out, "")
		}
	}
	return out
}

func numericValues(t *entity.TableData, col int) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		v := 0.0
		if col < len(row) {
			v, _ = strconv.ParseFloat(cleanNumber(row[col]), 64)
		}
		out = append(out, v)
	}
	return out
}

func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "%", "")
	return s
}

func chartTitle(query string) string {
	title := strings.TrimSpace(strings.TrimRight(query, "?.!"))
	if len(title) > 60 {
		title = title[:60]
	}
	return title
}
