package chart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/pkg/llm"
	"pdf-insight-be/pkg/rag/assembler"
)

func tableContext(table *entity.TableData) assembler.GroundedContext {
	docId := uuid.New()
	chunk := entity.Chunk{
		Id:         entity.ChunkId(docId, 0),
		DocumentId: docId,
		Modality:   entity.ModalityTable,
		Table:      table,
		Text:       "rendered table",
	}
	return assembler.GroundedContext{Entries: []assembler.Entry{
		{Chunk: chunk, Label: chunk.Label()},
	}}
}

func TestPlan_QuarterlyRevenueTrendIsLineChart(t *testing.T) {
	gctx := tableContext(&entity.TableData{
		Columns: []string{"Date", "Revenue"},
		Rows: [][]string{
			{"2024-03", "100"},
			{"2024-06", "120"},
			{"2024-09", "135"},
			{"2024-12", "150"},
		},
	})

	p := NewPlanner(KeywordClassifier{})
	spec, err := p.Plan(context.Background(), "Show quarterly revenue trend", gctx)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, ChartLine, spec.Type)
	assert.Equal(t, "Date", spec.XAxis)
	assert.Equal(t, "Revenue", spec.YAxis)
	assert.Equal(t, []string{"2024-03", "2024-06", "2024-09", "2024-12"}, spec.XLabels)
	require.Len(t, spec.Series, 1)
	assert.Equal(t, []float64{100, 120, 135, 150}, spec.Series[0].Values)
}

func TestPlan_FewCategoriesIsBarChart(t *testing.T) {
	gctx := tableContext(&entity.TableData{
		Columns: []string{"Region", "Sales"},
		Rows: [][]string{
			{"North", "$1,200"},
			{"South", "$800"},
			{"West", "$950"},
		},
	})

	p := NewPlanner(KeywordClassifier{})
	spec, err := p.Plan(context.Background(), "Compare total sales by region", gctx)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, ChartBar, spec.Type)
	assert.Equal(t, []float64{1200, 800, 950}, spec.Series[0].Values)
}

func TestPlan_TooManyCategoriesNoChart(t *testing.T) {
	rows := make([][]string, 20)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("cat-%d", i), "10"}
	}
	gctx := tableContext(&entity.TableData{
		Columns: []string{"Item", "Count"},
		Rows:    rows,
	})

	p := NewPlanner(KeywordClassifier{})
	spec, err := p.Plan(context.Background(), "How many of each item in total?", gctx)
	require.NoError(t, err)
	assert.Nil(t, spec)
}

func TestPlan_NoTableNoChart(t *testing.T) {
	docId := uuid.New()
	gctx := assembler.GroundedContext{Entries: []assembler.Entry{
		{Chunk: entity.Chunk{Id: entity.ChunkId(docId, 0), Modality: entity.ModalityText, Text: "prose"}},
	}}

	p := NewPlanner(KeywordClassifier{})
	spec, err := p.Plan(context.Background(), "Show the revenue trend", gctx)
	require.NoError(t, err)
	assert.Nil(t, spec)
}

func TestPlan_NonQuantitativeQueryNoChart(t *testing.T) {
	gctx := tableContext(&entity.TableData{
		Columns: []string{"Date", "Revenue"},
		Rows:    [][]string{{"2024-03", "100"}},
	})

	p := NewPlanner(KeywordClassifier{})
	spec, err := p.Plan(context.Background(), "Who is the company's CEO?", gctx)
	require.NoError(t, err)
	assert.Nil(t, spec)
}

func TestPlan_ExplicitRequestBypassesIntentGate(t *testing.T) {
	gctx := tableContext(&entity.TableData{
		Columns: []string{"Region", "Sales"},
		Rows:    [][]string{{"North", "1200"}, {"South", "800"}},
	})

	p := NewPlanner(KeywordClassifier{})
	spec, err := p.Plan(context.Background(), "Who is the company's CEO?", gctx, WithChartRequested())
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, ChartBar, spec.Type)
}

func TestPlan_NoNumericColumnsNoChart(t *testing.T) {
	gctx := tableContext(&entity.TableData{
		Columns: []string{"Name", "Role"},
		Rows:    [][]string{{"Ada", "Engineer"}, {"Grace", "Admiral"}},
	})

	p := NewPlanner(KeywordClassifier{})
	spec, err := p.Plan(context.Background(), "Show the revenue trend", gctx)
	require.NoError(t, err)
	assert.Nil(t, spec)
}

func TestKeywordClassifier(t *testing.T) {
	cases := []struct {
		query        string
		quantitative bool
		trend        bool
	}{
		{"Show quarterly revenue trend", true, true},
		{"What is the total headcount?", true, false},
		{"Who wrote this report?", false, false},
	}
	for _, tc := range cases {
		intent, err := KeywordClassifier{}.Classify(context.Background(), tc.query)
		require.NoError(t, err)
		assert.Equal(t, tc.quantitative, intent.Quantitative, tc.query)
		assert.Equal(t, tc.trend, intent.Trend, tc.query)
	}
}

type fixedLLM struct {
	response string
	err      error
}

func (f fixedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f fixedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func TestLLMClassifier_ParsesVerdict(t *testing.T) {
	c := NewLLMClassifier(fixedLLM{response: `{"quantitative": true, "trend": true, "wants_chart": false}`})
	intent, err := c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, intent.Quantitative)
	assert.True(t, intent.Trend)
	assert.False(t, intent.WantsChart)
}

func TestLLMClassifier_FallsBackToKeywordsOnGarbage(t *testing.T) {
	c := NewLLMClassifier(fixedLLM{response: "no json here"})
	intent, err := c.Classify(context.Background(), "Show quarterly revenue trend")
	require.NoError(t, err)
	assert.True(t, intent.Trend)
}

func TestLLMClassifier_FallsBackToKeywordsOnError(t *testing.T) {
	c := NewLLMClassifier(fixedLLM{err: assert.AnError})
	intent, err := c.Classify(context.Background(), "What is the total revenue?")
	require.NoError(t, err)
	assert.True(t, intent.Quantitative)
}
