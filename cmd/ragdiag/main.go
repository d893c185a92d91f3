package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"pdf-insight-be/internal/config"
	"pdf-insight-be/internal/entity"
	"pdf-insight-be/pkg/chunker"
	"pdf-insight-be/pkg/embedding"
	"pdf-insight-be/pkg/index"
	"pdf-insight-be/pkg/llm/factory"
	"pdf-insight-be/pkg/rag/assembler"
	"pdf-insight-be/pkg/rag/chart"
	"pdf-insight-be/pkg/rag/response"
	"pdf-insight-be/pkg/rag/retriever"
	"pdf-insight-be/pkg/rerank"
)

// ragdiag runs the full retrieval pipeline against a synthetic document
// without a database, to sanity-check a local Ollama setup end to end.

var sampleUnits = []entity.ContentUnit{
	{
		Page:     0,
		Modality: entity.ModalityText,
		Text: "Acme Corp reported strong growth across all business lines in fiscal " +
			"year 2025. Revenue increased driven primarily by the cloud services " +
			"division, while operating costs remained flat year over year.",
	},
	{
		Page:     1,
		Modality: entity.ModalityTable,
		Table: &entity.TableData{
			Columns: []string{"Quarter", "Revenue", "Profit"},
			Rows: [][]string{
				{"Q1 2025", "$1,200", "$300"},
				{"Q2 2025", "$1,450", "$380"},
				{"Q3 2025", "$1,800", "$510"},
				{"Q4 2025", "$2,100", "$640"},
			},
		},
	},
	{
		Page:       2,
		Modality:   entity.ModalityImage,
		Text:       "Headcount by region: EMEA 420, Americas 380, APAC 210.",
		Descriptor: "Bar chart of employee headcount per region",
	},
}

type mapChunkSource map[string]entity.Chunk

func (m mapChunkSource) GetChunks(ctx context.Context, ids []string) (map[string]entity.Chunk, error) {
	out := make(map[string]entity.Chunk, len(ids))
	for _, id := range ids {
		if c, ok := m[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func main() {
	query := flag.String("query", "How did revenue develop over the quarters of 2025?", "question to run through the pipeline")
	topK := flag.Int("k", 4, "number of results to retrieve")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	header := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	header.Println("== pdf-insight pipeline diagnostic ==")

	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel, cfg.Ai.EmbeddingDimensions)
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("llm provider: %v", err)
	}

	// 1. Chunk
	documentId := uuid.New()
	var chunks []entity.Chunk
	ordinal := 0
	for i := range sampleUnits {
		sampleUnits[i].Id = uuid.NewString()
		sampleUnits[i].DocumentId = documentId
		for _, c := range chunker.Split(&sampleUnits[i], chunker.DefaultConfig()) {
			c.Ordinal = ordinal
			c.Id = entity.ChunkId(documentId, ordinal)
			ordinal++
			chunks = append(chunks, c)
		}
	}
	ok.Printf("chunked %d units into %d chunks\n", len(sampleUnits), len(chunks))

	// 2. Embed
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	start := time.Now()
	vectors, err := embedder.EmbedBatch(ctx, texts, embedding.TaskRetrievalDocument)
	if err != nil {
		log.Fatalf("embed: %v", err)
	}
	ok.Printf("embedded %d chunks in %v (dims=%d)\n", len(vectors), time.Since(start), embedder.Dimensions())

	// 3. Index
	vectorIndex := index.NewMemoryVectorIndex(embedder.Dimensions())
	sparseIndex := index.NewMemorySparseIndex()
	if err := vectorIndex.UpsertDocument(ctx, documentId, chunks, vectors); err != nil {
		log.Fatalf("vector upsert: %v", err)
	}
	if err := sparseIndex.UpsertDocument(ctx, documentId, chunks); err != nil {
		log.Fatalf("sparse upsert: %v", err)
	}

	// 4. Retrieve
	source := make(mapChunkSource, len(chunks))
	for _, c := range chunks {
		source[c.Id] = c
	}
	hybrid := retriever.NewHybridRetriever(embedder, vectorIndex, sparseIndex, source, rerank.NewLLMScorer(llmProvider), retriever.Options{})

	header.Printf("\nquery: %s\n", *query)
	results, err := hybrid.Retrieve(ctx, *query, *topK, nil)
	if err != nil {
		log.Fatalf("retrieve: %v", err)
	}
	for _, r := range results {
		fmt.Printf("  %-40s fused=%.4f rerank=%.3f dense#%d sparse#%d\n",
			r.ChunkId, r.Fused, r.Rerank, r.DenseRank, r.SparseRank)
	}

	// 5. Assemble + Synthesize
	gctx, err := assembler.NewAssembler(source, cfg.Rag.ContextBudget).Assemble(ctx, results)
	if err != nil {
		log.Fatalf("assemble: %v", err)
	}
	ok.Printf("assembled %d entries (%d chars)\n", len(gctx.Entries), gctx.Size)

	synth := response.NewSynthesizer(llmProvider, response.DefaultConfig())
	answer, err := synth.Synthesize(ctx, *query, gctx, nil)
	if err != nil {
		log.Fatalf("synthesize: %v", err)
	}

	header.Println("\nanswer:")
	fmt.Println(answer.Text)
	fmt.Printf("\nconfidence=%.3f citations=%s\n", answer.Confidence, strings.Join(answer.Citations, ", "))
	if answer.LowConfidence {
		warn.Println("low confidence answer")
	}

	// 6. Chart
	planner := chart.NewPlanner(chart.NewLLMClassifier(llmProvider))
	spec, err := planner.Plan(ctx, *query, gctx)
	if err != nil {
		log.Fatalf("chart plan: %v", err)
	}
	if spec == nil {
		warn.Println("no chart planned")
		return
	}
	ok.Printf("chart: %s %q x=%s y=%s (%d series)\n", spec.Type, spec.Title, spec.XAxis, spec.YAxis, len(spec.Series))
}
