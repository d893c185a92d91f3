package embedding

import "context"

// TaskType hints the provider about the intended use of the embedding.
// Some backends produce asymmetric vectors for documents vs queries.
type TaskType string

const (
	TaskRetrievalDocument TaskType = "retrieval.passage"
	TaskRetrievalQuery    TaskType = "retrieval.query"
)

// Provider produces dense vectors in a single shared text embedding space.
// Table and image chunks are embedded through their text surrogates, so one
// provider instance serves every modality.
type Provider interface {
	// EmbedBatch embeds texts in order: vectors[i] corresponds to texts[i].
	// The batch is atomic. If any text fails the whole call fails with
	// *UnavailableError and no partial result is returned.
	EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error)

	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions reports the width of vectors this provider emits.
	Dimensions() int
}
