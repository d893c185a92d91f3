package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"pdf-insight-be/internal/dto"
	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/repository/specification"
	"pdf-insight-be/internal/repository/unitofwork"
	"pdf-insight-be/pkg/embedding"
	"pdf-insight-be/pkg/index"
	"pdf-insight-be/pkg/retry"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	vectorIndex       index.VectorIndex
	workerCount       int
	batchSize         int
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	vectorIndex index.VectorIndex,
	workerCount int,
	batchSize int,
) IConsumerService {
	if workerCount <= 0 {
		workerCount = 4
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		vectorIndex:       vectorIndex,
		workerCount:       workerCount,
		batchSize:         batchSize,
	}
}

// Consume drains the ingestion topic with a bounded worker pool. Documents
// embed independently, so concurrent jobs never contend on index state
// beyond the per-document upsert.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		sem := make(chan struct{}, cs.workerCount)
		for msg := range messages {
			sem <- struct{}{}
			go func(m *message.Message) {
				defer func() { <-sem }()
				cs.processMessage(ctx, m)
			}(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Embedding document %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to load document %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}
	if document == nil {
		log.Printf("[WARN] Document %s no longer exists, skipping", payload.DocumentId)
		msg.Ack() // Deleted before embedding finished? Ack.
		return
	}

	chunks, err := uow.ChunkRepository().FindAll(ctx, specification.ByDocumentID{DocumentID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to load chunks for %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}

	vectors, err := cs.embedChunks(ctx, chunks)
	status := entity.DocumentStatusReady
	if err != nil {
		// Fail open: the document stays queryable through the sparse index.
		log.Printf("[WARN] Embedding failed for document %s, degrading to sparse-only: %v", payload.DocumentId, err)
		status = entity.DocumentStatusDegraded
		vectors = nil
	}

	if err := cs.persist(ctx, document, chunks, vectors, status); err != nil {
		log.Printf("[ERROR] Failed to persist embeddings for %s: %v", payload.DocumentId, err)
		msg.Nack()
		return
	}

	if vectors != nil {
		if err := cs.vectorIndex.UpsertDocument(ctx, document.Id, derefChunks(chunks), vectors); err != nil {
			log.Printf("[ERROR] Failed to index document %s for dense search: %v", document.Id, err)
			msg.Nack()
			return
		}
	}

	log.Printf("[INFO] Document %s is %s (%d chunks)", document.Id, status, len(chunks))
	msg.Ack()
}

// embedChunks embeds the chunk surrogates in batches with exponential
// backoff on transient provider failures. A batch either embeds whole or
// fails the document.
func (cs *consumerService) embedChunks(ctx context.Context, chunks []*entity.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += cs.batchSize {
		end := start + cs.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := cs.embedBatchWithRetry(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (cs *consumerService) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt < retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retry.Backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		vectors, err := cs.embeddingProvider.EmbedBatch(ctx, texts, embedding.TaskRetrievalDocument)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !embedding.IsRetryable(err) {
			break
		}
		log.Printf("[WARN] Embedding attempt %d failed: %v", attempt+1, err)
	}
	return nil, lastErr
}

// persist atomically replaces the chunk rows with their embedded versions
// and flips the document status. Partial embeddings never land.
func (cs *consumerService) persist(ctx context.Context, document *entity.Document, chunks []*entity.Chunk, vectors [][]float32, status string) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.ChunkRepository().CreateBulk(ctx, chunks, vectors); err != nil {
		return err
	}

	now := time.Now()
	document.Status = status
	document.UpdatedAt = &now
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return err
	}

	return uow.Commit()
}
