package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pdf-insight-be/internal/dto"
	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/repository/specification"
	"pdf-insight-be/internal/repository/unitofwork"
	"pdf-insight-be/pkg/chunker"
	"pdf-insight-be/pkg/extract"
	"pdf-insight-be/pkg/index"
)

type IIngestionService interface {
	Ingest(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	IngestPDF(ctx context.Context, title string, r io.Reader) (*dto.IngestDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context) ([]*dto.ListDocumentsResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*dto.StatsResponse, error)
	RebuildIndexes(ctx context.Context) error
}

type ingestionService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	vectorIndex      index.VectorIndex
	sparseIndex      index.SparseIndex
	extractor        extract.PDFExtractor
	chunkCfg         chunker.Config
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	vectorIndex index.VectorIndex,
	sparseIndex index.SparseIndex,
	chunkCfg chunker.Config,
) IIngestionService {
	return &ingestionService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		vectorIndex:      vectorIndex,
		sparseIndex:      sparseIndex,
		chunkCfg:         chunkCfg,
	}
}

// Ingest registers the document, persists its chunk set without embeddings,
// makes it sparse-searchable right away and queues the embedding job. The
// document stays in "ingesting" until the consumer finishes.
func (s *ingestionService) Ingest(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	documentId := uuid.New()
	units := toEntityUnits(documentId, request.Units)
	return s.ingestUnits(ctx, documentId, request.Title, units, pageCount(units))
}

func (s *ingestionService) IngestPDF(ctx context.Context, title string, r io.Reader) (*dto.IngestDocumentResponse, error) {
	documentId := uuid.New()
	units, err := s.extractor.Extract(r, documentId)
	if err != nil {
		return nil, fmt.Errorf("extract pdf: %w", err)
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("pdf contains no extractable text")
	}
	return s.ingestUnits(ctx, documentId, title, units, pageCount(units))
}

func (s *ingestionService) ingestUnits(ctx context.Context, documentId uuid.UUID, title string, units []entity.ContentUnit, pages int) (*dto.IngestDocumentResponse, error) {
	// Re-ingesting a title supersedes the previous document.
	if err := s.deleteByTitle(ctx, title); err != nil {
		return nil, err
	}

	now := time.Now()
	chunks := s.chunkUnits(documentId, units, now)

	document := &entity.Document{
		Id:        documentId,
		Title:     title,
		PageCount: pages,
		Status:    entity.DocumentStatusIngesting,
		CreatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Create(ctx, document); err != nil {
		return nil, err
	}
	if err := uow.ChunkRepository().CreateBulk(ctx, chunks, nil); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// Sparse retrieval needs no embeddings, so the document is lexically
	// searchable as soon as the transaction lands.
	if err := s.sparseIndex.UpsertDocument(ctx, documentId, derefChunks(chunks)); err != nil {
		log.Printf("[WARN] Failed to index document %s for sparse search: %v", documentId, err)
	}

	payload, err := json.Marshal(dto.PublishIngestMessage{DocumentId: documentId})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("queue embedding job: %w", err)
	}

	return &dto.IngestDocumentResponse{
		Id:     documentId,
		Status: document.Status,
	}, nil
}

// chunkUnits splits every unit and assigns document-wide ordinals, which
// double as the citation labels.
func (s *ingestionService) chunkUnits(documentId uuid.UUID, units []entity.ContentUnit, now time.Time) []*entity.Chunk {
	var out []*entity.Chunk
	ordinal := 0
	for i := range units {
		for _, c := range chunker.Split(&units[i], s.chunkCfg) {
			c.Ordinal = ordinal
			c.Id = entity.ChunkId(documentId, ordinal)
			c.CreatedAt = now
			ordinal++
			chunk := c
			out = append(out, &chunk)
		}
	}
	return out
}

func (s *ingestionService) deleteByTitle(ctx context.Context, title string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.DocumentRepository().FindOne(ctx, specification.Filter("title", title))
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	log.Printf("[INFO] Superseding document %s (%q)", existing.Id, title)
	return s.Delete(ctx, existing.Id)
}

func (s *ingestionService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, gorm.ErrRecordNotFound
	}

	chunkCount, err := uow.ChunkRepository().Count(ctx, specification.ByDocumentID{DocumentID: id})
	if err != nil {
		return nil, err
	}

	return &dto.ShowDocumentResponse{
		Id:         document.Id,
		Title:      document.Title,
		Status:     document.Status,
		PageCount:  document.PageCount,
		ChunkCount: chunkCount,
		CreatedAt:  document.CreatedAt,
		UpdatedAt:  document.UpdatedAt,
	}, nil
}

func (s *ingestionService) List(ctx context.Context) ([]*dto.ListDocumentsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ListDocumentsResponse, 0, len(documents))
	for _, d := range documents {
		out = append(out, &dto.ListDocumentsResponse{
			Id:        d.Id,
			Title:     d.Title,
			Status:    d.Status,
			PageCount: d.PageCount,
			CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

// Delete removes the document, its chunks and both index entries. Removal
// from the indices is atomic per document: a deleted document never appears
// in later retrievals.
func (s *ingestionService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if document == nil {
		return gorm.ErrRecordNotFound
	}

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if err := s.vectorIndex.DeleteDocument(ctx, id); err != nil {
		log.Printf("[WARN] Failed to drop document %s from vector index: %v", id, err)
	}
	if err := s.sparseIndex.DeleteDocument(ctx, id); err != nil {
		log.Printf("[WARN] Failed to drop document %s from sparse index: %v", id, err)
	}
	return nil
}

func (s *ingestionService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().Count(ctx)
	if err != nil {
		return nil, err
	}
	chunks, err := uow.ChunkRepository().Count(ctx)
	if err != nil {
		return nil, err
	}
	embedded, err := uow.ChunkRepository().Count(ctx, specification.EmbeddedOnly{})
	if err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		Documents:       documents,
		Chunks:          chunks,
		EmbeddedChunks:  embedded,
		VectorIndexSize: s.vectorIndex.Size(),
		SparseIndexSize: s.sparseIndex.Size(),
	}, nil
}

// RebuildIndexes reloads the sparse index from persisted chunks after a
// restart. Vector state lives in the database (pgvector) or is restored by
// the consumer re-embedding, so only lexical state needs rebuilding here.
func (s *ingestionService) RebuildIndexes(ctx context.Context) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx)
	if err != nil {
		return err
	}

	for _, d := range documents {
		chunks, err := uow.ChunkRepository().FindAll(ctx, specification.ByDocumentID{DocumentID: d.Id})
		if err != nil {
			return err
		}
		if err := s.sparseIndex.UpsertDocument(ctx, d.Id, derefChunks(chunks)); err != nil {
			log.Printf("[WARN] Failed to rebuild sparse index for document %s: %v", d.Id, err)
		}
	}
	log.Printf("[INFO] Sparse index rebuilt: %d documents, %d chunks", len(documents), s.sparseIndex.Size())
	return nil
}

func toEntityUnits(documentId uuid.UUID, payloads []dto.ContentUnitPayload) []entity.ContentUnit {
	units := make([]entity.ContentUnit, 0, len(payloads))
	for _, p := range payloads {
		unit := entity.ContentUnit{
			Id:         uuid.NewString(),
			DocumentId: documentId,
			Page:       p.Page,
			Modality:   entity.Modality(p.Modality),
			Text:       p.Text,
			Descriptor: p.Descriptor,
		}
		if entity.Modality(p.Modality) == entity.ModalityTable && len(p.Columns) > 0 {
			unit.Table = &entity.TableData{
				Columns: p.Columns,
				Rows:    p.Rows,
			}
		}
		units = append(units, unit)
	}
	return units
}

func pageCount(units []entity.ContentUnit) int {
	max := 0
	for _, u := range units {
		if u.Page+1 > max {
			max = u.Page + 1
		}
	}
	return max
}

func derefChunks(chunks []*entity.Chunk) []entity.Chunk {
	out := make([]entity.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = *c
	}
	return out
}
