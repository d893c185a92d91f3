package service

import (
	"context"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/repository/unitofwork"
	"pdf-insight-be/pkg/rag/retriever"
)

// repositoryChunkSource resolves chunk ids through the chunk repository so
// the retriever and assembler stay storage-agnostic.
type repositoryChunkSource struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewRepositoryChunkSource(uowFactory unitofwork.RepositoryFactory) retriever.ChunkSource {
	return &repositoryChunkSource{uowFactory: uowFactory}
}

func (s *repositoryChunkSource) GetChunks(ctx context.Context, chunkIds []string) (map[string]entity.Chunk, error) {
	if len(chunkIds) == 0 {
		return map[string]entity.Chunk{}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.ChunkRepository().FindByIds(ctx, chunkIds)
	if err != nil {
		return nil, err
	}

	out := make(map[string]entity.Chunk, len(chunks))
	for _, c := range chunks {
		out[c.Id] = *c
	}
	return out, nil
}
