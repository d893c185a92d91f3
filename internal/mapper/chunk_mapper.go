package mapper

import (
	"encoding/json"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/model"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.DocumentChunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	chunk := &entity.Chunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		UnitId:     c.UnitId,
		Ordinal:    c.Ordinal,
		Seq:        c.Seq,
		Page:       c.Page,
		Modality:   entity.Modality(c.Modality),
		Text:       c.Text,
		Overlap:    c.Overlap,
		Quality:    c.Quality,
		CreatedAt:  c.CreatedAt,
	}

	if len(c.TableColumns) > 0 {
		table := &entity.TableData{}
		if json.Unmarshal(c.TableColumns, &table.Columns) == nil &&
			json.Unmarshal(c.TableRows, &table.Rows) == nil {
			chunk.Table = table
		}
	}
	return chunk
}

// ToModel builds the stored row. vector may be nil when the document is
// degraded; the chunk then participates in sparse retrieval only.
func (m *ChunkMapper) ToModel(c *entity.Chunk, vector []float32) *model.DocumentChunk {
	if c == nil {
		return nil
	}

	row := &model.DocumentChunk{
		Id:         c.Id,
		DocumentId: c.DocumentId,
		UnitId:     c.UnitId,
		Ordinal:    c.Ordinal,
		Seq:        c.Seq,
		Page:       c.Page,
		Modality:   string(c.Modality),
		Text:       c.Text,
		Overlap:    c.Overlap,
		Quality:    c.Quality,
		CreatedAt:  c.CreatedAt,
	}

	if c.Table != nil {
		if cols, err := json.Marshal(c.Table.Columns); err == nil {
			row.TableColumns = datatypes.JSON(cols)
		}
		if rows, err := json.Marshal(c.Table.Rows); err == nil {
			row.TableRows = datatypes.JSON(rows)
		}
	}

	if vector != nil {
		row.Embedded = true
		row.EmbeddingValue = pgvector.NewVector(vector)
	}
	return row
}

func (m *ChunkMapper) ToEntities(chunks []*model.DocumentChunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
