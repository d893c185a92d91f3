package chunker

import (
	"pdf-insight-be/internal/entity"
)

// Config controls chunking behavior. Sizes are in runes.
type Config struct {
	TargetSize int // target chunk size
	Overlap    int // characters carried from the end of a chunk into the next
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TargetSize: 1000,
		Overlap:    200,
	}
}

func (c Config) valid() bool {
	return c.TargetSize > 0 && c.Overlap >= 0 && c.Overlap < c.TargetSize
}

// Split turns one content unit into retrievable chunks.
//
// Text units are split on paragraph and sentence boundaries, packed greedily
// up to TargetSize, with the trailing Overlap runes of each chunk repeated at
// the start of the next. Tables and images always produce exactly one chunk.
// Split never fails: malformed input degrades to a single whole-unit chunk
// with its Quality flag set.
func Split(unit *entity.ContentUnit, cfg Config) []entity.Chunk {
	if unit == nil {
		return nil
	}
	if !cfg.valid() {
		return []entity.Chunk{wholeUnitChunk(unit, entity.ChunkQualityDegraded)}
	}

	switch unit.Modality {
	case entity.ModalityTable:
		return []entity.Chunk{tableChunk(unit)}
	case entity.ModalityImage:
		// One chunk per image, even when no text was recoverable: the chunk
		// stays retrievable through its descriptor embedding.
		return []entity.Chunk{wholeUnitChunk(unit, entity.ChunkQualityOK)}
	case entity.ModalityText:
		return splitText(unit, cfg)
	default:
		return []entity.Chunk{wholeUnitChunk(unit, entity.ChunkQualityDegraded)}
	}
}

func splitText(unit *entity.ContentUnit, cfg Config) []entity.Chunk {
	text := unit.Text
	if len([]rune(text)) <= cfg.TargetSize {
		return []entity.Chunk{wholeUnitChunk(unit, entity.ChunkQualityOK)}
	}

	// Bodies partition the original text exactly; the overlap is prepended on
	// top, so stripping each chunk's recorded Overlap prefix reconstructs the
	// unit losslessly.
	bodyLimit := cfg.TargetSize - cfg.Overlap
	bodies := packSegments(segment(text, bodyLimit), bodyLimit)

	chunks := make([]entity.Chunk, 0, len(bodies))
	var prev []rune
	for i, body := range bodies {
		carried := tail(prev, cfg.Overlap)
		chunks = append(chunks, entity.Chunk{
			DocumentId: unit.DocumentId,
			UnitId:     unit.Id,
			Seq:        i,
			Page:       unit.Page,
			Modality:   unit.Modality,
			Text:       string(carried) + body,
			Overlap:    len(carried),
			Quality:    entity.ChunkQualityOK,
		})
		prev = []rune(body)
	}
	return chunks
}

func tableChunk(unit *entity.ContentUnit) entity.Chunk {
	if unit.Table == nil {
		return wholeUnitChunk(unit, entity.ChunkQualityDegraded)
	}
	c := wholeUnitChunk(unit, entity.ChunkQualityOK)
	c.Table = &entity.TableData{
		Columns: entity.DisambiguateColumns(unit.Table.Columns),
		Rows:    unit.Table.Rows,
	}
	return c
}

func wholeUnitChunk(unit *entity.ContentUnit, quality string) entity.Chunk {
	return entity.Chunk{
		DocumentId: unit.DocumentId,
		UnitId:     unit.Id,
		Seq:        0,
		Page:       unit.Page,
		Modality:   unit.Modality,
		Text:       unit.ToTextSurrogate(),
		Quality:    quality,
		Table:      unit.Table,
	}
}

func tail(runes []rune, n int) []rune {
	if n <= 0 || len(runes) == 0 {
		return nil
	}
	if len(runes) <= n {
		return runes
	}
	return runes[len(runes)-n:]
}
