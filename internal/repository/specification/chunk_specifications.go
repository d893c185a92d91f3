package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByDocumentID filters chunks by their owning document
type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

// ByModalities filters chunks to the requested modality set
type ByModalities struct {
	Modalities []string
}

func (s ByModalities) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Modalities) == 0 {
		return db
	}
	return db.Where("modality IN ?", s.Modalities)
}

// EmbeddedOnly keeps chunks carrying a stored embedding
type EmbeddedOnly struct{}

func (s EmbeddedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedded = ?", true)
}
