package entity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Modality tags the three kinds of extracted PDF content.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityTable Modality = "table"
	ModalityImage Modality = "image"
)

// BoundingBox is positional metadata from the extraction pipeline (optional).
type BoundingBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// TableData holds a logical table as extracted upstream.
type TableData struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ContentUnit is one extracted piece of a document page. Exactly one payload
// field is meaningful depending on Modality: Text for text units (also the
// OCR text for image units), Table for table units, Descriptor for image
// units. Units are immutable once ingested.
type ContentUnit struct {
	Id         string
	DocumentId uuid.UUID
	Page       int
	Modality   Modality
	Text       string
	Table      *TableData
	Descriptor string
	BBox       *BoundingBox
}

// ToTextSurrogate canonicalizes the unit payload into the single textual form
// used uniformly for embedding, sparse indexing and citation display.
func (u *ContentUnit) ToTextSurrogate() string {
	switch u.Modality {
	case ModalityTable:
		if u.Table == nil {
			return u.Text
		}
		return renderTable(u.Table)
	case ModalityImage:
		// OCR text first, then the descriptor. An image with neither stays
		// retrievable through its (possibly empty) surrogate plus embedding.
		parts := make([]string, 0, 2)
		if strings.TrimSpace(u.Text) != "" {
			parts = append(parts, strings.TrimSpace(u.Text))
		}
		if strings.TrimSpace(u.Descriptor) != "" {
			parts = append(parts, strings.TrimSpace(u.Descriptor))
		}
		return strings.Join(parts, "\n")
	default:
		return u.Text
	}
}

// DisambiguateColumns resolves duplicate column names by suffixing later
// occurrences with their occurrence ordinal: the second "Revenue" becomes
// "Revenue_2". Columns are never dropped.
func DisambiguateColumns(columns []string) []string {
	seen := make(map[string]int, len(columns))
	out := make([]string, len(columns))
	for i, col := range columns {
		seen[col]++
		if seen[col] > 1 {
			out[i] = fmt.Sprintf("%s_%d", col, seen[col])
		} else {
			out[i] = col
		}
	}
	return out
}

// renderTable produces the canonical pipe-delimited rendering: a header row
// with de-duplicated column names followed by one line per row.
func renderTable(t *TableData) string {
	var b strings.Builder

	cols := DisambiguateColumns(t.Columns)
	b.WriteString(strings.Join(cols, " | "))

	for _, row := range t.Rows {
		b.WriteString("\n")
		cells := make([]string, len(cols))
		for i := range cols {
			if i < len(row) {
				cells[i] = strings.TrimSpace(row[i])
			}
		}
		b.WriteString(strings.Join(cells, " | "))
	}

	return b.String()
}
