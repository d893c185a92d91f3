package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	pdflib "github.com/ledongthuc/pdf"

	"pdf-insight-be/internal/entity"
)

// PDFExtractor turns a PDF stream into per-page text content units. It is a
// convenience producer for the ingestion contract: table and image units are
// expected from a richer external extraction pipeline, this adapter covers
// the text modality only.
type PDFExtractor struct{}

// Extract reads the PDF and emits one text ContentUnit per non-empty page.
func (PDFExtractor) Extract(r io.Reader, documentId uuid.UUID) ([]entity.ContentUnit, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "pdfinsight-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPages(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var units []entity.ContentUnit
	for _, p := range pages {
		text := strings.TrimSpace(p.text)
		if text == "" {
			continue
		}
		units = append(units, entity.ContentUnit{
			Id:         uuid.NewString(),
			DocumentId: documentId,
			Page:       p.number,
			Modality:   entity.ModalityText,
			Text:       text,
		})
	}
	return units, nil
}

type pageText struct {
	number int
	text   string
}

func extractPages(path string) ([]pageText, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []pageText
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, pageText{number: i, text: text})
	}
	return pages, nil
}
