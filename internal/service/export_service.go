package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfFontSize   = 12
	pdfLineHeight = 7
)

type ExportService struct {
	documents *DocumentService
}

func NewExportService(documents *DocumentService) *ExportService {
	return &ExportService{documents: documents}
}

// RenderPDF lays the text out on A4 pages, wrapping long lines and breaking
// pages as needed.
func RenderPDF(title, content string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.MultiCell(0, 10, tr(title), "", "C", false)
		pdf.Ln(4)
	}
	pdf.SetFont("Arial", "", pdfFontSize)
	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			pdf.Ln(pdfLineHeight)
			continue
		}
		pdf.MultiCell(0, pdfLineHeight, tr(line), "", "L", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ExportService) Render(ctx context.Context, fileName, content string) ([]byte, error) {
	return RenderPDF(strings.TrimSuffix(fileName, ".txt"), content)
}

// ExportDocument renders a stored document the caller participates in.
func (s *ExportService) ExportDocument(ctx context.Context, identity, docID string) (string, []byte, error) {
	doc, err := s.documents.Get(ctx, identity, docID)
	if err != nil {
		return "", nil, err
	}
	data, err := RenderPDF(strings.TrimSuffix(doc.Name, ".txt"), doc.Content)
	if err != nil {
		return "", nil, err
	}
	return pdfFileName(doc.Name), data, nil
}

func pdfFileName(name string) string {
	base := strings.TrimSuffix(name, ".txt")
	if base == "" {
		base = "agreement"
	}
	return base + ".pdf"
}
