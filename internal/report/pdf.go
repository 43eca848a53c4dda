package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfFontFamily = "report"
	pdfPageWidth  = 190.0
	pdfRowHeight  = 7.0
)

// WritePDF renders tables one after another on A4 pages.
//
// Cyrillic text needs a UTF-8 TrueType font; fontPath points to one. Without
// it the built-in Arial is used and characters outside cp1252 are lost.
func WritePDF(w io.Writer, fontPath string, tables ...Table) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	family := "Arial"
	tr := func(s string) string { return s }
	if fontPath != "" {
		pdf.AddUTF8Font(pdfFontFamily, "", fontPath)
		family = pdfFontFamily
	} else {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()

	for i, t := range tables {
		if i > 0 {
			pdf.Ln(pdfRowHeight)
		}
		pdf.SetFont(family, "", 14)
		pdf.MultiCell(0, 10, tr(t.Title), "", "L", false)

		pdf.SetFont(family, "", 9)
		width := pdfPageWidth
		if n := len(t.Columns); n > 0 {
			width = pdfPageWidth / float64(n)
		}
		for _, col := range t.Columns {
			pdf.CellFormat(width, pdfRowHeight, tr(col), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		for _, row := range t.Rows {
			for _, cell := range row {
				pdf.CellFormat(width, pdfRowHeight, tr(cell), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
