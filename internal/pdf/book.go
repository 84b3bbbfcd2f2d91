// Package pdf compiles the generated pages into the coloring book: cover
// with the pet's name, one page per image, back cover.
package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// ErrNoPages means nothing was generated for the order; there is no book
// to build.
var ErrNoPages = errors.New("pdf: no generated pages for order")

const (
	marginX = 15.0
	marginY = 20.0
)

func BuildBook(petName string, pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 15)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	// Capa
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 24)
	doc.Ln(80)
	doc.MultiCell(0, 12, tr(petName), "", "C", false)
	doc.Ln(20)
	doc.SetFont("Helvetica", "", 14)
	doc.CellFormat(0, 10, tr("Livro de colorir"), "", 1, "C", false, 0, "")

	pageW, pageH := doc.GetPageSize()
	availW := pageW - 2*marginX
	availH := pageH - 2*marginY

	for i, page := range pages {
		name := fmt.Sprintf("page-%d", i)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		info := doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(page))
		if doc.Err() {
			return nil, fmt.Errorf("register page %d: %w", i, doc.Error())
		}

		w, h := info.Width(), info.Height()
		scale := availW / w
		if availH/h < scale {
			scale = availH / h
		}
		w, h = w*scale, h*scale

		doc.AddPage()
		x := marginX + (availW-w)/2
		y := marginY + (availH-h)/2
		doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	}

	// Contracapa
	doc.AddPage()
	doc.SetFont("Helvetica", "", 16)
	doc.Ln(100)
	doc.MultiCell(0, 12, tr("Gerado com muito amor pela\npetstory.live"), "", "C", false)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
