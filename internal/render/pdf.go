// Package render lays out proposal text as a PDF document.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ganot/forgeline/internal/domain/artifact"
	"github.com/go-pdf/fpdf"
)

// Options configures the PDF renderer.
type Options struct {
	// FontPath points at a UTF-8 TrueType font. When empty the core
	// Helvetica font is used and text is mapped to cp1252.
	FontPath string
}

// PDF renders proposals.
type PDF struct {
	opts Options
}

// NewPDF creates a renderer.
func NewPDF(opts Options) *PDF {
	return &PDF{opts: opts}
}

const (
	bodyFont   = "body"
	lineHeight = 6.0
)

// RenderProposal returns the proposal as a single A4 PDF. Markdown headings
// and numbered section titles are set in bold.
func (r *PDF) RenderProposal(title string, p artifact.Proposal) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("forgeline", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if r.opts.FontPath != "" {
		pdf.AddUTF8Font(bodyFont, "", r.opts.FontPath)
		pdf.AddUTF8Font(bodyFont, "B", r.opts.FontPath)
		family = bodyFont
		tr = func(s string) string { return s }
	}

	pdf.AddPage()
	pdf.SetFont(family, "B", 18)
	pdf.MultiCell(0, 10, tr(title), "", "L", false)
	pdf.SetFont(family, "", 9)
	pdf.MultiCell(0, lineHeight, tr(fmt.Sprintf("Proposal %s, template %s, %s", p.ID, p.TemplateID, p.CreatedAt.Format("2006-01-02"))), "", "L", false)
	pdf.Ln(4)

	for _, line := range strings.Split(strings.ReplaceAll(p.Content, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			pdf.Ln(lineHeight / 2)
		case isHeading(trimmed):
			pdf.Ln(2)
			pdf.SetFont(family, "B", 13)
			pdf.MultiCell(0, lineHeight+1, tr(strings.TrimSpace(strings.TrimLeft(trimmed, "#"))), "", "L", false)
		default:
			pdf.SetFont(family, "", 11)
			pdf.MultiCell(0, lineHeight, tr(line), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering proposal pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func isHeading(line string) bool {
	if strings.HasPrefix(line, "#") {
		return true
	}
	// "3. Schedule" style section titles: short, numbered, no sentence punctuation.
	dot := strings.Index(line, ". ")
	if dot <= 0 || dot > 2 || len(line) > 60 || strings.HasSuffix(line, ".") {
		return false
	}
	for _, c := range line[:dot] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
