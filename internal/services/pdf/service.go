package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/mediscan/internal/interfaces"
)

// Service implements interfaces.PDFService
type Service struct {
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// ConvertMarkdownToPDF converts markdown content to a PDF byte slice. The
// title goes into the document metadata; headings come from the markdown.
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	s.logger.Debug().
		Int("markdown_len", len(markdown)).
		Str("title", title).
		Msg("Converting markdown to PDF")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:    pdf,
		source: source,
		font:   "Arial",
		size:   10,
	}
	if err := renderer.render(doc); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated")
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf     *fpdf.Fpdf
	source  []byte
	font    string
	size    float64
	bold    bool
	italic  bool
	inList  bool
	ordered bool
	itemNum int
}

func (r *pdfRenderer) render(node ast.Node) error {
	return ast.Walk(node, r.walk)
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(5, string(n.(*ast.Text).Text(r.source)))
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case ast.KindList:
		return r.handleList(n.(*ast.List), entering)
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(15)
			if r.ordered {
				r.pdf.Write(5, fmt.Sprintf("%d. ", r.itemNum))
				r.itemNum++
			} else {
				r.pdf.Write(5, "- ")
			}
		}
	case ast.KindThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(2)
		}
	case extast.KindTable:
		return r.handleTable(n.(*extast.Table), entering)
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.pdf.Ln(6)
		size := 10.0
		switch n.Level {
		case 1:
			size = 15
		case 2:
			size = 12
		case 3:
			size = 11
		}
		r.pdf.SetFont(r.font, "B", size)
	} else {
		r.pdf.Ln(6)
		r.updateFont()
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleList(n *ast.List, entering bool) (ast.WalkStatus, error) {
	if entering {
		r.inList = true
		r.ordered = n.IsOrdered()
		r.itemNum = n.Start
		if r.itemNum == 0 {
			r.itemNum = 1
		}
	} else {
		r.inList = false
		r.ordered = false
		r.pdf.Ln(5)
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleTable(n *extast.Table, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	// Header and body rows both hold cells directly
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader:
			rows = append(rows, r.extractRow(row))
		case *extast.TableRow:
			rows = append(rows, r.extractRow(row))
		}
	}

	r.renderTable(rows)
	return ast.WalkSkipChildren, nil
}

func (r *pdfRenderer) extractRow(n ast.Node) []string {
	var row []string
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			row = append(row, string(cell.Text(r.source)))
		}
	}
	return row
}

// renderTable draws rows with equal column widths, header row bold on a
// light fill. Cell text that exceeds its column is truncated with ellipsis.
func (r *pdfRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	r.pdf.Ln(2)

	const pageWidth = 190.0
	const lineHeight = 6.0
	colWidth := pageWidth / float64(len(rows[0]))

	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont(r.font, "B", 9)
			r.pdf.SetFillColor(230, 230, 230)
		} else {
			r.pdf.SetFont(r.font, "", 9)
			r.pdf.SetFillColor(255, 255, 255)
		}

		for _, cell := range row {
			text := cell
			for r.pdf.GetStringWidth(text) > colWidth-2 && len(text) > 3 {
				text = text[:len(text)-4] + "..."
			}
			r.pdf.CellFormat(colWidth, lineHeight, text, "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(lineHeight)
	}

	r.pdf.Ln(3)
	r.updateFont()
}
