package interfaces

// PDFService converts markdown content to PDF documents.
type PDFService interface {
	// ConvertMarkdownToPDF converts markdown content to a PDF byte slice.
	// The title is used for document metadata only; headings are expected to
	// be part of the markdown itself.
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}
