package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"docchat/internal/models"
)

// Normalize lowercases a declared format and strips a leading dot.
func Normalize(format string) string {
	return strings.ToLower(strings.TrimPrefix(format, "."))
}

// Supported reports whether a declared format has a parser. The upload
// boundary checks this before any pipeline work starts.
func Supported(format string) bool {
	switch Normalize(format) {
	case "pdf", "docx", "xlsx", "ods", "md", "markdown", "txt":
		return true
	}
	return false
}

// Load extracts page-level text from an uploaded document. The format
// is the declared file extension ("pdf", "docx", ...), leading dot and
// case ignored. Parsing works entirely from the byte slice; nothing is
// written to disk.
func Load(data []byte, format string) ([]models.PageText, error) {
	format = Normalize(format)

	var (
		pages []models.PageText
		err   error
	)
	switch format {
	case "pdf":
		pages, err = parsePDF(data)
	case "docx":
		pages, err = parseDOCX(data)
	case "xlsx":
		pages, err = parseXLSX(data)
	case "ods":
		pages, err = parseODS(data)
	case "md", "markdown":
		pages, err = parseMarkdown(data)
	case "txt":
		pages, err = parseText(data)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if !hasText(pages) {
		return nil, fmt.Errorf("%w: no extractable text", models.ErrUnreadableDocument)
	}
	return pages, nil
}

func parsePDF(data []byte) ([]models.PageText, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreadableDocument, err)
	}

	var pages []models.PageText
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", models.ErrUnreadableDocument, i, err)
		}
		pages = append(pages, models.PageText{Page: i, Text: pageText})
	}
	return pages, nil
}

func parseDOCX(data []byte) ([]models.PageText, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreadableDocument, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var text strings.Builder
	for _, p := range strings.Split(content, "\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		text.WriteString(p)
		text.WriteString("\n")
	}
	// DOCX carries no page breaks we can rely on; it is one page.
	return []models.PageText{{Page: 1, Text: text.String()}}, nil
}

func parseXLSX(data []byte) ([]models.PageText, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreadableDocument, err)
	}

	var pages []models.PageText
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			text.WriteString(strings.Join(cells, "\t"))
			text.WriteString("\n")
		}
		pages = append(pages, models.PageText{Page: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

func parseODS(data []byte) ([]models.PageText, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreadableDocument, err)
	}
	defer f.Close()

	var pages []models.PageText
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		pages = append(pages, models.PageText{Page: sheetNum + 1, Text: text.String()})
	}
	return pages, nil
}

// parseMarkdown walks the goldmark AST and collects text nodes, so
// markup never leaks into the index.
func parseMarkdown(data []byte) ([]models.PageText, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(gmtext.NewReader(data))

	var text strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, ok := n.(*ast.Paragraph); ok {
				text.WriteString("\n")
			}
			if _, ok := n.(*ast.Heading); ok {
				text.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			text.Write(t.Segment.Value(data))
			if t.SoftLineBreak() || t.HardLineBreak() {
				text.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreadableDocument, err)
	}
	return []models.PageText{{Page: 1, Text: text.String()}}, nil
}

func parseText(data []byte) ([]models.PageText, error) {
	return []models.PageText{{Page: 1, Text: string(data)}}, nil
}

func hasText(pages []models.PageText) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}
