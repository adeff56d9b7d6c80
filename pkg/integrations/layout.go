package integrations

import (
	"fmt"
	"html"
	"strings"

	"github.com/kerbaras/novelist/pkg/data"
)

const (
	StylesheetName = "nav.css"
	// NavFile is the navigation document go-epub generates from the sections.
	NavFile = "nav.xhtml"

	Stylesheet = `@namespace epub "http://www.idpf.org/2007/ops";
body {
    font-family: Cambria, Liberation Serif, serif;
}
h1 {
    text-align: left;
    text-transform: uppercase;
    font-weight: 200;
}
`
)

// Document is one XHTML content document of the package.
type Document struct {
	Filename string
	Title    string
	Body     string
}

type NavEntry struct {
	Title string
	Href  string
}

// PackageLayout is the complete description of an e-book before anything is
// written. Building it twice from the same book yields equal layouts.
type PackageLayout struct {
	Identifier    string
	Title         string
	Language      string
	Author        string
	Description   string
	CoverFilename string
	Stylesheet    string
	Documents     []Document
	// Nav is the table of contents: the chapters in generation order.
	Nav []NavEntry
	// Spine is the reading order: the navigation document, then the chapters.
	Spine []string
}

// NewPackageLayout lays out book. The book must be complete.
func NewPackageLayout(book *data.Book, coverFilename string) (*PackageLayout, error) {
	if book == nil {
		return nil, fmt.Errorf("book cannot be nil")
	}
	if err := book.Validate(); err != nil {
		return nil, fmt.Errorf("failed to lay out book: %w", err)
	}

	layout := &PackageLayout{
		Identifier:    "urn:uuid:" + book.ID,
		Title:         book.Title,
		Language:      book.Language,
		Author:        book.Author,
		Description:   book.Cover.Prompt,
		CoverFilename: coverFilename,
		Stylesheet:    Stylesheet,
	}
	if layout.Language == "" {
		layout.Language = "en"
	}
	if layout.Author == "" {
		layout.Author = "AI"
	}

	layout.Spine = append(layout.Spine, NavFile)
	for _, ch := range book.Chapters {
		doc := Document{
			Filename: fmt.Sprintf("chapter_%d.xhtml", ch.Ordinal),
			Title:    ch.Title,
			Body:     chapterBody(ch),
		}
		layout.Documents = append(layout.Documents, doc)
		layout.Nav = append(layout.Nav, NavEntry{Title: doc.Title, Href: doc.Filename})
		layout.Spine = append(layout.Spine, doc.Filename)
	}
	return layout, nil
}

// chapterBody renders the heading followed by one paragraph per non-blank line.
func chapterBody(ch data.Chapter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(ch.Title))
	for _, line := range strings.Split(ch.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(line))
	}
	return b.String()
}

// SanitizeFilename removes characters that are invalid in filenames
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|", "\n", "\r", "\t"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	if result == "" {
		return "untitled"
	}
	return result
}
