package integrations

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
)

// EPubBuilder writes a PackageLayout as an EPUB file.
type EPubBuilder struct {
	workDir string
}

// NewEPubBuilder returns a builder that keeps its scratch files (the style
// sheet) under workDir.
func NewEPubBuilder(workDir string) *EPubBuilder {
	return &EPubBuilder{workDir: workDir}
}

func (p *EPubBuilder) Package(layout *PackageLayout, coverPath, outputPath string) error {
	if layout == nil {
		return fmt.Errorf("layout cannot be nil")
	}
	if len(layout.Documents) == 0 {
		return fmt.Errorf("no chapters to compile")
	}
	if err := os.MkdirAll(p.workDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	e, err := epub.NewEpub(layout.Title)
	if err != nil {
		return fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetIdentifier(layout.Identifier)
	e.SetAuthor(layout.Author)
	e.SetLang(layout.Language)
	if layout.Description != "" {
		e.SetDescription(layout.Description)
	}

	cssFile := filepath.Join(p.workDir, StylesheetName)
	if err := os.WriteFile(cssFile, []byte(layout.Stylesheet), 0644); err != nil {
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}
	cssPath, err := e.AddCSS(cssFile, StylesheetName)
	if err != nil {
		return fmt.Errorf("failed to add stylesheet: %w", err)
	}

	coverImage, err := e.AddImage(coverPath, layout.CoverFilename)
	if err != nil {
		return fmt.Errorf("failed to add cover image: %w", err)
	}
	e.SetCover(coverImage, "")

	docs := make(map[string]Document, len(layout.Documents))
	for _, doc := range layout.Documents {
		docs[doc.Filename] = doc
	}
	for _, entry := range layout.Nav {
		doc, ok := docs[entry.Href]
		if !ok {
			return fmt.Errorf("navigation entry %s has no document", entry.Href)
		}
		if _, err := e.AddSection(doc.Body, entry.Title, doc.Filename, cssPath); err != nil {
			return fmt.Errorf("failed to add section %s: %w", doc.Filename, err)
		}
	}

	var buf bytes.Buffer
	if _, err := e.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to write EPub: %w", err)
	}
	return writeWithSpine(buf.Bytes(), layout.Spine, outputPath)
}

// writeWithSpine copies the archive in src to outputPath, replacing the
// package document's spine with the given reading order. go-epub always
// opens the spine with its cover page and never lists the navigation
// document.
func writeWithSpine(src []byte, spine []string, outputPath string) error {
	r, err := zip.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return fmt.Errorf("failed to read EPub: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, file := range r.File {
		if path.Ext(file.Name) != ".opf" {
			// keeps the stored mimetype entry byte for byte
			if err := zw.Copy(file); err != nil {
				return fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		opf, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		opf, err = replaceSpine(opf, spine)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", file.Name, err)
		}
		if _, err := w.Write(opf); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to write EPub: %w", err)
	}
	return f.Close()
}

// replaceSpine rewrites the itemrefs of the OPF spine so they follow spine,
// a list of document filenames resolved against the manifest.
func replaceSpine(opf []byte, spine []string) ([]byte, error) {
	var pkg struct {
		Items []struct {
			ID   string `xml:"id,attr"`
			Href string `xml:"href,attr"`
		} `xml:"manifest>item"`
	}
	if err := xml.Unmarshal(opf, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package document: %w", err)
	}
	ids := make(map[string]string, len(pkg.Items))
	for _, item := range pkg.Items {
		ids[path.Base(item.Href)] = item.ID
	}

	start := bytes.Index(opf, []byte("<spine"))
	end := bytes.Index(opf, []byte("</spine>"))
	if start < 0 || end < start {
		return nil, fmt.Errorf("package document has no spine")
	}
	open := bytes.IndexByte(opf[start:], '>')
	if open < 0 {
		return nil, fmt.Errorf("package document has no spine")
	}
	open += start + 1

	var refs strings.Builder
	refs.WriteString("\n")
	for _, name := range spine {
		id, ok := ids[name]
		if !ok {
			return nil, fmt.Errorf("spine document %s is not in the manifest", name)
		}
		fmt.Fprintf(&refs, "    <itemref idref=\"%s\"></itemref>\n", id)
	}
	refs.WriteString("  ")

	var out bytes.Buffer
	out.Write(opf[:open])
	out.WriteString(refs.String())
	out.Write(opf[end:])
	return out.Bytes(), nil
}
