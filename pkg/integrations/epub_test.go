package integrations

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	files := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(content)
	}
	return files
}

func findSuffix(files map[string]string, suffix string) (string, bool) {
	for name, content := range files {
		if strings.HasSuffix(name, suffix) {
			return content, true
		}
	}
	return "", false
}

func TestEPubBuilder_Package(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "cover.png")
	require.NoError(t, os.WriteFile(coverPath, createTestPNG(t, 4, 6), 0644))

	layout, err := NewPackageLayout(testBook(), "cover.png")
	require.NoError(t, err)

	output := filepath.Join(dir, "The Long Rain.epub")
	builder := NewEPubBuilder(filepath.Join(dir, "work"))
	require.NoError(t, builder.Package(layout, coverPath, output))

	files := readZip(t, output)
	assert.Equal(t, "application/epub+zip", files["mimetype"])

	opf, ok := findSuffix(files, ".opf")
	require.True(t, ok, "package document missing")
	assert.Contains(t, opf, "urn:uuid:0b6f0a8e-1c2d-4e5f-8a9b-0c1d2e3f4a5b")
	assert.Contains(t, opf, "The Long Rain")
	assert.Contains(t, opf, ">en<")

	assert.Equal(t, []string{"nav.xhtml", "xhtml/chapter_1.xhtml", "xhtml/chapter_2.xhtml"}, spineHrefs(t, opf))

	chapter, ok := findSuffix(files, "chapter_1.xhtml")
	require.True(t, ok)
	assert.Contains(t, chapter, "<h1>The Call</h1>")
	assert.Contains(t, chapter, "<p>The phone rang.</p>")

	css, ok := findSuffix(files, StylesheetName)
	require.True(t, ok)
	assert.Contains(t, css, "Cambria")

	_, ok = findSuffix(files, "cover.png")
	assert.True(t, ok, "cover image missing")

	nav, ok := findSuffix(files, "nav.xhtml")
	require.True(t, ok, "navigation document missing")
	assert.Equal(t, []string{"The Call", "Smoke & Mirrors"}, navTitles(t, nav))
	assert.NotContains(t, nav, "cover.xhtml")

	ncx, ok := findSuffix(files, ".ncx")
	require.True(t, ok, "ncx missing")
	assert.Equal(t, []string{"The Call", "Smoke & Mirrors"}, ncxTitles(t, ncx))
}

func TestEPubBuilder_MimetypeFirstAndStored(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "cover.png")
	require.NoError(t, os.WriteFile(coverPath, createTestPNG(t, 4, 6), 0644))

	layout, err := NewPackageLayout(testBook(), "cover.png")
	require.NoError(t, err)
	output := filepath.Join(dir, "book.epub")
	require.NoError(t, NewEPubBuilder(filepath.Join(dir, "work")).Package(layout, coverPath, output))

	r, err := zip.OpenReader(output)
	require.NoError(t, err)
	defer r.Close()

	require.NotEmpty(t, r.File)
	assert.Equal(t, "mimetype", r.File[0].Name)
	assert.Equal(t, zip.Store, r.File[0].Method)
}

func TestReplaceSpine_UnknownDocument(t *testing.T) {
	opf := []byte(`<package><manifest><item id="nav" href="nav.xhtml"></item></manifest><spine toc="ncx"></spine></package>`)

	_, err := replaceSpine(opf, []string{"nav.xhtml", "chapter_9.xhtml"})
	assert.Error(t, err)

	out, err := replaceSpine(opf, []string{"nav.xhtml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nav.xhtml"}, spineHrefs(t, string(out)))
}

// spineHrefs resolves the OPF spine itemrefs to manifest hrefs.
func spineHrefs(t *testing.T, opf string) []string {
	t.Helper()

	var pkg struct {
		Items []struct {
			ID   string `xml:"id,attr"`
			Href string `xml:"href,attr"`
		} `xml:"manifest>item"`
		Refs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"spine>itemref"`
	}
	require.NoError(t, xml.Unmarshal([]byte(opf), &pkg))

	hrefs := make(map[string]string)
	for _, item := range pkg.Items {
		hrefs[item.ID] = item.Href
	}
	var out []string
	for _, ref := range pkg.Refs {
		out = append(out, hrefs[ref.IDRef])
	}
	return out
}

func navTitles(t *testing.T, nav string) []string {
	t.Helper()

	var doc struct {
		Links []string `xml:"body>nav>ol>li>a"`
	}
	require.NoError(t, xml.Unmarshal([]byte(nav), &doc))
	return doc.Links
}

func ncxTitles(t *testing.T, ncx string) []string {
	t.Helper()

	var doc struct {
		Labels []string `xml:"navMap>navPoint>navLabel>text"`
	}
	require.NoError(t, xml.Unmarshal([]byte(ncx), &doc))
	return doc.Labels
}

func TestEPubBuilder_Idempotent(t *testing.T) {
	dir := t.TempDir()
	coverPath := filepath.Join(dir, "cover.png")
	require.NoError(t, os.WriteFile(coverPath, createTestPNG(t, 4, 6), 0644))

	build := func(name string) map[string]string {
		layout, err := NewPackageLayout(testBook(), "cover.png")
		require.NoError(t, err)
		out := filepath.Join(dir, name)
		require.NoError(t, NewEPubBuilder(filepath.Join(dir, "work-"+name)).Package(layout, coverPath, out))
		return readZip(t, out)
	}

	first := build("a.epub")
	second := build("b.epub")

	names := func(files map[string]string) []string {
		var out []string
		for name := range files {
			out = append(out, name)
		}
		return out
	}
	assert.ElementsMatch(t, names(first), names(second))

	ch1, _ := findSuffix(first, "chapter_1.xhtml")
	ch1b, _ := findSuffix(second, "chapter_1.xhtml")
	assert.Equal(t, ch1, ch1b)
}

func TestEPubBuilder_Errors(t *testing.T) {
	dir := t.TempDir()
	builder := NewEPubBuilder(dir)

	assert.Error(t, builder.Package(nil, "", filepath.Join(dir, "x.epub")))
	assert.Error(t, builder.Package(&PackageLayout{Title: "Empty"}, "", filepath.Join(dir, "x.epub")))

	layout, err := NewPackageLayout(testBook(), "cover.png")
	require.NoError(t, err)
	err = builder.Package(layout, filepath.Join(dir, "missing.png"), filepath.Join(dir, "x.epub"))
	assert.Error(t, err)
}
