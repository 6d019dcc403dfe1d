package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// zipOf builds an archive from name -> content pairs.
func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const coreXML = `<cp:coreProperties xmlns:cp="x" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Q1 &amp; Q2 Report</dc:title><dc:creator>Ana</dc:creator></cp:coreProperties>`

func wordXML(runs ...string) string {
	s := `<w:document><w:body><w:p w:rsidR="00A1">`
	for _, r := range runs {
		s += `<w:r><w:t xml:space="preserve">` + r + `</w:t></w:r>`
	}
	return s + `</w:p></w:body></w:document>`
}

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	tests := []struct {
		ext, in, want, fileType string
	}{
		{".txt", "Hello world\nLine 2", "Hello world\nLine 2", "txt"},
		{".MD", "caf\xc3\xa9", "café", "md"},
		{".rst", "hello\x80world", "hello\uFFFDworld", "rst"},
		{".xyz", "raw content", "raw content", "xyz"},
		{"", "no extension", "no extension", ""},
	}
	for _, tt := range tests {
		got, err := e.ExtractBytes([]byte(tt.in), tt.ext)
		if err != nil {
			t.Fatalf("ExtractBytes(%q): %v", tt.ext, err)
		}
		if got.Text != tt.want || got.FileType != tt.fileType {
			t.Errorf("ExtractBytes(%q) = %+v, want text %q type %q", tt.ext, got, tt.want, tt.fileType)
		}
	}
}

func TestExtractBytes_docx(t *testing.T) {
	content := zipOf(t, map[string]string{
		"word/document.xml":  wordXML("Quarterly", "revenue &amp; costs"),
		"docProps/core.xml": coreXML,
	})
	got, err := NewExtractor().ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "Quarterly revenue & costs" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Title != "Q1 & Q2 Report" || got.Author != "Ana" || got.FileType != "docx" {
		t.Errorf("properties = %+v", got)
	}
}

func TestExtractBytes_docxMainPartFromContentTypes(t *testing.T) {
	for name, override := range map[string]string{
		"PartName first":    `<Override PartName="/word/document2.xml" ContentType="` + docxMainContentType + `"/>`,
		"ContentType first": `<Override ContentType="` + docxMainContentType + `" PartName="/word/document2.xml"/>`,
	} {
		content := zipOf(t, map[string]string{
			contentTypesPath:     `<Types>` + override + `</Types>`,
			"word/document2.xml": wordXML("moved body"),
		})
		got, err := NewExtractor().ExtractBytes(content, ".docx")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.Text != "moved body" {
			t.Errorf("%s: Text = %q", name, got.Text)
		}
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for non-zip docx")
	}
	if _, err := e.ExtractBytes(zipOf(t, map[string]string{"other.xml": "x"}), ".docx"); err == nil {
		t.Error("expected error when the main part is missing")
	}
}

func TestExtractBytes_pptxSlideOrder(t *testing.T) {
	content := zipOf(t, map[string]string{
		"ppt/slides/slide10.xml": `<p:sld><a:t>ten</a:t></p:sld>`,
		"ppt/slides/slide2.xml":  `<p:sld><a:t>two</a:t><a:t lang="en"> second </a:t></p:sld>`,
		"ppt/slides/slide1.xml":  `<p:sld><a:t>one</a:t></p:sld>`,
		"docProps/core.xml":      coreXML,
	})
	got, err := NewExtractor().ExtractBytes(content, ".pptx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "one two second ten" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Author != "Ana" {
		t.Errorf("Author = %q", got.Author)
	}
}

func TestExtractBytes_pptxEmpty(t *testing.T) {
	got, err := NewExtractor().ExtractBytes(zipOf(t, map[string]string{"ppt/presentation.xml": "<p/>"}), ".pptx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestExtractBytes_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	_ = f.SetCellValue("Sheet1", "A1", "Title")
	_ = f.SetCellValue("Sheet1", "A2", "Value 1")
	_ = f.SetCellValue("Sheet1", "B2", "Value 2")
	if err := f.SetDocProps(&excelize.DocProperties{Title: "Budget", Creator: "Ana"}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Text != "Title\nValue 1\tValue 2" {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Title != "Budget" || got.Author != "Ana" {
		t.Errorf("properties = %+v", got)
	}
}

func TestExtract_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meeting-notes.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Text != "File content" || got.Title != "meeting-notes" || got.FileType != "txt" {
		t.Errorf("got %+v", got)
	}

	xlsx := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "Searchable text")
	if err := f.SaveAs(xlsx); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()
	got, err = NewExtractor().Extract(xlsx)
	if err != nil {
		t.Fatalf("Extract xlsx: %v", err)
	}
	if got.Text != "Searchable text" || got.FileType != "xlsx" {
		t.Errorf("got %+v", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestFileType(t *testing.T) {
	tests := map[string]string{
		"/a/Report.DOCX": "docx",
		"b.pdf":          "pdf",
		"/no/ext":        "",
		"archive.tar.gz": "gz",
	}
	for path, want := range tests {
		if got := FileType(path); got != want {
			t.Errorf("FileType(%q) = %q, want %q", path, got, want)
		}
	}
}
