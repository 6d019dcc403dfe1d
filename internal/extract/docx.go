package extract

import (
	"archive/zip"
	"fmt"
	"regexp"
	"strings"
)

const (
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// wtTag matches <w:t>text</w:t> with any attributes.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// The main part's Override may list PartName before or after ContentType.
var (
	partNameRe  = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// docxMainDocumentPath resolves the main document part from [Content_Types].xml.
func docxMainDocumentPath(zr *zip.Reader) string {
	types, err := readZipFile(zr, contentTypesPath)
	if err != nil || types == nil {
		return docxDocumentXMLPath
	}
	for _, re := range []*regexp.Regexp{partNameRe, partNameRe2} {
		if m := re.FindSubmatch(types); m != nil {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return docxDocumentXMLPath
}

// extractDOCX collects every <w:t> node, so runs split by formatting stay searchable.
func extractDOCX(content []byte, res *Result) error {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return err
	}
	docPath := docxMainDocumentPath(zr)
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	var b strings.Builder
	joinTextNodes(wtTag, docXML, &b)
	res.Text = b.String()
	readCoreProperties(zr, res)
	return nil
}
