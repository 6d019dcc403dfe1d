package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// corePropertiesPath holds the Dublin Core properties of every OOXML package.
const corePropertiesPath = "docProps/core.xml"

var (
	dcTitle   = regexp.MustCompile(`<dc:title[^>]*>([^<]*)</dc:title>`)
	dcCreator = regexp.MustCompile(`<dc:creator[^>]*>([^<]*)</dc:creator>`)
)

func openZip(content []byte, format string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	return zr, nil
}

// readZipFile returns the named member, or nil when the package has none.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// readCoreProperties fills Title and Author from docProps/core.xml when present.
func readCoreProperties(zr *zip.Reader, res *Result) {
	xml, err := readZipFile(zr, corePropertiesPath)
	if err != nil || xml == nil {
		return
	}
	if m := dcTitle.FindSubmatch(xml); m != nil {
		res.Title = strings.TrimSpace(html.UnescapeString(string(m[1])))
	}
	if m := dcCreator.FindSubmatch(xml); m != nil {
		res.Author = strings.TrimSpace(html.UnescapeString(string(m[1])))
	}
}

// joinTextNodes joins the inner text of every match of tag with single spaces.
func joinTextNodes(tag *regexp.Regexp, xml []byte, b *strings.Builder) {
	for _, m := range tag.FindAllSubmatch(xml, -1) {
		text := strings.TrimSpace(html.UnescapeString(string(m[1])))
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(text)
	}
}
