package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const pptxSlidePathPrefix = "ppt/slides/slide"

// atTag matches <a:t>text</a:t> with any attributes.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// extractPPTX reads the <a:t> nodes of every slide in slide order.
func extractPPTX(content []byte, res *Result) error {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return err
	}
	var slides []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, pptxSlidePathPrefix) && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f.Name)
		}
	}
	sort.Slice(slides, func(i, j int) bool { return slideNumber(slides[i]) < slideNumber(slides[j]) })

	var b strings.Builder
	for _, name := range slides {
		xml, err := readZipFile(zr, name)
		if err != nil {
			return fmt.Errorf("extract PPTX: %w", err)
		}
		joinTextNodes(atTag, xml, &b)
	}
	res.Text = b.String()
	readCoreProperties(zr, res)
	return nil
}

// slideNumber parses N from ppt/slides/slideN.xml; unparsable names sort last.
func slideNumber(name string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, pptxSlidePathPrefix), ".xml"))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
