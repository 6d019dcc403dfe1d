package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel writes one line per row with tab-separated cells.
func extractExcel(content []byte, res *Result) error {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	res.Text = strings.TrimSpace(buf.String())
	if props, err := f.GetDocProps(); err == nil && props != nil {
		res.Title = strings.TrimSpace(props.Title)
		res.Author = strings.TrimSpace(props.Creator)
	}
	return nil
}
