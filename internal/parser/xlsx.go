package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadFirstSheet loads an XLSX workbook from raw bytes and returns the rows
// of its first sheet. Every institution export covered here keeps its data
// on the first sheet; other sheets are ignored.
func ReadFirstSheet(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// HeaderIndex maps normalized header names to their column index. Matching
// is case-insensitive on trimmed cell values.
func HeaderIndex(row []string) map[string]int {
	idx := make(map[string]int, len(row))
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		if _, exists := idx[name]; !exists {
			idx[name] = i
		}
	}
	return idx
}

// Cell returns the trimmed cell at column i, or "" when the row is short.
// XLSX readers drop trailing empty cells, so short rows are routine.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
