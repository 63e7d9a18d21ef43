package catalog

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// IngestXLSX reads the catalog dataset from the first sheet of an XLSX
// workbook. The sheet layout matches the CSV format: a header row followed
// by one course per row.
func IngestXLSX(r io.Reader) ([]Course, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening catalog workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("catalog workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	return coursesFromRows(rows)
}
