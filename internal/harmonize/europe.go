package harmonize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/pkg/utils"
)

// readEurope parses the pre-standardized European workbooks: three metadata
// header rows (Name, ID, Code) above the year × region matrix, one file per
// measurement kind. Regions are keyed by the Code row, which carries the
// aggregated NUTS codes directly. "#N/A" cells are missing values.
func readEurope(src model.YieldSource) (prod, area *Table, err error) {
	prod, err = readStandardized(sourcePath(src.Path, "prod"))
	if err != nil {
		return nil, nil, err
	}
	area, err = readStandardized(sourcePath(src.Path, "area"))
	if err != nil {
		return nil, nil, err
	}
	return prod, area, nil
}

func readStandardized(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open standardized source: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read standardized sheet: %w", err)
	}
	if len(rows) < 4 {
		return nil, fmt.Errorf("standardized sheet too short: %d rows", len(rows))
	}

	nameRow, codeRow := rows[0], rows[2]
	labels := make(map[int]string) // column -> region key
	for c := 1; c < len(nameRow); c++ {
		label := ""
		if c < len(codeRow) {
			label = strings.TrimSpace(codeRow[c])
		}
		if label == "" || label == "#N/A" {
			label = strings.TrimSpace(nameRow[c])
		}
		if label != "" && label != "#N/A" {
			labels[c] = label
		}
	}

	t := NewTable()
	for _, row := range rows[3:] {
		if len(row) == 0 {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		for c, label := range labels {
			v := math.NaN()
			if c < len(row) && strings.TrimSpace(row[c]) != "#N/A" {
				v = utils.ParseFloat(row[c])
			}
			t.Set(year, label, v)
		}
	}
	return t, nil
}
