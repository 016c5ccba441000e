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

// readChina parses the NBS provincial cereal workbooks. Source paths carry an
// "xxxx" placeholder replaced per measurement kind, matching the published
// file naming. Years run along row 4, provinces down the first column.
// Production is reported in 万吨 and scaled to kt; the area sheet carries two
// trailing footnote rows that are dropped.
func readChina(src model.YieldSource) (prod, area *Table, err error) {
	prod, err = readChinaSheet(sourcePath(src.Path, "prod"), "prod")
	if err != nil {
		return nil, nil, err
	}
	area, err = readChinaSheet(sourcePath(src.Path, "area"), "area")
	if err != nil {
		return nil, nil, err
	}
	return prod, area, nil
}

func readChinaSheet(path, kind string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open china %s source: %w", kind, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read china %s sheet: %w", kind, err)
	}
	if len(rows) < 5 {
		return nil, fmt.Errorf("china %s sheet too short: %d rows", kind, len(rows))
	}

	// years along row index 3, first column is the province label
	yearRow := rows[3]
	years := make(map[int]int) // column -> year
	for c := 1; c < len(yearRow); c++ {
		y, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(yearRow[c], ".0")))
		if err == nil {
			years[c] = y
		}
	}

	dataRows := rows[4:]
	if kind == "area" && len(dataRows) > 2 {
		dataRows = dataRows[:len(dataRows)-2]
	}

	t := NewTable()
	for _, row := range dataRows {
		if len(row) == 0 {
			continue
		}
		province := strings.TrimSpace(row[0])
		if province == "" {
			continue
		}
		for c, year := range years {
			v := math.NaN()
			if c < len(row) {
				v = utils.ParseFloat(row[c])
			}
			if kind == "prod" && !math.IsNaN(v) {
				v *= chinaProdFactor
			}
			t.Set(year, province, v)
		}
	}
	return t, nil
}

// sourcePath substitutes the measurement kind into a path template carrying
// the "xxxx" placeholder. Paths without the placeholder are returned as-is.
func sourcePath(template, kind string) string {
	return strings.ReplaceAll(template, "xxxx", kind)
}
