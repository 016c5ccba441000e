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

const (
	brazilProdSheet = "Quantidade produzida"
	brazilAreaSheet = "Área colhida"
	brazilCrop      = "Trigo (em grão)"
)

// readBrazil parses the IBGE municipal production workbook. One sheet per
// measurement kind; states down the rows, (year, crop) pairs along the
// columns with merged year cells. IBGE missing-data markers: "-" means a true
// zero, "X"/".."/"..." mean not available. The national aggregate column
// "Brasil" is dropped.
func readBrazil(src model.YieldSource) (prod, area *Table, err error) {
	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open brazil source: %w", err)
	}
	defer f.Close()

	prod, err = readBrazilSheet(f, brazilProdSheet)
	if err != nil {
		return nil, nil, err
	}
	area, err = readBrazilSheet(f, brazilAreaSheet)
	if err != nil {
		return nil, nil, err
	}
	return prod, area, nil
}

func readBrazilSheet(f *excelize.File, sheet string) (*Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read brazil sheet %q: %w", sheet, err)
	}
	if len(rows) < 6 {
		return nil, fmt.Errorf("brazil sheet %q too short: %d rows", sheet, len(rows))
	}

	yearRow, cropRow := rows[3], rows[4]

	// year cells are merged across the crop columns, forward-fill
	year := 0
	yearOf := make(map[int]int)
	for c := 3; c < len(yearRow); c++ {
		if y, err := strconv.Atoi(strings.TrimSpace(yearRow[c])); err == nil {
			year = y
		}
		yearOf[c] = year
	}

	t := NewTable()
	for _, row := range rows[5 : len(rows)-1] {
		if len(row) < 3 {
			continue
		}
		state := strings.TrimSpace(row[2])
		if state == "" || state == "Brasil" {
			continue
		}
		for c := 3; c < len(cropRow); c++ {
			if strings.TrimSpace(cropRow[c]) != brazilCrop || yearOf[c] == 0 {
				continue
			}
			v := math.NaN()
			if c < len(row) {
				v = parseBrazilCell(row[c])
			}
			t.Set(yearOf[c], state, v)
		}
	}
	return t, nil
}

func parseBrazilCell(s string) float64 {
	switch strings.TrimSpace(s) {
	case "-":
		return 0
	case "X", "..", "...":
		return math.NaN()
	}
	v := utils.ParseFloat(s)
	if math.IsNaN(v) {
		return v
	}
	return v * brazilUnitFactor
}
