package harmonize

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/pkg/utils"
)

// readIndia walks a directory of per-state workbooks (prod/ and area/
// subdirectories). Year columns carry split-season labels ("1991-92"), mapped
// to the harvest year. Only the "Cereals" crop with season "Total" is kept; a
// state workbook with no matching rows still contributes an all-null series.
func readIndia(src model.YieldSource) (prod, area *Table, err error) {
	prod, err = readIndiaKind(filepath.Join(src.Path, "prod"))
	if err != nil {
		return nil, nil, err
	}
	area, err = readIndiaKind(filepath.Join(src.Path, "area"))
	if err != nil {
		return nil, nil, err
	}
	return prod, area, nil
}

func readIndiaKind(dir string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list india directory: %w", err)
	}

	t := NewTable()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, "All-India") {
			continue
		}
		// "Uttar-Pradesh-cereals.xlsx" -> "Uttar-Pradesh"
		base := strings.TrimSuffix(name, filepath.Ext(name))
		parts := strings.Split(base, "-")
		if len(parts) < 2 {
			continue
		}
		state := strings.Join(parts[:len(parts)-1], "-")

		if err := readIndiaState(filepath.Join(dir, name), state, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func readIndiaState(path, state string, t *Table) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open india source %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return fmt.Errorf("failed to read india sheet %s: %w", filepath.Base(path), err)
	}
	if len(rows) < 7 {
		return fmt.Errorf("india sheet %s too short: %d rows", filepath.Base(path), len(rows))
	}

	// header at row index 5: Crop, Season, then split-season year labels
	header := rows[5]
	years := make(map[int]int) // column -> harvest year
	for c := 2; c < len(header); c++ {
		if y, err := SplitSeasonYear(header[c]); err == nil {
			years[c] = y
		}
	}

	found := false
	crop := ""
	for _, row := range rows[6 : len(rows)-1] {
		if len(row) < 2 {
			continue
		}
		// crop cells are merged downward, forward-fill
		if strings.TrimSpace(row[0]) != "" {
			crop = strings.TrimSpace(row[0])
		}
		if crop != "Cereals" || strings.TrimSpace(row[1]) != "Total" {
			continue
		}
		found = true
		for c, year := range years {
			v := math.NaN()
			if c < len(row) {
				v = utils.ParseFloat(row[c])
			}
			t.Set(year, state, v)
		}
	}

	if !found {
		for _, year := range years {
			t.Set(year, state, math.NaN())
		}
	}
	return nil
}
