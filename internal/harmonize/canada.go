package harmonize

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/pkg/utils"
)

// canadaAggregates are pseudo-regions present in Statistics Canada exports
// that would double-count the provinces.
var canadaAggregates = map[string]struct{}{
	"Canada":             {},
	"Prairie provinces":  {},
	"West":               {},
	"East":               {},
	"Maritime provinces": {},
}

// readCanada parses Statistics Canada crop tables, one file per measurement
// kind ("xxxx" placeholder). Only "Wheat, all" rows are kept, aggregate
// pseudo-regions dropped, values scaled t->kt / ha->kha and rounded to one
// decimal as published.
func readCanada(src model.YieldSource) (prod, area *Table, err error) {
	prod, err = readCanadaFile(sourcePath(src.Path, "prod"))
	if err != nil {
		return nil, nil, err
	}
	area, err = readCanadaFile(sourcePath(src.Path, "area"))
	if err != nil {
		return nil, nil, err
	}
	return prod, area, nil
}

func readCanadaFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open canada source: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read canada header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"REF_DATE", "GEO", "Type of crop", "VALUE"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("canada source missing column %q", required)
		}
	}

	t := NewTable()
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		geo := strings.TrimSpace(row[col["GEO"]])
		if _, drop := canadaAggregates[geo]; drop {
			continue
		}
		if row[col["Type of crop"]] != "Wheat, all" {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[col["REF_DATE"]]))
		if err != nil {
			continue
		}
		v := utils.ParseFloat(row[col["VALUE"]])
		if !math.IsNaN(v) {
			v = math.Round(v*canadaUnitFactor*10) / 10
		}
		t.Set(year, geo, v)
	}
	return t, nil
}
