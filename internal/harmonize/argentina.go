package harmonize

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/pkg/utils"
)

// readArgentina parses the national crop estimates export: latin-1 encoded,
// ';'-separated, one row per (campaign, province, department). The split
// campaign label maps to the harvest year, only "Trigo total" is kept, and
// duplicate (year, province) rows are summed over departments.
func readArgentina(src model.YieldSource) (prod, area *Table, err error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open argentina source: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(f))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read argentina header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Cultivo", "Campana", "Provincia", "Producción (Tn)", "Sup. Cosechada (Ha)"} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("argentina source missing column %q", required)
		}
	}

	prod, area = NewTable(), NewTable()
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if row[col["Cultivo"]] != "Trigo total" {
			continue
		}
		year, err := SplitSeasonYear(row[col["Campana"]])
		if err != nil {
			continue
		}
		province := strings.TrimSpace(row[col["Provincia"]])
		prod.Add(year, province, utils.ParseFloat(row[col["Producción (Tn)"]])*argentinaUnitFactor)
		area.Add(year, province, utils.ParseFloat(row[col["Sup. Cosechada (Ha)"]])*argentinaUnitFactor)
	}
	return prod, area, nil
}
