package harmonize

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/pkg/utils"
)

// readUSA parses a USDA QuickStats survey export. Census rows are dropped,
// bushels and acres converted to kt/kha, and only the wheat commodity kept.
func readUSA(src model.YieldSource) (prod, area *Table, err error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open USA source: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read USA header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Program", "Year", "State", "Commodity", "Data Item", "Value"} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("USA source missing column %q", required)
		}
	}

	prod, area = NewTable(), NewTable()
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if row[col["Program"]] == "CENSUS" {
			continue
		}
		commodity := row[col["Commodity"]]
		if commodity != "WHEAT" {
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[col["Year"]]))
		if err != nil {
			continue
		}
		state := row[col["State"]]
		dataItem := splitDataItem(row[col["Data Item"]])
		value := convertUSValue(dataItem, commodity, utils.ParseFloat(row[col["Value"]]))

		switch dataItem {
		case "PRODUCTION":
			prod.Set(year, state, value)
		case "ACRES PLANTED":
			area.Set(year, state, value)
		}
	}
	return prod, area, nil
}

// splitDataItem reduces a QuickStats descriptor like
// "WHEAT - PRODUCTION, MEASURED IN BU" to its measurement kind.
func splitDataItem(s string) string {
	parts := strings.SplitN(s, " - ", 2)
	if len(parts) < 2 {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.SplitN(parts[1], ",", 2)[0])
}
