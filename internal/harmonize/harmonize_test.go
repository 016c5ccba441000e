package harmonize

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/internal/regions"
)

func TestSplitSeasonYear(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"1991-92", 1992},
		{"1969/70", 1970},
		{"2022-23", 2023},
	}
	for _, tt := range tests {
		got, err := SplitSeasonYear(tt.label)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.label)
	}

	_, err := SplitSeasonYear("1992")
	assert.Error(t, err)
}

func TestHarvestConventionIdempotent(t *testing.T) {
	obs := model.YieldObservation{RegionID: "IN-UP", Year: 1991}

	ApplyHarvestConvention(&obs, 1)
	require.Equal(t, 1992, obs.Year)
	require.True(t, obs.HarvestShifted)

	// second application must be a no-op
	ApplyHarvestConvention(&obs, 1)
	assert.Equal(t, 1992, obs.Year)
}

func TestTableAddSumsDuplicates(t *testing.T) {
	tb := NewTable()
	tb.Add(1970, "BUENOS AIRES", 100)
	tb.Add(1970, "BUENOS AIRES", 50)
	tb.Add(1970, "CORDOBA", math.NaN())

	assert.InDelta(t, 150, tb.Get(1970, "BUENOS AIRES"), 1e-9)
	assert.True(t, math.IsNaN(tb.Get(1970, "CORDOBA")))
	assert.True(t, math.IsNaN(tb.Get(1970, "SANTA FE")), "absent cells read as NaN")

	// NaN then a value: the value wins
	tb.Add(1970, "CORDOBA", 30)
	assert.InDelta(t, 30, tb.Get(1970, "CORDOBA"), 1e-9)
}

func TestSplitDataItem(t *testing.T) {
	assert.Equal(t, "PRODUCTION", splitDataItem("WHEAT - PRODUCTION, MEASURED IN BU"))
	assert.Equal(t, "ACRES PLANTED", splitDataItem("WHEAT - ACRES PLANTED"))
}

func TestConvertUSValue(t *testing.T) {
	// area keyed on the data item
	assert.InDelta(t, 0.40469, convertUSValue("ACRES PLANTED", "WHEAT", 1000), 1e-9)
	// production keyed on the commodity
	assert.InDelta(t, 27.2155, convertUSValue("PRODUCTION", "WHEAT", 1_000_000), 1e-6)
	assert.InDelta(t, 25.4, convertUSValue("PRODUCTION", "CORN", 1_000_000), 1e-6)
}

func TestParseBrazilCell(t *testing.T) {
	assert.Equal(t, 0.0, parseBrazilCell("-"), "dash is a true zero")
	assert.True(t, math.IsNaN(parseBrazilCell("X")))
	assert.True(t, math.IsNaN(parseBrazilCell("..")))
	assert.True(t, math.IsNaN(parseBrazilCell("...")))
	assert.InDelta(t, 1.5, parseBrazilCell("1500"), 1e-9)
}

func TestBuildObservationsYearRangeAndRegistry(t *testing.T) {
	prod, area := NewTable(), NewTable()
	for year := 1989; year <= 1995; year++ {
		prod.Set(year, "Saskatchewan", 1000)
		area.Set(year, "Saskatchewan", 500)
	}
	prod.Set(1992, "Prairie provinces", 9999)
	area.Set(1992, "Prairie provinces", 9999)

	src := model.YieldSource{Country: "canada", Crop: "wheat"}
	obs, details := BuildObservations(src, prod, area, model.YearRange{Start: 1991, End: 1995})

	require.Len(t, obs, 5, "years outside the range are filtered")
	for _, o := range obs {
		assert.True(t, o.Year >= 1991 && o.Year <= 1995)
		assert.True(t, regions.Contains(o.RegionID), "every emitted region is in the registry")
		assert.True(t, o.HarvestShifted)
		assert.InDelta(t, 2.0, o.Yield, 1e-9)
	}

	require.Len(t, details, 1, "the unmappable label is reported, not silently dropped")
	assert.Equal(t, "unmapped_region", details[0].ErrorType)
	assert.Equal(t, "warning", details[0].Severity)
}

func TestBuildObservationsNullYield(t *testing.T) {
	prod, area := NewTable(), NewTable()
	prod.Set(2000, "Saskatchewan", 1000)
	area.Set(2000, "Saskatchewan", 0)
	prod.Set(2001, "Saskatchewan", 1000)
	area.Set(2001, "Saskatchewan", math.NaN())

	src := model.YieldSource{Country: "canada", Crop: "wheat"}
	obs, _ := BuildObservations(src, prod, area, model.YearRange{Start: 2000, End: 2001})

	require.Len(t, obs, 2)
	for _, o := range obs {
		assert.True(t, math.IsNaN(o.Yield), "zero or missing area gives a null yield, never zero")
	}
}

func TestReadUSAFromCSV(t *testing.T) {
	csvData := `Program,Year,State,Commodity,Data Item,Value
SURVEY,2000,KANSAS,WHEAT,"WHEAT - PRODUCTION, MEASURED IN BU","1,000,000"
SURVEY,2000,KANSAS,WHEAT,WHEAT - ACRES PLANTED,"1,000"
CENSUS,2000,KANSAS,WHEAT,"WHEAT - PRODUCTION, MEASURED IN BU","5,000,000"
SURVEY,2000,KANSAS,CORN,"CORN - PRODUCTION, MEASURED IN BU","2,000,000"
SURVEY,2001,TEXAS,WHEAT,"WHEAT - PRODUCTION, MEASURED IN BU",(D)
`
	path := filepath.Join(t.TempDir(), "usda.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0644))

	prod, area, err := readUSA(model.YieldSource{Country: "usa", Path: path})
	require.NoError(t, err)

	assert.InDelta(t, 27.2155, prod.Get(2000, "KANSAS"), 1e-6, "census rows and other commodities are excluded")
	assert.InDelta(t, 0.40469, area.Get(2000, "KANSAS"), 1e-9)
	assert.True(t, math.IsNaN(prod.Get(2001, "TEXAS")), "withheld values are null")
}

func TestReadCanadaDropsAggregates(t *testing.T) {
	csvData := `REF_DATE,GEO,Type of crop,VALUE
2000,Saskatchewan,"Wheat, all",12345
2000,Prairie provinces,"Wheat, all",99999
2000,Canada,"Wheat, all",99999
2000,Saskatchewan,"Barley",555
`
	dir := t.TempDir()
	for _, kind := range []string{"prod", "area"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "canada_"+kind+".csv"), []byte(csvData), 0644))
	}

	prod, _, err := readCanada(model.YieldSource{Country: "canada", Path: filepath.Join(dir, "canada_xxxx.csv")})
	require.NoError(t, err)

	assert.InDelta(t, 12.3, prod.Get(2000, "Saskatchewan"), 1e-9, "t -> kt, rounded to one decimal")
	assert.True(t, math.IsNaN(prod.Get(2000, "Prairie provinces")))
	assert.True(t, math.IsNaN(prod.Get(2000, "Canada")))
	assert.Equal(t, []string{"Saskatchewan"}, prod.Regions())
}

func TestReadArgentinaSumsDepartments(t *testing.T) {
	csvData := "Cultivo;Campana;Provincia;Producci\xf3n (Tn);Sup. Cosechada (Ha)\n" +
		"Trigo total;1999/00;BUENOS AIRES;1000;500\n" +
		"Trigo total;1999/00;BUENOS AIRES;2000;1500\n" +
		"Soja total;1999/00;BUENOS AIRES;9999;9999\n"
	path := filepath.Join(t.TempDir(), "argentina.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0644))

	prod, area, err := readArgentina(model.YieldSource{Country: "argentina", Path: path})
	require.NoError(t, err)

	assert.InDelta(t, 3.0, prod.Get(2000, "BUENOS AIRES"), 1e-9, "departments summed, campaign mapped to harvest year")
	assert.InDelta(t, 2.0, area.Get(2000, "BUENOS AIRES"), 1e-9)
}
