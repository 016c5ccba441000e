package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swa-yield-pipeline/internal/model"
)

func testExporter(t *testing.T, formats ...string) *Exporter {
	t.Helper()
	return NewExporter("run-test", &model.Export{Dir: t.TempDir(), Formats: formats})
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(raw, utf8BOM), "CSV artifacts carry a UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestNewExporterDefaults(t *testing.T) {
	assert.Nil(t, NewExporter("run-test", nil), "no export target means no exporter")

	e := testExporter(t)
	assert.True(t, e.Formats["csv"], "csv is the default format")
}

func TestWriteObservationsCSV(t *testing.T) {
	e := testExporter(t, "csv")
	obs := []model.YieldObservation{
		{RegionID: "US-KS", Year: 2000, Crop: "wheat", Area: 100, Production: 250, Yield: 2.5, SourceCountry: "usa"},
		{RegionID: "FR2", Year: 2000, Crop: "wheat", Area: math.NaN(), Production: 10, Yield: math.NaN(), SourceCountry: "europe"},
	}

	out, err := e.WriteObservations(obs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "csv", out[0].FileType)
	assert.Equal(t, 2, out[0].Rows)

	records := readCSV(t, out[0].FilePath)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"region", "year", "crop", "area_kha", "production_kt", "yield_t_ha", "source"}, records[0])
	assert.Equal(t, "2.5", records[1][5])
	assert.Equal(t, "", records[2][3], "NaN serializes as an empty cell")
}

func TestWriteDroughtSeriesPivot(t *testing.T) {
	e := testExporter(t, "csv")
	indicators := []model.DroughtIndicator{
		{RegionID: "FR2", Year: 2000, Window: "6_months-APR_SEP", Severity: 0.4, Coverage: 1},
		{RegionID: "FR2", Year: 2001, Window: "6_months-APR_SEP", Severity: 0.1, Coverage: 1},
		{RegionID: "ES1", Year: 2000, Window: "6_months-APR_SEP", Severity: math.NaN(), Coverage: 0}, // null
	}

	out, err := e.WriteDroughtSeries(indicators)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "drought_series-6_months-APR_SEP.csv", filepath.Base(out[0].FilePath))

	records := readCSV(t, out[0].FilePath)
	require.Len(t, records, 3, "header plus one row per year")
	assert.Equal(t, []string{"year", "ES1", "FR2"}, records[0])
	assert.Equal(t, []string{"2000", "", "0.4"}, records[1], "null indicator leaves its cell empty")
	assert.Equal(t, []string{"2001", "", "0.1"}, records[2], "missing key is likewise empty")
}

func TestWriteAnomaliesJSONWithMissingValues(t *testing.T) {
	e := testExporter(t, "json")
	anoms := []model.YieldAnomaly{
		{RegionID: "FR2", Year: 2003, Crop: "wheat", Anomaly: -1.2, Valid: true},
		{RegionID: "FR2", Year: 2004, Crop: "wheat", Anomaly: math.NaN()},
	}

	out, err := e.WriteAnomalies(anoms)
	require.NoError(t, err, "a missing anomaly must not break the JSON writer")
	require.Len(t, out, 1)
	assert.Equal(t, "json", out[0].FileType)

	raw, err := os.ReadFile(out[0].FilePath)
	require.NoError(t, err)
	var doc struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Data, 2)
	assert.Equal(t, -1.2, doc.Data[0]["anomaly"])
	assert.Nil(t, doc.Data[1]["anomaly"], "NaN lands in the file as null")
}

func TestWriteCorrelationFormats(t *testing.T) {
	e := testExporter(t, "csv", "json")
	results := []model.CorrelationResult{
		{RegionID: "ALL", THSWA: 0.1, THYA: -0.67, Hits: 4, CorrectNegs: 6, HitRate: 1, MCC: 1, PearsonR: -0.7, Pairs: 10},
	}
	report := model.ExclusionReport{
		AnomalyOnly: []model.JoinKey{{RegionID: "FR2", Year: 2002}},
		Count:       1,
	}

	out, err := e.WriteCorrelation(results, report)
	require.NoError(t, err)
	// results and exclusions, each in two formats
	require.Len(t, out, 4)

	types := map[string]int{}
	for _, r := range out {
		types[r.FileType]++
	}
	assert.Equal(t, 2, types["csv"])
	assert.Equal(t, 2, types["json"])

	records := readCSV(t, out[2].FilePath)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"anomaly_only", "FR2", "2002"}, records[1])
}

func TestFmtFloat(t *testing.T) {
	assert.Equal(t, "", fmtFloat(math.NaN()))
	assert.Equal(t, "-0.67", fmtFloat(-0.67))
	assert.Equal(t, "0", fmtFloat(0))
}
