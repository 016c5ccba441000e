package utils

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 1234.5, ParseFloat("1,234.5"))
	assert.Equal(t, -0.67, ParseFloat(" -0.67 "))
	assert.True(t, math.IsNaN(ParseFloat("")))
	assert.True(t, math.IsNaN(ParseFloat("n/a")))
}

func TestMonthAndPeriodNames(t *testing.T) {
	assert.Equal(t, "APR", MonthStr(4))
	assert.Equal(t, "SEP", MonthStr(9))
	assert.Equal(t, "2003-04", Date(2003, 4))
	assert.Equal(t, "6_months-APR_SEP", PeriodStr(4, 9))
}

func TestOutputManagerPaths(t *testing.T) {
	om := NewOutputManager(filepath.Join(t.TempDir(), "outputs"))
	require.NoError(t, om.EnsureOutputDirExists())

	path, err := om.GetOutputFilePath("run-1", "../escape/mcc_results.csv")
	require.NoError(t, err)
	assert.Equal(t, "mcc_results.csv", filepath.Base(path), "path separators are stripped from filenames")
	assert.Equal(t, filepath.Join(om.BaseOutputDir, "run-1"), filepath.Dir(path))
}

func TestGetFileType(t *testing.T) {
	om := NewOutputManager("outputs")
	assert.Equal(t, "csv", om.GetFileType("mcc_results.csv"))
	assert.Equal(t, "excel", om.GetFileType("mcc_results.XLSX"))
	assert.Equal(t, "json", om.GetFileType("yield_anomalies.json"))
	assert.Equal(t, "netcdf", om.GetFileType("swa_2003-04.nc"))
	assert.Equal(t, "unknown", om.GetFileType("notes.txt"))
}
