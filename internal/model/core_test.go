package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaultsFillsThresholds(t *testing.T) {
	var spec AnalysisJobSpec
	spec.ApplyDefaults()

	require.NotNil(t, spec.SWA.DetectionThreshold)
	assert.Equal(t, DefaultDetectionThreshold, *spec.SWA.DetectionThreshold)
	require.NotNil(t, spec.Correlation.THSWA)
	assert.Equal(t, DefaultSWAThreshold, *spec.Correlation.THSWA)
	require.NotNil(t, spec.Correlation.THYA)
	assert.Equal(t, DefaultYieldThreshold, *spec.Correlation.THYA)
}

func TestApplyDefaultsKeepsExplicitZero(t *testing.T) {
	raw := []byte(`{"swa":{"detectionThreshold":0},"correlation":{"thSwa":0,"thYa":0}}`)
	var spec AnalysisJobSpec
	require.NoError(t, json.Unmarshal(raw, &spec))
	spec.ApplyDefaults()

	assert.Zero(t, *spec.SWA.DetectionThreshold, "an explicit zero threshold is not a default")
	assert.Zero(t, *spec.Correlation.THSWA)
	assert.Zero(t, *spec.Correlation.THYA)
}

func TestYearRangeContains(t *testing.T) {
	r := YearRange{Start: 1991, End: 2023}
	assert.True(t, r.Contains(1991))
	assert.True(t, r.Contains(2023))
	assert.False(t, r.Contains(1990))
	assert.False(t, r.Contains(2024))
}
