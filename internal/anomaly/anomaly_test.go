package anomaly

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swa-yield-pipeline/internal/model"
)

func makeObservations(regionID string, years model.YearRange, yields []float64) []model.YieldObservation {
	obs := make([]model.YieldObservation, 0, len(yields))
	for i, y := range yields {
		obs = append(obs, model.YieldObservation{
			RegionID: regionID,
			Year:     years.Start + i,
			Crop:     "wheat",
			Yield:    y,
		})
	}
	return obs
}

func TestComputeMeanReference(t *testing.T) {
	years := model.YearRange{Start: 2000, End: 2004}
	obs := makeObservations("CA-SK", years, []float64{2, 4, 2, 4, 3})
	cfg := model.AnomalyConfig{Reference: "mean", MaxGapFraction: 0.35}

	anoms := Compute(obs, cfg, years)
	require.Len(t, anoms, 5)

	sum := 0.0
	for _, a := range anoms {
		require.True(t, a.Valid)
		sum += a.Anomaly
	}
	assert.InDelta(t, 0, sum, 1e-9, "standardized anomalies are centered")

	// the two low years get the same negative anomaly
	assert.InDelta(t, anoms[0].Anomaly, anoms[2].Anomaly, 1e-9)
	assert.Less(t, anoms[0].Anomaly, 0.0)
}

func TestComputeIsDeterministic(t *testing.T) {
	years := model.YearRange{Start: 2000, End: 2009}
	obs := makeObservations("FR2", years, []float64{5, 5.5, 4.8, 6, 5.2, 5.9, 4.1, 5.5, 6.2, 5.0})
	cfg := model.AnomalyConfig{Reference: "smooth", SmoothWindow: 7, MaxGapFraction: 0.35}

	first := Compute(obs, cfg, years)
	second := Compute(obs, cfg, years)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].RegionID, second[i].RegionID)
		assert.Equal(t, first[i].Year, second[i].Year)
		assert.InDelta(t, first[i].Anomaly, second[i].Anomaly, 1e-12)
	}
}

func TestComputeSkipsGappySeries(t *testing.T) {
	years := model.YearRange{Start: 2000, End: 2009}
	yields := []float64{2, math.NaN(), math.NaN(), math.NaN(), 3, math.NaN(), 2.5, math.NaN(), math.NaN(), 2.8}
	obs := makeObservations("CN-GS", years, yields)
	cfg := model.AnomalyConfig{Reference: "smooth", SmoothWindow: 7, MaxGapFraction: 0.35}

	anoms := Compute(obs, cfg, years)
	require.NotEmpty(t, anoms)
	for _, a := range anoms {
		assert.False(t, a.Valid, "6/10 gaps exceeds the 35%% limit")
		assert.True(t, math.IsNaN(a.Anomaly))
	}
}

func TestComputeInterpolatesSmallGaps(t *testing.T) {
	years := model.YearRange{Start: 2000, End: 2009}
	yields := []float64{5, 5.2, math.NaN(), 5.6, 5.1, 5.8, 5.3, 5.4, math.NaN(), 5.5}
	obs := makeObservations("US-KS", years, yields)
	cfg := model.AnomalyConfig{Reference: "smooth", SmoothWindow: 7, MaxGapFraction: 0.35}

	anoms := Compute(obs, cfg, years)
	require.Len(t, anoms, 8, "gap years produce no anomaly rows")
	for _, a := range anoms {
		assert.True(t, a.Valid)
		assert.False(t, math.IsNaN(a.Anomaly))
		assert.NotEqual(t, 2002, a.Year)
		assert.NotEqual(t, 2008, a.Year)
	}
}

func TestLinearReferenceRemovesTrend(t *testing.T) {
	years := model.YearRange{Start: 2000, End: 2009}
	// strictly increasing trend with one dip
	yields := []float64{1, 2, 3, 4, 1, 6, 7, 8, 9, 10}
	obs := makeObservations("DE1", years, yields)
	cfg := model.AnomalyConfig{Reference: "linear", MaxGapFraction: 0.35}

	anoms := Compute(obs, cfg, years)
	require.Len(t, anoms, 10)

	var dip model.YieldAnomaly
	for _, a := range anoms {
		if a.Year == 2004 {
			dip = a
		}
	}
	assert.Less(t, dip.Anomaly, -1.0, "the dip year stands out once the trend is removed")
}

func TestMirrorPad(t *testing.T) {
	padded := mirrorPad([]float64{1, 2, 3})
	assert.Equal(t, []float64{3, 2, 1, 1, 2, 3, 3, 2, 1}, padded)
}

func TestInterpolate(t *testing.T) {
	s := []float64{1, math.NaN(), 3, math.NaN(), math.NaN(), 9}
	interpolate(s)
	assert.InDelta(t, 2, s[1], 1e-9)
	assert.InDelta(t, 5, s[3], 1e-9)
	assert.InDelta(t, 7, s[4], 1e-9)

	// extrapolation at the ends
	e := []float64{math.NaN(), 2, 4, math.NaN()}
	interpolate(e)
	assert.InDelta(t, 0, e[0], 1e-9)
	assert.InDelta(t, 6, e[3], 1e-9)
}
