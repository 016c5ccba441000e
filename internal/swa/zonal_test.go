package swa

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swa-yield-pipeline/internal/model"
)

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

// 2x2 unit-cell grid covering [0,2]x[0,2]
func testCells() []geom.Polygonal {
	return []geom.Polygonal{
		&geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}},
		&geom.Bounds{Min: geom.Point{X: 1, Y: 0}, Max: geom.Point{X: 2, Y: 1}},
		&geom.Bounds{Min: geom.Point{X: 0, Y: 1}, Max: geom.Point{X: 1, Y: 2}},
		&geom.Bounds{Min: geom.Point{X: 1, Y: 1}, Max: geom.Point{X: 2, Y: 2}},
	}
}

func TestZonalFullDrought(t *testing.T) {
	idx := NewZonalIndex(testCells(), []float64{1, 1, 1, 1}, []float64{1, 1, 1, 1})
	zs := idx.Zonal(square(0, 0, 2, 2))

	require.False(t, zs.IsNull())
	assert.InDelta(t, 1.0, zs.Severity, 1e-9)
	assert.InDelta(t, 1.0, zs.Coverage, 1e-9)
}

func TestZonalPartialDrought(t *testing.T) {
	// two of four cells in drought, uniform arable weight
	idx := NewZonalIndex(testCells(), []float64{1, 0, 1, 0}, []float64{1, 1, 1, 1})
	zs := idx.Zonal(square(0, 0, 2, 2))

	require.False(t, zs.IsNull())
	assert.InDelta(t, 0.5, zs.Severity, 1e-9)
}

func TestZonalArableWeighting(t *testing.T) {
	// drought only over the half-arable cells
	idx := NewZonalIndex(testCells(), []float64{1, 1, 0, 0}, []float64{0.5, 0.5, 1, 1})
	zs := idx.Zonal(square(0, 0, 2, 2))

	require.False(t, zs.IsNull())
	// (1·0.5 + 1·0.5 + 0 + 0) / 4 cells
	assert.InDelta(t, 0.25, zs.Severity, 1e-9)
	assert.InDelta(t, 0.75, zs.Coverage, 1e-9)
}

func TestZonalNoArableCoverageIsNull(t *testing.T) {
	// full drought signal but zero arable weight everywhere: the region has
	// no cropland, so the indicator must be null, not "no drought"
	idx := NewZonalIndex(testCells(), []float64{1, 1, 1, 1}, []float64{0, 0, 0, 0})
	zs := idx.Zonal(square(0, 0, 2, 2))

	assert.True(t, zs.IsNull())
	assert.Equal(t, 0.0, zs.Coverage)
	assert.True(t, math.IsNaN(zs.Severity))
}

func TestZonalNoDataIsNull(t *testing.T) {
	// all cells NaN: nothing is indexed
	nan := math.NaN()
	idx := NewZonalIndex(testCells(), []float64{nan, nan, nan, nan}, []float64{1, 1, 1, 1})
	zs := idx.Zonal(square(0, 0, 2, 2))

	assert.True(t, zs.IsNull())
}

func TestZonalDisjointRegionIsNull(t *testing.T) {
	idx := NewZonalIndex(testCells(), []float64{1, 1, 1, 1}, []float64{1, 1, 1, 1})
	zs := idx.Zonal(square(10, 10, 12, 12))

	assert.True(t, zs.IsNull())
}

func TestRegridWeights(t *testing.T) {
	// one coarse mask cell with weight 0.5 over the whole 2x2 target
	mask := &Grid{
		Cells:  []geom.Polygonal{&geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 2, Y: 2}}},
		Values: []float64{0.5},
	}
	weights := RegridWeights(mask, testCells())
	require.Len(t, weights, 4)
	for _, w := range weights {
		assert.InDelta(t, 0.5, w, 1e-9)
	}
}

func TestIndicatorFlagging(t *testing.T) {
	d := &Detector{flagTh: model.DefaultSWAThreshold}

	ind := d.indicator("FR2", 2003, "6_months-APR_SEP", ZonalStats{Severity: 0.4, Coverage: 0.9})
	assert.True(t, ind.IsDrought)

	ind = d.indicator("FR2", 2004, "6_months-APR_SEP", ZonalStats{Severity: 0.05, Coverage: 0.9})
	assert.False(t, ind.IsDrought)

	ind = d.indicator("FR2", 2005, "6_months-APR_SEP", ZonalStats{Severity: math.NaN(), Coverage: 0})
	assert.True(t, ind.IsNull())
	assert.False(t, ind.IsDrought, "null indicators never claim drought either way")
}

func TestAggregateMergesSubcodes(t *testing.T) {
	d := &Detector{
		flagTh: model.DefaultSWAThreshold,
		shapes: []RegionShape{
			{ID: "ES3", Geom: square(0, 0, 1, 1)},  // area 1
			{ID: "ES4", Geom: square(0, 0, 3, 3)},  // area 9
			{ID: "ITC", Geom: square(5, 5, 6, 6)},  // unaggregated
		},
	}
	in := []model.DroughtIndicator{
		{RegionID: "ES3", Year: 2003, Window: "6_months-APR_SEP", Severity: 1.0, Coverage: 1},
		{RegionID: "ES4", Year: 2003, Window: "6_months-APR_SEP", Severity: 0.0, Coverage: 1},
		{RegionID: "ITC", Year: 2003, Window: "6_months-APR_SEP", Severity: 0.3, Coverage: 1},
	}
	out := d.aggregate(in)
	require.Len(t, out, 2)

	byID := map[string]model.DroughtIndicator{}
	for _, ind := range out {
		byID[ind.RegionID] = ind
	}
	require.Contains(t, byID, "ES3+4")
	assert.InDelta(t, 0.1, byID["ES3+4"].Severity, 1e-9, "area-weighted merge: (1·1 + 0·9)/10")
	assert.InDelta(t, 0.3, byID["ITC"].Severity, 1e-9)
}
