package swa

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// ZonalStats is the arable-weighted drought statistic of one region.
type ZonalStats struct {
	Severity float64 // area-weighted mean of drought × arable weight, NaN when null
	Coverage float64 // arable-weighted area fraction with raster data
}

// IsNull reports a region without usable signal: no intersecting data cells
// or zero arable weight under them.
func (z ZonalStats) IsNull() bool {
	return z.Coverage == 0 || math.IsNaN(z.Severity)
}

type indexedCell struct {
	geom.Polygonal
	value  float64
	weight float64
}

// ZonalIndex is an r-tree over raster cells carrying a value and an arable
// weight, reused across regions and months of the same grid geometry.
type ZonalIndex struct {
	tree *rtree.Rtree
}

// NewZonalIndex indexes the cells of a grid with their per-cell values and
// arable weights. Cells whose value is NaN carry no data and are skipped.
func NewZonalIndex(cells []geom.Polygonal, values, weights []float64) *ZonalIndex {
	tree := rtree.NewTree(25, 50)
	for i, c := range cells {
		if math.IsNaN(values[i]) || math.IsNaN(weights[i]) {
			continue
		}
		tree.Insert(&indexedCell{Polygonal: c, value: values[i], weight: weights[i]})
	}
	return &ZonalIndex{tree: tree}
}

// Zonal computes the arable-weighted drought fraction of one region: the
// area-weighted mean of (value × weight) over the intersecting data cells.
// Zero-weight cells still count toward the mean's denominator; only the
// total arable weight decides nullness.
func (zi *ZonalIndex) Zonal(region geom.Polygonal) ZonalStats {
	var (
		weightedSum float64 // Σ value·weight·area
		dataArea    float64 // Σ area of data cells
		arableArea  float64 // Σ weight·area of data cells
	)
	for _, item := range zi.tree.SearchIntersect(region.Bounds()) {
		cell := item.(*indexedCell)
		isect := region.Intersection(cell.Polygonal)
		if isect == nil {
			continue
		}
		a := isect.Area()
		if a <= 0 {
			continue
		}
		weightedSum += cell.value * cell.weight * a
		arableArea += cell.weight * a
		dataArea += a
	}

	regionArea := region.Area()
	if dataArea == 0 || arableArea == 0 || regionArea == 0 {
		return ZonalStats{Severity: math.NaN(), Coverage: 0}
	}
	return ZonalStats{
		Severity: weightedSum / dataArea,
		Coverage: arableArea / regionArea,
	}
}

// RegridWeights transfers a weight grid onto target cells by area-weighted
// mean, for masks delivered on a different grid than the monthly rasters.
func RegridWeights(mask *Grid, target []geom.Polygonal) []float64 {
	tree := rtree.NewTree(25, 50)
	for i, c := range mask.Cells {
		if math.IsNaN(mask.Values[i]) {
			continue
		}
		tree.Insert(&indexedCell{Polygonal: c, value: mask.Values[i], weight: 1})
	}

	out := make([]float64, len(target))
	for i, g := range target {
		var sum, area float64
		for _, item := range tree.SearchIntersect(g.Bounds()) {
			cell := item.(*indexedCell)
			isect := g.Intersection(cell.Polygonal)
			if isect == nil {
				continue
			}
			a := isect.Area()
			sum += cell.value * a
			area += a
		}
		if area == 0 {
			out[i] = 0
			continue
		}
		out[i] = sum / area
	}
	return out
}
