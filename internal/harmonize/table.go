package harmonize

import (
	"math"
	"sort"
)

type cellKey struct {
	year   int
	region string
}

// Table is a year × region value matrix with NaN gaps. Region keys are the
// raw source labels; resolution against the registry happens later so that
// unmappable labels can be reported with their original spelling.
type Table struct {
	years   map[int]struct{}
	regions []string
	seen    map[string]struct{}
	cells   map[cellKey]float64
}

func NewTable() *Table {
	return &Table{
		years: make(map[int]struct{}),
		seen:  make(map[string]struct{}),
		cells: make(map[cellKey]float64),
	}
}

// Set stores a value, overwriting any previous cell.
func (t *Table) Set(year int, region string, v float64) {
	t.touch(year, region)
	t.cells[cellKey{year, region}] = v
}

// Add accumulates into a cell. Sources with duplicate (year, region) rows
// (Argentina reports per-department) are summed, NaN treated as absent.
func (t *Table) Add(year int, region string, v float64) {
	t.touch(year, region)
	if math.IsNaN(v) {
		if _, ok := t.cells[cellKey{year, region}]; !ok {
			t.cells[cellKey{year, region}] = math.NaN()
		}
		return
	}
	cur, ok := t.cells[cellKey{year, region}]
	if !ok || math.IsNaN(cur) {
		t.cells[cellKey{year, region}] = v
		return
	}
	t.cells[cellKey{year, region}] = cur + v
}

func (t *Table) touch(year int, region string) {
	t.years[year] = struct{}{}
	if _, ok := t.seen[region]; !ok {
		t.seen[region] = struct{}{}
		t.regions = append(t.regions, region)
	}
}

// Get returns the cell value, NaN when absent.
func (t *Table) Get(year int, region string) float64 {
	if v, ok := t.cells[cellKey{year, region}]; ok {
		return v
	}
	return math.NaN()
}

// Years returns the observed years in ascending order.
func (t *Table) Years() []int {
	ys := make([]int, 0, len(t.years))
	for y := range t.years {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	return ys
}

// Regions returns the region labels in first-seen order.
func (t *Table) Regions() []string {
	return t.regions
}

// Len returns the number of populated cells.
func (t *Table) Len() int {
	return len(t.cells)
}
