package swa

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/internal/regions"
	"swa-yield-pipeline/pkg/utils"
)

// Detector computes per-region drought indicators from monthly SWA grids
// restricted to the arable mask.
type Detector struct {
	cfg    model.SWAConfig
	flagTh float64 // severity level at which IsDrought is set

	shapes []RegionShape
	mask   *Grid

	mu      sync.Mutex
	weights []float64 // mask regridded onto the monthly grid cells
}

// NewDetector loads the boundary shapefile and arable mask. Both are
// required inputs; a run cannot proceed without them.
func NewDetector(cfg model.SWAConfig, flagTh float64) (*Detector, error) {
	shapes, err := ReadRegions(cfg.BoundaryShapefile, cfg.IDField)
	if err != nil {
		return nil, err
	}
	mask, err := ReadArableMask(cfg.ArableMaskPath)
	if err != nil {
		return nil, err
	}
	mapped := resolveShapeIDs(shapes)
	fmt.Printf("📄 Loaded %d region polygons (%d keys mapped to registry codes) and a %d-cell arable mask\n",
		len(shapes), mapped, len(mask.Cells))
	return &Detector{cfg: cfg, flagTh: flagTh, shapes: shapes, mask: mask}, nil
}

// resolveShapeIDs translates boundary-file attribute values (FIPS codes,
// boundary name variants) to registry codes, so indicators join the anomaly
// table on the standard vocabulary. NUTS subcodes have no registry entry and
// pass through untouched; aggregation merges them later.
func resolveShapeIDs(shapes []RegionShape) int {
	mapped := 0
	for i, s := range shapes {
		if code, ok := regions.CodeForGeometryKey(s.ID); ok && code != s.ID {
			shapes[i].ID = code
			mapped++
		}
	}
	return mapped
}

// cellWeights returns the arable weights aligned to the monthly grid,
// regridding the mask on first use. All monthly grids share one geometry.
func (d *Detector) cellWeights(grid *Grid) []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.weights == nil || len(d.weights) != len(grid.Cells) {
		d.weights = RegridWeights(d.mask, grid.Cells)
	}
	return d.weights
}

// ------------------- SINGLE MONTH -------------------

// Month computes indicators for one calendar month: a cell is in drought
// when its SWA anomaly is below the detection threshold, and the binary is
// averaged over each region under the arable mask.
func (d *Detector) Month(year, month int) ([]model.DroughtIndicator, error) {
	grid, err := ReadGrid(SWAPath(d.cfg.RasterDir, year, month), varSWA)
	if err != nil {
		return nil, err
	}

	binary := make([]float64, len(grid.Values))
	for i, v := range grid.Values {
		switch {
		case math.IsNaN(v):
			binary[i] = math.NaN()
		case v < *d.cfg.DetectionThreshold:
			binary[i] = 1
		default:
			binary[i] = 0
		}
	}

	idx := NewZonalIndex(grid.Cells, binary, d.cellWeights(grid))
	window := fmt.Sprintf("single-%s", utils.MonthStr(month))

	out := make([]model.DroughtIndicator, 0, len(d.shapes))
	for _, shape := range d.shapes {
		zs := idx.Zonal(shape.Geom)
		out = append(out, d.indicator(shape.ID, year, window, zs))
	}
	return d.aggregate(out), nil
}

func (d *Detector) indicator(regionID string, year int, window string, zs ZonalStats) model.DroughtIndicator {
	ind := model.DroughtIndicator{
		RegionID: regionID,
		Year:     year,
		Window:   window,
		Severity: zs.Severity,
		Coverage: zs.Coverage,
	}
	if !ind.IsNull() {
		ind.IsDrought = ind.Severity >= d.flagTh
	}
	return ind
}

// ------------------- PERIOD MEAN -------------------

// Period averages the monthly severities of one year over the configured
// growing-season window. Months without data for a region are skipped; a
// region null in every month stays null.
func (d *Detector) Period(year int) ([]model.DroughtIndicator, error) {
	type acc struct {
		sevSum, covSum float64
		months         int
	}
	accs := make(map[string]*acc)
	var order []string

	for month := d.cfg.MonthStart; month <= d.cfg.MonthEnd; month++ {
		monthly, err := d.Month(year, month)
		if err != nil {
			return nil, err
		}
		for _, ind := range monthly {
			a, ok := accs[ind.RegionID]
			if !ok {
				a = &acc{}
				accs[ind.RegionID] = a
				order = append(order, ind.RegionID)
			}
			if ind.IsNull() {
				continue
			}
			a.sevSum += ind.Severity
			a.covSum += ind.Coverage
			a.months++
		}
	}

	window := utils.PeriodStr(d.cfg.MonthStart, d.cfg.MonthEnd)
	out := make([]model.DroughtIndicator, 0, len(order))
	for _, id := range order {
		a := accs[id]
		zs := ZonalStats{Severity: math.NaN(), Coverage: 0}
		if a.months > 0 {
			zs = ZonalStats{
				Severity: a.sevSum / float64(a.months),
				Coverage: a.covSum / float64(a.months),
			}
		}
		out = append(out, d.indicator(id, year, window, zs))
	}
	return out, nil
}

// ------------------- TIMESERIES STAGE -------------------

// Run streams period indicators over a year range with a worker pool, one
// year per job. A year whose rasters are missing fails that year only.
func (d *Detector) Run(ctx context.Context, years model.YearRange, workers int, out chan<- model.DroughtIndicator, errs chan<- model.ErrorDetail) {
	fmt.Printf("🔄 Drought stage starting with %d workers for years %d-%d\n", workers, years.Start, years.End)

	jobs := make(chan int, years.End-years.Start+1)
	for year := years.Start; year <= years.End; year++ {
		jobs <- year
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for year := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				indicators, err := d.Period(year)
				if err != nil {
					fmt.Printf("❌ Worker %d failed drought year %d: %v\n", workerID, year, err)
					errs <- model.ErrorDetail{
						ID:        uuid.New().String(),
						Stage:     "drought",
						ErrorType: "raster_read_failed",
						Message:   err.Error(),
						Context:   map[string]interface{}{"year": year},
						Timestamp: time.Now(),
						Severity:  "error",
					}
					continue
				}
				for _, ind := range indicators {
					select {
					case out <- ind:
					case <-ctx.Done():
						return
					}
				}
				fmt.Printf("✅ Worker %d computed drought indicators for %d (%d regions)\n", workerID, year, len(indicators))
			}
		}(w)
	}

	wg.Wait()
	close(out)
	fmt.Printf("🏁 Drought stage complete\n")
}

// ------------------- NUTS AGGREGATION -------------------

// aggregate merges boundary subcodes into their analysis regions
// (area-weighted), leaving IDs without a mapping untouched. Null members
// contribute nothing; an aggregate with only null members stays null.
func (d *Detector) aggregate(indicators []model.DroughtIndicator) []model.DroughtIndicator {
	areas := make(map[string]float64, len(d.shapes))
	for _, s := range d.shapes {
		areas[s.ID] = s.Geom.Area()
	}

	type acc struct {
		sevSum, covSum, area float64
		year                 int
		window               string
	}
	accs := make(map[string]*acc)
	var order []string

	for _, ind := range indicators {
		target, ok := regions.AggregateNUTS(ind.RegionID)
		if !ok {
			target = ind.RegionID
		}
		a, seen := accs[target]
		if !seen {
			a = &acc{year: ind.Year, window: ind.Window}
			accs[target] = a
			order = append(order, target)
		}
		if ind.IsNull() {
			continue
		}
		w := areas[ind.RegionID]
		if w <= 0 {
			w = 1
		}
		a.sevSum += ind.Severity * w
		a.covSum += ind.Coverage * w
		a.area += w
	}

	sort.Strings(order)
	out := make([]model.DroughtIndicator, 0, len(order))
	for _, id := range order {
		a := accs[id]
		zs := ZonalStats{Severity: math.NaN(), Coverage: 0}
		if a.area > 0 {
			zs = ZonalStats{Severity: a.sevSum / a.area, Coverage: a.covSum / a.area}
		}
		out = append(out, d.indicator(id, a.year, a.window, zs))
	}
	return out
}
