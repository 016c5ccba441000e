package harmonize

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/internal/regions"
)

// ------------------- SOURCE DISPATCH -------------------

// ReadSource parses one raw yield source into production and area tables.
func ReadSource(src model.YieldSource) (prod, area *Table, err error) {
	switch src.Country {
	case "usa":
		return readUSA(src)
	case "china":
		return readChina(src)
	case "india":
		return readIndia(src)
	case "canada":
		return readCanada(src)
	case "argentina":
		return readArgentina(src)
	case "brazil":
		return readBrazil(src)
	case "europe":
		return readEurope(src)
	default:
		return nil, nil, fmt.Errorf("no reader for country %q", src.Country)
	}
}

// splitSeasonCountries label seasons across two calendar years; their readers
// already map labels onto the harvest year, so their observations come out
// pre-shifted.
var splitSeasonCountries = map[string]struct{}{
	"india":     {},
	"argentina": {},
}

// ------------------- OBSERVATION BUILDING -------------------

// BuildObservations resolves source labels against the standard registry,
// derives yields and applies the harvest-year convention. Labels missing from
// the registry are reported and their rows excluded. Uniqueness per
// (region, year, crop) is structural: the tables hold one cell per key, with
// duplicate source rows already resolved by the reader.
func BuildObservations(src model.YieldSource, prod, area *Table, years model.YearRange) ([]model.YieldObservation, []model.ErrorDetail) {
	var (
		obs     []model.YieldObservation
		details []model.ErrorDetail
	)
	_, preShifted := splitSeasonCountries[src.Country]

	for _, label := range prod.Regions() {
		code, err := regions.Resolve(src.Country, label)
		if err != nil {
			detail := model.ErrorDetail{
				ID:        uuid.New().String(),
				Stage:     "harmonize",
				ErrorType: "unmapped_region",
				Message:   err.Error(),
				Source:    src.Country,
				Timestamp: time.Now(),
				Severity:  "warning",
			}
			var unmapped *regions.UnmappedRegionError
			if errors.As(err, &unmapped) {
				detail.Context = map[string]interface{}{"label": unmapped.Label}
			}
			details = append(details, detail)
			continue
		}

		for _, year := range prod.Years() {
			o := model.YieldObservation{
				RegionID:       code,
				Year:           year,
				Crop:           src.Crop,
				Area:           area.Get(year, label),
				Production:     prod.Get(year, label),
				HarvestShifted: preShifted,
				SourceCountry:  src.Country,
			}
			o.ComputeYield()
			ApplyHarvestConvention(&o, 0)
			if !years.Contains(o.Year) {
				continue
			}
			obs = append(obs, o)
		}
	}
	return obs, details
}

// ------------------- HARMONIZE STAGE -------------------

// Run fans the configured sources over a worker pool and streams harmonized
// observations. A malformed source fails that source only: its error goes to
// the error channel and the remaining sources keep flowing.
func Run(ctx context.Context, spec model.AnalysisJobSpec, out chan<- model.YieldObservation, errs chan<- model.ErrorDetail) {
	workerCount := spec.Concurrency.Workers.Harmonize
	fmt.Printf("🔄 Harmonize stage starting with %d workers for %d sources\n", workerCount, len(spec.Sources))

	jobs := make(chan model.YieldSource, len(spec.Sources))
	for _, src := range spec.Sources {
		jobs <- src
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for src := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				prod, area, err := ReadSource(src)
				if err != nil {
					fmt.Printf("❌ Worker %d failed to read %s source: %v\n", workerID, src.Country, err)
					errs <- model.ErrorDetail{
						ID:        uuid.New().String(),
						Stage:     "harmonize",
						ErrorType: "source_read_failed",
						Message:   err.Error(),
						Source:    src.Country,
						Timestamp: time.Now(),
						Severity:  "error",
					}
					continue
				}

				observations, details := BuildObservations(src, prod, area, spec.Years)
				for _, d := range details {
					errs <- d
				}
				for _, o := range observations {
					select {
					case out <- o:
					case <-ctx.Done():
						return
					}
				}
				fmt.Printf("✅ Worker %d harmonized %s: %d observations, %d unmapped labels\n",
					workerID, src.Country, len(observations), len(details))
			}
		}(w)
	}

	wg.Wait()
	close(out)
	fmt.Printf("🏁 Harmonize stage complete\n")
}
