package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"swa-yield-pipeline/internal/model"
)

// ------------------- SERIES GROUPING -------------------

type seriesKey struct {
	regionID string
	crop     string
}

// Compute turns harmonized observations into standardized yield anomalies.
// Observations are grouped into per-(region, crop) series over the configured
// year axis, detrended with the configured reference and standardized.
// Series with too many gaps are emitted with Valid=false and otherwise
// skipped. The transform is pure: same observations, same anomalies.
func Compute(observations []model.YieldObservation, cfg model.AnomalyConfig, years model.YearRange) []model.YieldAnomaly {
	groups := make(map[seriesKey]map[int]float64)
	for _, o := range observations {
		k := seriesKey{o.RegionID, o.Crop}
		if groups[k] == nil {
			groups[k] = make(map[int]float64)
		}
		groups[k][o.Year] = o.Yield
	}

	keys := make([]seriesKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].regionID != keys[j].regionID {
			return keys[i].regionID < keys[j].regionID
		}
		return keys[i].crop < keys[j].crop
	})

	n := years.End - years.Start + 1
	var out []model.YieldAnomaly
	for _, k := range keys {
		series := make([]float64, n)
		for i := range series {
			series[i] = math.NaN()
		}
		for year, y := range groups[k] {
			if years.Contains(year) {
				series[year-years.Start] = y
			}
		}

		gaps := 0
		for _, v := range series {
			if math.IsNaN(v) {
				gaps++
			}
		}
		if float64(gaps)/float64(n) >= cfg.MaxGapFraction {
			for year := range groups[k] {
				if years.Contains(year) {
					out = append(out, model.YieldAnomaly{
						RegionID: k.regionID, Year: year, Crop: k.crop,
						Anomaly: math.NaN(), Valid: false,
					})
				}
			}
			continue
		}

		anoms := zscore(detrend(series, cfg))
		for i, a := range anoms {
			if math.IsNaN(series[i]) {
				continue
			}
			out = append(out, model.YieldAnomaly{
				RegionID: k.regionID, Year: years.Start + i, Crop: k.crop,
				Anomaly: a, Valid: true,
			})
		}
	}
	return out
}

// ------------------- DETRENDING -------------------

// detrend returns residuals of the series against the configured reference.
func detrend(series []float64, cfg model.AnomalyConfig) []float64 {
	switch cfg.Reference {
	case "mean":
		m := nanMean(series)
		return residuals(series, func(int) float64 { return m })
	case "linear":
		a, b := linearFit(series)
		return residuals(series, func(i int) float64 { return a + b*float64(i) })
	default: // smooth
		trend := smoothTrend(series, cfg.SmoothWindow)
		return residuals(series, func(i int) float64 { return trend[i] })
	}
}

func residuals(series []float64, ref func(int) float64) []float64 {
	res := make([]float64, len(series))
	for i, v := range series {
		if math.IsNaN(v) {
			res[i] = math.NaN()
			continue
		}
		res[i] = v - ref(i)
	}
	return res
}

// smoothTrend fits a centered moving-average trend. The series is mirror
// padded at both ends and interior gaps are linearly interpolated before
// smoothing, so the trend is defined everywhere the data is; positions that
// were gaps stay NaN in the result.
func smoothTrend(series []float64, window int) []float64 {
	n := len(series)
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}

	padded := mirrorPad(series)
	interpolate(padded)

	half := window / 2
	smoothed := make([]float64, len(padded))
	for i := range padded {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi > len(padded)-1 {
			hi = len(padded) - 1
		}
		sum, count := 0.0, 0
		for j := lo; j <= hi; j++ {
			if !math.IsNaN(padded[j]) {
				sum += padded[j]
				count++
			}
		}
		if count == 0 {
			smoothed[i] = math.NaN()
			continue
		}
		smoothed[i] = sum / float64(count)
	}

	trend := make([]float64, n)
	copy(trend, smoothed[n:2*n])
	for i, v := range series {
		if math.IsNaN(v) {
			trend[i] = math.NaN()
		}
	}
	return trend
}

// mirrorPad returns reverse(s) + s + reverse(s).
func mirrorPad(s []float64) []float64 {
	n := len(s)
	out := make([]float64, 0, 3*n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, s[i])
	}
	out = append(out, s...)
	for i := n - 1; i >= 0; i-- {
		out = append(out, s[i])
	}
	return out
}

// interpolate fills NaN gaps in place, linearly between known neighbours and
// extrapolating from the nearest pair at the ends.
func interpolate(s []float64) {
	var known []int
	for i, v := range s {
		if !math.IsNaN(v) {
			known = append(known, i)
		}
	}
	if len(known) == 0 {
		return
	}
	if len(known) == 1 {
		for i := range s {
			s[i] = s[known[0]]
		}
		return
	}
	for i := range s {
		if !math.IsNaN(s[i]) {
			continue
		}
		// nearest known neighbours, extrapolating past the ends
		pos := sort.SearchInts(known, i)
		var i0, i1 int
		switch {
		case pos == 0:
			i0, i1 = known[0], known[1]
		case pos >= len(known):
			i0, i1 = known[len(known)-2], known[len(known)-1]
		default:
			i0, i1 = known[pos-1], known[pos]
		}
		slope := (s[i1] - s[i0]) / float64(i1-i0)
		s[i] = s[i0] + slope*float64(i-i0)
	}
}

// linearFit returns intercept and slope of a least-squares line over the
// non-missing points.
func linearFit(series []float64) (a, b float64) {
	var pts []stats.Coordinate
	for i, v := range series {
		if !math.IsNaN(v) {
			pts = append(pts, stats.Coordinate{X: float64(i), Y: v})
		}
	}
	if len(pts) < 2 {
		return nanMean(series), 0
	}
	reg, err := stats.LinearRegression(pts)
	if err != nil || len(reg) < 2 {
		return nanMean(series), 0
	}
	b = (reg[len(reg)-1].Y - reg[0].Y) / (reg[len(reg)-1].X - reg[0].X)
	a = reg[0].Y - b*reg[0].X
	return a, b
}

// ------------------- STANDARDIZATION -------------------

// zscore standardizes residuals ignoring gaps (population stddev).
func zscore(res []float64) []float64 {
	valid := dropNaN(res)
	out := make([]float64, len(res))
	if len(valid) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	mean, _ := stats.Mean(valid)
	std, err := stats.StandardDeviationPopulation(valid)
	if err != nil || std == 0 {
		std = math.NaN()
	}
	for i, v := range res {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v - mean) / std
	}
	return out
}

func nanMean(s []float64) float64 {
	valid := dropNaN(s)
	if len(valid) == 0 {
		return math.NaN()
	}
	m, _ := stats.Mean(valid)
	return m
}

func dropNaN(s []float64) stats.Float64Data {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Describe names the configured reference for logs and artifact metadata.
func Describe(cfg model.AnomalyConfig) string {
	if cfg.Reference == "smooth" {
		return fmt.Sprintf("smooth(window=%d)", cfg.SmoothWindow)
	}
	return cfg.Reference
}
