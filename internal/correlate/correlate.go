package correlate

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"swa-yield-pipeline/internal/model"
)

// PooledRegion labels the all-regions row of the result table.
const PooledRegion = "ALL"

// Pair is one matched (region, year) observation: continuous drought
// severity against continuous yield anomaly.
type Pair struct {
	RegionID string
	Year     int
	Severity float64
	Anomaly  float64
}

// ------------------- JOIN -------------------

// Join inner-joins anomalies and drought indicators on (region, year).
// Invalid anomalies and null indicators are excluded before joining; keys
// present on exactly one side land in the exclusion report, whose count is
// |A ∪ B| − |A ∩ B|.
func Join(anomalies []model.YieldAnomaly, indicators []model.DroughtIndicator) ([]Pair, model.ExclusionReport) {
	anomalyByKey := make(map[model.JoinKey][]float64)
	for _, a := range anomalies {
		if !a.Valid || math.IsNaN(a.Anomaly) {
			continue
		}
		k := model.JoinKey{RegionID: a.RegionID, Year: a.Year}
		anomalyByKey[k] = append(anomalyByKey[k], a.Anomaly)
	}

	droughtByKey := make(map[model.JoinKey]float64)
	for _, d := range indicators {
		if d.IsNull() {
			continue
		}
		droughtByKey[model.JoinKey{RegionID: d.RegionID, Year: d.Year}] = d.Severity
	}

	var (
		pairs  []Pair
		report model.ExclusionReport
	)
	for k, anoms := range anomalyByKey {
		sev, ok := droughtByKey[k]
		if !ok {
			report.AnomalyOnly = append(report.AnomalyOnly, k)
			continue
		}
		// several crops on one key average into a single anomaly
		sum := 0.0
		for _, a := range anoms {
			sum += a
		}
		pairs = append(pairs, Pair{
			RegionID: k.RegionID,
			Year:     k.Year,
			Severity: sev,
			Anomaly:  sum / float64(len(anoms)),
		})
	}
	for k := range droughtByKey {
		if _, ok := anomalyByKey[k]; !ok {
			report.DroughtOnly = append(report.DroughtOnly, k)
		}
	}

	sortKeys(report.AnomalyOnly)
	sortKeys(report.DroughtOnly)
	report.Count = len(report.AnomalyOnly) + len(report.DroughtOnly)

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].RegionID != pairs[j].RegionID {
			return pairs[i].RegionID < pairs[j].RegionID
		}
		return pairs[i].Year < pairs[j].Year
	})
	return pairs, report
}

func sortKeys(keys []model.JoinKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].RegionID != keys[j].RegionID {
			return keys[i].RegionID < keys[j].RegionID
		}
		return keys[i].Year < keys[j].Year
	})
}

// ------------------- AGREEMENT STATISTICS -------------------

// Confusion counts the agreement of binarized drought (Severity >= thSWA)
// against binarized loss (Anomaly <= thYA).
func Confusion(pairs []Pair, thSWA, thYA float64) (hits, misses, falseAlarms, correctNegs int) {
	for _, p := range pairs {
		drought := p.Severity >= thSWA
		loss := p.Anomaly <= thYA
		switch {
		case drought && loss:
			hits++
		case !drought && loss:
			misses++
		case drought && !loss:
			falseAlarms++
		default:
			correctNegs++
		}
	}
	return
}

// MCC computes the Matthews correlation coefficient of a confusion matrix.
// A degenerate marginal gives 0, except when the two sides agree everywhere,
// which is maximal agreement and reports 1.
func MCC(hits, misses, falseAlarms, correctNegs int) float64 {
	tp, fn, fp, tn := float64(hits), float64(misses), float64(falseAlarms), float64(correctNegs)
	total := tp + fn + fp + tn
	if total == 0 {
		return 0
	}
	denom := math.Sqrt((tp + fp) * (tp + fn) * (tn + fp) * (tn + fn))
	if denom == 0 {
		if misses == 0 && falseAlarms == 0 {
			return 1
		}
		return 0
	}
	return (tp*tn - fp*fn) / denom
}

func rate(num, denom int) float64 {
	if denom == 0 {
		return math.NaN()
	}
	return float64(num) / float64(denom)
}

// pearson correlates the continuous severity and anomaly series.
func pearson(pairs []Pair) float64 {
	if len(pairs) < 2 {
		return math.NaN()
	}
	xs := make([]float64, len(pairs))
	ys := make([]float64, len(pairs))
	for i, p := range pairs {
		xs[i], ys[i] = p.Severity, p.Anomaly
	}
	r, err := stats.Pearson(xs, ys)
	if err != nil {
		return math.NaN()
	}
	return r
}

// ------------------- RESULT TABLE -------------------

// Compute sweeps the configured threshold grids over the matched pairs and
// returns one result row per (region, TH_SWA, TH_YA), including the pooled
// "ALL" rows, alongside the exclusion report.
func Compute(anomalies []model.YieldAnomaly, indicators []model.DroughtIndicator, cfg model.CorrelationConfig) ([]model.CorrelationResult, model.ExclusionReport) {
	pairs, report := Join(anomalies, indicators)

	byRegion := map[string][]Pair{PooledRegion: pairs}
	var regionOrder []string
	for _, p := range pairs {
		if _, ok := byRegion[p.RegionID]; !ok {
			regionOrder = append(regionOrder, p.RegionID)
		}
		byRegion[p.RegionID] = append(byRegion[p.RegionID], p)
	}
	sort.Strings(regionOrder)
	regionOrder = append([]string{PooledRegion}, regionOrder...)

	fmt.Printf("📊 Correlating %d matched pairs across %d regions (%d×%d thresholds)\n",
		len(pairs), len(regionOrder)-1, len(cfg.SWAThresholds), len(cfg.YieldThresholds))

	var results []model.CorrelationResult
	for _, region := range regionOrder {
		rp := byRegion[region]
		r := pearson(rp)
		for _, thSWA := range cfg.SWAThresholds {
			for _, thYA := range cfg.YieldThresholds {
				hits, misses, fa, cn := Confusion(rp, thSWA, thYA)
				results = append(results, model.CorrelationResult{
					RegionID:       region,
					THSWA:          thSWA,
					THYA:           thYA,
					Hits:           hits,
					Misses:         misses,
					FalseAlarms:    fa,
					CorrectNegs:    cn,
					HitRate:        rate(hits, hits+misses),
					FalseAlarmRate: rate(fa, fa+cn),
					MCC:            MCC(hits, misses, fa, cn),
					PearsonR:       r,
					Pairs:          len(rp),
				})
			}
		}
	}
	return results, report
}
