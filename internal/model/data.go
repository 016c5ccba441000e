package model

import "math"

// RegionRecord is one entry of the standard region registry.
// Codes are ISO-3166-2 derived for province-level regions and NUTS codes for
// Europe. GeometryKey is the attribute value that locates the region polygon
// in the boundary shapefile.
type RegionRecord struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	GeometryKey string `json:"geometryKey"`
}

// YieldObservation is one harmonized (region, year, crop) row.
// Area is kha, Production kt, Yield t/ha. Missing values are NaN, never zero.
type YieldObservation struct {
	RegionID       string  `json:"regionId"`
	Year           int     `json:"year"` // harmonized harvest year
	Crop           string  `json:"crop"`
	Area           float64 `json:"area"`
	Production     float64 `json:"production"`
	Yield          float64 `json:"yield"`
	HarvestShifted bool    `json:"harvestShifted"` // set once the harvest-year convention is applied
	SourceCountry  string  `json:"sourceCountry"`
}

// ComputeYield derives Yield = Production / Area, null when Area is
// zero or missing.
func (o *YieldObservation) ComputeYield() {
	if math.IsNaN(o.Area) || o.Area == 0 || math.IsNaN(o.Production) {
		o.Yield = math.NaN()
		return
	}
	o.Yield = o.Production / o.Area
}

// YieldAnomaly is the standardized deviation of one observation from its
// region series reference.
type YieldAnomaly struct {
	RegionID string  `json:"regionId"`
	Year     int     `json:"year"`
	Crop     string  `json:"crop"`
	Anomaly  float64 `json:"anomaly"`
	Valid    bool    `json:"valid"` // false when the series had too many gaps
}

// DroughtIndicator is the arable-weighted drought severity of one region over
// one aggregation window. A region with no arable pixels or no raster
// coverage produces a null indicator: Coverage == 0 and Severity NaN. Null
// indicators are excluded from correlation, they never mean "no drought".
type DroughtIndicator struct {
	RegionID  string  `json:"regionId"`
	Year      int     `json:"year"`
	Window    string  `json:"window"` // e.g. "6_months-APR_SEP" or "single-JUL"
	Severity  float64 `json:"severity"`
	IsDrought bool    `json:"isDrought"`
	Coverage  float64 `json:"coverage"` // arable-weighted fraction with raster data
}

// IsNull reports whether the indicator carries no usable signal.
func (d DroughtIndicator) IsNull() bool {
	return d.Coverage == 0 || math.IsNaN(d.Severity)
}

// CorrelationResult holds the agreement statistics of one region (or the
// pooled "ALL" row) for one (TH_SWA, TH_YA) threshold pair.
type CorrelationResult struct {
	RegionID       string  `json:"regionId"` // region code or "ALL"
	THSWA          float64 `json:"thSwa"`
	THYA           float64 `json:"thYa"`
	Hits           int     `json:"hits"`
	Misses         int     `json:"misses"`
	FalseAlarms    int     `json:"falseAlarms"`
	CorrectNegs    int     `json:"correctNegatives"`
	HitRate        float64 `json:"hitRate"`
	FalseAlarmRate float64 `json:"falseAlarmRate"`
	MCC            float64 `json:"mcc"`
	PearsonR       float64 `json:"pearsonR"`
	Pairs          int     `json:"pairs"` // matched (region, year) pairs
}

// ExclusionReport lists join keys present in exactly one of the two inputs.
type ExclusionReport struct {
	AnomalyOnly []JoinKey `json:"anomalyOnly"` // in the anomaly table, no drought indicator
	DroughtOnly []JoinKey `json:"droughtOnly"` // drought indicator, no anomaly
	Count       int       `json:"count"`       // |A∪B| - |A∩B|
}

// JoinKey is the (region, year) correlation join key.
type JoinKey struct {
	RegionID string `json:"regionId"`
	Year     int    `json:"year"`
}

// ExportResult describes one artifact written during export.
type ExportResult struct {
	FilePath string `json:"filePath"`
	FileType string `json:"fileType"`
	Rows     int    `json:"rows"`
}
