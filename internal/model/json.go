package model

import (
	"encoding/json"
	"math"
)

// jsonFloat marshals NaN as JSON null. Missing values are NaN everywhere in
// the domain rows, and encoding/json rejects NaN outright, so every float
// that can be missing goes through this type on the way out.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (o YieldObservation) MarshalJSON() ([]byte, error) {
	type row struct {
		RegionID       string    `json:"regionId"`
		Year           int       `json:"year"`
		Crop           string    `json:"crop"`
		Area           jsonFloat `json:"area"`
		Production     jsonFloat `json:"production"`
		Yield          jsonFloat `json:"yield"`
		HarvestShifted bool      `json:"harvestShifted"`
		SourceCountry  string    `json:"sourceCountry"`
	}
	return json.Marshal(row{
		RegionID:       o.RegionID,
		Year:           o.Year,
		Crop:           o.Crop,
		Area:           jsonFloat(o.Area),
		Production:     jsonFloat(o.Production),
		Yield:          jsonFloat(o.Yield),
		HarvestShifted: o.HarvestShifted,
		SourceCountry:  o.SourceCountry,
	})
}

func (a YieldAnomaly) MarshalJSON() ([]byte, error) {
	type row struct {
		RegionID string    `json:"regionId"`
		Year     int       `json:"year"`
		Crop     string    `json:"crop"`
		Anomaly  jsonFloat `json:"anomaly"`
		Valid    bool      `json:"valid"`
	}
	return json.Marshal(row{
		RegionID: a.RegionID,
		Year:     a.Year,
		Crop:     a.Crop,
		Anomaly:  jsonFloat(a.Anomaly),
		Valid:    a.Valid,
	})
}

func (d DroughtIndicator) MarshalJSON() ([]byte, error) {
	type row struct {
		RegionID  string    `json:"regionId"`
		Year      int       `json:"year"`
		Window    string    `json:"window"`
		Severity  jsonFloat `json:"severity"`
		IsDrought bool      `json:"isDrought"`
		Coverage  jsonFloat `json:"coverage"`
	}
	return json.Marshal(row{
		RegionID:  d.RegionID,
		Year:      d.Year,
		Window:    d.Window,
		Severity:  jsonFloat(d.Severity),
		IsDrought: d.IsDrought,
		Coverage:  jsonFloat(d.Coverage),
	})
}

func (r CorrelationResult) MarshalJSON() ([]byte, error) {
	type row struct {
		RegionID       string    `json:"regionId"`
		THSWA          jsonFloat `json:"thSwa"`
		THYA           jsonFloat `json:"thYa"`
		Hits           int       `json:"hits"`
		Misses         int       `json:"misses"`
		FalseAlarms    int       `json:"falseAlarms"`
		CorrectNegs    int       `json:"correctNegatives"`
		HitRate        jsonFloat `json:"hitRate"`
		FalseAlarmRate jsonFloat `json:"falseAlarmRate"`
		MCC            jsonFloat `json:"mcc"`
		PearsonR       jsonFloat `json:"pearsonR"`
		Pairs          int       `json:"pairs"`
	}
	return json.Marshal(row{
		RegionID:       r.RegionID,
		THSWA:          jsonFloat(r.THSWA),
		THYA:           jsonFloat(r.THYA),
		Hits:           r.Hits,
		Misses:         r.Misses,
		FalseAlarms:    r.FalseAlarms,
		CorrectNegs:    r.CorrectNegs,
		HitRate:        jsonFloat(r.HitRate),
		FalseAlarmRate: jsonFloat(r.FalseAlarmRate),
		MCC:            jsonFloat(r.MCC),
		PearsonR:       jsonFloat(r.PearsonR),
		Pairs:          r.Pairs,
	})
}
