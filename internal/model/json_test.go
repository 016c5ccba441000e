package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalMissingValuesAsNull(t *testing.T) {
	raw, err := json.Marshal(YieldAnomaly{RegionID: "FR2", Year: 2003, Crop: "wheat", Anomaly: math.NaN()})
	require.NoError(t, err, "missing values must encode, not abort")
	assert.JSONEq(t, `{"regionId":"FR2","year":2003,"crop":"wheat","anomaly":null,"valid":false}`, string(raw))

	raw, err = json.Marshal(YieldObservation{RegionID: "US-KS", Year: 2000, Crop: "wheat", Area: math.NaN(), Production: 10, Yield: math.NaN(), SourceCountry: "usa"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"area":null`)
	assert.Contains(t, string(raw), `"production":10`)

	raw, err = json.Marshal(DroughtIndicator{RegionID: "ES1", Year: 2003, Window: "6_months-APR_SEP", Severity: math.NaN(), Coverage: 0})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"severity":null`)

	raw, err = json.Marshal(CorrelationResult{RegionID: "FR2", THSWA: 0.1, THYA: -0.67, HitRate: math.NaN(), FalseAlarmRate: math.NaN(), MCC: 0, PearsonR: math.NaN()})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"hitRate":null`)
	assert.Contains(t, string(raw), `"pearsonR":null`)
	assert.Contains(t, string(raw), `"thSwa":0.1`)
}

func TestMarshalFiniteValuesUnchanged(t *testing.T) {
	raw, err := json.Marshal(DroughtIndicator{RegionID: "FR2", Year: 2003, Window: "6_months-APR_SEP", Severity: 0.42, IsDrought: true, Coverage: 0.9})
	require.NoError(t, err)
	assert.JSONEq(t, `{"regionId":"FR2","year":2003,"window":"6_months-APR_SEP","severity":0.42,"isDrought":true,"coverage":0.9}`, string(raw))
}
