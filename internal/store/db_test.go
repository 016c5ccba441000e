package store

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swa-yield-pipeline/internal/model"
)

func setupDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(":memory:"))
}

func TestRunLifecycle(t *testing.T) {
	setupDB(t)

	spec := model.AnalysisJobSpec{}
	spec.ApplyDefaults()
	require.NoError(t, SaveRun("run-1", spec))

	run, err := GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", run["status"])

	require.NoError(t, UpdateRunStatus("run-1", "completed"))
	run, err = GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", run["status"])

	stored := run["spec"].(model.AnalysisJobSpec)
	assert.Equal(t, model.DefaultYearStart, stored.Years.Start)

	runs, err := ListRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunErrors(t *testing.T) {
	setupDB(t)
	require.NoError(t, SaveRun("run-2", model.AnalysisJobSpec{}))

	recorded := time.Date(2024, 5, 17, 10, 30, 0, 0, time.UTC)
	detail := model.ErrorDetail{
		Stage:     "harmonize",
		ErrorType: "unmapped_region",
		Severity:  "warning",
		Message:   `region label "Prairie provinces" not in the canada registry`,
		Context:   map[string]interface{}{"label": "Prairie provinces"},
		Timestamp: recorded,
	}
	require.NoError(t, SaveRunError("run-2", detail))

	errs, err := GetRunErrors("run-2")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "unmapped_region", errs[0]["errorType"])
	assert.Equal(t, "Prairie provinces", errs[0]["context"].(map[string]interface{})["label"])

	createdAt := errs[0]["createdAt"].(time.Time)
	assert.True(t, createdAt.Equal(recorded), "the stage's timestamp is persisted, not insertion time")
}

func TestRunErrorWithoutTimestamp(t *testing.T) {
	setupDB(t)
	require.NoError(t, SaveRun("run-2b", model.AnalysisJobSpec{}))

	before := time.Now().UTC()
	require.NoError(t, SaveRunError("run-2b", model.ErrorDetail{
		Stage:     "drought",
		ErrorType: "stage_failed",
		Severity:  "error",
		Message:   "boundary shapefile missing",
	}))

	errs, err := GetRunErrors("run-2b")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	createdAt := errs[0]["createdAt"].(time.Time)
	assert.WithinDuration(t, before, createdAt, 5*time.Second)
}

func TestCorrelationResultsRoundTrip(t *testing.T) {
	setupDB(t)
	require.NoError(t, SaveRun("run-3", model.AnalysisJobSpec{}))

	results := []model.CorrelationResult{
		{RegionID: "ALL", THSWA: 0.1, THYA: -0.67, Hits: 5, CorrectNegs: 3, HitRate: 1, MCC: 1, PearsonR: -0.8, Pairs: 8},
		{RegionID: "FR2", THSWA: 0.1, THYA: -0.67, Pairs: 0, HitRate: math.NaN(), FalseAlarmRate: math.NaN(), MCC: 0, PearsonR: math.NaN()},
	}
	require.NoError(t, SaveCorrelationResults("run-3", results))

	got, err := GetCorrelationResults("run-3")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ALL", got[0].RegionID)
	assert.InDelta(t, 1.0, got[0].MCC, 1e-9)
	assert.True(t, math.IsNaN(got[1].HitRate), "NaN survives as NULL and comes back as NaN")
}

func TestExclusionsRoundTrip(t *testing.T) {
	setupDB(t)
	require.NoError(t, SaveRun("run-4", model.AnalysisJobSpec{}))

	report := model.ExclusionReport{
		AnomalyOnly: []model.JoinKey{{RegionID: "FR2", Year: 2002}},
		DroughtOnly: []model.JoinKey{{RegionID: "DE1", Year: 2000}, {RegionID: "ES1", Year: 2001}},
		Count:       3,
	}
	require.NoError(t, SaveExclusions("run-4", report))

	got, err := GetExclusions("run-4")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Count)
	assert.Len(t, got.AnomalyOnly, 1)
	assert.Len(t, got.DroughtOnly, 2)
}

func TestStageProgressUpsert(t *testing.T) {
	setupDB(t)
	require.NoError(t, SaveRun("run-5", model.AnalysisJobSpec{}))

	sm := model.StageMetrics{StageName: "harmonize", RecordsProcessed: 10}
	require.NoError(t, SaveStageProgress("run-5", sm))
	sm.RecordsProcessed = 250
	require.NoError(t, SaveStageProgress("run-5", sm), "second save updates in place")
}
