package model

import (
	"sync"
	"time"
)

// RunMetrics represents overall analysis run performance metrics
type RunMetrics struct {
	ObservationsHarmonized int64                   `json:"observations_harmonized"`
	SeriesAnalyzed         int64                   `json:"series_analyzed"`
	SeriesSkipped          int64                   `json:"series_skipped"`
	IndicatorsComputed     int64                   `json:"indicators_computed"`
	NullIndicators         int64                   `json:"null_indicators"`
	MatchedPairs           int64                   `json:"matched_pairs"`
	ExcludedKeys           int64                   `json:"excluded_keys"`
	ErrorCount             int64                   `json:"error_count"`
	ProcessingTime         time.Duration           `json:"processing_time"`
	StageMetrics           map[string]StageMetrics `json:"stage_metrics"`
}

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	WorkerCount      int           `json:"worker_count"`
	ErrorCount       int64         `json:"error_count"`
}

// ErrorDetail represents a detailed error with context
type ErrorDetail struct {
	ID        string                 `json:"id"`
	Stage     string                 `json:"stage"`
	ErrorType string                 `json:"error_type"`
	Message   string                 `json:"message"`
	Source    string                 `json:"source,omitempty"` // country or file the row came from
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Severity  string                 `json:"severity"` // warning, error
}

// RunTracker manages analysis run execution tracking and metrics
type RunTracker struct {
	RunID        string                  `json:"run_id"`
	Spec         AnalysisJobSpec         `json:"spec"`
	StartTime    time.Time               `json:"start_time"`
	EndTime      time.Time               `json:"end_time"`
	Status       string                  `json:"status"`
	Metrics      RunMetrics              `json:"metrics"`
	StageMetrics map[string]StageMetrics `json:"stage_metrics"`
	Errors       []ErrorDetail           `json:"errors"`
	Mutex        sync.RWMutex            `json:"-"`
}

// NewRunTracker creates a tracker for a run about to start.
func NewRunTracker(runID string, spec AnalysisJobSpec) *RunTracker {
	return &RunTracker{
		RunID:        runID,
		Spec:         spec,
		StartTime:    time.Now(),
		Status:       "running",
		StageMetrics: make(map[string]StageMetrics),
		Metrics:      RunMetrics{StageMetrics: make(map[string]StageMetrics)},
	}
}

// StartStage records the start of a pipeline stage.
func (t *RunTracker) StartStage(name string, workers int) {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	t.StageMetrics[name] = StageMetrics{
		StageName:   name,
		StartTime:   time.Now(),
		WorkerCount: workers,
	}
}

// EndStage records completion of a pipeline stage.
func (t *RunTracker) EndStage(name string, records, errors int64) {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	sm := t.StageMetrics[name]
	sm.EndTime = time.Now()
	sm.Duration = sm.EndTime.Sub(sm.StartTime)
	sm.RecordsProcessed = records
	sm.ErrorCount = errors
	t.StageMetrics[name] = sm
	t.Metrics.StageMetrics[name] = sm
	t.Metrics.ErrorCount += errors
}

// AddError appends an error detail to the run.
func (t *RunTracker) AddError(detail ErrorDetail) {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	if detail.Timestamp.IsZero() {
		detail.Timestamp = time.Now()
	}
	t.Errors = append(t.Errors, detail)
}

// Finish marks the run finished and freezes total processing time.
func (t *RunTracker) Finish(status string) {
	t.Mutex.Lock()
	defer t.Mutex.Unlock()
	t.EndTime = time.Now()
	t.Status = status
	t.Metrics.ProcessingTime = t.EndTime.Sub(t.StartTime)
}
