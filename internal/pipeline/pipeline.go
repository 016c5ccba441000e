package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"swa-yield-pipeline/internal/anomaly"
	"swa-yield-pipeline/internal/correlate"
	"swa-yield-pipeline/internal/harmonize"
	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/internal/store"
	"swa-yield-pipeline/internal/swa"
)

const defaultRunTimeout = 5 * time.Minute

// Run executes a full analysis: harmonize yield sources, standardize
// anomalies, detect drought over the SWA rasters, correlate the two panels
// on (region, year) and persist plus export the result table.
func Run(ctx context.Context, runID string, spec model.AnalysisJobSpec) error {
	spec.ApplyDefaults()

	timeout := defaultRunTimeout
	if spec.Concurrency.RunTimeout != "" {
		if d, err := time.ParseDuration(spec.Concurrency.RunTimeout); err == nil {
			timeout = d
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tracker := model.NewRunTracker(runID, spec)
	store.UpdateRunStatus(runID, "running")
	fmt.Printf("🚀 Starting analysis run %s (%d sources, years %d-%d)\n",
		runID, len(spec.Sources), spec.Years.Start, spec.Years.End)

	// ------------------- ERROR COLLECTOR -------------------

	var errorCount int64
	errorCh := make(chan model.ErrorDetail, spec.Concurrency.ChannelBufferSize)
	var loggerWg sync.WaitGroup
	loggerWg.Add(1)
	go func() {
		defer loggerWg.Done()
		for detail := range errorCh {
			if detail.Severity == "error" {
				atomic.AddInt64(&errorCount, 1)
				fmt.Printf("❌ [%s] %s: %s\n", detail.Stage, detail.ErrorType, detail.Message)
			} else {
				fmt.Printf("⚠️ [%s] %s: %s\n", detail.Stage, detail.ErrorType, detail.Message)
			}
			tracker.AddError(detail)
			if err := store.SaveRunError(runID, detail); err != nil {
				fmt.Printf("❌ Failed to persist error detail: %v\n", err)
			}
		}
	}()

	fail := func(stage string, err error) error {
		errorCh <- model.ErrorDetail{
			Stage:     stage,
			ErrorType: "stage_failed",
			Severity:  "error",
			Message:   err.Error(),
			Timestamp: time.Now(),
		}
		close(errorCh)
		loggerWg.Wait()
		tracker.Finish("failed")
		store.UpdateRunStatus(runID, "failed")
		fmt.Printf("🏁 Run %s failed: %v\n", runID, err)
		return err
	}

	// The drought detector needs the boundary shapefile and arable mask up
	// front, so a broken input aborts the run before any stage starts.
	detector, err := swa.NewDetector(spec.SWA, *spec.Correlation.THSWA)
	if err != nil {
		return fail("drought", err)
	}

	// ------------------- HARMONIZE + DROUGHT (concurrent) -------------------

	store.UpdateRunStatus(runID, "processing")

	obsCh := make(chan model.YieldObservation, spec.Concurrency.ChannelBufferSize)
	indCh := make(chan model.DroughtIndicator, spec.Concurrency.ChannelBufferSize)

	tracker.StartStage("harmonize", spec.Concurrency.Workers.Harmonize)
	tracker.StartStage("drought", spec.Concurrency.Workers.Drought)

	go harmonize.Run(ctx, spec, obsCh, errorCh)
	go func() {
		switch spec.SWA.Mode {
		case "single", "period":
			// one-shot modes run inline; detector.Run closes indCh itself
			// in the timeseries case
			defer close(indCh)
			var (
				detected []model.DroughtIndicator
				err      error
			)
			if spec.SWA.Mode == "single" {
				detected, err = detector.Month(spec.SWA.Year, spec.SWA.Month)
			} else {
				detected, err = detector.Period(spec.SWA.Year)
			}
			if err != nil {
				errorCh <- model.ErrorDetail{
					Stage:     "drought",
					ErrorType: "raster_read_failed",
					Severity:  "error",
					Message:   err.Error(),
					Timestamp: time.Now(),
				}
				return
			}
			for _, ind := range detected {
				indCh <- ind
			}
		default: // timeseries
			detector.Run(ctx, spec.Years, spec.Concurrency.Workers.Drought, indCh, errorCh)
		}
	}()

	var (
		collectWg    sync.WaitGroup
		observations []model.YieldObservation
		indicators   []model.DroughtIndicator
	)
	collectWg.Add(2)
	go func() {
		defer collectWg.Done()
		for obs := range obsCh {
			observations = append(observations, obs)
		}
	}()
	go func() {
		defer collectWg.Done()
		for ind := range indCh {
			indicators = append(indicators, ind)
		}
	}()
	collectWg.Wait()

	if len(spec.Regions) > 0 {
		keep := make(map[string]bool, len(spec.Regions))
		for _, r := range spec.Regions {
			keep[r] = true
		}
		filteredObs := observations[:0]
		for _, o := range observations {
			if keep[o.RegionID] {
				filteredObs = append(filteredObs, o)
			}
		}
		observations = filteredObs
		filteredInd := indicators[:0]
		for _, ind := range indicators {
			if keep[ind.RegionID] {
				filteredInd = append(filteredInd, ind)
			}
		}
		indicators = filteredInd
	}

	tracker.EndStage("harmonize", int64(len(observations)), 0)
	tracker.EndStage("drought", int64(len(indicators)), 0)
	tracker.Metrics.ObservationsHarmonized = int64(len(observations))
	tracker.Metrics.IndicatorsComputed = int64(len(indicators))
	for _, ind := range indicators {
		if ind.IsNull() {
			tracker.Metrics.NullIndicators++
		}
	}

	if ctx.Err() != nil {
		return fail("processing", fmt.Errorf("run cancelled: %w", ctx.Err()))
	}
	if len(observations) == 0 {
		return fail("harmonize", fmt.Errorf("no yield observations harmonized from %d sources", len(spec.Sources)))
	}
	if len(indicators) == 0 {
		return fail("drought", fmt.Errorf("no drought indicators computed"))
	}

	// ------------------- ANOMALY -------------------

	store.UpdateRunStatus(runID, "analyzing")
	tracker.StartStage("anomaly", 1)
	fmt.Printf("🔄 Anomaly stage using %s reference\n", anomaly.Describe(spec.Anomaly))
	anomalies := anomaly.Compute(observations, spec.Anomaly, spec.Years)
	valid := int64(0)
	for _, a := range anomalies {
		if a.Valid {
			valid++
		}
	}
	tracker.EndStage("anomaly", int64(len(anomalies)), 0)
	tracker.Metrics.SeriesAnalyzed = valid
	tracker.Metrics.SeriesSkipped = int64(len(anomalies)) - valid

	// ------------------- CORRELATE -------------------

	tracker.StartStage("correlate", 1)
	results, report := correlate.Compute(anomalies, indicators, spec.Correlation)
	tracker.EndStage("correlate", int64(len(results)), 0)
	tracker.Metrics.ExcludedKeys = int64(report.Count)
	if len(results) > 0 {
		tracker.Metrics.MatchedPairs = int64(results[0].Pairs)
	}

	if err := store.SaveCorrelationResults(runID, results); err != nil {
		return fail("correlate", fmt.Errorf("failed to store correlation results: %w", err))
	}
	if err := store.SaveExclusions(runID, report); err != nil {
		return fail("correlate", fmt.Errorf("failed to store exclusion report: %w", err))
	}

	// ------------------- EXPORT -------------------

	if exporter := NewExporter(runID, spec.Export); exporter != nil {
		store.UpdateRunStatus(runID, "exporting")
		tracker.StartStage("export", 1)
		if err := exporter.Output.EnsureOutputDirExists(); err != nil {
			return fail("export", fmt.Errorf("output directory unavailable: %w", err))
		}
		files := 0
		for _, write := range []func() ([]model.ExportResult, error){
			func() ([]model.ExportResult, error) { return exporter.WriteObservations(observations) },
			func() ([]model.ExportResult, error) { return exporter.WriteAnomalies(anomalies) },
			func() ([]model.ExportResult, error) { return exporter.WriteDroughtSeries(indicators) },
			func() ([]model.ExportResult, error) { return exporter.WriteCorrelation(results, report) },
		} {
			out, err := write()
			files += len(out)
			if err != nil {
				return fail("export", fmt.Errorf("export failed: %w", err))
			}
			for _, r := range out {
				fmt.Printf("💾 Exported %d rows to %s\n", r.Rows, r.FilePath)
			}
		}
		tracker.EndStage("export", int64(files), 0)
	}

	// ------------------- FINISH -------------------

	close(errorCh)
	loggerWg.Wait()

	for _, sm := range tracker.StageMetrics {
		if err := store.SaveStageProgress(runID, sm); err != nil {
			fmt.Printf("❌ Failed to persist stage progress: %v\n", err)
		}
	}

	status := "completed"
	if atomic.LoadInt64(&errorCount) > 0 {
		status = "completed_with_errors"
	}
	tracker.Finish(status)
	store.UpdateRunStatus(runID, status)
	store.SaveRunLog(runID, "summary", "run finished", map[string]interface{}{
		"observations":  len(observations),
		"anomalies":     len(anomalies),
		"indicators":    len(indicators),
		"result_rows":   len(results),
		"excluded_keys": report.Count,
		"errors":        atomic.LoadInt64(&errorCount),
		"duration":      tracker.Metrics.ProcessingTime.String(),
	})

	fmt.Printf("🏁 Run %s %s in %v (%d observations, %d indicators, %d result rows)\n",
		runID, status, tracker.Metrics.ProcessingTime, len(observations), len(indicators), len(results))
	return nil
}
