package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/internal/pipeline"
	"swa-yield-pipeline/internal/store"
)

// runID extracts the run ID segment between the runs prefix and an optional
// trailing subresource suffix.
func runID(path, suffix string) string {
	const prefix = "/api/v1/runs/"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	return path[len(prefix) : len(path)-len(suffix)]
}

// CreateRun creates a new analysis run
// @Summary Create a new analysis run
// @Description Create and start a drought-yield analysis run with the provided configuration
// @Tags runs
// @Accept json
// @Produce json
// @Param run body model.AnalysisJobSpec true "Run configuration"
// @Success 200 {object} map[string]interface{} "Run created successfully"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [post]
func CreateRun(w http.ResponseWriter, r *http.Request) {
	var spec model.AnalysisJobSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	// 1. Validate payload
	if len(spec.Sources) == 0 {
		http.Error(w, "At least one yield source is required", http.StatusBadRequest)
		return
	}
	if spec.SWA.RasterDir == "" || spec.SWA.BoundaryShapefile == "" {
		http.Error(w, "SWA raster directory and boundary shapefile are required", http.StatusBadRequest)
		return
	}

	// 2. Generate run ID
	id := uuid.New().String()

	// 3. Save run to DB
	if err := store.SaveRun(id, spec); err != nil {
		http.Error(w, "Failed to save run", http.StatusInternalServerError)
		return
	}

	// 4. Start the analysis asynchronously; Run enforces its own timeout
	go func() {
		pipeline.Run(context.Background(), id, spec)
	}()

	// 5. Return response
	resp := map[string]interface{}{
		"message":   "Analysis run created successfully!",
		"runID":     id,
		"status":    "pending",
		"createdAt": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListRuns retrieves all analysis runs
// @Summary List all runs
// @Description Get a list of all analysis runs with their current status
// @Tags runs
// @Accept json
// @Produce json
// @Success 200 {array} map[string]interface{} "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := store.ListRuns()
	if err != nil {
		http.Error(w, "Failed to fetch runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// GetRun retrieves a specific analysis run
// @Summary Get run
// @Description Retrieve spec and status of a specific analysis run
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func GetRun(w http.ResponseWriter, r *http.Request) {
	id := runID(r.URL.Path, "")
	if id == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	run, err := store.GetRun(id)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

// GetRunErrors retrieves errors recorded for a run
// @Summary Get run errors
// @Description Retrieve all errors and warnings recorded during run execution
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run errors"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/errors [get]
func GetRunErrors(w http.ResponseWriter, r *http.Request) {
	id := runID(r.URL.Path, "/errors")
	if id == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	errors, err := store.GetRunErrors(id)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": id,
		"errors": errors,
		"count":  len(errors),
	})
}

// GetRunResults retrieves the correlation result table of a run
// @Summary Get run results
// @Description Retrieve the threshold-grid correlation results of a finished run
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run results"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/results [get]
func GetRunResults(w http.ResponseWriter, r *http.Request) {
	id := runID(r.URL.Path, "/results")
	if id == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	results, err := store.GetCorrelationResults(id)
	if err != nil {
		http.Error(w, "Failed to retrieve results", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":  id,
		"results": results,
		"count":   len(results),
	})
}

// GetRunExclusions retrieves the join exclusion report of a run
// @Summary Get run exclusions
// @Description Retrieve the (region, year) keys excluded from the anomaly-drought join
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Exclusion report"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs/{id}/exclusions [get]
func GetRunExclusions(w http.ResponseWriter, r *http.Request) {
	id := runID(r.URL.Path, "/exclusions")
	if id == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	report, err := store.GetExclusions(id)
	if err != nil {
		http.Error(w, "Failed to retrieve exclusions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":     id,
		"exclusions": report,
		"count":      report.Count,
	})
}

// GET /api/v1/runs/{id}/progress
func GetRunProgress(w http.ResponseWriter, r *http.Request) {
	id := runID(r.URL.Path, "/progress")
	if id == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	progress, err := store.GetStageProgress(id)
	if err != nil {
		http.Error(w, "Failed to retrieve progress", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id":   id,
		"progress": progress,
		"count":    len(progress),
	})
}
