package store

import (
	"database/sql"
	"encoding/json"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"swa-yield-pipeline/internal/model"
)

var db *sql.DB

// Initialize DB connection
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	// Create tables if not exists
	tables := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			spec TEXT,
			status TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			stage TEXT,
			error_type TEXT,
			severity TEXT,
			message TEXT,
			context TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			stage TEXT,
			message TEXT,
			detail TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS stage_progress (
			run_id TEXT,
			stage TEXT,
			records INTEGER,
			errors INTEGER,
			duration_ms INTEGER,
			updated_at DATETIME,
			PRIMARY KEY (run_id, stage)
		);`,
		`CREATE TABLE IF NOT EXISTS correlation_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			region TEXT,
			th_swa REAL,
			th_ya REAL,
			hits INTEGER,
			misses INTEGER,
			false_alarms INTEGER,
			correct_negatives INTEGER,
			hit_rate REAL,
			false_alarm_rate REAL,
			mcc REAL,
			pearson_r REAL,
			pairs INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS exclusions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			side TEXT,
			region TEXT,
			year INTEGER
		);`,
	}
	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun stores a new analysis run
func SaveRun(runID string, spec model.AnalysisJobSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO runs (id, spec, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, specJSON, "pending", now, now)
	return err
}

// UpdateRunStatus updates run status
func UpdateRunStatus(runID string, status string) error {
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// ListRuns returns all runs with basic info
func ListRuns() ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT id, status, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, nil
}

// GetRun fetches full run spec and status
func GetRun(runID string) (map[string]interface{}, error) {
	var specJSON string
	var status string
	var createdAt, updatedAt time.Time

	err := db.QueryRow(`SELECT spec, status, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&specJSON, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	var spec model.AnalysisJobSpec
	if err := json.Unmarshal([]byte(specJSON), &spec); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        runID,
		"spec":      spec,
		"status":    status,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

// SaveRunError records an error detail for a run
func SaveRunError(runID string, detail model.ErrorDetail) error {
	contextJSON, err := json.Marshal(detail.Context)
	if err != nil {
		contextJSON = []byte("{}")
	}
	// keep the moment the stage recorded, not the moment the row lands
	createdAt := detail.Timestamp.UTC()
	if detail.Timestamp.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = db.Exec(`INSERT INTO run_errors (run_id, stage, error_type, severity, message, context, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, detail.Stage, detail.ErrorType, detail.Severity, detail.Message, contextJSON, createdAt)
	return err
}

// GetRunErrors returns all recorded errors of a run
func GetRunErrors(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT stage, error_type, severity, message, context, created_at
		FROM run_errors WHERE run_id = ? ORDER BY created_at`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		var stage, errorType, severity, message, contextJSON string
		var createdAt time.Time
		if err := rows.Scan(&stage, &errorType, &severity, &message, &contextJSON, &createdAt); err != nil {
			return nil, err
		}
		var context map[string]interface{}
		_ = json.Unmarshal([]byte(contextJSON), &context)
		out = append(out, map[string]interface{}{
			"stage":     stage,
			"errorType": errorType,
			"severity":  severity,
			"message":   message,
			"context":   context,
			"createdAt": createdAt,
		})
	}
	return out, nil
}

// SaveRunLog persists a structured stage log entry
func SaveRunLog(runID, stage, message string, detail map[string]interface{}) error {
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		detailJSON = []byte("{}")
	}
	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO run_logs (run_id, stage, message, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, stage, message, detailJSON, now)
	return err
}

// SaveStageProgress upserts the progress counters of one stage
func SaveStageProgress(runID string, sm model.StageMetrics) error {
	now := time.Now().UTC()
	_, err := db.Exec(`INSERT INTO stage_progress (run_id, stage, records, errors, duration_ms, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, stage) DO UPDATE SET records=excluded.records, errors=excluded.errors,
			duration_ms=excluded.duration_ms, updated_at=excluded.updated_at`,
		runID, sm.StageName, sm.RecordsProcessed, sm.ErrorCount, sm.Duration.Milliseconds(), now)
	return err
}

// GetStageProgress returns the per-stage counters of a run
func GetStageProgress(runID string) ([]map[string]interface{}, error) {
	rows, err := db.Query(`SELECT stage, records, errors, duration_ms, updated_at
		FROM stage_progress WHERE run_id = ? ORDER BY stage`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]interface{}
	for rows.Next() {
		var stage string
		var records, errCount, durationMs int64
		var updatedAt time.Time
		if err := rows.Scan(&stage, &records, &errCount, &durationMs, &updatedAt); err != nil {
			return nil, err
		}
		out = append(out, map[string]interface{}{
			"stage":      stage,
			"records":    records,
			"errors":     errCount,
			"durationMs": durationMs,
			"updatedAt":  updatedAt,
		})
	}
	return out, nil
}

// SaveCorrelationResults stores the result table of a finished run
func SaveCorrelationResults(runID string, results []model.CorrelationResult) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO correlation_results
		(run_id, region, th_swa, th_ya, hits, misses, false_alarms, correct_negatives,
		 hit_rate, false_alarm_rate, mcc, pearson_r, pairs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(runID, r.RegionID, r.THSWA, r.THYA, r.Hits, r.Misses,
			r.FalseAlarms, r.CorrectNegs, nullable(r.HitRate), nullable(r.FalseAlarmRate),
			nullable(r.MCC), nullable(r.PearsonR), r.Pairs); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetCorrelationResults returns the stored result rows of a run
func GetCorrelationResults(runID string) ([]model.CorrelationResult, error) {
	rows, err := db.Query(`SELECT region, th_swa, th_ya, hits, misses, false_alarms,
		correct_negatives, hit_rate, false_alarm_rate, mcc, pearson_r, pairs
		FROM correlation_results WHERE run_id = ? ORDER BY region, th_swa, th_ya`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CorrelationResult
	for rows.Next() {
		var r model.CorrelationResult
		var hitRate, faRate, mcc, pearson sql.NullFloat64
		if err := rows.Scan(&r.RegionID, &r.THSWA, &r.THYA, &r.Hits, &r.Misses,
			&r.FalseAlarms, &r.CorrectNegs, &hitRate, &faRate, &mcc, &pearson, &r.Pairs); err != nil {
			return nil, err
		}
		r.HitRate = fromNullable(hitRate)
		r.FalseAlarmRate = fromNullable(faRate)
		r.MCC = fromNullable(mcc)
		r.PearsonR = fromNullable(pearson)
		out = append(out, r)
	}
	return out, nil
}

// SaveExclusions stores the join exclusion report of a run
func SaveExclusions(runID string, report model.ExclusionReport) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO exclusions (run_id, side, region, year) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, k := range report.AnomalyOnly {
		if _, err := stmt.Exec(runID, "anomaly_only", k.RegionID, k.Year); err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, k := range report.DroughtOnly {
		if _, err := stmt.Exec(runID, "drought_only", k.RegionID, k.Year); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetExclusions rebuilds the exclusion report of a run
func GetExclusions(runID string) (model.ExclusionReport, error) {
	var report model.ExclusionReport
	rows, err := db.Query(`SELECT side, region, year FROM exclusions WHERE run_id = ? ORDER BY side, region, year`, runID)
	if err != nil {
		return report, err
	}
	defer rows.Close()

	for rows.Next() {
		var side, region string
		var year int
		if err := rows.Scan(&side, &region, &year); err != nil {
			return report, err
		}
		k := model.JoinKey{RegionID: region, Year: year}
		if side == "anomaly_only" {
			report.AnomalyOnly = append(report.AnomalyOnly, k)
		} else {
			report.DroughtOnly = append(report.DroughtOnly, k)
		}
	}
	report.Count = len(report.AnomalyOnly) + len(report.DroughtOnly)
	return report, nil
}

// nullable maps NaN onto SQL NULL so the driver does not reject it.
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
