package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/pkg/utils"
)

// utf8BOM makes the CSV artifacts open cleanly in Excel.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Exporter writes run artifacts into the per-run output directory.
type Exporter struct {
	RunID   string
	Output  *utils.OutputManager
	Formats map[string]bool
}

// NewExporter builds an exporter for the run, nil when no export target is
// configured.
func NewExporter(runID string, exp *model.Export) *Exporter {
	if exp == nil {
		return nil
	}
	formats := make(map[string]bool)
	for _, f := range exp.Formats {
		formats[f] = true
	}
	if len(formats) == 0 {
		formats["csv"] = true
	}
	return &Exporter{
		RunID:   runID,
		Output:  utils.NewOutputManager(exp.Dir),
		Formats: formats,
	}
}

func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ------------------- FORMAT WRITERS -------------------

func (e *Exporter) writeCSV(name string, header []string, rows [][]string) (model.ExportResult, error) {
	path, err := e.Output.GetOutputFilePath(e.RunID, name+".csv")
	if err != nil {
		return model.ExportResult{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return model.ExportResult{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return model.ExportResult{}, fmt.Errorf("failed to write BOM: %w", err)
	}
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(header); err != nil {
		return model.ExportResult{}, fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return model.ExportResult{}, fmt.Errorf("failed to write row: %w", err)
		}
	}
	return model.ExportResult{FilePath: path, FileType: e.Output.GetFileType(path), Rows: len(rows)}, nil
}

func (e *Exporter) writeXLSX(name, sheet string, header []string, rows [][]string) (model.ExportResult, error) {
	path, err := e.Output.GetOutputFilePath(e.RunID, name+".xlsx")
	if err != nil {
		return model.ExportResult{}, err
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheet)

	cell, _ := excelize.CoordinatesToCellName(1, 1)
	strHeader := make([]interface{}, len(header))
	for i, h := range header {
		strHeader[i] = h
	}
	if err := f.SetSheetRow(sheet, cell, &strHeader); err != nil {
		return model.ExportResult{}, fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := make([]interface{}, len(row))
		for j, v := range row {
			if fv, err := strconv.ParseFloat(v, 64); err == nil {
				values[j] = fv
			} else {
				values[j] = v
			}
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return model.ExportResult{}, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return model.ExportResult{}, fmt.Errorf("failed to save %s: %w", path, err)
	}
	return model.ExportResult{FilePath: path, FileType: e.Output.GetFileType(path), Rows: len(rows)}, nil
}

func (e *Exporter) writeJSON(name string, payload interface{}, rows int) (model.ExportResult, error) {
	path, err := e.Output.GetOutputFilePath(e.RunID, name+".json")
	if err != nil {
		return model.ExportResult{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return model.ExportResult{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	doc := map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":      e.RunID,
			"exported_at": time.Now().UTC(),
			"row_count":   rows,
		},
		"data": payload,
	}
	if err := enc.Encode(doc); err != nil {
		return model.ExportResult{}, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return model.ExportResult{FilePath: path, FileType: e.Output.GetFileType(path), Rows: rows}, nil
}

// writeTable fans one logical table out to every configured format.
func (e *Exporter) writeTable(name, sheet string, header []string, rows [][]string, payload interface{}) ([]model.ExportResult, error) {
	var out []model.ExportResult
	if e.Formats["csv"] {
		r, err := e.writeCSV(name, header, rows)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	if e.Formats["xlsx"] {
		r, err := e.writeXLSX(name, sheet, header, rows)
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	if e.Formats["json"] && payload != nil {
		r, err := e.writeJSON(name, payload, len(rows))
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ------------------- ARTIFACTS -------------------

// WriteObservations writes the harmonized long-format yield table.
func (e *Exporter) WriteObservations(obs []model.YieldObservation) ([]model.ExportResult, error) {
	header := []string{"region", "year", "crop", "area_kha", "production_kt", "yield_t_ha", "source"}
	rows := make([][]string, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, []string{
			o.RegionID, strconv.Itoa(o.Year), o.Crop,
			fmtFloat(o.Area), fmtFloat(o.Production), fmtFloat(o.Yield), o.SourceCountry,
		})
	}
	return e.writeTable("harmonized_yield", "Harmonized", header, rows, obs)
}

// WriteAnomalies writes the standardized anomaly table.
func (e *Exporter) WriteAnomalies(anoms []model.YieldAnomaly) ([]model.ExportResult, error) {
	header := []string{"region", "year", "crop", "anomaly", "valid"}
	rows := make([][]string, 0, len(anoms))
	for _, a := range anoms {
		rows = append(rows, []string{
			a.RegionID, strconv.Itoa(a.Year), a.Crop, fmtFloat(a.Anomaly), strconv.FormatBool(a.Valid),
		})
	}
	return e.writeTable("yield_anomalies", "Anomalies", header, rows, anoms)
}

// WriteDroughtSeries pivots indicators into the year × region severity
// matrix. Null indicators leave their cell empty.
func (e *Exporter) WriteDroughtSeries(indicators []model.DroughtIndicator) ([]model.ExportResult, error) {
	regionSet := make(map[string]struct{})
	yearSet := make(map[int]struct{})
	cells := make(map[model.JoinKey]model.DroughtIndicator, len(indicators))
	window := ""
	for _, ind := range indicators {
		regionSet[ind.RegionID] = struct{}{}
		yearSet[ind.Year] = struct{}{}
		cells[model.JoinKey{RegionID: ind.RegionID, Year: ind.Year}] = ind
		window = ind.Window
	}

	regions := make([]string, 0, len(regionSet))
	for r := range regionSet {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	header := append([]string{"year"}, regions...)
	rows := make([][]string, 0, len(years))
	for _, y := range years {
		row := []string{strconv.Itoa(y)}
		for _, r := range regions {
			ind, ok := cells[model.JoinKey{RegionID: r, Year: y}]
			if !ok || ind.IsNull() {
				row = append(row, "")
				continue
			}
			row = append(row, fmtFloat(ind.Severity))
		}
		rows = append(rows, row)
	}

	name := "drought_series"
	if window != "" {
		name = "drought_series-" + window
	}
	return e.writeTable(name, "SWA", header, rows, indicators)
}

// WriteCorrelation writes the threshold-grid result table and the exclusion
// report.
func (e *Exporter) WriteCorrelation(results []model.CorrelationResult, report model.ExclusionReport) ([]model.ExportResult, error) {
	header := []string{
		"region", "th_swa", "th_ya", "hits", "misses", "false_alarms", "correct_negatives",
		"hit_rate", "false_alarm_rate", "mcc", "pearson_r", "pairs",
	}
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.RegionID, fmtFloat(r.THSWA), fmtFloat(r.THYA),
			strconv.Itoa(r.Hits), strconv.Itoa(r.Misses), strconv.Itoa(r.FalseAlarms), strconv.Itoa(r.CorrectNegs),
			fmtFloat(r.HitRate), fmtFloat(r.FalseAlarmRate), fmtFloat(r.MCC), fmtFloat(r.PearsonR),
			strconv.Itoa(r.Pairs),
		})
	}
	out, err := e.writeTable("mcc_results", "All regions", header, rows, results)
	if err != nil {
		return out, err
	}

	exclHeader := []string{"side", "region", "year"}
	exclRows := make([][]string, 0, report.Count)
	for _, k := range report.AnomalyOnly {
		exclRows = append(exclRows, []string{"anomaly_only", k.RegionID, strconv.Itoa(k.Year)})
	}
	for _, k := range report.DroughtOnly {
		exclRows = append(exclRows, []string{"drought_only", k.RegionID, strconv.Itoa(k.Year)})
	}
	exclOut, err := e.writeTable("exclusions", "Exclusions", exclHeader, exclRows, report)
	return append(out, exclOut...), err
}
