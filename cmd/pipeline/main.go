package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"swa-yield-pipeline/internal/model"
	"swa-yield-pipeline/internal/pipeline"
	"swa-yield-pipeline/internal/store"
)

func main() {
	specPath := flag.String("spec", "", "analysis spec JSON file (required)")
	dbPath := flag.String("db", "analysis.db", "sqlite database path")
	mode := flag.String("mode", "", "drought mode override: single, period, timeseries")
	year := flag.Int("year", 0, "target year for single/period modes")
	month := flag.Int("month", 0, "target month for single mode (also the period start month)")
	period := flag.Int("period", 0, "period window length in months")
	yearsRange := flag.String("years-range", "", "harvest year range override, e.g. 1991-2023")
	regionList := flag.String("regions", "", "comma-separated region codes to restrict the analysis to")
	threshold := flag.Float64("threshold", 0, "SWA drought detection threshold override")
	thSWA := flag.Float64("th-swa", 0, "severity flag threshold override")
	thYA := flag.Float64("th-ya", 0, "yield anomaly loss threshold override")
	outDir := flag.String("out", "", "export directory override")
	formats := flag.String("formats", "", "comma-separated export formats: csv,xlsx,json")
	flag.Parse()

	// Track which flags were given explicitly: zero is a valid threshold, so
	// value checks cannot tell an override from a default.
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *specPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pipeline -spec analysis.json [overrides]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	raw, err := os.ReadFile(*specPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to read spec file: %v\n", err)
		os.Exit(1)
	}
	var spec model.AnalysisJobSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to parse spec file: %v\n", err)
		os.Exit(1)
	}

	// CLI flags win over the spec file
	if *mode != "" {
		spec.SWA.Mode = *mode
	}
	if *year != 0 {
		spec.SWA.Year = *year
	}
	if *month != 0 {
		spec.SWA.Month = *month
		spec.SWA.MonthStart = *month
	}
	if *period != 0 {
		start := spec.SWA.MonthStart
		if start == 0 {
			start = model.DefaultMonthStart
		}
		spec.SWA.MonthStart = start
		spec.SWA.MonthEnd = start + *period - 1
		if spec.SWA.Mode == "" && *mode == "" {
			spec.SWA.Mode = "period"
		}
	}
	if *yearsRange != "" {
		var start, end int
		if _, err := fmt.Sscanf(*yearsRange, "%d-%d", &start, &end); err != nil || start > end {
			fmt.Fprintf(os.Stderr, "❌ Invalid -years-range %q, expected START-END\n", *yearsRange)
			os.Exit(2)
		}
		spec.Years = model.YearRange{Start: start, End: end}
	}
	if *regionList != "" {
		spec.Regions = strings.Split(*regionList, ",")
	}
	if set["threshold"] {
		spec.SWA.DetectionThreshold = threshold
	}
	if set["th-swa"] {
		spec.Correlation.THSWA = thSWA
	}
	if set["th-ya"] {
		spec.Correlation.THYA = thYA
	}
	if *outDir != "" {
		if spec.Export == nil {
			spec.Export = &model.Export{}
		}
		spec.Export.Dir = *outDir
	}
	if *formats != "" {
		if spec.Export == nil {
			spec.Export = &model.Export{Dir: "outputs"}
		}
		spec.Export.Formats = strings.Split(*formats, ",")
	}

	if err := store.InitDB(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to open database: %v\n", err)
		os.Exit(1)
	}

	runID := uuid.New().String()
	if err := store.SaveRun(runID, spec); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to save run: %v\n", err)
		os.Exit(1)
	}

	if err := pipeline.Run(context.Background(), runID, spec); err != nil {
		os.Exit(1)
	}
}
