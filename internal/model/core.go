package model

// YieldSource describes one raw regional yield table.
// Schema, units and season labelling vary per country, so the harmonizer
// dispatches on Country.
type YieldSource struct {
	Country  string `json:"country"`  // usa, china, india, canada, argentina, brazil, europe
	Format   string `json:"format"`   // csv, xlsx
	Path     string `json:"path"`     // file (or directory for india) under the data dir
	Crop     string `json:"crop"`     // crop category, e.g. "wheat"
	Encoding string `json:"encoding,omitempty"` // e.g. "latin1" for argentina
}

// YearRange bounds the harvest years kept by every stage.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether a harvest year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Start && year <= r.End
}

// SWAConfig configures the drought detector. DetectionThreshold is a pointer
// because zero is a meaningful threshold, distinct from unset.
type SWAConfig struct {
	RasterDir          string   `json:"rasterDir"`                    // monthly grids, swa_YYYY-MM.nc
	ArableMaskPath     string   `json:"arableMaskPath"`               // land-cover arable weight grid
	BoundaryShapefile  string   `json:"boundaryShapefile"`            // region polygons
	IDField            string   `json:"idField"`                      // shapefile attribute with the region code
	DetectionThreshold *float64 `json:"detectionThreshold,omitempty"` // SWA below this counts as drought
	Mode               string   `json:"mode"`                         // single, period, timeseries
	Year               int      `json:"year,omitempty"`               // for single/period modes
	Month              int      `json:"month,omitempty"`              // for single mode
	MonthStart         int      `json:"monthStart"`                   // growing-season window
	MonthEnd           int      `json:"monthEnd"`
}

// AnomalyConfig configures the yield anomaly reference.
type AnomalyConfig struct {
	Reference      string  `json:"reference"`      // mean, linear, smooth
	SmoothWindow   int     `json:"smoothWindow"`   // window length for the smooth reference
	MaxGapFraction float64 `json:"maxGapFraction"` // series with more missing data are skipped
}

// CorrelationConfig holds the threshold grids swept by the correlator plus
// the single reference pair used for indicator flags and summary reporting.
// The reference pair uses pointers: zero sits inside both sweep grids, so an
// explicit zero must stay distinguishable from unset.
type CorrelationConfig struct {
	SWAThresholds   []float64 `json:"swaThresholds"`   // drought when severity >= th
	YieldThresholds []float64 `json:"yieldThresholds"` // loss when anomaly <= th
	THSWA           *float64  `json:"thSwa,omitempty"`
	THYA            *float64  `json:"thYa,omitempty"`
}

// Export defines export targets for run artifacts.
type Export struct {
	Dir     string   `json:"dir"`     // base output directory
	Formats []string `json:"formats"` // csv, xlsx, json
}

// Workers defines number of workers per stage
type Workers struct {
	Harmonize int `json:"harmonize"`
	Drought   int `json:"drought"`
}

// ConcurrencyConfig defines extra concurrency and run options
type ConcurrencyConfig struct {
	Workers           Workers `json:"workers"`
	ChannelBufferSize int     `json:"channelBufferSize"`
	RunTimeout        string  `json:"runTimeout"` // e.g. "5m"
}

// AnalysisJobSpec defines the entire analysis run configuration
type AnalysisJobSpec struct {
	Sources     []YieldSource     `json:"sources"`
	Years       YearRange         `json:"years"`
	Regions     []string          `json:"regions,omitempty"` // restrict the analysis to these region codes

	SWA         SWAConfig         `json:"swa"`
	Anomaly     AnomalyConfig     `json:"anomaly"`
	Correlation CorrelationConfig `json:"correlation"`
	Export      *Export           `json:"export,omitempty"`
	Concurrency ConcurrencyConfig `json:"concurrency"`
}

// Defaults mirror the reference study: harvest years 1991-2023, an Apr-Sep
// growing season and a -0.67 standardized-anomaly drought threshold.
const (
	DefaultYearStart          = 1991
	DefaultYearEnd            = 2023
	DefaultMonthStart         = 4
	DefaultMonthEnd           = 9
	DefaultDetectionThreshold = -0.67
	DefaultYieldThreshold     = -0.67
	DefaultSWAThreshold       = 0.1
)

// Float returns a pointer to v, for the optional threshold fields.
func Float(v float64) *float64 {
	return &v
}

// DefaultYieldThresholds is the anomaly threshold grid swept by the correlator.
var DefaultYieldThresholds = []float64{0, -0.3, -0.5, -0.67, -1.0, -1.5}

// DefaultSWAThresholds returns the severity grid 0..1 in steps of 0.05.
func DefaultSWAThresholds() []float64 {
	ths := make([]float64, 0, 21)
	for i := 0; i <= 20; i++ {
		ths = append(ths, float64(i)*0.05)
	}
	return ths
}

// ApplyDefaults fills zero-valued spec fields with the study defaults.
func (s *AnalysisJobSpec) ApplyDefaults() {
	if s.Years.Start == 0 {
		s.Years.Start = DefaultYearStart
	}
	if s.Years.End == 0 {
		s.Years.End = DefaultYearEnd
	}
	if s.SWA.DetectionThreshold == nil {
		s.SWA.DetectionThreshold = Float(DefaultDetectionThreshold)
	}
	if s.SWA.MonthStart == 0 {
		s.SWA.MonthStart = DefaultMonthStart
	}
	if s.SWA.MonthEnd == 0 {
		s.SWA.MonthEnd = DefaultMonthEnd
	}
	if s.SWA.Mode == "" {
		s.SWA.Mode = "timeseries"
	}
	if s.SWA.IDField == "" {
		s.SWA.IDField = "REGION_ID"
	}
	if s.Anomaly.Reference == "" {
		s.Anomaly.Reference = "smooth"
	}
	if s.Anomaly.SmoothWindow == 0 {
		s.Anomaly.SmoothWindow = 7
	}
	if s.Anomaly.MaxGapFraction == 0 {
		s.Anomaly.MaxGapFraction = 0.35
	}
	if s.Correlation.THSWA == nil {
		s.Correlation.THSWA = Float(DefaultSWAThreshold)
	}
	if s.Correlation.THYA == nil {
		s.Correlation.THYA = Float(DefaultYieldThreshold)
	}
	if len(s.Correlation.SWAThresholds) == 0 {
		s.Correlation.SWAThresholds = DefaultSWAThresholds()
	}
	if len(s.Correlation.YieldThresholds) == 0 {
		s.Correlation.YieldThresholds = DefaultYieldThresholds
	}
	if s.Concurrency.Workers.Harmonize == 0 {
		s.Concurrency.Workers.Harmonize = 3
	}
	if s.Concurrency.Workers.Drought == 0 {
		s.Concurrency.Workers.Drought = 2
	}
	if s.Concurrency.ChannelBufferSize == 0 {
		s.Concurrency.ChannelBufferSize = 100
	}
}
