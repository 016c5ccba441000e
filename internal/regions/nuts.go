package regions

// NUTSCodeMapping maps aggregated analysis regions to the NUTS subcodes they
// merge. Aggregations follow the boundary file: small units are merged until
// every region is large enough to carry a stable yield series.
var NUTSCodeMapping = map[string][]string{
	"FR1":     {"FR10"},
	"FR2":     {"FRB0", "FRC1", "FRD1", "FRD2", "FRE2", "FRF2"},
	"FR3":     {"FRE1"},
	"FR4":     {"FRC2", "FRF1", "FRF3"},
	"FR5":     {"FRG0", "FRH0", "FRI3"},
	"FR6":     {"FRI1", "FRI2", "FRJ2"},
	"FR7":     {"FRK1", "FRK2"},
	"FR8":     {"FRJ1", "FRL0", "FRM0"},
	"ES3+4":   {"ES3", "ES4"},
	"PTother": {"PT15", "PT16", "PT17", "PT18", "PT20", "PT30"},
	"UKI+J":   {"UKI", "UKJ"},
	"DE3+4":   {"DE3", "DE4"},
	"DE9+5":   {"DE9", "DE5"},
	"DEF+6":   {"DEF", "DE6"},
	"DEB+C":   {"DEB", "DEC"},
	"FI1B+C":  {"FI1B", "FI1C"},
	"EL3+EL6": {"EL3", "EL6"},
	"TR1+2":   {"TR1", "TR2"},
}

// ChinaBoundaryNames maps province names whose boundary-file spelling differs
// from the yield tables.
var ChinaBoundaryNames = map[string][]string{
	"Inner Mongolia": {"Inner Mongol"},
	"Tibet":          {"Xizang"},
}

// NUTSRegions is the full analysis region set for Europe.
var NUTSRegions = []string{
	"ITC", "ITF", "ITG1", "ITG2", "ITH", "ITI",
	"FR1", "FR2", "FR3", "FR4", "FR5", "FR6", "FR7", "FR8",
	"DE1", "DE2", "DE3+4", "DE7", "DE8", "DE9+5", "DEA", "DEB+C", "DED", "DEE", "DEF+6", "DEG",
	"ES1", "ES2", "ES3+4", "ES5", "ES6",
	"TR1+2", "TR3", "TR4", "TR5", "TR6", "TR7", "TR8", "TR9", "TRA", "TRB", "TRC",
	"PL7", "PL2", "PL8", "PL4", "PL5", "PL6", "PL9",
	"RO1", "RO2", "RO3", "RO4",
	"SE1", "SE2", "SE3",
	"AT1", "AT2", "AT3",
	"EL3+EL6", "EL4", "EL5",
	"FI19", "FI1B+C", "FI1D",
	"PT11", "PTother",
	"UKC", "UKD", "UKE", "UKF", "UKG", "UKL", "UKH", "UKI+J", "UKK", "UKN", "UKM",
	"HU", "DK", "CZ", "BG", "RS", "LT", "AL", "BA", "BE", "CY", "EE", "IE", "LV",
	"MK", "MT", "NL", "NO", "SI", "SK", "CH", "HR", "ME", "XK",
}

var nutsSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(NUTSRegions))
	for _, r := range NUTSRegions {
		s[r] = struct{}{}
	}
	return s
}()

var nutsReverse = func() map[string]string {
	m := make(map[string]string)
	for _, agg := range NUTSRegions {
		for _, sub := range ExpandNUTS(agg) {
			if sub != agg {
				m[sub] = agg
			}
		}
	}
	return m
}()

// IsNUTSRegion reports whether code is one of the standard analysis regions.
func IsNUTSRegion(code string) bool {
	_, ok := nutsSet[code]
	return ok
}

// ExpandNUTS returns the boundary subcodes an aggregated region merges.
// Unaggregated regions map to themselves.
func ExpandNUTS(code string) []string {
	if subs, ok := NUTSCodeMapping[code]; ok {
		return subs
	}
	return []string{code}
}

// AggregateNUTS maps a boundary subcode back to its analysis region.
func AggregateNUTS(sub string) (string, bool) {
	if agg, ok := nutsReverse[sub]; ok {
		return agg, true
	}
	if IsNUTSRegion(sub) {
		return sub, true
	}
	return "", false
}
