package harmonize

import (
	"fmt"
	"strconv"
	"strings"

	"swa-yield-pipeline/internal/model"
)

// SplitSeasonYear converts a split-season label to its harvest year.
// "1991-92" and "1969/70" both label the season sown in the first year and
// harvested in the second, so the harvest year is first+1.
func SplitSeasonYear(label string) (int, error) {
	label = strings.TrimSpace(label)
	sep := "-"
	if strings.Contains(label, "/") {
		sep = "/"
	}
	parts := strings.SplitN(label, sep, 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("not a split-season label: %q", label)
	}
	first, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("bad season start year in %q: %w", label, err)
	}
	return first + 1, nil
}

// ApplyHarvestConvention shifts an observation onto the harvest-year axis.
// Observations already carrying the HarvestShifted flag are left untouched,
// so applying the convention twice is a no-op.
func ApplyHarvestConvention(obs *model.YieldObservation, offset int) {
	if obs.HarvestShifted {
		return
	}
	obs.Year += offset
	obs.HarvestShifted = true
}
