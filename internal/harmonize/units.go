package harmonize

// US unit conversions to the project units (kha, kt). Production is reported
// in bushels whose mass depends on the commodity; area in planted acres.
var usUnitFactors = map[string]float64{
	"ACRES PLANTED": 0.40469 / 1000,  // acres -> kha
	"CORN":          0.0254 / 1000,   // bu -> kt
	"BARLEY":        0.021772 / 1000, // bu -> kt
	"SOYBEANS":      0.0272155 / 1000,
	"WHEAT":         0.0272155 / 1000,
}

// convertUSValue applies the unit conversion keyed first on the data item
// (area rows) and then on the commodity (production rows).
func convertUSValue(dataItem, commodity string, v float64) float64 {
	if f, ok := usUnitFactors[dataItem]; ok {
		return v * f
	}
	if f, ok := usUnitFactors[commodity]; ok {
		return v * f
	}
	return v
}

// Statistics Canada reports tonnes and hectares; the project uses kt and kha.
const canadaUnitFactor = 0.001

// Argentina reports tonnes and hectares.
const argentinaUnitFactor = 1.0 / 1000

// Brazil (IBGE) reports tonnes and hectares.
const brazilUnitFactor = 1.0 / 1000

// China production sheets report 万吨 (10 kt); the area sheets are already
// in kha.
const chinaProdFactor = 1.0 / 10
