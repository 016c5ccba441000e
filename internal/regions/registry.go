package regions

import (
	"fmt"
	"sort"
	"strings"

	"swa-yield-pipeline/internal/model"
)

// UnmappedRegionError marks a source region label with no registry entry.
// Rows carrying such labels are reported and excluded, never silently dropped.
type UnmappedRegionError struct {
	Country string
	Label   string
}

func (e *UnmappedRegionError) Error() string {
	return fmt.Sprintf("region label %q not in the %s registry", e.Label, e.Country)
}

// CountryCodes maps source country keys to ISO-3166-1 alpha-2 prefixes.
// Europe uses NUTS codes directly and has no prefix.
var CountryCodes = map[string]string{
	"europe":    "",
	"usa":       "US",
	"canada":    "CA",
	"china":     "CN",
	"india":     "IN",
	"argentina": "AR",
	"brazil":    "BR",
}

// DefaultCountries is the full source set in processing order.
var DefaultCountries = []string{"europe", "usa", "china", "india", "canada", "argentina", "brazil"}

var usaStates = map[string]string{
	"ALABAMA": "US-AL", "ALASKA": "US-AK", "ARIZONA": "US-AZ", "ARKANSAS": "US-AR",
	"CALIFORNIA": "US-CA", "COLORADO": "US-CO", "CONNECTICUT": "US-CT", "DELAWARE": "US-DE",
	"FLORIDA": "US-FL", "GEORGIA": "US-GA", "HAWAII": "US-HI", "IDAHO": "US-ID",
	"ILLINOIS": "US-IL", "INDIANA": "US-IN", "IOWA": "US-IA", "KANSAS": "US-KS",
	"KENTUCKY": "US-KY", "LOUISIANA": "US-LA", "MAINE": "US-ME", "MARYLAND": "US-MD",
	"MASSACHUSETTS": "US-MA", "MICHIGAN": "US-MI", "MINNESOTA": "US-MN", "MISSISSIPPI": "US-MS",
	"MISSOURI": "US-MO", "MONTANA": "US-MT", "NEBRASKA": "US-NE", "NEVADA": "US-NV",
	"NEW HAMPSHIRE": "US-NH", "NEW JERSEY": "US-NJ", "NEW MEXICO": "US-NM", "NEW YORK": "US-NY",
	"NORTH CAROLINA": "US-NC", "NORTH DAKOTA": "US-ND", "OHIO": "US-OH", "OKLAHOMA": "US-OK",
	"OREGON": "US-OR", "PENNSYLVANIA": "US-PA", "RHODE ISLAND": "US-RI", "SOUTH CAROLINA": "US-SC",
	"SOUTH DAKOTA": "US-SD", "TENNESSEE": "US-TN", "TEXAS": "US-TX", "UTAH": "US-UT",
	"VERMONT": "US-VT", "VIRGINIA": "US-VA", "WASHINGTON": "US-WA", "WEST VIRGINIA": "US-WV",
	"WISCONSIN": "US-WI", "WYOMING": "US-WY", "DISTRICT OF COLUMBIA": "US-DC",
}

// usaStateFIPS carries the FIPS code used as the boundary-shapefile key for
// US states.
var usaStateFIPS = map[string]string{
	"ALABAMA": "01", "ALASKA": "02", "ARIZONA": "04", "ARKANSAS": "05", "CALIFORNIA": "06",
	"COLORADO": "08", "CONNECTICUT": "09", "DELAWARE": "10", "FLORIDA": "12", "GEORGIA": "13",
	"HAWAII": "15", "IDAHO": "16", "ILLINOIS": "17", "INDIANA": "18", "IOWA": "19",
	"KANSAS": "20", "KENTUCKY": "21", "LOUISIANA": "22", "MAINE": "23", "MARYLAND": "24",
	"MASSACHUSETTS": "25", "MICHIGAN": "26", "MINNESOTA": "27", "MISSISSIPPI": "28",
	"MISSOURI": "29", "MONTANA": "30", "NEBRASKA": "31", "NEVADA": "32", "NEW HAMPSHIRE": "33",
	"NEW JERSEY": "34", "NEW MEXICO": "35", "NEW YORK": "36", "NORTH CAROLINA": "37",
	"NORTH DAKOTA": "38", "OHIO": "39", "OKLAHOMA": "40", "OREGON": "41", "PENNSYLVANIA": "42",
	"RHODE ISLAND": "44", "SOUTH CAROLINA": "45", "SOUTH DAKOTA": "46", "TENNESSEE": "47",
	"TEXAS": "48", "UTAH": "49", "VERMONT": "50", "VIRGINIA": "51", "WASHINGTON": "53",
	"WEST VIRGINIA": "54", "WISCONSIN": "55", "WYOMING": "56", "DISTRICT OF COLUMBIA": "11",
}

var chinaProvinces = map[string]string{
	"Anhui": "CN-AH", "Beijing": "CN-BJ", "Chongqing": "CN-CQ", "Fujian": "CN-FJ",
	"Gansu": "CN-GS", "Guangdong": "CN-GD", "Guangxi": "CN-GX", "Guizhou": "CN-GZ",
	"Hainan": "CN-HI", "Hebei": "CN-HE", "Heilongjiang": "CN-HL", "Henan": "CN-HA",
	"Hong Kong": "CN-HK", "Hubei": "CN-HB", "Hunan": "CN-HN", "Inner Mongolia": "CN-NM",
	"Jiangsu": "CN-JS", "Jiangxi": "CN-JX", "Jilin": "CN-JL", "Liaoning": "CN-LN",
	"Macau": "CN-MO", "Ningxia": "CN-NX", "Qinghai": "CN-QH", "Shaanxi": "CN-SN",
	"Shandong": "CN-SD", "Shanghai": "CN-SH", "Shanxi": "CN-SX", "Sichuan": "CN-SC",
	"Tianjin": "CN-TJ", "Tibet": "CN-TI", "Xinjiang": "CN-XJ", "Yunnan": "CN-YN",
	"Zhejiang": "CN-ZJ", "Taiwan": "CN-TW",
}

var indiaStates = map[string]string{
	"Andaman-And-Nicobar-Islands": "IN-AN", "Andhra-Pradesh": "IN-AP", "Arunachal-Pradesh": "IN-AR",
	"Assam": "IN-AS", "Bihar": "IN-BR", "Chandigarh": "IN-CH", "Chhattisgarh": "IN-CT",
	"Daman-And-Diu": "IN-DH", "Delhi": "IN-DL", "Goa": "IN-GA", "Gujarat": "IN-GJ",
	"Haryana": "IN-HR", "Himachal-Pradesh": "IN-HP", "Jammu-And-Kashmir": "IN-JK",
	"Jharkhand": "IN-JH", "Karnataka": "IN-KA", "Kerala": "IN-KL", "Ladakh": "IN-LA",
	"Lakshadweep": "IN-LD", "Madhya-Pradesh": "IN-MP", "Maharashtra": "IN-MH",
	"Manipur": "IN-MN", "Meghalaya": "IN-ML", "Mizoram": "IN-MZ", "Nagaland": "IN-NL",
	"Odisha": "IN-OR", "Puducherry": "IN-PY", "Punjab": "IN-PB", "Rajasthan": "IN-RJ",
	"Sikkim": "IN-SK", "Tamil-Nadu": "IN-TN", "Telangana": "IN-TG", "Tripura": "IN-TR",
	"Uttar-Pradesh": "IN-UP", "Uttarakhand": "IN-UT", "West-Bengal": "IN-WB",
}

var canadaProvinces = map[string]string{
	"Alberta": "CA-AB", "British Columbia": "CA-BC", "Manitoba": "CA-MB",
	"New Brunswick": "CA-NB", "Newfoundland and Labrador": "CA-NL", "Nova Scotia": "CA-NS",
	"Ontario": "CA-ON", "Prince Edward Island": "CA-PE", "Quebec": "CA-QC",
	"Saskatchewan": "CA-SK", "Yukon": "CA-YT", "Northwest Territories": "CA-NT",
	"Nunavut": "CA-NU",
}

var argentinaProvinces = map[string]string{
	"BUENOS AIRES": "AR-B", "CATAMARCA": "AR-K", "CHACO": "AR-H", "CHUBUT": "AR-U",
	"CORDOBA": "AR-X", "CORRIENTES": "AR-W", "ENTRE RIOS": "AR-E", "FORMOSA": "AR-P",
	"JUJUY": "AR-Y", "LA PAMPA": "AR-L", "LA RIOJA": "AR-F", "MENDOZA": "AR-M",
	"MISIONES": "AR-N", "NEUQUEN": "AR-Q", "RIO NEGRO": "AR-R", "SALTA": "AR-A",
	"SAN JUAN": "AR-J", "SAN LUIS": "AR-D", "SANTA CRUZ": "AR-Z", "SANTA FE": "AR-S",
	"SANTIAGO DEL ESTERO": "AR-G", "TUCUMAN": "AR-T", "TIERRA DEL FUEGO": "AR-V",
}

var brazilStates = map[string]string{
	"Acre": "BR-AC", "Alagoas": "BR-AL", "Amapá": "BR-AP", "Amazonas": "BR-AM",
	"Bahia": "BR-BA", "Ceará": "BR-CE", "Distrito Federal": "BR-DF", "Espírito Santo": "BR-ES",
	"Goiás": "BR-GO", "Maranhão": "BR-MA", "Mato Grosso": "BR-MT", "Mato Grosso do Sul": "BR-MS",
	"Minas Gerais": "BR-MG", "Pará": "BR-PA", "Paraíba": "BR-PB", "Paraná": "BR-PR",
	"Pernambuco": "BR-PE", "Piauí": "BR-PI", "Rio de Janeiro": "BR-RJ",
	"Rio Grande do Norte": "BR-RN", "Rio Grande do Sul": "BR-RS", "Rondônia": "BR-RO",
	"Roraima": "BR-RR", "Santa Catarina": "BR-SC", "São Paulo": "BR-SP",
	"Sergipe": "BR-SE", "Tocantins": "BR-TO",
}

var countryMaps = map[string]map[string]string{
	"usa":       usaStates,
	"china":     chinaProvinces,
	"india":     indiaStates,
	"canada":    canadaProvinces,
	"argentina": argentinaProvinces,
	"brazil":    brazilStates,
}

// Resolve maps a source region label to its standard code. USA labels are
// matched case-insensitively because QuickStats exports shout in uppercase
// while other files use title case.
func Resolve(country, label string) (string, error) {
	label = strings.TrimSpace(label)
	if country == "europe" {
		if !IsNUTSRegion(label) {
			return "", &UnmappedRegionError{Country: country, Label: label}
		}
		return label, nil
	}
	m, ok := countryMaps[country]
	if !ok {
		return "", fmt.Errorf("unknown country %q", country)
	}
	if code, ok := m[label]; ok {
		return code, nil
	}
	if country == "usa" {
		if code, ok := m[strings.ToUpper(label)]; ok {
			return code, nil
		}
	}
	return "", &UnmappedRegionError{Country: country, Label: label}
}

// GeometryKey returns the shapefile attribute value for a region label.
// US states are keyed by FIPS code, Chinese provinces by their boundary-file
// name variant, everything else by the label itself.
func GeometryKey(country, label string) string {
	switch country {
	case "usa":
		if fips, ok := usaStateFIPS[strings.ToUpper(label)]; ok {
			return fips
		}
	case "china":
		if subs, ok := ChinaBoundaryNames[label]; ok && len(subs) > 0 {
			return subs[0]
		}
	}
	return label
}

// Records returns the registry entries of one country, sorted by code.
func Records(country string) []model.RegionRecord {
	if country == "europe" {
		recs := make([]model.RegionRecord, 0, len(NUTSRegions))
		for _, code := range NUTSRegions {
			recs = append(recs, model.RegionRecord{
				Code:        code,
				Name:        code,
				Country:     "EU",
				GeometryKey: code,
			})
		}
		return recs
	}
	m, ok := countryMaps[country]
	if !ok {
		return nil
	}
	recs := make([]model.RegionRecord, 0, len(m))
	for name, code := range m {
		recs = append(recs, model.RegionRecord{
			Code:        code,
			Name:        name,
			Country:     CountryCodes[country],
			GeometryKey: GeometryKey(country, name),
		})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Code < recs[j].Code })
	return recs
}

// geometryKeyCodes inverts the registry records: shapefile key -> code.
var geometryKeyCodes = func() map[string]string {
	m := make(map[string]string)
	for _, country := range DefaultCountries {
		for _, rec := range Records(country) {
			m[rec.GeometryKey] = rec.Code
		}
	}
	return m
}()

// CodeForGeometryKey maps a boundary-shapefile attribute value back to its
// registry code, e.g. FIPS "20" to "US-KS" or "Inner Mongol" to "CN-NM".
// NUTS codes map to themselves; NUTS subcodes are not registry entries and
// report false.
func CodeForGeometryKey(key string) (string, bool) {
	code, ok := geometryKeyCodes[key]
	return code, ok
}

// Contains reports whether code belongs to the standard registry.
func Contains(code string) bool {
	if IsNUTSRegion(code) {
		return true
	}
	for _, m := range countryMaps {
		for _, c := range m {
			if c == code {
				return true
			}
		}
	}
	return false
}
