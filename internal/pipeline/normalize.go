package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tanicerdas/weather-pipeline/internal/common"
	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

// normalizeDocument title-cases administrative names, canonicalizes weather
// descriptions, and builds the alias set used by downstream search.
func normalizeDocument(doc *weather.FilteredDocument) {
	caser := cases.Title(language.Indonesian)

	doc.Provinsi = cleanAdminName(caser, doc.Provinsi, true)
	doc.Kotkab = cleanAdminName(caser, doc.Kotkab, true)
	doc.Kecamatan = cleanAdminName(caser, doc.Kecamatan, false)
	doc.Desa = cleanAdminName(caser, doc.Desa, false)

	if doc.CurrentWeather != nil && doc.CurrentWeather.WeatherDesc != "" {
		doc.CurrentWeather.WeatherDesc = CanonicalWeatherDesc(doc.CurrentWeather.WeatherDesc)
	}
	if doc.DailySummary.DominantWeather != "" {
		doc.DailySummary.DominantWeather = CanonicalWeatherDesc(doc.DailySummary.DominantWeather)
	}

	doc.Aliases = buildAliases(doc)
}

// cleanAdminName collapses whitespace and title-cases an administrative
// name. Province and regency fields additionally lose their leading
// "Kabupaten "/"Kota " prefix so "KOTA BOGOR" and "BOGOR" index identically.
func cleanAdminName(caser cases.Caser, name string, stripPrefix bool) string {
	s := common.CollapseSpaces(name)
	if stripPrefix {
		for _, prefix := range []string{"kabupaten ", "kota "} {
			if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
				s = s[len(prefix):]
				break
			}
		}
	}
	return caser.String(strings.ToLower(s))
}

// CanonicalWeatherDesc maps free-form weather descriptions onto a fixed
// vocabulary by case-insensitive substring match. Check order matters: the
// more specific phrases come first. Unmatched text is capitalized as-is.
func CanonicalWeatherDesc(desc string) string {
	d := strings.ToLower(desc)
	switch {
	case strings.Contains(d, "cerah berawan"):
		return "Cerah Berawan"
	case common.HasAny(d, "cerah", "sunny"):
		return "Cerah"
	case strings.Contains(d, "berawan tebal"):
		return "Berawan Tebal"
	case common.HasAny(d, "berawan", "cloudy"):
		return "Berawan"
	case common.HasAny(d, "hujan petir", "thunderstorm"):
		return "Hujan Petir"
	case strings.Contains(d, "hujan ringan"):
		return "Hujan Ringan"
	case strings.Contains(d, "hujan sedang"):
		return "Hujan Sedang"
	case strings.Contains(d, "hujan lebat"):
		return "Hujan Lebat"
	case strings.Contains(d, "hujan lokal"):
		return "Hujan Lokal"
	case common.HasAny(d, "kabut", "fog"):
		return "Berkabut"
	case common.HasAny(d, "asap", "smoke"):
		return "Asap"
	default:
		return capitalize(desc)
	}
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// buildAliases produces every name a user might type for this location,
// from the bare village name up to the fully qualified form, plus the adm
// code itself. The result is deduplicated, free of empty entries, and
// sorted so pipeline output stays byte-identical across runs.
func buildAliases(doc *weather.FilteredDocument) []string {
	var candidates []string

	desa, kec, kotkab, prov := doc.Desa, doc.Kecamatan, doc.Kotkab, doc.Provinsi

	if desa != "" {
		candidates = append(candidates, desa)
	}
	if desa != "" && kec != "" {
		candidates = append(candidates,
			desa+" "+kec,
			desa+", "+kec,
		)
	}
	if desa != "" && kec != "" && kotkab != "" {
		candidates = append(candidates,
			desa+" "+kec+" "+kotkab,
			desa+", "+kec+", "+kotkab,
		)
	}
	if desa != "" && kec != "" && kotkab != "" && prov != "" {
		candidates = append(candidates,
			desa+" "+kec+" "+kotkab+" "+prov,
			desa+", "+kec+", "+kotkab+", "+prov,
		)
	}
	if doc.AdmCode != "" {
		candidates = append(candidates, doc.AdmCode)
	}

	seen := make(map[string]struct{}, len(candidates))
	aliases := make([]string, 0, len(candidates))
	for _, a := range candidates {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}
