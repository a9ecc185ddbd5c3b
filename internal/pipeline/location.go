package pipeline

import (
	"strings"

	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

// Indonesia bounding box.
const (
	lonMin = 95.0
	lonMax = 141.0
	latMin = -11.0
	latMax = 6.0
)

// timezoneAliases maps every recognized timezone spelling to its canonical
// UTC-offset form. Keys are lowercase.
var timezoneAliases = map[string]string{
	"+07:00":        "+07:00",
	"+08:00":        "+08:00",
	"+09:00":        "+09:00",
	"+0700":         "+07:00",
	"+0800":         "+08:00",
	"+0900":         "+09:00",
	"asia/jakarta":  "+07:00",
	"asia/makassar": "+08:00",
	"asia/jayapura": "+09:00",
}

// validateLocation checks that doc carries a complete administrative
// hierarchy, in-bounds coordinates, and a recognizable timezone. The
// timezone is normalized in place on success.
func validateLocation(doc *weather.RawDocument) bool {
	loc := &doc.Location

	if loc.Provinsi == "" || loc.Kotkab == "" || loc.Kecamatan == "" || loc.Desa == "" {
		return false
	}

	if loc.Lon == nil || *loc.Lon < lonMin || *loc.Lon > lonMax {
		return false
	}
	if loc.Lat == nil || *loc.Lat < latMin || *loc.Lat > latMax {
		return false
	}

	tz, ok := normalizeTimezone(loc.Timezone)
	if !ok {
		return false
	}
	loc.Timezone = tz
	return true
}

func normalizeTimezone(raw string) (string, bool) {
	tz, ok := timezoneAliases[strings.ToLower(strings.TrimSpace(raw))]
	return tz, ok
}
