package pipeline

import (
	"math"
	"time"

	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

// summarize computes the daily summary and current-weather view from a
// document's cleaned observations. Observations here have already passed
// stage 3, so temperature and humidity are always present.
func summarize(doc weather.RawDocument) weather.FilteredDocument {
	var (
		tMax = math.Inf(-1)
		tMin = math.Inf(1)
		tSum float64
		hSum float64
	)

	// Dominant weather is the most frequent description, ties broken by
	// first encounter.
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, obs := range doc.Observations {
		t := *obs.TemperatureC
		if t > tMax {
			tMax = t
		}
		if t < tMin {
			tMin = t
		}
		tSum += t
		hSum += *obs.HumidityPct

		if _, ok := counts[obs.WeatherDesc]; !ok {
			firstSeen[obs.WeatherDesc] = i
		}
		counts[obs.WeatherDesc]++
	}

	dominant := ""
	bestCount := 0
	for desc, count := range counts {
		if count > bestCount || (count == bestCount && firstSeen[desc] < firstSeen[dominant]) {
			bestCount = count
			dominant = desc
		}
	}

	n := float64(len(doc.Observations))
	summary := weather.DailySummary{
		TMax:            tMax,
		TMin:            tMin,
		TAvg:            round1(tSum / n),
		HuAvg:           round1(hSum / n),
		DominantWeather: dominant,
	}

	out := weather.FilteredDocument{
		Provinsi:       doc.Location.Provinsi,
		Kotkab:         doc.Location.Kotkab,
		Kecamatan:      doc.Location.Kecamatan,
		Desa:           doc.Location.Desa,
		Timezone:       doc.Location.Timezone,
		AdmCode:        doc.Location.AdmCode,
		AnalysisDate:   doc.AnalysisDate,
		CurrentWeather: currentWeather(doc.Observations),
		DailySummary:   summary,
	}
	if doc.Location.Lon != nil {
		out.Lon = *doc.Location.Lon
	}
	if doc.Location.Lat != nil {
		out.Lat = *doc.Location.Lat
	}
	return out
}

// currentWeather picks the observation with the latest parseable local
// timestamp, or nil if none parse. Note this is "most recent forecast
// point", not "nearest to now".
func currentWeather(observations []weather.RawObservation) *weather.CurrentWeather {
	var (
		best   *weather.RawObservation
		bestTS time.Time
	)
	for i := range observations {
		obs := &observations[i]
		if obs.LocalDatetime == "" {
			continue
		}
		ts, err := time.Parse(weather.LocalDatetimeLayout, obs.LocalDatetime)
		if err != nil {
			continue
		}
		if best == nil || ts.After(bestTS) {
			best = obs
			bestTS = ts
		}
	}
	if best == nil {
		return nil
	}
	return &weather.CurrentWeather{
		LocalDatetime: best.LocalDatetime,
		TemperatureC:  *best.TemperatureC,
		HumidityPct:   *best.HumidityPct,
		WeatherDesc:   best.WeatherDesc,
		Icon:          best.Icon,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
