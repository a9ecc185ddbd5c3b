package pipeline

import (
	"time"

	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

const (
	tempMin = 10.0
	tempMax = 40.0
	humMin  = 30.0
	humMax  = 100.0

	// maxAnalysisAge bounds how stale an observation's analysis date may be.
	maxAnalysisAge = 24 * time.Hour

	// minObservations is the smallest surviving sample that still yields a
	// meaningful daily summary.
	minObservations = 6
)

// cleanObservations drops individual observations that fail the sanity or
// recency checks, and rejects the whole document when fewer than
// minObservations survive. The observation-level analysis date wins; the
// document-level one is the fallback.
func cleanObservations(doc weather.RawDocument, now time.Time) ([]weather.RawObservation, bool) {
	cleaned := make([]weather.RawObservation, 0, len(doc.Observations))

	for _, obs := range doc.Observations {
		if obs.TemperatureC == nil || *obs.TemperatureC < tempMin || *obs.TemperatureC > tempMax {
			continue
		}
		if obs.HumidityPct == nil || *obs.HumidityPct < humMin || *obs.HumidityPct > humMax {
			continue
		}

		analysisDate := obs.AnalysisDate
		if analysisDate == "" {
			analysisDate = doc.AnalysisDate
		}
		if analysisDate == "" {
			continue
		}
		parsed, err := weather.ParseAnalysisDate(analysisDate)
		if err != nil {
			continue
		}
		if now.Sub(parsed) > maxAnalysisAge {
			continue
		}

		cleaned = append(cleaned, obs)
	}

	if len(cleaned) < minObservations {
		return nil, false
	}
	return cleaned, true
}
