package pipeline

import (
	"testing"
	"time"

	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

func obs(temp, hum float64, analysisDate string) weather.RawObservation {
	return weather.RawObservation{
		TemperatureC: &temp,
		HumidityPct:  &hum,
		AnalysisDate: analysisDate,
	}
}

func obsN(n int, analysisDate string) []weather.RawObservation {
	out := make([]weather.RawObservation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, obs(25, 70, analysisDate))
	}
	return out
}

func TestCleanObservationsMinimumSample(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	recent := "2025-06-01T07:00:00Z"

	doc := weather.RawDocument{Observations: obsN(6, recent)}
	if _, ok := cleanObservations(doc, now); !ok {
		t.Fatal("6 valid observations must survive")
	}

	doc = weather.RawDocument{Observations: obsN(5, recent)}
	if _, ok := cleanObservations(doc, now); ok {
		t.Fatal("5 valid observations must be dropped")
	}
}

func TestCleanObservationsRanges(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	recent := "2025-06-01T07:00:00Z"

	base := obsN(6, recent)
	cases := []struct {
		name string
		bad  weather.RawObservation
	}{
		{"temperature too low", obs(9.9, 70, recent)},
		{"temperature too high", obs(40.1, 70, recent)},
		{"humidity too low", obs(25, 29.9, recent)},
		{"humidity too high", obs(25, 100.1, recent)},
		{"missing analysis date", obs(25, 70, "")},
		{"unparseable analysis date", obs(25, 70, "yesterday")},
	}
	for _, tc := range cases {
		doc := weather.RawDocument{Observations: append(append([]weather.RawObservation{}, base...), tc.bad)}
		cleaned, ok := cleanObservations(doc, now)
		if !ok {
			t.Fatalf("%s: document should survive on the 6 good observations", tc.name)
		}
		if len(cleaned) != 6 {
			t.Fatalf("%s: expected the bad observation dropped, kept %d", tc.name, len(cleaned))
		}
	}

	// Boundary values pass.
	doc := weather.RawDocument{Observations: append(obsN(5, recent), obs(10, 30, recent))}
	cleaned, ok := cleanObservations(doc, now)
	if !ok || len(cleaned) != 6 {
		t.Fatal("boundary temperature 10 and humidity 30 must pass")
	}
	doc = weather.RawDocument{Observations: append(obsN(5, recent), obs(40, 100, recent))}
	cleaned, ok = cleanObservations(doc, now)
	if !ok || len(cleaned) != 6 {
		t.Fatal("boundary temperature 40 and humidity 100 must pass")
	}
}

func TestCleanObservationsRecency(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	// Exactly 24h old passes; one second older is dropped.
	exactly := obsN(6, "2025-06-01T08:00:00Z")
	if _, ok := cleanObservations(weather.RawDocument{Observations: exactly}, now); !ok {
		t.Fatal("analysis date exactly 24h old must pass")
	}

	tooOld := obsN(6, "2025-06-01T07:59:59Z")
	if _, ok := cleanObservations(weather.RawDocument{Observations: tooOld}, now); ok {
		t.Fatal("analysis date older than 24h must be dropped")
	}
}

func TestCleanObservationsDocumentFallback(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	// Observations without their own analysis date inherit the document's.
	doc := weather.RawDocument{
		AnalysisDate: "2025-06-01T07:00:00Z",
		Observations: obsN(6, ""),
	}
	if _, ok := cleanObservations(doc, now); !ok {
		t.Fatal("document-level analysis date must apply as fallback")
	}

	// The observation-level date wins over the document-level one.
	doc = weather.RawDocument{
		AnalysisDate: "2025-06-01T07:00:00Z",
		Observations: obsN(6, "2025-05-01T00:00:00Z"),
	}
	if _, ok := cleanObservations(doc, now); ok {
		t.Fatal("stale observation-level analysis date must not be rescued by the document-level one")
	}
}
