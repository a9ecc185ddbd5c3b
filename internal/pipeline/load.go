package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/tanicerdas/weather-pipeline/internal/store"
	"github.com/tanicerdas/weather-pipeline/internal/weather"
)

// decodeRawDocument parses one live raw-store file. Files missing the
// lokasi or data keys are treated as malformed. A document whose location
// block lacks the adm4 code inherits the store key, which is the same code.
func decodeRawDocument(entry store.Entry) (weather.RawDocument, error) {
	var payload struct {
		Location     *weather.LocationInfo     `json:"lokasi"`
		Observations *[]weather.RawObservation `json:"data"`
		AnalysisDate string                    `json:"analysis_date"`
	}
	if err := json.Unmarshal(entry.Data, &payload); err != nil {
		return weather.RawDocument{}, err
	}
	if payload.Location == nil || payload.Observations == nil {
		return weather.RawDocument{}, fmt.Errorf("missing lokasi or data")
	}

	doc := weather.RawDocument{
		Location:     *payload.Location,
		Observations: *payload.Observations,
		AnalysisDate: payload.AnalysisDate,
	}
	if doc.Location.AdmCode == "" {
		doc.Location.AdmCode = entry.Key
	}
	return doc, nil
}
