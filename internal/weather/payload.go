package weather

import (
	"bytes"
	"encoding/json"
	"time"
)

// The upstream API answers in one of two shapes:
//
//	[{"lokasi": {...}, "cuaca": [[...], {...}, ...]}, ...]   nested lists flattened
//	{"lokasi": {...}, "data": [...], "analysis_date": "..."}  already flat
//
// NormalizePayload folds both into one canonical RawDocument at the
// ingestion boundary so nothing downstream branches on shape. Any other
// shape yields an empty-observations document, so the location is still
// marked attempted instead of left stale forever.
func NormalizePayload(raw []byte, admCode string, now time.Time) RawDocument {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '[':
			if doc, ok := decodeListPayload(trimmed, now); ok {
				return withAdmCode(doc, admCode)
			}
		case '{':
			if doc, ok := decodeDictPayload(trimmed, now); ok {
				return withAdmCode(doc, admCode)
			}
		}
	}
	return EmptyDocument(admCode, now)
}

// EmptyDocument is the placeholder written when a fetch fails or the payload
// is unusable.
func EmptyDocument(admCode string, now time.Time) RawDocument {
	return RawDocument{
		Location:     LocationInfo{AdmCode: admCode},
		Observations: []RawObservation{},
		AnalysisDate: now.UTC().Format(time.RFC3339),
	}
}

func decodeListPayload(raw []byte, now time.Time) (RawDocument, bool) {
	var entries []struct {
		Location *LocationInfo     `json:"lokasi"`
		Weather  []json.RawMessage `json:"cuaca"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return RawDocument{}, false
	}
	if len(entries) == 0 || entries[0].Location == nil || entries[0].Weather == nil {
		return RawDocument{}, false
	}

	first := entries[0]
	flat := make([]RawObservation, 0, len(first.Weather))
	for _, msg := range first.Weather {
		inner := bytes.TrimLeft(msg, " \t\r\n")
		if len(inner) == 0 {
			continue
		}
		switch inner[0] {
		case '[':
			var sub []RawObservation
			if err := json.Unmarshal(inner, &sub); err == nil {
				flat = append(flat, sub...)
			}
		case '{':
			var obs RawObservation
			if err := json.Unmarshal(inner, &obs); err == nil {
				flat = append(flat, obs)
			}
		}
	}

	analysisDate := ""
	if len(flat) > 0 {
		analysisDate = flat[0].AnalysisDate
	}
	if analysisDate == "" {
		analysisDate = now.UTC().Format(time.RFC3339)
	}

	return RawDocument{
		Location:     *first.Location,
		Observations: flat,
		AnalysisDate: analysisDate,
	}, true
}

func decodeDictPayload(raw []byte, now time.Time) (RawDocument, bool) {
	var payload struct {
		Location     *LocationInfo    `json:"lokasi"`
		Observations []RawObservation `json:"data"`
		AnalysisDate string           `json:"analysis_date"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return RawDocument{}, false
	}
	if payload.Location == nil {
		return RawDocument{}, false
	}

	obs := payload.Observations
	if obs == nil {
		obs = []RawObservation{}
	}

	analysisDate := payload.AnalysisDate
	if analysisDate == "" && len(obs) > 0 {
		analysisDate = obs[0].AnalysisDate
	}
	if analysisDate == "" {
		analysisDate = now.UTC().Format(time.RFC3339)
	}

	return RawDocument{
		Location:     *payload.Location,
		Observations: obs,
		AnalysisDate: analysisDate,
	}, true
}

func withAdmCode(doc RawDocument, admCode string) RawDocument {
	if doc.Location.AdmCode == "" {
		doc.Location.AdmCode = admCode
	}
	return doc
}
