package weather

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// TestNormalizeListPayload verifies the list shape: the first element's
// location is taken and nested weather lists are flattened in order.
func TestNormalizeListPayload(t *testing.T) {
	raw := []byte(`[
		{
			"lokasi": {"provinsi": "JAWA BARAT", "adm4": "3201011001"},
			"cuaca": [
				[
					{"t": 26, "hu": 70, "weather_desc": "Cerah", "local_datetime": "2025-06-01 07:00:00", "analysis_date": "2025-06-01T00:00:00Z"},
					{"t": 27, "hu": 68, "weather_desc": "Cerah", "local_datetime": "2025-06-01 08:00:00"}
				],
				{"t": 28, "hu": 65, "weather_desc": "Berawan", "local_datetime": "2025-06-01 09:00:00"}
			]
		}
	]`)

	doc := NormalizePayload(raw, "3201011001", testNow)
	if len(doc.Observations) != 3 {
		t.Fatalf("expected 3 flattened observations, got %d", len(doc.Observations))
	}
	if doc.Location.Provinsi != "JAWA BARAT" {
		t.Fatalf("unexpected location: %+v", doc.Location)
	}
	if doc.AnalysisDate != "2025-06-01T00:00:00Z" {
		t.Fatalf("expected analysis date from first observation, got %q", doc.AnalysisDate)
	}
	if *doc.Observations[2].TemperatureC != 28 {
		t.Fatalf("flatten order wrong: %+v", doc.Observations)
	}
}

// TestNormalizeDictPayload verifies the already-flat dict shape.
func TestNormalizeDictPayload(t *testing.T) {
	raw := []byte(`{
		"lokasi": {"desa": "SUKAMAJU"},
		"data": [{"t": 30, "hu": 60, "weather_desc": "Cerah"}],
		"analysis_date": "2025-06-01T06:00:00Z"
	}`)

	doc := NormalizePayload(raw, "3201011001", testNow)
	if len(doc.Observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(doc.Observations))
	}
	if doc.AnalysisDate != "2025-06-01T06:00:00Z" {
		t.Fatalf("unexpected analysis date %q", doc.AnalysisDate)
	}
	// The payload omitted adm4, so the link's code is adopted.
	if doc.Location.AdmCode != "3201011001" {
		t.Fatalf("expected adm code fallback, got %q", doc.Location.AdmCode)
	}
}

// TestNormalizeUnknownShape verifies any other shape yields an
// empty-observations document so the location is still marked attempted.
func TestNormalizeUnknownShape(t *testing.T) {
	for _, raw := range []string{
		`"just a string"`,
		`[]`,
		`[{"unexpected": true}]`,
		`{"no_location_here": 1}`,
		`not json at all`,
		``,
	} {
		doc := NormalizePayload([]byte(raw), "3201011001", testNow)
		if len(doc.Observations) != 0 {
			t.Fatalf("payload %q: expected empty observations", raw)
		}
		if doc.Location.AdmCode != "3201011001" {
			t.Fatalf("payload %q: expected adm code on empty document", raw)
		}
		if doc.AnalysisDate == "" {
			t.Fatalf("payload %q: expected analysis date on empty document", raw)
		}
	}
}

// TestParseAnalysisDate covers the accepted ISO-8601 variants.
func TestParseAnalysisDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-06-01T06:00:00Z", time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)},
		{"2025-06-01T13:00:00+07:00", time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)},
		// Naive datetimes are assumed UTC.
		{"2025-06-01T06:00:00", time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseAnalysisDate(tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := ParseAnalysisDate("01/06/2025"); err == nil {
		t.Fatal("expected error for unrecognized format")
	}
}
