package weather

import (
	"fmt"
	"time"
)

// LocalDatetimeLayout is the layout of observation-level local timestamps
// as delivered by the upstream API.
const LocalDatetimeLayout = "2006-01-02 15:04:05"

// LocationLink pairs an administrative location code with the upstream URL
// that serves its forecast. Links are externally supplied and read-only.
type LocationLink struct {
	AdmCode string `json:"adm4" validate:"required"`
	URL     string `json:"url" validate:"required,url"`
}

// LocationInfo describes one village-level administrative location.
// Lon/Lat are pointers so a missing coordinate is distinguishable from zero,
// which matters because lat 0 sits inside the Indonesia bounding box.
type LocationInfo struct {
	Provinsi  string   `json:"provinsi"`
	Kotkab    string   `json:"kotkab"`
	Kecamatan string   `json:"kecamatan"`
	Desa      string   `json:"desa"`
	Lon       *float64 `json:"lon"`
	Lat       *float64 `json:"lat"`
	Timezone  string   `json:"timezone"`
	AdmCode   string   `json:"adm4"`
}

// RawObservation is one hourly sample as cached from the upstream API.
// Temperature and humidity are pointers for the same missing-vs-zero reason.
type RawObservation struct {
	TemperatureC  *float64 `json:"t"`
	HumidityPct   *float64 `json:"hu"`
	WeatherDesc   string   `json:"weather_desc"`
	LocalDatetime string   `json:"local_datetime"`
	AnalysisDate  string   `json:"analysis_date,omitempty"`
	Icon          string   `json:"image,omitempty"`
}

// RawDocument is the per-location raw cache entry. Exactly one live document
// exists per admCode; superseded versions are archived, never deleted.
type RawDocument struct {
	Location     LocationInfo     `json:"lokasi"`
	Observations []RawObservation `json:"data"`
	AnalysisDate string           `json:"analysis_date"`
}

// CurrentWeather is the most recent observation of a filtered document,
// selected by latest parseable local timestamp.
type CurrentWeather struct {
	LocalDatetime string  `json:"localDatetime"`
	TemperatureC  float64 `json:"temperatureC"`
	HumidityPct   float64 `json:"humidityPct"`
	WeatherDesc   string  `json:"weatherDesc"`
	Icon          string  `json:"icon"`
}

// DailySummary aggregates one location's valid observations.
type DailySummary struct {
	TMax            float64 `json:"tMax"`
	TMin            float64 `json:"tMin"`
	TAvg            float64 `json:"tAvg"`
	HuAvg           float64 `json:"huAvg"`
	DominantWeather string  `json:"dominantWeather"`
}

// FilteredDocument is the cleaned, summarized, alias-indexed view derived
// from a RawDocument. It is rebuilt wholesale on every pipeline run.
type FilteredDocument struct {
	Provinsi       string          `json:"provinsi"`
	Kotkab         string          `json:"kotkab"`
	Kecamatan      string          `json:"kecamatan"`
	Desa           string          `json:"desa"`
	Lon            float64         `json:"lon"`
	Lat            float64         `json:"lat"`
	Timezone       string          `json:"timezone"`
	AdmCode        string          `json:"admCode"`
	AnalysisDate   string          `json:"analysisDate"`
	CurrentWeather *CurrentWeather `json:"currentWeather"`
	DailySummary   DailySummary    `json:"dailySummary"`
	Aliases        []string        `json:"aliases"`
}

// ParseAnalysisDate parses an ISO-8601 analysis date as a UTC instant.
// Strings with a Z or numeric offset are honored; a naive
// YYYY-MM-DDTHH:MM:SS string is assumed to already be UTC.
func ParseAnalysisDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized analysis date %q", s)
}
