// Package weather fetches current conditions, air quality and forecasts
// from a QWeather-compatible API and keeps the latest good snapshot for
// the display to render. The provider encodes numbers as JSON strings;
// decoding tolerates missing or malformed fields so a partially broken
// payload degrades to zero values instead of failing the refresh.
package weather

import (
	"strconv"
	"time"
)

// Now is the current observation, merged with the air quality report.
type Now struct {
	Text          string  `json:"text"`
	Temperature   int     `json:"temperature"`
	FeelsLike     int     `json:"feels_like"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	Precipitation float64 `json:"precipitation"`
	WindDir       string  `json:"wind_dir"`
	WindScale     int     `json:"wind_scale"`
	WindSpeed     int     `json:"wind_speed"`
	AQI           int     `json:"aqi"`
	AQICategory   string  `json:"aqi_category"`
	AQIPrimary    string  `json:"aqi_primary"`
	AQIPM10       int     `json:"aqi_pm10"`
	AQIPM2P5      int     `json:"aqi_pm2p5"`
	Icon          int     `json:"icon"`
}

// Hour is one hourly forecast entry.
type Hour struct {
	Time          string  `json:"time"`
	Text          string  `json:"text"`
	Temperature   int     `json:"temperature"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	Precipitation float64 `json:"precipitation"`
	WindDir       string  `json:"wind_dir"`
	WindScale     string  `json:"wind_scale"`
	WindSpeed     int     `json:"wind_speed"`
	Icon          int     `json:"icon"`
}

// Forecast is one daily forecast entry.
type Forecast struct {
	Date          string  `json:"date"`
	Text          string  `json:"text"`
	TempMin       int     `json:"temp_min"`
	TempMax       int     `json:"temp_max"`
	Humidity      int     `json:"humidity"`
	Precipitation float64 `json:"precipitation"`
	WindDir       string  `json:"wind_dir"`
	WindScale     string  `json:"wind_scale"`
	Icon          int     `json:"icon"`
}

// Info is one coherent weather snapshot.
type Info struct {
	UpdatedAt time.Time  `json:"updated_at"`
	Now       Now        `json:"now"`
	Hourly    []Hour     `json:"hourly"`
	Daily     []Forecast `json:"daily"`
}

// The provider serializes every number as a string; these decode with a
// zero fallback so one bad field does not sink the whole payload.

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
