package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	appLog "epdweather/internal/log"
)

// DefaultBaseURL is the free-tier QWeather API host.
const DefaultBaseURL = "https://devapi.qweather.com"

// minUpdateInterval throttles TryUpdate so cron jitter and manual
// refreshes do not burn through the provider's request quota.
const minUpdateInterval = 30 * time.Minute

// ErrNoSnapshot is returned by Snapshot before the first successful
// update.
var ErrNoSnapshot = errors.New("weather: no snapshot yet")

// Client fetches and caches weather data for one location. Safe for
// concurrent use: the web handlers read snapshots while the refresh
// loop updates them.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	location   string

	mu   sync.RWMutex
	info Info
	ok   bool
}

// Option adjusts a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host. Tests use this
// with httptest servers.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient returns a client for the given API key and location ID.
func NewClient(key, location string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    DefaultBaseURL,
		key:        key,
		location:   location,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Snapshot returns the last good weather data. The error is ErrNoSnapshot
// until the first successful Update.
func (c *Client) Snapshot() (Info, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ok {
		return Info{}, ErrNoSnapshot
	}
	return c.info, nil
}

// TryUpdate refreshes the snapshot unless the current one is younger
// than the provider quota interval. Failures leave the previous
// snapshot in place.
func (c *Client) TryUpdate(ctx context.Context) error {
	c.mu.RLock()
	fresh := c.ok && time.Since(c.info.UpdatedAt) < minUpdateInterval
	c.mu.RUnlock()
	if fresh {
		return nil
	}
	return c.Update(ctx)
}

// Update unconditionally fetches all four endpoints and replaces the
// snapshot. The snapshot is replaced only when the current-conditions
// and air-quality calls both succeed; forecast failures keep the stale
// forecast but still refresh the observation.
func (c *Client) Update(ctx context.Context) error {
	start := time.Now()

	var obs struct {
		Now struct {
			Text      string `json:"text"`
			Temp      string `json:"temp"`
			FeelsLike string `json:"feelsLike"`
			Humidity  string `json:"humidity"`
			Pressure  string `json:"pressure"`
			Precip    string `json:"precip"`
			WindDir   string `json:"windDir"`
			WindScale string `json:"windScale"`
			WindSpeed string `json:"windSpeed"`
			Icon      string `json:"icon"`
		} `json:"now"`
	}
	if err := c.fetch(ctx, "/v7/weather/now", &obs); err != nil {
		return fmt.Errorf("weather: current conditions: %w", err)
	}

	var air struct {
		Now struct {
			AQI      string `json:"aqi"`
			Category string `json:"category"`
			Primary  string `json:"primary"`
			PM10     string `json:"pm10"`
			PM2P5    string `json:"pm2p5"`
		} `json:"now"`
	}
	if err := c.fetch(ctx, "/v7/air/now", &air); err != nil {
		return fmt.Errorf("weather: air quality: %w", err)
	}

	now := Now{
		Text:          obs.Now.Text,
		Temperature:   atoi(obs.Now.Temp),
		FeelsLike:     atoi(obs.Now.FeelsLike),
		Humidity:      atoi(obs.Now.Humidity),
		Pressure:      atoi(obs.Now.Pressure),
		Precipitation: atof(obs.Now.Precip),
		WindDir:       obs.Now.WindDir,
		WindScale:     atoi(obs.Now.WindScale),
		WindSpeed:     atoi(obs.Now.WindSpeed),
		AQI:           atoi(air.Now.AQI),
		AQICategory:   air.Now.Category,
		AQIPrimary:    air.Now.Primary,
		AQIPM10:       atoi(air.Now.PM10),
		AQIPM2P5:      atoi(air.Now.PM2P5),
		Icon:          atoi(obs.Now.Icon),
	}

	daily, dailyErr := c.fetchDaily(ctx)
	hourly, hourlyErr := c.fetchHourly(ctx)

	c.mu.Lock()
	c.info.Now = now
	c.info.UpdatedAt = time.Now()
	if dailyErr == nil {
		c.info.Daily = daily
	}
	if hourlyErr == nil {
		c.info.Hourly = hourly
	}
	c.ok = true
	c.mu.Unlock()

	if dailyErr != nil {
		appLog.Error("weather daily forecast fetch failed", dailyErr)
	}
	if hourlyErr != nil {
		appLog.Error("weather hourly forecast fetch failed", hourlyErr)
	}
	appLog.Info("weather updated",
		"temperature", now.Temperature,
		"text", now.Text,
		"aqi", now.AQI,
		"elapsed", time.Since(start).String(),
	)
	return nil
}

func (c *Client) fetchDaily(ctx context.Context) ([]Forecast, error) {
	var payload struct {
		Daily []struct {
			FxDate       string `json:"fxDate"`
			TextDay      string `json:"textDay"`
			TempMin      string `json:"tempMin"`
			TempMax      string `json:"tempMax"`
			Humidity     string `json:"humidity"`
			Precip       string `json:"precip"`
			WindDirDay   string `json:"windDirDay"`
			WindScaleDay string `json:"windScaleDay"`
			IconDay      string `json:"iconDay"`
		} `json:"daily"`
	}
	if err := c.fetch(ctx, "/v7/weather/7d", &payload); err != nil {
		return nil, err
	}
	out := make([]Forecast, 0, len(payload.Daily))
	for _, d := range payload.Daily {
		out = append(out, Forecast{
			Date:          d.FxDate,
			Text:          d.TextDay,
			TempMin:       atoi(d.TempMin),
			TempMax:       atoi(d.TempMax),
			Humidity:      atoi(d.Humidity),
			Precipitation: atof(d.Precip),
			WindDir:       d.WindDirDay,
			WindScale:     d.WindScaleDay,
			Icon:          atoi(d.IconDay),
		})
	}
	return out, nil
}

func (c *Client) fetchHourly(ctx context.Context) ([]Hour, error) {
	var payload struct {
		Hourly []struct {
			FxTime    string `json:"fxTime"`
			Text      string `json:"text"`
			Temp      string `json:"temp"`
			Humidity  string `json:"humidity"`
			Pressure  string `json:"pressure"`
			Precip    string `json:"precip"`
			WindDir   string `json:"windDir"`
			WindScale string `json:"windScale"`
			WindSpeed string `json:"windSpeed"`
			Icon      string `json:"icon"`
		} `json:"hourly"`
	}
	if err := c.fetch(ctx, "/v7/weather/24h", &payload); err != nil {
		return nil, err
	}
	out := make([]Hour, 0, len(payload.Hourly))
	for _, h := range payload.Hourly {
		out = append(out, Hour{
			Time:          h.FxTime,
			Text:          h.Text,
			Temperature:   atoi(h.Temp),
			Humidity:      atoi(h.Humidity),
			Pressure:      atoi(h.Pressure),
			Precipitation: atof(h.Precip),
			WindDir:       h.WindDir,
			WindScale:     h.WindScale,
			WindSpeed:     atoi(h.WindSpeed),
			Icon:          atoi(h.Icon),
		})
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, path string, out any) error {
	u := fmt.Sprintf("%s%s?location=%s&key=%s&lang=cn",
		c.baseURL, path, url.QueryEscape(c.location), url.QueryEscape(c.key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
