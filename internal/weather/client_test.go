package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	nowPayload = `{"code":"200","now":{"text":"Sunny","temp":"23","feelsLike":"25",
		"humidity":"40","pressure":"1003","precip":"0.5","windDir":"NE",
		"windScale":"3","windSpeed":"16","icon":"100"}}`
	airPayload = `{"code":"200","now":{"aqi":"75","category":"Moderate",
		"primary":"PM2.5","pm10":"50","pm2p5":"35"}}`
	dailyPayload = `{"code":"200","daily":[
		{"fxDate":"2026-08-30","textDay":"Cloudy","tempMin":"18","tempMax":"27",
		 "humidity":"55","precip":"0.0","windDirDay":"N","windScaleDay":"1-2","iconDay":"101"},
		{"fxDate":"2026-08-31","textDay":"Rain","tempMin":"17","tempMax":"22",
		 "humidity":"80","precip":"6.2","windDirDay":"S","windScaleDay":"3-4","iconDay":"305"}]}`
	hourlyPayload = `{"code":"200","hourly":[
		{"fxTime":"2026-08-30T15:00+08:00","text":"Sunny","temp":"24","humidity":"38",
		 "pressure":"1002","precip":"0.0","windDir":"NE","windScale":"3","windSpeed":"15","icon":"100"}]}`
)

func newAPIServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(path, payload string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if requests != nil {
				requests.Add(1)
			}
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			assert.Equal(t, "1835848", r.URL.Query().Get("location"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(payload))
		})
	}
	serve("/v7/weather/now", nowPayload)
	serve("/v7/air/now", airPayload)
	serve("/v7/weather/7d", dailyPayload)
	serve("/v7/weather/24h", hourlyPayload)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestUpdateParsesSnapshot(t *testing.T) {
	srv := newAPIServer(t, nil)
	c := NewClient("test-key", "1835848", WithBaseURL(srv.URL))

	_, err := c.Snapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, c.Update(context.Background()))

	info, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Sunny", info.Now.Text)
	assert.Equal(t, 23, info.Now.Temperature)
	assert.Equal(t, 25, info.Now.FeelsLike)
	assert.Equal(t, 0.5, info.Now.Precipitation)
	assert.Equal(t, 75, info.Now.AQI)
	assert.Equal(t, "Moderate", info.Now.AQICategory)
	assert.Equal(t, 35, info.Now.AQIPM2P5)
	assert.Equal(t, 100, info.Now.Icon)
	assert.False(t, info.UpdatedAt.IsZero())

	require.Len(t, info.Daily, 2)
	assert.Equal(t, "Rain", info.Daily[1].Text)
	assert.Equal(t, 17, info.Daily[1].TempMin)
	assert.Equal(t, 6.2, info.Daily[1].Precipitation)
	assert.Equal(t, "3-4", info.Daily[1].WindScale)

	require.Len(t, info.Hourly, 1)
	assert.Equal(t, "2026-08-30T15:00+08:00", info.Hourly[0].Time)
	assert.Equal(t, 24, info.Hourly[0].Temperature)
}

func TestUpdateKeepsStaleOnFailure(t *testing.T) {
	srv := newAPIServer(t, nil)
	c := NewClient("test-key", "1835848", WithBaseURL(srv.URL))
	require.NoError(t, c.Update(context.Background()))

	srv.Close()
	err := c.Update(context.Background())
	require.Error(t, err)

	info, snapErr := c.Snapshot()
	require.NoError(t, snapErr, "stale snapshot survives a failed refresh")
	assert.Equal(t, "Sunny", info.Now.Text)
}

func TestUpdateToleratesForecastFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v7/weather/now", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(nowPayload))
	})
	mux.HandleFunc("/v7/air/now", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(airPayload))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient("k", "loc", WithBaseURL(srv.URL))
	require.NoError(t, c.Update(context.Background()))

	info, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 23, info.Now.Temperature)
	assert.Empty(t, info.Daily)
	assert.Empty(t, info.Hourly)
}

func TestTryUpdateThrottles(t *testing.T) {
	var requests atomic.Int64
	srv := newAPIServer(t, &requests)
	c := NewClient("test-key", "1835848", WithBaseURL(srv.URL))

	require.NoError(t, c.TryUpdate(context.Background()))
	after := requests.Load()
	require.NoError(t, c.TryUpdate(context.Background()))
	assert.Equal(t, after, requests.Load(), "a fresh snapshot suppresses the refetch")
}

func TestStringNumberFallbacks(t *testing.T) {
	assert.Equal(t, 0, atoi("n/a"))
	assert.Equal(t, 7, atoi("7"))
	assert.Equal(t, 0.0, atof(""))
	assert.Equal(t, 1.5, atof("1.5"))
}
