package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epdweather/internal/display"
	"epdweather/internal/font"
	"epdweather/internal/sensor"
	"epdweather/internal/weather"
)

func testData() Data {
	info := weather.Info{
		UpdatedAt: time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC),
		Now: weather.Now{
			Text:        "Sunny",
			Temperature: 23,
			FeelsLike:   25,
			Humidity:    40,
			Pressure:    1003,
			WindDir:     "NE",
			WindScale:   3,
			WindSpeed:   16,
			AQI:         75,
			AQICategory: "Moderate",
		},
	}
	for i := 0; i < 7; i++ {
		info.Daily = append(info.Daily, weather.Forecast{
			Date: "2026-08-30", Text: "Cloudy", TempMin: 18, TempMax: 27,
			Humidity: 55, WindDir: "N", WindScale: "1-2",
		})
	}
	for i := 0; i < 24; i++ {
		info.Hourly = append(info.Hourly, weather.Hour{
			Time: "2026-08-30T15:00+08:00", Text: "Sunny", Temperature: 24,
		})
	}
	return Data{
		Now:       time.Date(2026, 8, 30, 15, 4, 0, 0, time.UTC),
		Weather:   info,
		WeatherOK: true,
		Sensor:    sensor.Reading{TempC: 22.4, HumidityPct: 45.8},
		SensorOK:  true,
		IP:        "192.168.1.20",
		Note:      "buy milk",
	}
}

func newCanvas(t *testing.T) *display.Canvas {
	t.Helper()
	c, err := display.NewCanvas(400, 300, display.White, font.Default())
	require.NoError(t, err)
	return c
}

func countInk(c *display.Canvas) (black, red int) {
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			px, _ := c.GetPixel(x, y)
			switch px {
			case display.Black:
				black++
			case display.Red:
				red++
			}
		}
	}
	return black, red
}

func TestComposeAllCycles(t *testing.T) {
	c := newCanvas(t)
	d := testData()

	for cycle := 0; cycle < len(d.Windows()); cycle++ {
		require.NoError(t, Compose(c, d, cycle), "cycle %d", cycle)
		black, red := countInk(c)
		assert.Positive(t, black, "cycle %d draws black text", cycle)
		assert.Positive(t, red, "cycle %d draws red accents", cycle)
	}
}

func TestComposeWindowTitleBand(t *testing.T) {
	c := newCanvas(t)
	require.NoError(t, Compose(c, testData(), 0))

	// The title bar is a full-width red band. Sample an edge pixel that
	// no centered title text reaches.
	px, err := c.GetPixel(1, titleBarY+2)
	require.NoError(t, err)
	assert.Equal(t, display.Red, px)
}

func TestComposeWithoutSensor(t *testing.T) {
	d := testData()
	d.SensorOK = false
	require.NoError(t, Compose(newCanvas(t), d, 0))
}

func TestComposeSparseForecast(t *testing.T) {
	d := testData()
	d.Weather.Hourly = d.Weather.Hourly[:3]
	d.Weather.Daily = nil
	// Both forecast windows must tolerate missing data.
	require.NoError(t, Compose(newCanvas(t), d, 0))
	require.NoError(t, Compose(newCanvas(t), d, 1))
}

func TestWindowsRotation(t *testing.T) {
	d := testData()
	assert.Equal(t,
		[]Window{WindowForecast7d, WindowForecast24h, WindowQuote, WindowNote},
		d.Windows())

	d.Note = "   "
	assert.Equal(t,
		[]Window{WindowForecast7d, WindowForecast24h, WindowQuote},
		d.Windows(), "blank note drops out of the rotation")
}

func TestReformat(t *testing.T) {
	assert.Equal(t, "alpha beta \ngamma ", Reformat("alpha beta gamma", 10))
	assert.Equal(t, "short ", Reformat("short", 46))
}

func TestHourLabel(t *testing.T) {
	assert.Equal(t, "15:00", hourLabel("2026-08-30T15:00+08:00"))
	assert.Equal(t, "15:00", hourLabel("15:00"))
}

func TestSplitDecimal(t *testing.T) {
	i, f := splitDecimal(22.46)
	assert.Equal(t, "22", i)
	assert.Equal(t, "5", f)

	i, f = splitDecimal(-3.0)
	assert.Equal(t, "-3", i)
	assert.Equal(t, "0", f)
}
