// Package layout composes the station screens onto a display canvas.
//
// Every refresh renders the same upper half (status line, clock/date,
// current weather with room sensor readings, detail block) and one
// rotating lower window: the 7-day forecast, the 24-hour forecast, a
// quote, or the sticky note when one is set.
package layout

import (
	"fmt"
	"strings"
	"time"

	"epdweather/internal/display"
	"epdweather/internal/sensor"
	"epdweather/internal/weather"
)

// Window identifies one lower-half screen.
type Window int

const (
	WindowForecast7d Window = iota
	WindowForecast24h
	WindowQuote
	WindowNote
)

// Layout geometry. The panel is nominally 400x300; all positions follow
// the 8x16 base glyph cell.
const (
	marginX      = 16
	titleBarY    = 136
	windowBodyY  = 176
	windowHeadY  = 160
	detailY      = 80
	lineHeight   = 16
	quoteWrapCol = 46
)

// Data is everything one refresh renders.
type Data struct {
	Now time.Time

	Weather   weather.Info
	WeatherOK bool

	Sensor   sensor.Reading
	SensorOK bool

	// IP is the station address shown in the status line.
	IP string
	// Note is the sticky note body; empty means no note is set.
	Note string
}

// Windows returns the rotation for this data set: the three standard
// windows, plus the sticky note when one is present.
func (d Data) Windows() []Window {
	ws := []Window{WindowForecast7d, WindowForecast24h, WindowQuote}
	if strings.TrimSpace(d.Note) != "" {
		ws = append(ws, WindowNote)
	}
	return ws
}

// Compose clears the canvas and renders the full screen for the given
// refresh cycle. The cycle number drives the lower window rotation and
// the alternating right-hand detail panel.
func Compose(c *display.Canvas, d Data, cycle int) error {
	c.Clear(display.White)

	if err := drawStatus(c, d); err != nil {
		return err
	}
	if err := drawBrief(c, d); err != nil {
		return err
	}
	if err := drawDetail(c, d, cycle%2 == 0); err != nil {
		return err
	}

	windows := d.Windows()
	switch windows[cycle%len(windows)] {
	case WindowForecast7d:
		return drawForecast7d(c, d)
	case WindowForecast24h:
		return drawForecast24h(c, d)
	case WindowQuote:
		return drawQuote(c, d)
	case WindowNote:
		return drawNote(c, d)
	}
	return nil
}

// drawStatus puts the IP and last weather update time in the top right
// corner.
func drawStatus(c *display.Canvas, d Data) error {
	ip := d.IP
	if ip == "" {
		ip = "Unknown IP"
	}
	upd := d.Weather.UpdatedAt.In(d.Now.Location())
	line := fmt.Sprintf("%s %02d:%02d", ip, upd.Hour(), upd.Minute())
	x := c.Width() - 8*(1+len(line))
	_, err := c.Text(x, 0, 16, line, display.Black)
	return err
}

// drawBrief renders the clock, date and current readings. The hour is
// inverted red; the fractional sensor digits drop to the small size,
// chained onto the big integer part via the returned cursor.
func drawBrief(c *display.Canvas, d Data) error {
	if _, err := c.Text(marginX, 16, 32, fmt.Sprintf("%02d", d.Now.Hour()), display.InvRed); err != nil {
		return err
	}
	date := fmt.Sprintf("   %s %04d-%02d-%02d",
		d.Now.Weekday().String()[:3], d.Now.Year(), int(d.Now.Month()), d.Now.Day())
	if _, err := c.Text(marginX, 16, 32, date, display.Red); err != nil {
		return err
	}

	tempInt, tempFrac := splitDecimal(d.Sensor.TempC)
	humInt, humFrac := splitDecimal(d.Sensor.HumidityPct)
	if !d.SensorOK {
		tempInt, tempFrac, humInt, humFrac = "--", "-", "--", "-"
	}

	line := fmt.Sprintf("%s %d|%s", d.Weather.Now.Text, d.Weather.Now.Temperature, tempInt)
	x, err := c.Text(marginX, 48, 32, line, display.Black)
	if err != nil {
		return err
	}
	if x, err = c.Text(x, 60, 16, fmt.Sprintf(".%s°C ", tempFrac), display.Black); err != nil {
		return err
	}
	if x, err = c.Text(x, 48, 32, humInt, display.Black); err != nil {
		return err
	}
	_, err = c.Text(x, 60, 16, fmt.Sprintf(".%s%%", humFrac), display.Black)
	return err
}

// drawDetail renders the threshold-colored condition lines and the
// alternating right panel (air quality one cycle, comfort data the
// next).
func drawDetail(c *display.Canvas, d Data, aqiRight bool) error {
	now := d.Weather.Now

	color := display.Black
	if now.Precipitation >= 50 {
		color = display.InvRed
	}
	line := fmt.Sprintf("Precipitation: %v%%", now.Precipitation)
	if _, err := c.Text(marginX, detailY, 16, line, color); err != nil {
		return err
	}

	color = display.Black
	if now.WindScale > 5 {
		color = display.InvRed
	}
	line = fmt.Sprintf("Wind: %s %d (%d km/h)", now.WindDir, now.WindScale, now.WindSpeed)
	if _, err := c.Text(marginX, detailY+lineHeight, 16, line, color); err != nil {
		return err
	}

	switch {
	case now.AQI <= 100:
		color = display.Black
	case now.AQI <= 200:
		color = display.Red
	default:
		color = display.InvRed
	}
	line = fmt.Sprintf("AQI: %d (%s)", now.AQI, now.AQICategory)
	if _, err := c.Text(marginX, detailY+2*lineHeight, 16, line, color); err != nil {
		return err
	}

	var panel string
	if aqiRight {
		panel = fmt.Sprintf("Primary: %s\nPM10: %d ug/m3\nPM2.5: %d ug/m3",
			now.AQIPrimary, now.AQIPM10, now.AQIPM2P5)
	} else {
		panel = fmt.Sprintf("Feels-like: %d°C\nHumidity: %d%%\nPressure: %d kPa",
			now.FeelsLike, now.Humidity, now.Pressure)
	}
	_, err := c.Text(c.Width()/2, detailY, 16, panel, display.Black)
	return err
}

// drawWindowTitle renders the red band with centered white text that
// heads every lower window.
func drawWindowTitle(c *display.Canvas, title string) error {
	if err := c.Rectangle(0, titleBarY, c.Width(), lineHeight, display.Red); err != nil {
		return err
	}
	x := (c.Width() - len(title)*8) / 2
	_, err := c.Text(x, titleBarY, 16, title, display.White)
	return err
}

func drawForecast7d(c *display.Canvas, d Data) error {
	if err := drawWindowTitle(c, "WEATHER FORECAST (7 DAY)"); err != nil {
		return err
	}
	head := "Day    Brief         Temp/°C HR/% Pr/% Wind"
	if _, err := c.Text(marginX, windowHeadY, 16, head, display.Red); err != nil {
		return err
	}
	for i, f := range d.Weather.Daily {
		if windowBodyY+i*lineHeight+lineHeight > c.Height() {
			break
		}
		date := f.Date
		if len(date) > 5 {
			date = date[5:]
		}
		line := fmt.Sprintf("%s  %-12s %3d~%-3d  %2d %3.1f    %2s %s",
			date, f.Text, f.TempMin, f.TempMax, f.Humidity, f.Precipitation,
			f.WindDir, f.WindScale)
		if _, err := c.Text(marginX, windowBodyY+i*lineHeight, 16, line, display.Black); err != nil {
			return err
		}
	}
	return nil
}

func drawForecast24h(c *display.Canvas, d Data) error {
	if err := drawWindowTitle(c, "WEATHER FORECAST (24 HOURS)"); err != nil {
		return err
	}
	head := "Hour   Brief   Temp/°C  Hour   Brief   Temp/°C"
	if _, err := c.Text(marginX, windowHeadY, 16, head, display.Red); err != nil {
		return err
	}
	// Two columns of seven hours each.
	if len(d.Weather.Hourly) < 14 {
		return nil
	}
	for i := 0; i < 7; i++ {
		left, right := d.Weather.Hourly[i], d.Weather.Hourly[i+7]
		line := fmt.Sprintf("%s  %-11s %3d  %s  %-11s %3d ",
			hourLabel(left.Time), left.Text, left.Temperature,
			hourLabel(right.Time), right.Text, right.Temperature)
		if _, err := c.Text(marginX, windowBodyY+i*lineHeight, 16, line, display.Black); err != nil {
			return err
		}
	}
	return nil
}

func drawQuote(c *display.Canvas, d Data) error {
	if err := drawWindowTitle(c, "QUOTE"); err != nil {
		return err
	}
	quote := quotes[d.Now.YearDay()%len(quotes)]
	_, err := c.Text(marginX, windowBodyY, 16, Reformat(quote, quoteWrapCol), display.Black)
	return err
}

func drawNote(c *display.Canvas, d Data) error {
	if err := drawWindowTitle(c, "STICKY NOTE"); err != nil {
		return err
	}
	_, err := c.Text(marginX, windowBodyY, 16, Reformat(d.Note, quoteWrapCol), display.Black)
	return err
}

// hourLabel extracts "HH:MM" from an ISO timestamp like
// "2026-08-30T15:00+08:00".
func hourLabel(ts string) string {
	if len(ts) >= 16 {
		return ts[11:16]
	}
	return ts
}

// splitDecimal formats v with one decimal and returns the integer and
// fractional digits separately, so they can render at different sizes.
func splitDecimal(v float64) (intPart, fracPart string) {
	s := fmt.Sprintf("%.1f", v)
	intPart, fracPart, _ = strings.Cut(s, ".")
	return intPart, fracPart
}

// Reformat word-wraps text to the given column width by replacing the
// last fitting space with a newline. Words longer than the width get a
// line of their own.
func Reformat(input string, width int) string {
	var out strings.Builder
	x := 0
	for _, word := range strings.Split(input, " ") {
		if x+len(word) > width {
			out.WriteByte('\n')
			x = 0
		}
		out.WriteString(word)
		out.WriteByte(' ')
		x += len(word) + 1
	}
	return out.String()
}
