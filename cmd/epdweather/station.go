package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"epdweather/internal/config"
	"epdweather/internal/convert"
	"epdweather/internal/display"
	"epdweather/internal/epd"
	"epdweather/internal/font"
	"epdweather/internal/layout"
	appLog "epdweather/internal/log"
	"epdweather/internal/sensor"
	"epdweather/internal/weather"
	"epdweather/internal/web"
)

// station owns the refresh pipeline: weather fetch, sensor poll, screen
// composition and panel draw. One instance lives for the process.
type station struct {
	cfg     *config.Config
	loc     *time.Location
	weather *weather.Client
	reader  sensor.Reader // nil when the sensor is disabled
	tracker *sensor.Tracker
	driver  *epd.Driver // nil in render-only mode

	web *web.Server

	dumpDir string // non-empty enables debug artifact dumps

	mu    sync.Mutex
	cycle int
	last  layout.Data
}

func newStation(cfg *config.Config, loc *time.Location, renderOnly bool, dumpDir string) (*station, error) {
	st := &station{
		cfg:     cfg,
		loc:     loc,
		weather: weather.NewClient(cfg.Weather.Key, cfg.Weather.Location),
		tracker: sensor.NewTracker(loc),
		dumpDir: dumpDir,
	}

	if cfg.Sensor.Enabled {
		reader, err := sensor.OpenDHT20(cfg.Sensor.Bus)
		if err != nil {
			appLog.Error("sensor unavailable, continuing without it", err, "bus", cfg.Sensor.Bus)
		} else {
			st.reader = reader
		}
	}

	if !renderOnly {
		port, err := epd.OpenSPI(epd.Pins{
			SPI:  cfg.Panel.SPI,
			DC:   cfg.Panel.DC,
			RST:  cfg.Panel.RST,
			Busy: cfg.Panel.Busy,
		})
		if err != nil {
			return nil, fmt.Errorf("panel port: %w", err)
		}
		st.driver = epd.New(port, epd.DefaultOpts)
	}

	var stats web.StatsFunc
	if st.reader != nil {
		stats = st.tracker.Stats
	}
	st.web = web.NewServer(cfg, loc, st.previewCanvas, stats)
	return st, nil
}

// newCanvas allocates a frame matching the configured panel geometry.
func (st *station) newCanvas() (*display.Canvas, error) {
	border := display.White
	switch st.cfg.Screen.Border {
	case "black":
		border = display.Black
	case "red":
		border = display.Red
	}
	return display.NewCanvas(st.cfg.Screen.Width, st.cfg.Screen.Height, border, font.Default())
}

// refresh runs one full pipeline pass. Weather and sensor failures are
// logged and degrade the screen; only composition or hardware errors
// fail the cycle.
func (st *station) refresh(ctx context.Context) error {
	start := time.Now()

	if err := st.weather.TryUpdate(ctx); err != nil {
		appLog.Error("weather update failed, rendering stale data", err)
	}

	data := layout.Data{
		Now:  time.Now().In(st.loc),
		IP:   localIP(),
		Note: st.web.Note(),
	}
	if info, err := st.weather.Snapshot(); err == nil {
		data.Weather = info
		data.WeatherOK = true
	}
	if st.reader != nil {
		reading, err := st.reader.Read()
		if err != nil {
			appLog.Error("sensor read failed", err)
		} else {
			st.tracker.Record(reading)
			st.web.AddReading(reading)
			data.Sensor = reading
			data.SensorOK = true
		}
	}

	c, err := st.newCanvas()
	if err != nil {
		return err
	}

	st.mu.Lock()
	cycle := st.cycle
	st.cycle++
	st.last = data
	st.mu.Unlock()

	if err := layout.Compose(c, data, cycle); err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	if st.dumpDir != "" {
		if err := st.dump(c); err != nil {
			appLog.Error("debug dump failed", err, "dir", st.dumpDir)
		}
	}

	if st.driver != nil {
		// Partial refreshes are faster but accumulate ghosting, so a
		// full refresh runs every 12th cycle regardless.
		partial := st.cfg.Panel.Partial && cycle%12 != 0
		if err := st.driver.Draw(c, partial); err != nil {
			return fmt.Errorf("panel draw: %w", err)
		}
	}

	appLog.Info("refresh complete",
		"cycle", cycle,
		"weather", data.WeatherOK,
		"sensor", data.SensorOK,
		"elapsed", time.Since(start).String(),
	)
	return nil
}

// previewCanvas re-composes the last rendered data for /preview.png.
func (st *station) previewCanvas() (*display.Canvas, error) {
	st.mu.Lock()
	data := st.last
	cycle := st.cycle
	st.mu.Unlock()

	if data.Now.IsZero() {
		data.Now = time.Now().In(st.loc)
	}
	c, err := st.newCanvas()
	if err != nil {
		return nil, err
	}
	if cycle > 0 {
		cycle--
	}
	if err := layout.Compose(c, data, cycle); err != nil {
		return nil, err
	}
	return c, nil
}

// dump writes the raw planes and a PNG preview for offline inspection.
func (st *station) dump(c *display.Canvas) error {
	if err := os.MkdirAll(st.dumpDir, 0o700); err != nil {
		return err
	}
	black, red := c.Planes()
	if err := os.WriteFile(filepath.Join(st.dumpDir, "black.bin"), black, 0o600); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(st.dumpDir, "red.bin"), red, 0o600); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(st.dumpDir, "preview.png"))
	if err != nil {
		return err
	}
	defer f.Close()
	return convert.WritePNG(f, c)
}

// night reports whether t falls in the reduced-refresh window.
func night(t time.Time) bool {
	h := t.Hour()
	return h >= 22 || h < 6
}

// localIP finds the station's outbound IP for the status line. No
// packet is sent; the dial just resolves the route.
func localIP() string {
	conn, err := net.Dial("udp", "1.1.1.1:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.IP.String()
	}
	return ""
}
