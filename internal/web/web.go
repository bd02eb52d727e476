// Package web serves the station's control page: sticky note editing,
// manual refresh, the sensor history JSON and a PNG preview of what the
// panel currently shows.
package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"epdweather/internal/config"
	"epdweather/internal/convert"
	"epdweather/internal/display"
	appLog "epdweather/internal/log"
	"epdweather/internal/sensor"
)

//go:embed static
var embeddedStatic embed.FS

// PreviewFunc composes the current screen for /preview.png. It runs on
// the request path, so implementations render into a scratch canvas
// rather than the one owned by the refresh loop.
type PreviewFunc func() (*display.Canvas, error)

// sensorRecord is one point of the /sensor history.
type sensorRecord struct {
	Time     string  `json:"time"`
	Temp     float64 `json:"temp"`
	Humidity float64 `json:"humidity"`
}

// Server holds the station's shared HTTP state. The refresh loop feeds
// readings in and polls the note and refresh flag out.
// StatsFunc reports the latest reading with the day's extremes; ok is
// false before the first reading.
type StatsFunc func() (sensor.Stats, bool)

type Server struct {
	cfg     *config.Config
	loc     *time.Location
	mux     *http.ServeMux
	preview PreviewFunc
	stats   StatsFunc

	mu      sync.Mutex
	note    string
	history []sensorRecord
	day     int

	refresh atomic.Bool
}

// NewServer constructs the server. loc is the station timezone, used
// for sensor history timestamps and the midnight rollover.
func NewServer(cfg *config.Config, loc *time.Location, preview PreviewFunc, stats StatsFunc) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		cfg:     cfg,
		loc:     loc,
		mux:     http.NewServeMux(),
		preview: preview,
		stats:   stats,
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped with basic auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Note returns the current sticky note body.
func (s *Server) Note() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note
}

// ConsumeRefresh reports whether a manual refresh was requested and
// clears the flag.
func (s *Server) ConsumeRefresh() bool {
	return s.refresh.Swap(false)
}

// AddReading appends a sensor reading to the /sensor history. The
// history resets when a reading lands on a new calendar day.
func (s *Server) AddReading(r sensor.Reading) {
	local := r.At.In(s.loc)
	day := local.Year()*1000 + local.YearDay()

	s.mu.Lock()
	defer s.mu.Unlock()
	if day != s.day {
		s.day = day
		s.history = s.history[:0]
	}
	s.history = append(s.history, sensorRecord{
		Time:     fmt.Sprintf("%02d:%02d", local.Hour(), local.Minute()),
		Temp:     r.TempC,
		Humidity: r.HumidityPct,
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/refresh", s.handleRefresh)
	s.mux.HandleFunc("/sensor", s.handleSensor)
	s.mux.HandleFunc("/sensor/stats", s.handleSensorStats)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/preview.png", s.handlePreview)
}

// handleIndex serves the note form on GET and stores the note on POST.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		template, err := embeddedStatic.ReadFile("static/index.html")
		if err != nil {
			http.Error(w, "static UI not available", http.StatusInternalServerError)
			return
		}
		s.mu.Lock()
		note := s.note
		s.mu.Unlock()
		page := strings.Replace(string(template), "[[[PLACEHOLDER]]]", note, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		note := r.PostFormValue("sticky")
		s.mu.Lock()
		s.note = note
		s.mu.Unlock()
		appLog.Info("sticky note updated", "length", len(note))
		s.serveCompleted(w)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.refresh.Store(true)
	appLog.Info("manual refresh requested")
	s.serveCompleted(w)
}

func (s *Server) handleSensor(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	records := make([]sensorRecord, len(s.history))
	copy(records, s.history)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, records)
}

// handleSensorStats serves the latest reading plus the day's extremes.
func (s *Server) handleSensorStats(w http.ResponseWriter, _ *http.Request) {
	if s.stats == nil {
		http.Error(w, "sensor not available", http.StatusNotFound)
		return
	}
	stats, ok := s.stats()
	if !ok {
		http.Error(w, "no readings yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview renders the current screen as a PNG.
func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	if s.preview == nil {
		http.Error(w, "preview not available", http.StatusNotFound)
		return
	}
	c, err := s.preview()
	if err != nil {
		appLog.Error("preview render failed", err)
		http.Error(w, "preview render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := convert.WritePNG(w, c); err != nil {
		appLog.Error("preview encode failed", err)
	}
}

func (s *Server) serveCompleted(w http.ResponseWriter) {
	page, err := embeddedStatic.ReadFile("static/completed.html")
	if err != nil {
		http.Error(w, "static UI not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware guards every endpoint except /health, which stays
// open for liveness probes.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="epdweather", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}
