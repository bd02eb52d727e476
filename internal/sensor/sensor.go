// Package sensor reads the room temperature/humidity sensor and keeps
// the daily min/max aggregates the display and web API report.
package sensor

import (
	"sync"
	"time"
)

// Reading is one environmental measurement.
type Reading struct {
	// TempC is the air temperature in degrees Celsius.
	TempC float64 `json:"temperature"`
	// HumidityPct is the relative humidity, 0..100.
	HumidityPct float64 `json:"humidity"`
	// At is when the measurement was taken.
	At time.Time `json:"at"`
}

// Reader is a source of environmental readings.
type Reader interface {
	Read() (Reading, error)
}

// Stats is a reading together with the day's extremes.
type Stats struct {
	Current Reading `json:"current"`
	MinC    float64 `json:"min_temperature"`
	MaxC    float64 `json:"max_temperature"`
}

// Tracker accumulates readings and tracks the daily temperature
// extremes. The extremes reset when a reading lands on a new calendar
// day in the tracker's timezone. Safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	loc  *time.Location
	day  int // year*1000 + yday of the extremes window
	last Reading
	min  float64
	max  float64
	seen bool
}

// NewTracker returns a tracker that resets extremes at midnight in loc.
func NewTracker(loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	return &Tracker{loc: loc}
}

// Record folds a reading into the daily aggregates.
func (t *Tracker) Record(r Reading) {
	t.mu.Lock()
	defer t.mu.Unlock()

	local := r.At.In(t.loc)
	day := local.Year()*1000 + local.YearDay()
	if !t.seen || day != t.day {
		t.day = day
		t.min = r.TempC
		t.max = r.TempC
		t.seen = true
	} else {
		if r.TempC < t.min {
			t.min = r.TempC
		}
		if r.TempC > t.max {
			t.max = r.TempC
		}
	}
	t.last = r
}

// Stats returns the latest reading and the day's extremes. ok is false
// until the first Record.
func (t *Tracker) Stats() (Stats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.seen {
		return Stats{}, false
	}
	return Stats{Current: t.last, MinC: t.min, MaxC: t.max}, true
}
