package sensor

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

const dht20Address = 0x38

const (
	bitBusy        byte = 1 << 7
	bitInitialized byte = 1 << 3
)

// trigger payload per the DHT20/AHT20 datasheet.
var cmdMeasure = []byte{0xAC, 0x33, 0x00}

// p(x) = x^8 + x^5 + x^4 + 1, initial value 0xFF.
const crc8Polynomial = 0x31

var (
	// ErrNotCalibrated means the sensor reports itself uninitialized;
	// power-cycling it usually fixes this.
	ErrNotCalibrated = errors.New("sensor: dht20 not calibrated")
	// ErrMeasureTimeout means the busy flag did not clear in time.
	ErrMeasureTimeout = errors.New("sensor: dht20 measurement timed out")
	// ErrBadChecksum means the measurement frame failed CRC validation.
	ErrBadChecksum = errors.New("sensor: dht20 checksum mismatch")
)

// DHT20 reads a DHT20 (AHT20-compatible) sensor over I2C. Safe for
// concurrent use; reads are serialized by the caller or the Tracker.
type DHT20 struct {
	dev     *i2c.Dev
	timeout time.Duration
}

// OpenDHT20 opens the named periph.io I2C bus ("" for the default) and
// returns a reader for the sensor on it.
func OpenDHT20(busName string) (*DHT20, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("sensor: failed to open i2c bus %q: %w", busName, err)
	}
	return NewDHT20(bus), nil
}

// NewDHT20 wraps an already open bus.
func NewDHT20(bus i2c.Bus) *DHT20 {
	return &DHT20{
		dev:     &i2c.Dev{Bus: bus, Addr: dht20Address},
		timeout: 150 * time.Millisecond,
	}
}

// Read triggers one measurement and converts the 20-bit raw values.
// The sensor needs 80ms to measure; the busy flag is polled after that
// until it clears or the timeout expires.
func (d *DHT20) Read() (Reading, error) {
	if err := d.dev.Tx(cmdMeasure, nil); err != nil {
		return Reading{}, fmt.Errorf("sensor: dht20 trigger failed: %w", err)
	}
	time.Sleep(80 * time.Millisecond)

	deadline := time.Now().Add(d.timeout)
	frame := make([]byte, 7)
	for {
		if err := d.dev.Tx(nil, frame); err != nil {
			return Reading{}, fmt.Errorf("sensor: dht20 read failed: %w", err)
		}
		if crc8(frame[:6]) != frame[6] {
			return Reading{}, ErrBadChecksum
		}
		if frame[0]&bitInitialized == 0 {
			return Reading{}, ErrNotCalibrated
		}
		if frame[0]&bitBusy == 0 {
			break
		}
		if time.Now().After(deadline) {
			return Reading{}, ErrMeasureTimeout
		}
		time.Sleep(10 * time.Millisecond)
	}

	hRaw := uint32(frame[1])<<12 | uint32(frame[2])<<4 | uint32(frame[3])>>4
	tRaw := (uint32(frame[3])&0x0F)<<16 | uint32(frame[4])<<8 | uint32(frame[5])

	return Reading{
		TempC:       float64(tRaw)/1048576.0*200.0 - 50.0,
		HumidityPct: float64(hRaw) / 1048576.0 * 100.0,
		At:          time.Now(),
	}, nil
}

func crc8(data []byte) byte {
	var crc byte = 0xFF
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ crc8Polynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
