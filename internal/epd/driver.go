// Package epd drives an SSD1683-class tri-color e-paper controller over
// a command/data SPI interface. The controller keeps two monochrome
// bit-planes in its own RAM; a draw is a pure transcoding step that
// programs the RAM window, streams both planes and triggers the physical
// refresh.
package epd

import (
	"errors"
	"fmt"
	"time"

	"epdweather/internal/display"
	appLog "epdweather/internal/log"
)

var (
	// ErrHardware wraps SPI/GPIO transmit failures. A draw that hits
	// one is aborted immediately; the controller may be left in an
	// undefined state and the only recovery is to re-run the full
	// reset+draw sequence.
	ErrHardware = errors.New("epd: hardware I/O error")

	// ErrBusyTimeout is returned when Opts.BusyTimeout is set and the
	// busy line does not clear in time.
	ErrBusyTimeout = errors.New("epd: busy line did not clear")

	// ErrInvalidBorder is returned when the canvas border color has no
	// border waveform encoding.
	ErrInvalidBorder = errors.New("epd: invalid border color")
)

// Opts carries the controller tuning constants. The defaults match the
// SSD1683 sequence this firmware has always used; they are explicit here
// so a different panel revision is a config change, not a code change.
type Opts struct {
	// VCOM is the VCOM voltage register value.
	VCOM byte
	// DummyLinePeriod and GateLineWidth are waveform timing values.
	DummyLinePeriod byte
	GateLineWidth   byte
	// DataEntry selects the RAM address increment direction.
	DataEntry byte

	// BusyPollInterval is the sleep granularity while waiting for the
	// busy line. Zero means 10ms.
	BusyPollInterval time.Duration
	// BusyTimeout bounds a single busy wait. Zero means wait forever,
	// which matches the controller datasheet expectation; test
	// harnesses set it so a stuck mock cannot hang the suite.
	BusyTimeout time.Duration

	// ResetSettle is the hold time on each edge of the reset pulse.
	// Zero means 10ms.
	ResetSettle time.Duration
	// SoftResetSettle is the wait after the soft-reset command. Zero
	// means 1s.
	SoftResetSettle time.Duration

	// PartialSkipsSetup makes partial draws reprogram only the RAM
	// counters instead of the full register sequence. Some controller
	// revisions need the full sequence every time; both behaviors are
	// supported.
	PartialSkipsSetup bool
	// PartialUpdateMode overrides the display-update-control value
	// used for partial activation. Zero means the default.
	PartialUpdateMode byte
}

// DefaultOpts are the tuning constants for the stock SSD1683 panel.
var DefaultOpts = Opts{
	VCOM:            0x70,
	DummyLinePeriod: 0x1B,
	GateLineWidth:   0x0B,
	DataEntry:       0x03,
}

// Driver is the panel protocol engine. It holds no cached controller
// state: every full draw reprograms the complete sequence from scratch.
// Not safe for concurrent use; the caller sequences draw cycles.
type Driver struct {
	port Port
	opts Opts
}

// New returns a Driver speaking through the given port.
func New(port Port, opts Opts) *Driver {
	if opts.BusyPollInterval <= 0 {
		opts.BusyPollInterval = 10 * time.Millisecond
	}
	if opts.ResetSettle <= 0 {
		opts.ResetSettle = 10 * time.Millisecond
	}
	if opts.SoftResetSettle <= 0 {
		opts.SoftResetSettle = time.Second
	}
	if opts.PartialUpdateMode == 0 {
		opts.PartialUpdateMode = partialUpdate
	}
	return &Driver{port: port, opts: opts}
}

// Draw programs the controller and pushes both canvas planes to panel
// RAM, then triggers the refresh. With partial=true the faster partial
// waveform is used for activation, trading ghosting for speed.
//
// Any transmit failure aborts immediately and wraps ErrHardware. The
// sequence is not resumable: callers recover by calling Draw again,
// which restarts from the hardware reset.
func (d *Driver) Draw(c *display.Canvas, partial bool) error {
	start := time.Now()

	if err := d.reset(); err != nil {
		return err
	}

	if !partial || !d.opts.PartialSkipsSetup {
		if err := d.programSetup(c); err != nil {
			return err
		}
	}
	if err := d.resetCounters(); err != nil {
		return err
	}

	// The controller treats 1=white in its first plane, so the B/W
	// payload is the inverse of "has ink". Red rides in the second
	// plane at face value.
	if err := d.sendCommand(writeRAMBW, buildPlane(c, display.White)...); err != nil {
		return err
	}
	if err := d.sendCommand(writeRAMRed, buildPlane(c, display.Red)...); err != nil {
		return err
	}

	if err := d.waitUntilIdle(); err != nil {
		return err
	}
	if partial {
		if err := d.sendCommand(displayUpdateControl2, d.opts.PartialUpdateMode); err != nil {
			return err
		}
	}
	if err := d.sendCommand(masterActivation); err != nil {
		return err
	}

	appLog.Debug("panel draw issued",
		"partial", partial,
		"elapsed", time.Since(start).String(),
	)
	return nil
}

// reset runs the hardware reset pulse and soft reset, then waits for the
// controller to settle. It is the prerequisite of every refresh.
func (d *Driver) reset() error {
	if err := d.port.SetReset(false); err != nil {
		return fmt.Errorf("%w: reset low: %w", ErrHardware, err)
	}
	d.port.Sleep(d.opts.ResetSettle)
	if err := d.port.SetReset(true); err != nil {
		return fmt.Errorf("%w: reset high: %w", ErrHardware, err)
	}
	d.port.Sleep(d.opts.ResetSettle)
	if err := d.sendCommand(softReset); err != nil {
		return err
	}
	d.port.Sleep(d.opts.SoftResetSettle)
	return d.waitUntilIdle()
}

// programSetup writes the full register sequence: gate counts, timing,
// data entry mode, RAM window, VCOM and border waveform.
func (d *Driver) programSetup(c *display.Canvas) error {
	h := c.Height()
	if err := d.sendCommand(driverOutputControl, byte(h-1), byte((h-1)>>8), 0x00); err != nil {
		return err
	}
	if err := d.sendCommand(writeDummyLinePeriod, d.opts.DummyLinePeriod); err != nil {
		return err
	}
	if err := d.sendCommand(writeGateLineWidth, d.opts.GateLineWidth); err != nil {
		return err
	}
	if err := d.sendCommand(dataEntryMode, d.opts.DataEntry); err != nil {
		return err
	}
	if err := d.sendCommand(setRAMXRange, 0x00, byte(c.Width()/8-1)); err != nil {
		return err
	}
	if err := d.sendCommand(setRAMYRange, 0x00, 0x00, byte(h-1), byte((h-1)>>8)); err != nil {
		return err
	}
	if err := d.sendCommand(writeVCOMRegister, d.opts.VCOM); err != nil {
		return err
	}

	var border byte
	switch c.BorderColor() {
	case display.White:
		border = borderWhite
	case display.Black:
		border = borderBlack
	case display.Red:
		border = borderRed
	default:
		return fmt.Errorf("%w: %s", ErrInvalidBorder, c.BorderColor())
	}
	return d.sendCommand(borderWaveformControl, border)
}

// resetCounters puts the RAM address counters back at the origin so the
// plane payloads land at (0,0).
func (d *Driver) resetCounters() error {
	if err := d.sendCommand(setRAMXCounter, 0x00); err != nil {
		return err
	}
	return d.sendCommand(setRAMYCounter, 0x00, 0x00)
}

func (d *Driver) sendCommand(cmd command, data ...byte) error {
	if err := d.port.SendCommand(byte(cmd)); err != nil {
		return fmt.Errorf("%w: command %#02x: %w", ErrHardware, byte(cmd), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.port.SendData(data); err != nil {
		return fmt.Errorf("%w: data for %#02x: %w", ErrHardware, byte(cmd), err)
	}
	return nil
}

// waitUntilIdle polls the busy line at the configured granularity. With
// no timeout configured a stuck busy line blocks forever; liveness
// beyond that is an external watchdog's job.
func (d *Driver) waitUntilIdle() error {
	deadline := time.Time{}
	if d.opts.BusyTimeout > 0 {
		deadline = time.Now().Add(d.opts.BusyTimeout)
	}
	for d.port.ReadBusy() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrBusyTimeout, d.opts.BusyTimeout)
		}
		d.port.Sleep(d.opts.BusyPollInterval)
	}
	return nil
}

// buildPlane serializes the canvas into one controller RAM payload:
// bit=1 where the pixel matches color, packed MSB-first with linear
// index x + y*width.
func buildPlane(c *display.Canvas, color display.Color) []byte {
	data := make([]byte, c.Width()*c.Height()/8)
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			px, err := c.GetPixel(x, y)
			if err != nil || px != color {
				continue
			}
			pos := x + y*c.Width()
			data[pos/8] |= 0x80 >> (pos % 8)
		}
	}
	return data
}
