package epd

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Pins names the control lines and SPI port for the panel, using
// periph.io registry names ("GPIO13", "" for the default SPI port).
type Pins struct {
	// SPI is the spireg port name. Empty selects the default port,
	// typically /dev/spidev0.0 with CS handled in hardware.
	SPI string
	// DC is the data/command select output.
	DC string
	// RST is the reset output.
	RST string
	// Busy is the controller busy input.
	Busy string
}

// DefaultPins matches the board wiring this firmware ships with.
var DefaultPins = Pins{
	SPI:  "",
	DC:   "GPIO13",
	RST:  "GPIO14",
	Busy: "GPIO12",
}

// maxTxChunk bounds a single SPI transfer. Linux spidev commonly caps
// transfers at 4096 bytes; larger plane payloads are split.
const maxTxChunk = 4096

// SPIPort is the periph.io-backed Port for real hardware.
type SPIPort struct {
	port spi.PortCloser
	conn spi.Conn
	dc   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn
}

// OpenSPI initializes the periph host, opens the SPI port at 20MHz mode
// 0 and claims the three control pins.
func OpenSPI(pins Pins) (*SPIPort, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("epd: periph host init failed: %w", err)
	}

	port, err := spireg.Open(pins.SPI)
	if err != nil {
		return nil, fmt.Errorf("epd: failed to open SPI port %q: %w", pins.SPI, err)
	}
	conn, err := port.Connect(20*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("epd: failed to connect SPI: %w", err)
	}

	dc := gpioreg.ByName(pins.DC)
	if dc == nil {
		return nil, fmt.Errorf("epd: gpio %q not found", pins.DC)
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("epd: gpio %q Out failed: %w", pins.DC, err)
	}

	rst := gpioreg.ByName(pins.RST)
	if rst == nil {
		return nil, fmt.Errorf("epd: gpio %q not found", pins.RST)
	}
	if err := rst.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("epd: gpio %q Out failed: %w", pins.RST, err)
	}

	busy := gpioreg.ByName(pins.Busy)
	if busy == nil {
		return nil, fmt.Errorf("epd: gpio %q not found", pins.Busy)
	}
	if err := busy.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("epd: gpio %q In failed: %w", pins.Busy, err)
	}

	return &SPIPort{port: port, conn: conn, dc: dc, rst: rst, busy: busy}, nil
}

// SendCommand transmits one command byte. DC is dropped low for the
// command byte and raised again afterwards; the controller samples DC
// per byte.
func (p *SPIPort) SendCommand(cmd byte) error {
	if err := p.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := p.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	return p.dc.Out(gpio.High)
}

// SendData transmits a data payload with DC high, chunked to the spidev
// transfer limit.
func (p *SPIPort) SendData(data []byte) error {
	if err := p.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) > 0 {
		n := len(data)
		if n > maxTxChunk {
			n = maxTxChunk
		}
		if err := p.conn.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (p *SPIPort) SetReset(level bool) error {
	if level {
		return p.rst.Out(gpio.High)
	}
	return p.rst.Out(gpio.Low)
}

// ReadBusy reports the busy line. The SSD1683 holds the line high while
// refreshing.
func (p *SPIPort) ReadBusy() bool {
	return p.busy.Read() == gpio.High
}

func (p *SPIPort) Sleep(d time.Duration) {
	time.Sleep(d)
}

// Close releases the SPI port.
func (p *SPIPort) Close() error {
	return p.port.Close()
}
