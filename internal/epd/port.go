package epd

import "time"

// Port is the raw command/data channel to the panel controller: an SPI
// byte stream qualified by the data/command line, plus the reset output
// and busy input. The driver owns all sequencing; a Port implementation
// only moves bytes and levels.
type Port interface {
	// SendCommand transmits a single command byte with DC low.
	SendCommand(cmd byte) error
	// SendData transmits a data payload with DC high.
	SendData(data []byte) error
	// SetReset drives the panel reset line. true is the inactive
	// (high) level.
	SetReset(level bool) error
	// ReadBusy reports whether the controller is still refreshing.
	ReadBusy() bool
	// Sleep pauses between protocol steps. Implementations for real
	// hardware just call time.Sleep; test ports may count instead.
	Sleep(d time.Duration)
}
