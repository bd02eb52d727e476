package epd

// SSD1683 command bytes, as named in the controller datasheet.
type command byte

const (
	driverOutputControl   command = 0x01
	softReset             command = 0x12
	masterActivation      command = 0x20
	displayUpdateControl2 command = 0x22
	writeRAMBW            command = 0x24
	writeRAMRed           command = 0x26
	writeVCOMRegister     command = 0x2C
	writeDummyLinePeriod  command = 0x3A
	writeGateLineWidth    command = 0x3B
	borderWaveformControl command = 0x3C
	dataEntryMode         command = 0x11
	setRAMXRange          command = 0x44
	setRAMYRange          command = 0x45
	setRAMXCounter        command = 0x4E
	setRAMYCounter        command = 0x4F
)

// Border waveform register values per stored border color. The controller
// drives the panel border from these during refresh.
const (
	borderWhite byte = 0b00000001
	borderBlack byte = 0b00000000
	borderRed   byte = 0b00000110
)

// Display update control values for the activation step. fullUpdate runs
// the complete waveform; partialUpdate trades ghosting for speed.
const (
	fullUpdate    byte = 0xF7
	partialUpdate byte = 0x0F
)
