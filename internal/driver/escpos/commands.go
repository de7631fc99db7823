// internal/driver/escpos/commands.go
package escpos

// Commands contains the ESC/POS sequences used by the kiosk
var Commands = struct {
	// Basic commands
	Initialize []byte

	// Character sets
	SelectCharsetPC437 []byte
	SelectCharsetPC850 []byte
	SelectCharsetPC852 []byte
	SelectCharsetPC858 []byte

	// Paper handling
	LineFeed  []byte
	FeedLines []byte // + line count byte

	// Cutting
	CutFull    []byte
	CutPartial []byte

	// Real-time status
	StatusPaper []byte
}{
	Initialize: []byte{0x1B, 0x40}, // ESC @

	SelectCharsetPC437: []byte{0x1B, 0x74, 0x00}, // ESC t 0
	SelectCharsetPC850: []byte{0x1B, 0x74, 0x02}, // ESC t 2
	SelectCharsetPC852: []byte{0x1B, 0x74, 0x12}, // ESC t 18
	SelectCharsetPC858: []byte{0x1B, 0x74, 0x13}, // ESC t 19

	LineFeed:  []byte{0x0A},       // LF
	FeedLines: []byte{0x1B, 0x64}, // ESC d + n

	CutFull:    []byte{0x1D, 0x56, 0x00}, // GS V 0
	CutPartial: []byte{0x1D, 0x56, 0x01}, // GS V 1

	StatusPaper: []byte{0x10, 0x04, 0x04}, // DLE EOT 4
}

// Paper sensor status byte (DLE EOT 4)
const (
	paperFixedBits  = 0x12
	paperNearEndBit = 0x0C
	paperEndBits    = 0x60
)
