package transport

import (
	"fmt"

	"github.com/kstaniek/serialtransfer/internal/crc"
)

// Config is the fixed-at-construction configuration for a Layer, the direct
// analogue of the source's constructor keyword arguments. Validate must be
// called (NewLayer does this for you) before the configuration is used; the
// shape — a batch of independent range/type checks, each returning a
// descriptive error — mirrors the teacher's cmd/can-server/config.go
// (*appConfig).validate().
type Config struct {
	Port string
	Baud int

	CRCWidth     crc.Width
	Polynomial   uint32
	InitialValue uint32
	FinalXOR     uint32

	MaxTX int // MAX_TX, payload bytes, in [1,254]
	MaxRX int // MAX_RX, payload bytes, in [1,254]
	MinRX int // minimum receivable size, in [1,254], default 1; checked by Validate only, ReceiveData does not enforce it

	StartByte     byte
	DelimiterByte byte

	TimeoutMicros        int64 // per-byte inactivity timeout
	AllowStartByteErrors bool
}

// DefaultConfig returns a Config matching the source's documented defaults:
// CRC-16/CCITT (polynomial 0x1021, initial 0xFFFF, no final XOR), MAX_TX =
// MAX_RX = 254, MinRX = 1, start byte 129, delimiter byte 0, a 10ms per-byte
// timeout, and start-byte errors silenced. Callers override fields as
// needed before passing the Config to NewLayer.
func DefaultConfig(port string, baud int) Config {
	return Config{
		Port:                 port,
		Baud:                 baud,
		CRCWidth:             crc.Width16,
		Polynomial:           0x1021,
		InitialValue:         0xFFFF,
		FinalXOR:             0x0000,
		MaxTX:                254,
		MaxRX:                254,
		MinRX:                1,
		StartByte:            129,
		DelimiterByte:        0,
		TimeoutMicros:        10_000,
		AllowStartByteErrors: false,
	}
}

// Validate checks every field's range/type in isolation and returns the
// first violation found, with the offending value in the message.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: got empty string", ErrInvalidPort)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBaud, c.Baud)
	}
	if c.MaxTX < 1 || c.MaxTX > 254 {
		return fmt.Errorf("%w: MAX_TX=%d", ErrInvalidMaxSize, c.MaxTX)
	}
	if c.MaxRX < 1 || c.MaxRX > 254 {
		return fmt.Errorf("%w: MAX_RX=%d", ErrInvalidMaxSize, c.MaxRX)
	}
	if c.MinRX < 1 || c.MinRX > 254 {
		return fmt.Errorf("%w: got %d", ErrInvalidMinRX, c.MinRX)
	}
	if c.StartByte == c.DelimiterByte {
		return fmt.Errorf("%w: both are %d", ErrStartEqualsDelim, c.StartByte)
	}
	if c.TimeoutMicros < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTimeout, c.TimeoutMicros)
	}
	switch c.CRCWidth {
	case crc.Width8, crc.Width16, crc.Width32:
	default:
		return fmt.Errorf("%w: got %d", ErrInvalidCRCWidth, c.CRCWidth)
	}
	return nil
}

// NewCRC8Config returns DefaultConfig with the CRC parameters switched to an
// 8-bit register. One of three width-specific helpers (the Go port's
// stand-in for the source's runtime type inference over the polynomial
// argument).
func NewCRC8Config(port string, baud int, polynomial, initial, finalXOR byte) Config {
	c := DefaultConfig(port, baud)
	c.CRCWidth = crc.Width8
	c.Polynomial, c.InitialValue, c.FinalXOR = uint32(polynomial), uint32(initial), uint32(finalXOR)
	return c
}

// NewCRC16Config returns DefaultConfig with explicit 16-bit CRC parameters.
func NewCRC16Config(port string, baud int, polynomial, initial, finalXOR uint16) Config {
	c := DefaultConfig(port, baud)
	c.CRCWidth = crc.Width16
	c.Polynomial, c.InitialValue, c.FinalXOR = uint32(polynomial), uint32(initial), uint32(finalXOR)
	return c
}

// NewCRC32Config returns DefaultConfig with explicit 32-bit CRC parameters.
func NewCRC32Config(port string, baud int, polynomial, initial, finalXOR uint32) Config {
	c := DefaultConfig(port, baud)
	c.CRCWidth = crc.Width32
	c.Polynomial, c.InitialValue, c.FinalXOR = polynomial, initial, finalXOR
	return c
}
