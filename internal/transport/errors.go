package transport

import "errors"

// Sentinel errors. Wrapped with context via fmt.Errorf so callers can still
// classify with errors.Is, the same convention the teacher's
// internal/server/errors.go and internal/cnl/codec.go use for sentinel
// errors rather than typed exceptions.
var (
	// Construction-time configuration errors.
	ErrInvalidMaxSize   = errors.New("transport: MAX_TX/MAX_RX must be in [1,254]")
	ErrInvalidMinRX     = errors.New("transport: minimum receivable size must be in [1,254]")
	ErrStartEqualsDelim = errors.New("transport: start_byte and delimiter_byte must differ")
	ErrInvalidPort      = errors.New("transport: port identifier must be a non-empty string")
	ErrInvalidBaud      = errors.New("transport: baud rate must be positive")
	ErrInvalidTimeout   = errors.New("transport: per-byte timeout must be >= 0")
	ErrInvalidCRCWidth  = errors.New("transport: CRC width must be 1, 2, or 4 bytes")

	// WriteData / ReadData errors.
	ErrUnsupportedType    = errors.New("transport: unsupported value type")
	ErrMultiDimensional   = errors.New("transport: multidimensional arrays are not supported")
	ErrEmptyArray         = errors.New("transport: array must have at least one element")
	ErrBufferTooSmall     = errors.New("transport: insufficient remaining buffer capacity")
	ErrReadDestNotPointer = errors.New("transport: read destination must be a non-nil pointer")

	// ReceiveData framing faults.
	ErrNoStart          = errors.New("transport: start byte not found")
	ErrSizeTimeout      = errors.New("transport: timed out waiting for the size byte")
	ErrBadSize          = errors.New("transport: declared payload size out of range")
	ErrPacketStaled     = errors.New("transport: timed out waiting for the remainder of the packet")
	ErrCRCMismatch      = errors.New("transport: CRC check failed")
	ErrCOBSDecodeFailed = errors.New("transport: COBS decode failed")

	// Internal consistency.
	ErrInternalConsistency = errors.New("transport: internal codec consistency check failed")
)
