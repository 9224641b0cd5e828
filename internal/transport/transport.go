// Package transport implements the framing state machine described at the
// module root: COBS-encoded, CRC-checked packets exchanged one at a time
// over a serialport.Port. A Layer is single-threaded and strictly
// sequential — callers drive WriteData/SendData and ReceiveData/ReadData
// from one owning goroutine; nothing here is safe for concurrent use, the
// same contract the teacher's internal/transport/async_tx.go documents
// rather than enforces with locks.
package transport

import (
	"bytes"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/kstaniek/serialtransfer/internal/cobs"
	"github.com/kstaniek/serialtransfer/internal/crc"
	"github.com/kstaniek/serialtransfer/internal/logging"
	"github.com/kstaniek/serialtransfer/internal/metrics"
	"github.com/kstaniek/serialtransfer/internal/serialport"
	"github.com/kstaniek/serialtransfer/internal/ustimer"
)

// Layer owns one physical link: a transmission buffer, a reception buffer, a
// leftover-byte staging area carried across ReceiveData calls, and the
// collaborators (CRC processor, timer, port) needed to frame and parse
// packets.
type Layer struct {
	cfg  Config
	port serialport.Port

	crcProc *crc.Processor
	timer   *ustimer.Timer

	txBuf     []byte
	bytesInTx int

	rxBuf     []byte
	bytesInRx int

	leftover  *bytes.Buffer
	packetBuf []byte // scratch: overhead | encoded payload | delimiter | crc, sized for MaxTX
	checkBuf  []byte // scratch for SendData's re-encode self-check

	metrics metrics.Recorder
	logger  *slog.Logger
}

// Option configures optional Layer collaborators not listed among
// NewLayer's required arguments.
type Option func(*Layer)

// WithRecorder attaches a metrics.Recorder. Without this option a Layer
// reports to metrics.NoOp.
func WithRecorder(r metrics.Recorder) Option {
	return func(l *Layer) { l.metrics = r }
}

// WithLogger overrides the logger used for framing-fault and internal
// consistency diagnostics. Without this option a Layer logs through
// logging.L().
func WithLogger(lg *slog.Logger) Option {
	return func(l *Layer) { l.logger = lg }
}

// NewLayer validates cfg, builds the CRC processor and buffers, opens port,
// and returns a ready-to-use Layer.
func NewLayer(cfg Config, port serialport.Port, opts ...Option) (*Layer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Layer{
		cfg:       cfg,
		port:      port,
		crcProc:   crc.New(cfg.CRCWidth, cfg.Polynomial, cfg.InitialValue, cfg.FinalXOR),
		timer:     ustimer.New(),
		txBuf:     make([]byte, cfg.MaxTX+1),
		rxBuf:     make([]byte, cfg.MaxRX+1),
		leftover:  new(bytes.Buffer),
		packetBuf: make([]byte, cobs.EncodedLen(cfg.MaxTX)+int(cfg.CRCWidth)),
		checkBuf:  make([]byte, cobs.EncodedLen(cfg.MaxTX)),
		metrics:   metrics.NoOp,
		logger:    logging.L(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := port.Open(); err != nil {
		return nil, err
	}
	return l, nil
}

// WriteData serializes value into the transmission buffer at startIndex
// (default: the current logical payload length) and returns the index
// immediately past the written bytes. bytesInTx is extended to cover the
// write but never shrunk by an overwrite of earlier bytes.
func (l *Layer) WriteData(value any, startIndex ...int) (int, error) {
	idx := l.bytesInTx
	if len(startIndex) > 0 {
		idx = startIndex[0]
	}
	v := reflect.ValueOf(value)
	size, err := encodedSize(v)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx+size > l.cfg.MaxTX {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, capacity %d", ErrBufferTooSmall, size, idx, l.cfg.MaxTX)
	}
	end, err := writeValue(l.txBuf, idx, v)
	if err != nil {
		return 0, err
	}
	if end > l.bytesInTx {
		l.bytesInTx = end
	}
	return end, nil
}

// ReadData deserializes into the value dst points to, starting at startIndex
// (default 0) within the decoded reception payload, and returns the index
// immediately past the consumed bytes. The call never modifies bytesInRx.
func (l *Layer) ReadData(dst any, startIndex ...int) (int, error) {
	idx := 0
	if len(startIndex) > 0 {
		idx = startIndex[0]
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return 0, ErrReadDestNotPointer
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: negative start index %d", ErrBufferTooSmall, idx)
	}
	return readValue(l.rxBuf[:l.bytesInRx], idx, rv.Elem())
}

// SendData packages the current transmission payload as a framed packet and
// writes it to the port. Returns false, nil when there is nothing queued.
func (l *Layer) SendData() (bool, error) {
	if l.bytesInTx == 0 {
		return false, nil
	}
	payload := l.txBuf[:l.bytesInTx]
	encLen := cobs.EncodedLen(l.bytesInTx)
	packet := l.packetBuf[:encLen+int(l.crcProc.Width())]

	if _, err := cobs.Encode(packet[:encLen], payload, l.cfg.DelimiterByte); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInternalConsistency, err)
	}
	// Internal consistency self-check: encoding the same payload a second
	// time into an independent buffer must produce an identical result.
	check := l.checkBuf[:encLen]
	if _, err := cobs.Encode(check, payload, l.cfg.DelimiterByte); err != nil || !bytes.Equal(check, packet[:encLen]) {
		l.logger.Error("internal_consistency_failure", "stage", "send_encode")
		return false, ErrInternalConsistency
	}

	crcVal := l.crcProc.Checksum(packet[:encLen])
	copy(packet[encLen:], l.crcProc.ToBytes(crcVal))

	if _, err := l.port.Write([]byte{l.cfg.StartByte, byte(l.bytesInTx)}); err != nil {
		return false, err
	}
	if _, err := l.port.Write(packet); err != nil {
		return false, err
	}

	l.metrics.PacketSent(l.bytesInTx)
	l.bytesInTx = 0
	return true, nil
}

// minimumPacketSize is the fewest bytes (start + size + smallest possible
// encoded payload + CRC) that could possibly constitute a complete packet;
// ReceiveData's IDLE phase uses it to avoid starting a parse attempt it
// cannot finish.
func (l *Layer) minimumPacketSize() int {
	return 1 + 1 + cobs.EncodedLen(1) + int(l.cfg.CRCWidth)
}

// Available reports whether enough bytes are staged or waiting on the port
// to attempt a parse (it does not guarantee ReceiveData will succeed).
func (l *Layer) Available() bool {
	return l.leftover.Len()+l.port.BytesAvailable() >= l.minimumPacketSize()
}

// fetchByte returns the next byte from buf[*cursor], pulling fresh bytes
// from the port and resetting the inactivity timer whenever at least one
// arrives. It returns ok=false once the per-byte timeout elapses with no
// new bytes — the only blocking in the whole state machine happens here.
func (l *Layer) fetchByte(buf *[]byte, cursor *int) (byte, bool) {
	for *cursor >= len(*buf) {
		if n := l.port.BytesAvailable(); n > 0 {
			if chunk, err := l.port.Read(n); err == nil && len(chunk) > 0 {
				*buf = append(*buf, chunk...)
				l.timer.Reset()
				continue
			}
		}
		if l.timer.ElapsedMicros() > l.cfg.TimeoutMicros {
			return 0, false
		}
	}
	b := (*buf)[*cursor]
	*cursor++
	return b, true
}

// ReceiveData drains available bytes, locates and validates one complete
// packet, decodes it into the reception buffer, and reports success. It
// implements the IDLE -> FIND_START -> READ_SIZE -> VALIDATE_SIZE ->
// READ_PACKET -> VERIFY_CRC -> DECODE -> DONE pipeline.
func (l *Layer) ReceiveData() (bool, error) {
	// IDLE
	if l.leftover.Len()+l.port.BytesAvailable() < l.minimumPacketSize() {
		return false, nil
	}

	buf := append([]byte(nil), l.leftover.Bytes()...)
	l.leftover.Reset()
	cursor := 0
	l.timer.Reset()

	// FIND_START
	for {
		b, ok := l.fetchByte(&buf, &cursor)
		if !ok {
			l.stageLeftover(buf, cursor)
			if l.cfg.AllowStartByteErrors {
				l.metrics.FramingTimeout("find_start")
				l.logger.Warn("receive_timeout", "phase", "find_start")
				return false, ErrNoStart
			}
			return false, nil
		}
		if b == l.cfg.StartByte {
			break
		}
	}

	// READ_SIZE
	l.timer.Reset()
	sizeByte, ok := l.fetchByte(&buf, &cursor)
	if !ok {
		l.stageLeftover(buf, cursor)
		l.metrics.FramingTimeout("read_size")
		l.logger.Warn("receive_timeout", "phase", "read_size")
		return false, ErrSizeTimeout
	}
	size := int(sizeByte)

	// VALIDATE_SIZE
	if size < 1 || size > l.cfg.MaxRX {
		l.stageLeftover(buf, cursor)
		return false, fmt.Errorf("%w: declared %d, max %d", ErrBadSize, size, l.cfg.MaxRX)
	}

	// READ_PACKET
	packetStart := cursor
	packetLen := cobs.EncodedLen(size) + int(l.crcProc.Width())
	l.timer.Reset()
	for cursor-packetStart < packetLen {
		if _, ok := l.fetchByte(&buf, &cursor); !ok {
			l.stageLeftover(buf, cursor)
			l.metrics.FramingTimeout("read_packet")
			l.logger.Warn("receive_timeout", "phase", "read_packet", "got", cursor-packetStart, "want", packetLen)
			return false, fmt.Errorf("%w: got %d of %d bytes", ErrPacketStaled, cursor-packetStart, packetLen)
		}
	}
	packet := buf[packetStart : packetStart+packetLen]
	encLen := cobs.EncodedLen(size)
	encodedAndDelim := packet[:encLen]
	crcReceived := packet[encLen:]

	// VERIFY_CRC
	crcExpected := l.crcProc.ToBytes(l.crcProc.Checksum(encodedAndDelim))
	if !bytes.Equal(crcExpected, crcReceived) {
		l.stageLeftover(buf, cursor)
		l.metrics.CRCMismatch()
		l.logger.Warn("crc_mismatch", "got", fmt.Sprintf("%x", crcReceived), "want", fmt.Sprintf("%x", crcExpected))
		return false, fmt.Errorf("%w: got %x want %x", ErrCRCMismatch, crcReceived, crcExpected)
	}

	// DECODE
	n, err := cobs.Decode(encodedAndDelim, size, l.cfg.DelimiterByte)
	if err != nil {
		l.stageLeftover(buf, cursor)
		l.metrics.COBSFailure()
		l.logger.Warn("cobs_decode_failed", "error", err)
		return false, fmt.Errorf("%w: %w", ErrCOBSDecodeFailed, err)
	}
	copy(l.rxBuf[:n], encodedAndDelim[1:1+n])
	l.bytesInRx = n

	// DONE
	l.stageLeftover(buf, cursor)
	l.metrics.PacketReceived(n)
	return true, nil
}

// stageLeftover retains any bytes consumed past cursor for the next
// ReceiveData call, the same resynchronization approach as the teacher's
// DecodeStream compacting unconsumed bytes forward.
func (l *Layer) stageLeftover(buf []byte, cursor int) {
	if cursor < len(buf) {
		l.leftover.Write(buf[cursor:])
	}
}

// ResetTransmissionBuffer zeroes the logical transmission payload length;
// the underlying bytes are left intact.
func (l *Layer) ResetTransmissionBuffer() { l.bytesInTx = 0 }

// ResetReceptionBuffer zeroes the logical reception payload length; the
// underlying bytes are left intact.
func (l *Layer) ResetReceptionBuffer() { l.bytesInRx = 0 }

// BytesInTransmissionBuffer reports the current logical transmission
// payload length.
func (l *Layer) BytesInTransmissionBuffer() int { return l.bytesInTx }

// BytesInReceptionBuffer reports the current logical reception payload
// length.
func (l *Layer) BytesInReceptionBuffer() int { return l.bytesInRx }

// Close releases the underlying port, regardless of any in-flight error
// state, mirroring the teacher's async_tx.go Close contract.
func (l *Layer) Close() error { return l.port.Close() }
