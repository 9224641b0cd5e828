package transport

import (
	"errors"
	"testing"

	"github.com/kstaniek/serialtransfer/internal/crc"
	"github.com/kstaniek/serialtransfer/internal/serialport"
)

func newTestLayer(t *testing.T, configure func(*Config)) (*Layer, *serialport.Mock) {
	t.Helper()
	cfg := DefaultConfig("mock", 115200)
	cfg.TimeoutMicros = 20_000
	if configure != nil {
		configure(&cfg)
	}
	mock := serialport.NewMock()
	l, err := NewLayer(cfg, mock)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	return l, mock
}

// loop sends whatever is queued and feeds the transmitted bytes back into
// the same mock's receive queue, the in-memory equivalent of a physical
// loopback connector.
func loop(t *testing.T, l *Layer, mock *serialport.Mock) bool {
	t.Helper()
	sent, err := l.SendData()
	if err != nil {
		t.Fatalf("SendData: %v", err)
	}
	if !sent {
		return false
	}
	mock.Feed(mock.TXBytes())
	received, err := l.ReceiveData()
	if err != nil {
		t.Fatalf("ReceiveData: %v", err)
	}
	return received
}

func TestRoundTripScalars(t *testing.T) {
	l, mock := newTestLayer(t, nil)

	type scalarCase struct {
		name  string
		write func()
		read  func(t *testing.T)
	}
	cases := []scalarCase{
		{"uint8", func() { mustWrite(t, l, uint8(200)) }, func(t *testing.T) { var v uint8; mustRead(t, l, &v); mustEqual(t, v, uint8(200)) }},
		{"int8", func() { mustWrite(t, l, int8(-100)) }, func(t *testing.T) { var v int8; mustRead(t, l, &v); mustEqual(t, v, int8(-100)) }},
		{"uint16", func() { mustWrite(t, l, uint16(60000)) }, func(t *testing.T) { var v uint16; mustRead(t, l, &v); mustEqual(t, v, uint16(60000)) }},
		{"int16", func() { mustWrite(t, l, int16(-30000)) }, func(t *testing.T) { var v int16; mustRead(t, l, &v); mustEqual(t, v, int16(-30000)) }},
		{"uint32", func() { mustWrite(t, l, uint32(4000000000)) }, func(t *testing.T) { var v uint32; mustRead(t, l, &v); mustEqual(t, v, uint32(4000000000)) }},
		{"int32", func() { mustWrite(t, l, int32(-2000000000)) }, func(t *testing.T) { var v int32; mustRead(t, l, &v); mustEqual(t, v, int32(-2000000000)) }},
		{"uint64", func() { mustWrite(t, l, uint64(18000000000000000000)) }, func(t *testing.T) { var v uint64; mustRead(t, l, &v); mustEqual(t, v, uint64(18000000000000000000)) }},
		{"int64", func() { mustWrite(t, l, int64(-9000000000000000000)) }, func(t *testing.T) { var v int64; mustRead(t, l, &v); mustEqual(t, v, int64(-9000000000000000000)) }},
		{"float32", func() { mustWrite(t, l, float32(3.5)) }, func(t *testing.T) { var v float32; mustRead(t, l, &v); mustEqual(t, v, float32(3.5)) }},
		{"float64", func() { mustWrite(t, l, float64(-2.25)) }, func(t *testing.T) { var v float64; mustRead(t, l, &v); mustEqual(t, v, float64(-2.25)) }},
		{"bool true", func() { mustWrite(t, l, true) }, func(t *testing.T) { var v bool; mustRead(t, l, &v); mustEqual(t, v, true) }},
		{"bool false", func() { mustWrite(t, l, false) }, func(t *testing.T) { var v bool; mustRead(t, l, &v); mustEqual(t, v, false) }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l.ResetTransmissionBuffer()
			c.write()
			if !loop(t, l, mock) {
				t.Fatalf("loop: packet did not round-trip")
			}
			c.read(t)
			l.ResetReceptionBuffer()
		})
	}
}

func TestRoundTripArray(t *testing.T) {
	l, mock := newTestLayer(t, nil)
	in := [5]uint16{1, 2, 3, 4, 5}
	mustWrite(t, l, in)
	if !loop(t, l, mock) {
		t.Fatalf("loop: packet did not round-trip")
	}
	var out [5]uint16
	mustRead(t, l, &out)
	if out != in {
		t.Fatalf("got %v, want %v", out, in)
	}
}

func TestRoundTripStruct(t *testing.T) {
	type reading struct {
		Sequence    uint32
		Temperature float32
		Samples     [3]int16
		Valid       bool
	}
	l, mock := newTestLayer(t, nil)
	in := reading{Sequence: 42, Temperature: -17.5, Samples: [3]int16{-1, 0, 1}, Valid: true}
	mustWrite(t, l, in)
	if !loop(t, l, mock) {
		t.Fatalf("loop: packet did not round-trip")
	}
	var out reading
	mustRead(t, l, &out)
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestPayloadLengthBound(t *testing.T) {
	l, _ := newTestLayer(t, func(c *Config) { c.MaxTX = 4 })
	if _, err := l.WriteData(uint32(1)); err != nil {
		t.Fatalf("4-byte write into 4-byte buffer: %v", err)
	}
	l.ResetTransmissionBuffer()
	if _, err := l.WriteData(uint64(1)); !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("got %v, want ErrBufferTooSmall", err)
	}
}

func TestIdempotentResets(t *testing.T) {
	l, mock := newTestLayer(t, nil)
	mustWrite(t, l, uint32(7))
	l.ResetTransmissionBuffer()
	l.ResetTransmissionBuffer()
	if l.BytesInTransmissionBuffer() != 0 {
		t.Fatalf("BytesInTransmissionBuffer = %d after reset, want 0", l.BytesInTransmissionBuffer())
	}
	mustWrite(t, l, uint32(9))
	if !loop(t, l, mock) {
		t.Fatalf("loop: packet did not round-trip")
	}
	l.ResetReceptionBuffer()
	l.ResetReceptionBuffer()
	if l.BytesInReceptionBuffer() != 0 {
		t.Fatalf("BytesInReceptionBuffer = %d after reset, want 0", l.BytesInReceptionBuffer())
	}
}

// --- The five concrete scenarios from the testable-properties section. ---

func TestScenarioScalarWriteLayout(t *testing.T) {
	l, _ := newTestLayer(t, func(c *Config) { c.StartByte = 129; c.DelimiterByte = 0 })
	end, err := l.WriteData(uint16(0x1234))
	if err != nil {
		t.Fatalf("WriteData: %v", err)
	}
	if end != 2 {
		t.Fatalf("end index %d, want 2", end)
	}
	if l.txBuf[0] != 0x34 || l.txBuf[1] != 0x12 {
		t.Fatalf("little-endian layout wrong: %v", l.txBuf[:2])
	}
}

func TestScenarioEndToEndRoundTrip(t *testing.T) {
	l, mock := newTestLayer(t, func(c *Config) {
		c.CRCWidth = crc.Width16
		c.Polynomial, c.InitialValue, c.FinalXOR = 0x1021, 0xFFFF, 0x0000
	})
	mustWrite(t, l, uint32(0xDEADBEEF))
	if !loop(t, l, mock) {
		t.Fatalf("loop: packet did not round-trip")
	}
	var got uint32
	mustRead(t, l, &got)
	mustEqual(t, got, uint32(0xDEADBEEF))
}

func TestScenarioNoStartByte(t *testing.T) {
	t.Run("errors silenced by default", func(t *testing.T) {
		l, mock := newTestLayer(t, func(c *Config) { c.AllowStartByteErrors = false })
		mock.Feed(make([]byte, l.minimumPacketSize()+2)) // all zero, no start byte present
		received, err := l.ReceiveData()
		if err != nil {
			t.Fatalf("got error %v, want nil", err)
		}
		if received {
			t.Fatalf("got received=true, want false")
		}
	})
	t.Run("errors surfaced when enabled", func(t *testing.T) {
		l, mock := newTestLayer(t, func(c *Config) { c.AllowStartByteErrors = true; c.TimeoutMicros = 1000 })
		mock.Feed(make([]byte, l.minimumPacketSize()+2))
		_, err := l.ReceiveData()
		if !errors.Is(err, ErrNoStart) {
			t.Fatalf("got %v, want ErrNoStart", err)
		}
	})
}

func TestScenarioPayloadTooLarge(t *testing.T) {
	l, mock := newTestLayer(t, func(c *Config) { c.MaxRX = 254 })
	padding := make([]byte, l.minimumPacketSize())
	mock.Feed(append([]byte{l.cfg.StartByte, 255}, padding...))
	_, err := l.ReceiveData()
	if !errors.Is(err, ErrBadSize) {
		t.Fatalf("got %v, want ErrBadSize", err)
	}
}

func TestScenarioCRCCorruption(t *testing.T) {
	l, mock := newTestLayer(t, nil)
	mustWrite(t, l, uint32(12345))
	sent, err := l.SendData()
	if err != nil || !sent {
		t.Fatalf("SendData: sent=%v err=%v", sent, err)
	}
	tx := mock.TXBytes()
	tx[len(tx)-1] ^= 0xFF // flip the last CRC byte
	mock.Feed(tx)
	_, err = l.ReceiveData()
	if !errors.Is(err, ErrCRCMismatch) {
		t.Fatalf("got %v, want ErrCRCMismatch", err)
	}
}

func mustWrite(t *testing.T, l *Layer, v any) {
	t.Helper()
	if _, err := l.WriteData(v); err != nil {
		t.Fatalf("WriteData(%v): %v", v, err)
	}
}

func mustRead(t *testing.T, l *Layer, dst any) {
	t.Helper()
	if _, err := l.ReadData(dst); err != nil {
		t.Fatalf("ReadData: %v", err)
	}
}

func mustEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
