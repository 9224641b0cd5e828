// Package serialport defines the narrow serial-port contract the transport
// layer depends on, plus a real implementation over github.com/tarm/serial
// (grounded directly on this codebase's internal/serial.Open wrapper) and an
// in-memory Mock used by tests and by the loopback demo harness.
package serialport

import (
	"sync"
	"time"

	"github.com/tarm/serial"
)

// Port is the abstraction the transport layer drives. BytesAvailable must be
// non-blocking and accurate; Read returns up to n bytes without blocking
// longer than the underlying driver's smallest quantum; Write transmits all
// bytes synchronously from the caller's perspective.
type Port interface {
	BytesAvailable() int
	Read(n int) ([]byte, error)
	Write(p []byte) (int, error)
	Open() error
	Close() error
}

// real wraps a tarm/serial.Port. tarm/serial has no native "bytes waiting"
// query, so real opportunistically drains the device into an internal
// staging slice on every BytesAvailable call; Read then serves out of that
// slice first. The poll granularity is bounded by the configured
// ReadTimeout, the same knob the teacher's internal/serial.Open exposes.
type real struct {
	cfg     *serial.Config
	sp      *serial.Port
	pending []byte
	scratch []byte
}

// Open constructs a real serial port bound to name at the given baud rate.
// The returned Port is not yet open; call Open on it before use, matching
// the narrow interface's lifecycle (construct, then Open, then Read/Write,
// then Close).
func Open(name string, baud int, readTimeout time.Duration) Port {
	return &real{
		cfg:     &serial.Config{Name: name, Baud: baud, ReadTimeout: readTimeout},
		scratch: make([]byte, 256),
	}
}

func (r *real) Open() error {
	sp, err := serial.OpenPort(r.cfg)
	if err != nil {
		return err
	}
	r.sp = sp
	return nil
}

func (r *real) poll() {
	n, err := r.sp.Read(r.scratch)
	if err != nil || n <= 0 {
		return
	}
	r.pending = append(r.pending, r.scratch[:n]...)
}

func (r *real) BytesAvailable() int {
	r.poll()
	return len(r.pending)
}

func (r *real) Read(n int) ([]byte, error) {
	if len(r.pending) < n {
		r.poll()
	}
	if n > len(r.pending) {
		n = len(r.pending)
	}
	out := make([]byte, n)
	copy(out, r.pending[:n])
	r.pending = r.pending[n:]
	return out, nil
}

func (r *real) Write(p []byte) (int, error) {
	return r.sp.Write(p)
}

func (r *real) Close() error {
	if r.sp == nil {
		return nil
	}
	return r.sp.Close()
}

// Mock is an in-memory Port backed by independent transmit/receive queues,
// the Go analogue of the Python test suite's SerialMock. A test builds a
// loopback by copying bytes out of one Mock's TXBytes into another Mock's
// Feed (or the same Mock's, for a true loopback device).
type Mock struct {
	mu      sync.Mutex
	opened  bool
	rx      []byte // bytes waiting to be Read
	tx      []byte // bytes written via Write, for inspection/looping back
	readErr error
}

// NewMock creates a closed Mock port with empty queues.
func NewMock() *Mock { return &Mock{} }

func (m *Mock) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = true
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
	return nil
}

// Feed appends bytes to the receive queue, simulating bytes arriving on the
// wire.
func (m *Mock) Feed(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = append(m.rx, b...)
}

// TXBytes returns a copy of everything written so far and clears the
// transmit queue — the usual way a test drains one mock's output to Feed
// another mock's input.
func (m *Mock) TXBytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.tx))
	copy(out, m.tx)
	m.tx = m.tx[:0]
	return out
}

func (m *Mock) BytesAvailable() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rx)
}

func (m *Mock) Read(n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.rx) {
		n = len(m.rx)
	}
	out := make([]byte, n)
	copy(out, m.rx[:n])
	m.rx = m.rx[n:]
	return out, nil
}

func (m *Mock) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tx = append(m.tx, p...)
	return len(p), nil
}
