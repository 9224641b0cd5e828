package serialport

import (
	"bytes"
	"testing"
)

func TestMockFeedAndRead(t *testing.T) {
	m := NewMock()
	if err := m.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	m.Feed([]byte{1, 2, 3})
	if got := m.BytesAvailable(); got != 3 {
		t.Fatalf("BytesAvailable = %d, want 3", got)
	}
	got, err := m.Read(2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Fatalf("got %v, want [1 2]", got)
	}
	if m.BytesAvailable() != 1 {
		t.Fatalf("BytesAvailable = %d, want 1", m.BytesAvailable())
	}
}

func TestMockWriteAndDrainTX(t *testing.T) {
	m := NewMock()
	n, err := m.Write([]byte{9, 8, 7})
	if err != nil || n != 3 {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	tx := m.TXBytes()
	if !bytes.Equal(tx, []byte{9, 8, 7}) {
		t.Fatalf("got %v, want [9 8 7]", tx)
	}
	if len(m.TXBytes()) != 0 {
		t.Fatalf("TXBytes should drain the queue")
	}
}

func TestMockLoopback(t *testing.T) {
	m := NewMock()
	if _, err := m.Write([]byte{42}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m.Feed(m.TXBytes())
	got, err := m.Read(1)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte{42}) {
		t.Fatalf("got %v, want [42]", got)
	}
}
