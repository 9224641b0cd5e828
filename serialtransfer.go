// Package serialtransfer frames typed payloads into COBS-encoded,
// CRC-checked packets and exchanges them one at a time over a serial link.
// It re-exports internal/transport's Layer and Config so callers depend on
// a single import path. internal/cobs, internal/crc, internal/serialport,
// internal/metrics, and internal/logging are internal packages: code outside
// this module cannot import them and reaches them only through the names
// re-exported here.
package serialtransfer

import (
	"github.com/kstaniek/serialtransfer/internal/crc"
	"github.com/kstaniek/serialtransfer/internal/metrics"
	"github.com/kstaniek/serialtransfer/internal/serialport"
	"github.com/kstaniek/serialtransfer/internal/transport"
)

// Layer is the framing state machine: one instance per physical link.
// Single-threaded and strictly sequential — see internal/transport's
// package doc for the concurrency contract.
type Layer = transport.Layer

// Config is a Layer's construction-time, validated configuration.
type Config = transport.Config

// Option configures an optional Layer collaborator (a metrics.Recorder or
// logger) not among NewLayer's required arguments.
type Option = transport.Option

// Port is the narrow interface a Layer drives to move bytes on and off the
// wire.
type Port = serialport.Port

var (
	// NewLayer validates cfg, builds a Layer bound to port, and opens the
	// port.
	NewLayer = transport.NewLayer

	// DefaultConfig returns a Config with the documented CRC-16/CCITT
	// defaults; see transport.DefaultConfig.
	DefaultConfig = transport.DefaultConfig

	// NewCRC8Config, NewCRC16Config, and NewCRC32Config build a Config
	// pinned to the given CRC register width.
	NewCRC8Config  = transport.NewCRC8Config
	NewCRC16Config = transport.NewCRC16Config
	NewCRC32Config = transport.NewCRC32Config

	// WithRecorder and WithLogger are Layer construction options.
	WithRecorder = transport.WithRecorder
	WithLogger   = transport.WithLogger

	// OpenPort constructs a real serial port; NewMockPort constructs an
	// in-memory Port for tests and the loopback demo.
	OpenPort    = serialport.Open
	NewMockPort = serialport.NewMock
)

// CRCWidth re-exports the crc package's register-width type so callers
// building a Config do not need a second import.
type CRCWidth = crc.Width

const (
	CRCWidth8  = crc.Width8
	CRCWidth16 = crc.Width16
	CRCWidth32 = crc.Width32
)

// PrometheusRecorder returns the package-level Prometheus-backed
// metrics.Recorder.
func PrometheusRecorder() metrics.Recorder { return metrics.Prometheus() }
