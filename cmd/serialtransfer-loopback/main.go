// Command serialtransfer-loopback is a minimal end-to-end demonstration of
// the transport layer: it builds a Layer against either a real serial
// device or an in-memory mock, writes a small struct payload, sends it, and
// reads it back, logging round-trip success or failure on an interval. It
// is the "host repository" reduced to the minimum needed to prove the core
// works; it carries no messaging envelope, no MQTT client, no persistence
// queue.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kstaniek/serialtransfer/internal/metrics"
	"github.com/kstaniek/serialtransfer/internal/serialport"
	"github.com/kstaniek/serialtransfer/internal/transport"
)

// reading is the demo payload: a struct of scalars exercising the
// multi-field aggregate-record path of WriteData/ReadData.
type reading struct {
	Sequence    uint32
	Temperature float32
	Flags       uint8
}

func main() {
	cfg := parseFlags()
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var mock *serialport.Mock
	var port serialport.Port
	if cfg.mock {
		mock = serialport.NewMock()
		port = mock
	} else {
		port = serialport.Open(cfg.port, cfg.baud, 50*time.Millisecond)
	}

	tcfg := transport.DefaultConfig(cfg.port, cfg.baud)
	tcfg.MaxTX = cfg.maxPayload
	tcfg.MaxRX = cfg.maxPayload

	opts := []transport.Option{transport.WithLogger(l)}
	var metricsServer interface{ Close() error }
	if cfg.metricsAddr != "" {
		rec := metrics.Prometheus()
		opts = append(opts, transport.WithRecorder(rec))
		srv := metrics.StartHTTP(cfg.metricsAddr)
		metricsServer = srv
	}

	layer, err := transport.NewLayer(tcfg, port, opts...)
	if err != nil {
		l.Error("layer_init_error", "error", err)
		os.Exit(1)
	}
	defer layer.Close()

	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	var seq uint32
	for {
		select {
		case <-ctx.Done():
			if metricsServer != nil {
				_ = metricsServer.Close()
			}
			l.Info("shutdown")
			return
		case <-ticker.C:
			seq++
			roundTrip(layer, mock, l, reading{Sequence: seq, Temperature: 21.5, Flags: 1})
		}
	}
}

func roundTrip(layer *transport.Layer, mock *serialport.Mock, l interface {
	Info(string, ...any)
	Warn(string, ...any)
}, r reading) {
	layer.ResetTransmissionBuffer()
	if _, err := layer.WriteData(r); err != nil {
		l.Warn("write_data_error", "error", err)
		return
	}
	sent, err := layer.SendData()
	if err != nil {
		l.Warn("send_data_error", "error", err)
		return
	}
	if !sent {
		return
	}
	if mock != nil {
		mock.Feed(mock.TXBytes())
	}

	received, err := layer.ReceiveData()
	if err != nil {
		l.Warn("receive_data_error", "error", err)
		return
	}
	if !received {
		l.Warn("receive_data_incomplete")
		return
	}

	var got reading
	if _, err := layer.ReadData(&got); err != nil {
		l.Warn("read_data_error", "error", err)
		return
	}
	l.Info("round_trip_ok", "sequence", got.Sequence, "temperature", got.Temperature, "flags", got.Flags)
}
