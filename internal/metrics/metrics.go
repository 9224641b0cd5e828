// Package metrics instruments the transport layer with Prometheus counters,
// grounded on this codebase's original promauto-based wiring
// (internal/metrics/metrics.go in the teacher repository) but narrowed to a
// Recorder interface so the core library never forces its own Prometheus
// registry on a caller, and unit tests can exercise the state machine
// against a no-op recorder without touching the global registry.
package metrics

import (
	"net/http"

	"github.com/kstaniek/serialtransfer/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the set of counters a transport.Layer reports against. The
// Prometheus-backed implementation below satisfies it; so does NoOp.
type Recorder interface {
	PacketSent(payloadBytes int)
	PacketReceived(payloadBytes int)
	CRCMismatch()
	COBSFailure()
	FramingTimeout(phase string)
}

// noOp discards every observation. Used as the Layer default so library code
// never touches the global Prometheus registry unless a caller opts in.
type noOp struct{}

func (noOp) PacketSent(int)        {}
func (noOp) PacketReceived(int)    {}
func (noOp) CRCMismatch()          {}
func (noOp) COBSFailure()          {}
func (noOp) FramingTimeout(string) {}

// NoOp is the zero-cost Recorder used when a caller does not supply one.
var NoOp Recorder = noOp{}

// prometheusRecorder reports to package-level promauto collectors, the same
// shape as the teacher's package-level counters.
type prometheusRecorder struct{}

var (
	packetsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serialtransfer_packets_sent_total",
		Help: "Total packets handed to the serial port by SendData.",
	})
	packetsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serialtransfer_packets_received_total",
		Help: "Total packets successfully decoded by ReceiveData.",
	})
	txBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serialtransfer_tx_bytes_total",
		Help: "Total payload bytes transmitted (pre-COBS, pre-CRC).",
	})
	rxBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serialtransfer_rx_bytes_total",
		Help: "Total payload bytes decoded from received packets.",
	})
	crcMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serialtransfer_crc_mismatches_total",
		Help: "Total packets rejected for CRC mismatch.",
	})
	cobsFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serialtransfer_cobs_failures_total",
		Help: "Total packets rejected for COBS decode failure.",
	})
	framingTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serialtransfer_framing_timeouts_total",
		Help: "Total per-byte inactivity timeouts, by framing phase.",
	}, []string{"phase"})
)

// Prometheus returns the package-level Prometheus-backed Recorder. Callers
// that want /metrics exposure (cmd/serialtransfer-loopback, for instance)
// pass this to transport.NewLayer; library-internal tests use NoOp instead.
func Prometheus() Recorder { return prometheusRecorder{} }

func (prometheusRecorder) PacketSent(payloadBytes int) {
	packetsSent.Inc()
	txBytes.Add(float64(payloadBytes))
}

func (prometheusRecorder) PacketReceived(payloadBytes int) {
	packetsReceived.Inc()
	rxBytes.Add(float64(payloadBytes))
}

func (prometheusRecorder) CRCMismatch() { crcMismatches.Inc() }

func (prometheusRecorder) COBSFailure() { cobsFailures.Inc() }

func (prometheusRecorder) FramingTimeout(phase string) {
	framingTimeouts.WithLabelValues(phase).Inc()
}

// StartHTTP serves Prometheus metrics at /metrics, the same shape as the
// teacher's metrics.StartHTTP in cmd/can-server.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}
