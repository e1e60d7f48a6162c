package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Frame outcomes recorded by the dispatcher.
const (
	FrameDispatched   = "dispatched"
	FrameSkipped      = "skipped"
	FrameVetoed       = "vetoed"
	FrameHandlerError = "handler_error"
	FrameDiscarded    = "discarded"
)

// Byte directions. InboundWire counts bytes read off the socket, InboundPlain
// what reaches the ring buffer after decompression.
const (
	InboundWire  = "in_wire"
	InboundPlain = "in_plain"
	Outbound     = "out"
)

// Metrics holds the transport collectors. Every method is safe on a nil
// receiver, which is how tests and metric-less setups run.
type Metrics struct {
	bytesTotal       *prometheus.CounterVec
	framesTotal      *prometheus.CounterVec
	disconnectsTotal *prometheus.CounterVec
	connected        *prometheus.GaugeVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		bytesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardlink_bytes_total",
				Help: "Bytes moved by a transport",
			},
			[]string{"transport", "direction"},
		),
		framesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardlink_frames_total",
				Help: "Inbound frames by dispatch outcome",
			},
			[]string{"transport", "result"},
		),
		disconnectsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shardlink_disconnects_total",
				Help: "Disconnects by reason",
			},
			[]string{"transport", "reason"},
		),
		connected: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shardlink_connected",
				Help: "1 while the transport is connected",
			},
			[]string{"transport"},
		),
	}
}

func (m *Metrics) AddBytes(transport, direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesTotal.WithLabelValues(transport, direction).Add(float64(n))
}

func (m *Metrics) Frame(transport, result string) {
	if m == nil {
		return
	}
	m.framesTotal.WithLabelValues(transport, result).Inc()
}

func (m *Metrics) Disconnect(transport, reason string) {
	if m == nil {
		return
	}
	m.disconnectsTotal.WithLabelValues(transport, reason).Inc()
	m.connected.WithLabelValues(transport).Set(0)
}

func (m *Metrics) Connected(transport string) {
	if m == nil {
		return
	}
	m.connected.WithLabelValues(transport).Set(1)
}
