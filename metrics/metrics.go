// Package metrics exposes Prometheus instrumentation for the streaming
// pipeline. A nil *Metrics is valid and records nothing, so the library
// works without a registry wired in.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts pipeline activity at block, frame, and packet granularity.
type Metrics struct {
	BlocksProcessed prometheus.Counter
	FramesEncoded   prometheus.Counter
	PacketsSent     prometheus.Counter
	BytesSent       prometheus.Counter
	EncodeErrors    prometheus.Counter
	TransmitErrors  prometheus.Counter
	Connects        prometheus.Counter
	ConnectFailures prometheus.Counter
	Teardowns       prometheus.Counter
	Streaming       prometheus.Gauge
}

// New creates and registers the pipeline metrics. A nil registerer uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		BlocksProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_blocks_processed_total",
			Help: "Audio blocks accepted while streaming",
		}),
		FramesEncoded: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_frames_encoded_total",
			Help: "Frames submitted to the encoder",
		}),
		PacketsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_packets_sent_total",
			Help: "Encoded packets handed to the transport",
		}),
		BytesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_bytes_sent_total",
			Help: "Encoded payload bytes handed to the transport",
		}),
		EncodeErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_encode_errors_total",
			Help: "Frames dropped due to encoder failures",
		}),
		TransmitErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_transmit_errors_total",
			Help: "Packets dropped due to mux or transport failures",
		}),
		Connects: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_connects_total",
			Help: "Sessions that reached the streaming state",
		}),
		ConnectFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_connect_failures_total",
			Help: "Connect attempts aborted by an acquisition failure",
		}),
		Teardowns: f.NewCounter(prometheus.CounterOpts{
			Name: "stream_teardowns_total",
			Help: "Completed session teardowns",
		}),
		Streaming: f.NewGauge(prometheus.GaugeOpts{
			Name: "stream_active",
			Help: "1 while the session is streaming",
		}),
	}
}

func (m *Metrics) RecordBlock() {
	if m != nil {
		m.BlocksProcessed.Inc()
	}
}

func (m *Metrics) RecordFrame() {
	if m != nil {
		m.FramesEncoded.Inc()
	}
}

func (m *Metrics) RecordPacket(bytes int) {
	if m != nil {
		m.PacketsSent.Inc()
		m.BytesSent.Add(float64(bytes))
	}
}

func (m *Metrics) RecordEncodeError() {
	if m != nil {
		m.EncodeErrors.Inc()
	}
}

func (m *Metrics) RecordTransmitError() {
	if m != nil {
		m.TransmitErrors.Inc()
	}
}

func (m *Metrics) RecordConnect() {
	if m != nil {
		m.Connects.Inc()
		m.Streaming.Set(1)
	}
}

func (m *Metrics) RecordConnectFailure() {
	if m != nil {
		m.ConnectFailures.Inc()
	}
}

func (m *Metrics) RecordTeardown() {
	if m != nil {
		m.Teardowns.Inc()
		m.Streaming.Set(0)
	}
}
