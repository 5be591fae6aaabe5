// Package metric exposes decoder runtime counters through Prometheus.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"pipelined.dev/sigrok"
)

// Metric implements sigrok.Metric on Prometheus counters, labelled by
// decoder id and output kind.
type Metric struct {
	waits   *prometheus.CounterVec
	samples *prometheus.CounterVec
	events  *prometheus.CounterVec
}

var _ sigrok.Metric = (*Metric)(nil)

// New builds a collector set and registers it with reg, or with the
// default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metric {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metric{
		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sigrok",
			Name:      "waits_total",
			Help:      "Wait calls that returned a sample.",
		}, []string{"decoder"}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sigrok",
			Name:      "samples_total",
			Help:      "Samples advanced by Wait calls.",
		}, []string{"decoder"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sigrok",
			Name:      "events_total",
			Help:      "Output events dispatched to callbacks.",
		}, []string{"decoder", "kind"}),
	}
	reg.MustRegister(m.waits, m.samples, m.events)
	return m
}

// AddDecoder returns the collector of one decoder instance.
func (m *Metric) AddDecoder(id string) sigrok.DecoderMetric {
	return &decoderMetric{
		waits:   m.waits.WithLabelValues(id),
		samples: m.samples.WithLabelValues(id),
		events:  m.events,
		id:      id,
	}
}

type decoderMetric struct {
	waits   prometheus.Counter
	samples prometheus.Counter
	events  *prometheus.CounterVec
	id      string
}

func (d *decoderMetric) Wait(samples int) {
	d.waits.Inc()
	if samples > 0 {
		d.samples.Add(float64(samples))
	}
}

func (d *decoderMetric) Event(kind sigrok.OutputType) {
	d.events.WithLabelValues(d.id, kind.String()).Inc()
}
