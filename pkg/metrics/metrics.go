package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event names emitted by the service.
const (
	ConsumerReceived  = "consumer_received"
	ConsumerAck       = "consumer_ack"
	ScheduledOK       = "scheduled_ok"
	ScheduledFail     = "scheduled_fail"
	ScheduleWrongLang = "schedule_wrong_lang"
	SendOK            = "send_ok"
	SendFail          = "send_fail"
	SendIsSpam        = "send_is_spam"
	SendAttachments   = "send_attachs"
	CleanOK           = "clean_ok"
)

// Sink receives counter increments and gauge values.
type Sink interface {
	Increment(name string, n int)
	Gauge(name string, v float64)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Increment(string, int)   {}
func (Nop) Gauge(string, float64) {}

// Prometheus exposes events as labelled prometheus collectors.
type Prometheus struct {
	events *prometheus.CounterVec
	gauges *prometheus.GaugeVec
}

// NewPrometheus registers the collectors with reg.
// A nil registerer uses the default prometheus registry.
func NewPrometheus(namespace string, reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Number of email pipeline events by name",
			},
			[]string{"event"},
		),
		gauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gauge",
				Help:      "Last observed value by name",
			},
			[]string{"name"},
		),
	}
}

func (p *Prometheus) Increment(name string, n int) {
	if n <= 0 {
		return
	}
	p.events.WithLabelValues(name).Add(float64(n))
}

func (p *Prometheus) Gauge(name string, v float64) {
	p.gauges.WithLabelValues(name).Set(v)
}

// Recorder keeps events in memory. Tests use it to assert on emitted metrics.
type Recorder struct {
	counts map[string]int
	gauges map[string]float64
	mu     sync.Mutex
}

func NewRecorder() *Recorder {
	return &Recorder{
		counts: make(map[string]int),
		gauges: make(map[string]float64),
	}
}

func (r *Recorder) Increment(name string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name] += n
}

func (r *Recorder) Gauge(name string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[name] = v
}

// Count returns the accumulated value of a counter.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}
