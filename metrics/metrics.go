// Package metrics records search progress in Prometheus collectors.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sartorproj/goensemble/sortout"
)

const namespace = "goensemble"

// Recorder implements sortout.Recorder using Prometheus.
type Recorder struct {
	fitDuration *prometheus.HistogramVec
	fitErrors   *prometheus.CounterVec
	poolSize    prometheus.Gauge
	subsets     prometheus.Counter
	candidates  *prometheus.GaugeVec
}

var _ sortout.Recorder = (*Recorder)(nil)

// New creates a recorder whose collectors are registered with reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		fitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_duration_seconds",
				Help:      "Duration of model and ensemble fits in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"kind"},
		),
		fitErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fit_errors_total",
				Help:      "Total number of failed fits",
			},
			[]string{"kind"},
		),
		poolSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_size",
			Help:      "Number of fitted base models in the last search",
		}),
		subsets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subsets_total",
			Help:      "Total number of enumerated model subsets",
		}),
		candidates: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "candidates",
				Help:      "Candidates kept and dropped by the quality gate in the last search",
			},
			[]string{"kind", "status"},
		),
	}
}

// ObserveFit records the duration of one fit and counts it as failed when
// err is not nil.
func (r *Recorder) ObserveFit(kind string, elapsed time.Duration, err error) {
	r.fitDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if err != nil {
		r.fitErrors.WithLabelValues(kind).Inc()
	}
}

func (r *Recorder) SetPoolSize(n int) { r.poolSize.Set(float64(n)) }

func (r *Recorder) AddSubsets(n int) { r.subsets.Add(float64(n)) }

func (r *Recorder) ObserveFilter(kind string, kept, dropped int) {
	r.candidates.WithLabelValues(kind, "kept").Set(float64(kept))
	r.candidates.WithLabelValues(kind, "dropped").Set(float64(dropped))
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for collection by a node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrap(err, "write metrics textfile")
	}
	return nil
}
