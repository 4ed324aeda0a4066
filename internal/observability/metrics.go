package observability

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jddeal/go-rpgradar/rpg"
)

// Error kinds counted by FileErrors.
const (
	KindUnknownFormat = "unknown_format"
	KindTruncated     = "truncated"
	KindOther         = "other"
)

// Metrics holds the counters of a conversion run.
type Metrics struct {
	FilesConverted prometheus.Counter
	FileErrors     *prometheus.CounterVec // labels: kind
	RecordsDecoded prometheus.Counter
	FileDuration   prometheus.Histogram

	gatherer prometheus.Gatherer
}

// NewMetrics creates the metrics and registers them with a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the metrics with reg. gatherer is used by
// WriteTextfile and may be nil when the metrics are never dumped.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		FilesConverted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rpgradar",
			Name:      "files_converted_total",
			Help:      "RPG files written to netCDF.",
		}),
		FileErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rpgradar",
			Name:      "file_errors_total",
			Help:      "RPG files that failed to convert, by error kind.",
		}, []string{"kind"}),
		RecordsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rpgradar",
			Name:      "records_decoded_total",
			Help:      "Samples decoded from RPG files.",
		}),
		FileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rpgradar",
			Name:      "file_duration_seconds",
			Help:      "Time to decode and write one file.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		gatherer: gatherer,
	}
	reg.MustRegister(m.FilesConverted, m.FileErrors, m.RecordsDecoded, m.FileDuration)
	return m
}

// ErrorKind classifies a conversion error for the FileErrors label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, rpg.ErrUnknownFormat):
		return KindUnknownFormat
	case errors.Is(err, rpg.ErrTruncated):
		return KindTruncated
	}
	return KindOther
}

// FileFailed counts err under its kind.
func (m *Metrics) FileFailed(err error) {
	m.FileErrors.WithLabelValues(ErrorKind(err)).Inc()
}

// WriteTextfile dumps all gathered metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m.gatherer == nil {
		return errors.New("metrics have no gatherer")
	}
	return errors.Wrap(prometheus.WriteToTextfile(path, m.gatherer), "writing metrics textfile")
}
