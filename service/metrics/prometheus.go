package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/khaledhikmat/vision-gateway/model"
)

type prometheusService struct {
	inner    IService
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewPrometheus mirrors every call into collectors registered on reg and
// delegates storage and snapshots to inner.
func NewPrometheus(reg prometheus.Registerer, inner IService) IService {
	factory := promauto.With(reg)

	return &prometheusService{
		inner: inner,
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vision_gateway_inference_calls_total",
			Help: "Successful inference calls by model",
		}, []string{"model"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vision_gateway_inference_latency_ms",
			Help:    "Backend round trip latency in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 300000},
		}, []string{"model"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vision_gateway_inference_failures_total",
			Help: "Failed inference calls by model and error category",
		}, []string{"model", "category"}),
	}
}

func (svc *prometheusService) Record(modelName string, latencyMs float64, output interface{}) {
	svc.calls.WithLabelValues(modelName).Inc()
	svc.latency.WithLabelValues(modelName).Observe(latencyMs)
	svc.inner.Record(modelName, latencyMs, output)
}

func (svc *prometheusService) RecordFailure(modelName string, category string) {
	svc.failures.WithLabelValues(modelName, category).Inc()
	svc.inner.RecordFailure(modelName, category)
}

func (svc *prometheusService) Snapshot() model.MetricsSnapshot {
	return svc.inner.Snapshot()
}
