package metrics

import "github.com/khaledhikmat/vision-gateway/model"

const DefaultWindow = 100

type IService interface {
	// Record registers one successful inference call. It never fails.
	Record(modelName string, latencyMs float64, output interface{})
	// RecordFailure registers a failed call. The rolling store ignores it.
	RecordFailure(modelName string, category string)
	Snapshot() model.MetricsSnapshot
}
