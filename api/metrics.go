package api

import (
	"net/http"

	"github.com/khaledhikmat/vision-gateway/model"
	"github.com/khaledhikmat/vision-gateway/service/metrics"
)

func handleMetrics(svcs ServicesFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap := svcs.MetricsSvc.Snapshot()

		sendJSON(w, http.StatusOK, model.MetricsResponse{
			TotalCalls: metrics.TotalCalls(snap),
			Models:     snap.Models,
		})
	}
}
