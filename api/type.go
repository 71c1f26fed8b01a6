package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/khaledhikmat/vision-gateway/model"
	"github.com/khaledhikmat/vision-gateway/service/config"
	"github.com/khaledhikmat/vision-gateway/service/data"
	"github.com/khaledhikmat/vision-gateway/service/inference"
	"github.com/khaledhikmat/vision-gateway/service/lgr"
	"github.com/khaledhikmat/vision-gateway/service/metrics"
	"github.com/khaledhikmat/vision-gateway/service/storage"
)

const (
	Prefix  = "/api/v1"
	Version = "1"
)

// ServicesFactory carries the services every handler needs. main builds it
// once and hands it to the router.
type ServicesFactory struct {
	CfgSvc       config.IService
	DataSvc      data.IService
	StorageSvc   storage.IService
	InferenceSvc inference.IService
	MetricsSvc   metrics.IService
	// Gatherer backs the prometheus endpoint; nil disables it
	Gatherer prometheus.Gatherer
}

func sendJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		lgr.Logger.Error("error encoding response", slog.Any("error", err))
	}
}

func sendError(w http.ResponseWriter, apiErr *model.APIError) {
	sendJSON(w, apiErr.StatusCode, apiErr)
}

func procError(svcs ServicesFactory, err interface{}) {
	lgr.Logger.Error(
		"request failed",
		slog.Any("error", err),
	)

	if svcs.DataSvc == nil {
		return
	}

	if errTemp := svcs.DataSvc.NewError(err); errTemp != nil {
		lgr.Logger.Error(
			"failed to store error",
			slog.Any("error", errTemp),
		)
	}
}
