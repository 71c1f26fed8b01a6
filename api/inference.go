package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/khaledhikmat/vision-gateway/model"
	"github.com/khaledhikmat/vision-gateway/service/inference"
	"github.com/khaledhikmat/vision-gateway/service/lgr"
	"github.com/khaledhikmat/vision-gateway/service/metrics"
)

const statusOK = "ok"

// RunInference resolves the upload, calls the backend for the task and
// shapes the envelope. Every failure comes back as an APIError.
func RunInference(ctx context.Context, svcs ServicesFactory, req model.InferenceRequest) (model.Envelope, *model.APIError) {
	rec, ok, err := svcs.DataSvc.RetrieveUpload(req.ID)
	if err != nil {
		procError(svcs, model.GenError("inference_handler", err, map[string]interface{}{"id": req.ID}, "error retrieving upload"))
		return model.Envelope{}, model.Internal(err.Error())
	}
	if !ok {
		return model.Envelope{}, model.NotFound("upload id not found")
	}

	absPath, err := svcs.StorageSvc.ResolvePath(rec.Path)
	if err != nil || !svcs.StorageSvc.Exists(absPath) {
		return model.Envelope{}, model.Gone("file missing on disk")
	}

	result, err := svcs.InferenceSvc.Invoke(ctx, req.Task, absPath, req.Params())
	if err != nil {
		return model.Envelope{}, classify(ctx, svcs, req.Task, err)
	}

	return model.Envelope{
		ID:        rec.ID,
		Task:      req.Task,
		InputPath: absPath,
		Status:    statusOK,
		Model:     result.Model,
		LatencyMs: metrics.Round2(result.LatencyMs),
		Data:      result.Output,
	}, nil
}

func classify(ctx context.Context, svcs ServicesFactory, task model.Task, err error) *model.APIError {
	var backendErr *inference.BackendError
	if errors.As(err, &backendErr) {
		lgr.Logger.WarnContext(ctx,
			"backend rejected inference",
			slog.String("task", string(task)),
			slog.Int("status", backendErr.StatusCode),
		)
		svcs.MetricsSvc.RecordFailure(string(task), "bad_gateway")
		return model.BadGateway(fmt.Sprintf("%s service error: %s", task, backendErr.Body))
	}

	procError(svcs, model.GenError("inference_handler", err, map[string]interface{}{"task": task}, "inference call failed"))
	svcs.MetricsSvc.RecordFailure(string(task), "internal")
	return model.Internal(err.Error())
}

func handleInference(svcs ServicesFactory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.InferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendError(w, model.Unprocessable(fmt.Sprintf("invalid request body: %v", err)))
			return
		}

		if err := req.Validate(); err != nil {
			sendError(w, model.Unprocessable(err.Error()))
			return
		}

		// A disconnecting caller does not abort the backend call
		ctx := context.WithoutCancel(r.Context())

		envelope, apiErr := RunInference(ctx, svcs, req)
		if apiErr != nil {
			sendError(w, apiErr)
			return
		}

		sendJSON(w, http.StatusOK, envelope)
	}
}
