package inference

import (
	"context"
	"fmt"

	"github.com/khaledhikmat/vision-gateway/model"
)

// Result is a successful backend call. Output is a model.NormalizedResult for
// the crowd task and the backend's raw JSON for the player task.
type Result struct {
	Model     string
	LatencyMs float64
	Output    interface{}
}

type IService interface {
	Invoke(ctx context.Context, task model.Task, absPath string, params model.Params) (Result, error)
}

// BackendError is a backend that answered with a non-success status.
// Body is kept verbatim so the caller can surface the diagnostics.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// TransportError is a call that never produced a backend status.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend transport failure: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
