package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vision-gateway/model"
	"github.com/khaledhikmat/vision-gateway/service/config"
	"github.com/khaledhikmat/vision-gateway/service/lgr"
	"github.com/khaledhikmat/vision-gateway/service/metrics"
)

const videoContentType = "video/mp4"

type endpoints struct {
	byPath    string
	multipart string
}

var taskEndpoints = map[model.Task]endpoints{
	model.TaskPlayer: {byPath: "/track-players-by-path", multipart: "/track-players"},
	model.TaskCrowd:  {byPath: "/crowd-from-video-by-path", multipart: "/crowd-from-video"},
}

type httpService struct {
	CfgSvc     config.IService
	MetricsSvc metrics.IService
	Client     *http.Client
	propagator propagation.TextMapPropagator
}

// NewHTTP dispatches to the player and crowd backends configured in cfgsvc
// and records every successful call in metricssvc.
func NewHTTP(cfgsvc config.IService, metricssvc metrics.IService) IService {
	return &httpService{
		CfgSvc:     cfgsvc,
		MetricsSvc: metricssvc,
		Client: &http.Client{
			// Zero means wait forever
			Timeout: time.Duration(cfgsvc.GetBackendTimeout()) * time.Second,
		},
		propagator: propagation.TraceContext{},
	}
}

func (svc *httpService) Invoke(ctx context.Context, task model.Task, absPath string, params model.Params) (Result, error) {
	eps, ok := taskEndpoints[task]
	if !ok {
		return Result{}, xerrors.Errorf("unsupported task %q", task)
	}

	baseURL := svc.CfgSvc.GetBackendURL(task)
	mode := svc.CfgSvc.GetBackendMode(task)

	var (
		body       []byte
		statusCode int
		latency    time.Duration
		err        error
	)

	if mode == model.ModeMultipart {
		body, statusCode, latency, err = svc.postMultipart(ctx, baseURL+eps.multipart, absPath, formFields(task, params))
	} else {
		body, statusCode, latency, err = svc.postJSON(ctx, baseURL+eps.byPath, pathPayload(task, absPath, params))
	}
	if err != nil {
		return Result{}, err
	}

	latencyMs := float64(latency) / float64(time.Millisecond)

	lgr.Logger.DebugContext(ctx,
		"backend call completed",
		slog.String("task", string(task)),
		slog.String("mode", string(mode)),
		slog.Int("status", statusCode),
		slog.Float64("latencyMs", latencyMs),
	)

	if statusCode != http.StatusOK {
		return Result{}, &BackendError{StatusCode: statusCode, Body: string(body)}
	}

	result := Result{LatencyMs: latencyMs}
	if task == model.TaskCrowd {
		normalized, err := NormalizeCrowd(body)
		if err != nil {
			return Result{}, &TransportError{Cause: err}
		}
		result.Model = normalized.Model
		result.Output = normalized
	} else {
		if !gjson.ValidBytes(body) {
			return Result{}, &TransportError{Cause: xerrors.New("player response is not valid JSON")}
		}
		if !gjson.ParseBytes(body).IsObject() {
			return Result{}, &TransportError{Cause: xerrors.New("player response is not a JSON object")}
		}
		result.Model = modelOf(body)
		result.Output = json.RawMessage(body)
	}

	svc.MetricsSvc.Record(string(task), result.LatencyMs, result.Output)

	return result, nil
}

func pathPayload(task model.Task, absPath string, params model.Params) map[string]interface{} {
	if task == model.TaskCrowd {
		return map[string]interface{}{
			"video_path":     absPath,
			"sample_every_s": params.SampleEverySeconds,
		}
	}

	return map[string]interface{}{
		"video_path":     absPath,
		"location":       params.Location,
		"sampling_fps":   params.SamplingFPS,
		"conf_threshold": params.ConfThreshold,
	}
}

// formFields are ordered so the multipart body is deterministic.
func formFields(task model.Task, params model.Params) [][2]string {
	if task == model.TaskCrowd {
		return [][2]string{
			{"sample_every_s", strconv.Itoa(params.SampleEverySeconds)},
		}
	}

	return [][2]string{
		{"location", params.Location},
		{"sampling_fps", strconv.Itoa(params.SamplingFPS)},
		{"conf_threshold", strconv.FormatFloat(params.ConfThreshold, 'f', -1, 64)},
	}
}

func (svc *httpService) postJSON(ctx context.Context, url string, payload interface{}) ([]byte, int, time.Duration, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, 0, xerrors.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, &TransportError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return svc.do(ctx, req)
}

func (svc *httpService) postMultipart(ctx context.Context, url, absPath string, fields [][2]string) ([]byte, int, time.Duration, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return nil, 0, 0, &TransportError{Cause: err}
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// The writer goroutine must be gone before the file is closed
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		pw.CloseWithError(writeForm(mw, f, filepath.Base(absPath), fields))
	}()
	defer func() {
		pr.Close()
		<-writeDone
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		return nil, 0, 0, &TransportError{Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return svc.do(ctx, req)
}

func writeForm(mw *multipart.Writer, video io.Reader, filename string, fields [][2]string) error {
	for _, field := range fields {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, filename))
	header.Set("Content-Type", videoContentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}

	if _, err := io.Copy(part, video); err != nil {
		return err
	}

	return mw.Close()
}

// do sends req and reads the full body. The returned duration covers the
// round trip including the body read.
func (svc *httpService) do(ctx context.Context, req *http.Request) ([]byte, int, time.Duration, error) {
	svc.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()

	resp, err := svc.Client.Do(req)
	if err != nil {
		return nil, 0, 0, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, &TransportError{Cause: err}
	}

	return body, resp.StatusCode, time.Since(start), nil
}
