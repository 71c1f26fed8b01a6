package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/khaledhikmat/vision-gateway/model"
	"github.com/khaledhikmat/vision-gateway/service/config"
	"github.com/khaledhikmat/vision-gateway/service/metrics"
)

type capturedRequest struct {
	Path        string
	ContentType string
	JSON        map[string]interface{}
	Fields      map[string]string
	FileName    string
	FileType    string
	FileBody    string
}

type backend struct {
	*httptest.Server
	mu       sync.Mutex
	requests []capturedRequest
}

func newBackend(t *testing.T, status int, body string) *backend {
	t.Helper()
	b := &backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured := capturedRequest{Path: r.URL.Path, ContentType: r.Header.Get("Content-Type")}

		if r.Header.Get("Content-Type") == "application/json" {
			_ = json.NewDecoder(r.Body).Decode(&captured.JSON)
		} else if err := r.ParseMultipartForm(10 << 20); err == nil {
			captured.Fields = map[string]string{}
			for k, v := range r.MultipartForm.Value {
				captured.Fields[k] = v[0]
			}
			if f, hdr, err := r.FormFile("video"); err == nil {
				data, _ := io.ReadAll(f)
				f.Close()
				captured.FileName = hdr.Filename
				captured.FileType = hdr.Header.Get("Content-Type")
				captured.FileBody = string(data)
			}
		}

		b.mu.Lock()
		b.requests = append(b.requests, captured)
		b.mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) last(t *testing.T) capturedRequest {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		t.Fatal("backend received no request")
	}
	return b.requests[len(b.requests)-1]
}

func writeVideo(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "match.mp4")
	if err := os.WriteFile(p, []byte("fake-mp4-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func defaultParams() model.Params {
	return model.InferenceRequest{Task: model.TaskPlayer, ID: "x"}.Params()
}

func TestPlayerPathModeSendsDefaults(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"model":"yolo_players_v3","tracks":[]}`)
	store := metrics.NewRolling(10, 0)
	svc := NewHTTP(config.NewStatic(b.URL, model.ModePath, "http://unused", model.ModePath, t.TempDir()), store)

	res, err := svc.Invoke(context.Background(), model.TaskPlayer, "/videos/a.mp4", defaultParams())
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	req := b.last(t)
	if req.Path != "/track-players-by-path" {
		t.Fatalf("unexpected endpoint %s", req.Path)
	}
	want := map[string]interface{}{
		"video_path":     "/videos/a.mp4",
		"location":       "unknown",
		"sampling_fps":   float64(5),
		"conf_threshold": 0.5,
	}
	for k, v := range want {
		if req.JSON[k] != v {
			t.Fatalf("field %s: want %v, got %v", k, v, req.JSON[k])
		}
	}
	if len(req.JSON) != len(want) {
		t.Fatalf("unexpected extra fields: %v", req.JSON)
	}

	if res.Model != "yolo_players_v3" {
		t.Fatalf("unexpected model %q", res.Model)
	}
	raw, ok := res.Output.(json.RawMessage)
	if !ok || string(raw) != `{"model":"yolo_players_v3","tracks":[]}` {
		t.Fatalf("player output must pass through unchanged, got %#v", res.Output)
	}
	if res.LatencyMs < 0 {
		t.Fatalf("negative latency %v", res.LatencyMs)
	}

	snap := store.Snapshot()
	if snap.Models["player"].Count != 1 {
		t.Fatalf("expected one recorded call, got %+v", snap.Models)
	}
}

func TestCrowdPathModeNormalizes(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"results":[{"frame_index":3,"heatmap_path":"out/heatmaps/x.png"}]}`)
	store := metrics.NewRolling(10, 0)
	svc := NewHTTP(config.NewStatic("http://unused", model.ModePath, b.URL, model.ModePath, t.TempDir()), store)

	params := model.InferenceRequest{Task: model.TaskCrowd, ID: "x", SampleEverySeconds: intPtr(2)}.Params()
	res, err := svc.Invoke(context.Background(), model.TaskCrowd, "/videos/b.mp4", params)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	req := b.last(t)
	if req.Path != "/crowd-from-video-by-path" {
		t.Fatalf("unexpected endpoint %s", req.Path)
	}
	if req.JSON["video_path"] != "/videos/b.mp4" || req.JSON["sample_every_s"] != float64(2) || len(req.JSON) != 2 {
		t.Fatalf("unexpected crowd payload %v", req.JSON)
	}

	out, ok := res.Output.(model.NormalizedResult)
	if !ok {
		t.Fatalf("expected normalized output, got %T", res.Output)
	}
	if res.Model != DefaultCrowdModel || out.Model != DefaultCrowdModel {
		t.Fatalf("expected default crowd model, got %q", res.Model)
	}
	if *out.Results[0].HeatmapURL != "/static/heatmaps/x.png" {
		t.Fatalf("unexpected heatmap url %s", *out.Results[0].HeatmapURL)
	}

	var recorded map[string]interface{}
	if err := json.Unmarshal(store.Snapshot().Models["crowd"].LastOutput, &recorded); err != nil {
		t.Fatalf("recorded output is not json: %v", err)
	}
	if recorded["model"] != DefaultCrowdModel {
		t.Fatalf("metrics must hold the normalized output, got %v", recorded)
	}
}

func TestMultipartModeStreamsFile(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"tracks":[]}`)
	svc := NewHTTP(config.NewStatic(b.URL, model.ModeMultipart, b.URL, model.ModeMultipart, t.TempDir()), metrics.NewRolling(10, 0))
	video := writeVideo(t)

	params := model.InferenceRequest{Task: model.TaskPlayer, ID: "x", Location: "MCG", SamplingFPS: intPtr(12)}.Params()
	if _, err := svc.Invoke(context.Background(), model.TaskPlayer, video, params); err != nil {
		t.Fatalf("Invoke player: %v", err)
	}

	req := b.last(t)
	if req.Path != "/track-players" {
		t.Fatalf("unexpected endpoint %s", req.Path)
	}
	if req.Fields["location"] != "MCG" || req.Fields["sampling_fps"] != "12" || req.Fields["conf_threshold"] != "0.5" {
		t.Fatalf("unexpected form fields %v", req.Fields)
	}
	if req.FileName != "match.mp4" || req.FileType != "video/mp4" || req.FileBody != "fake-mp4-bytes" {
		t.Fatalf("unexpected file part %q %q %q", req.FileName, req.FileType, req.FileBody)
	}

	if _, err := svc.Invoke(context.Background(), model.TaskCrowd, video, defaultParams()); err != nil {
		t.Fatalf("Invoke crowd: %v", err)
	}
	req = b.last(t)
	if req.Path != "/crowd-from-video" || req.Fields["sample_every_s"] != "5" || len(req.Fields) != 1 {
		t.Fatalf("unexpected crowd multipart request %+v", req)
	}
}

func TestBackendErrorIsNotRecorded(t *testing.T) {
	b := newBackend(t, http.StatusServiceUnavailable, "overloaded")
	store := metrics.NewRolling(10, 0)
	svc := NewHTTP(config.NewStatic(b.URL, model.ModePath, b.URL, model.ModePath, t.TempDir()), store)

	_, err := svc.Invoke(context.Background(), model.TaskPlayer, "/videos/a.mp4", defaultParams())

	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.StatusCode != http.StatusServiceUnavailable || backendErr.Body != "overloaded" {
		t.Fatalf("unexpected backend error %+v", backendErr)
	}
	if len(store.Snapshot().Models) != 0 {
		t.Fatal("failed calls must not be recorded")
	}
}

func TestTransportErrors(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{}`)
	url := b.URL
	b.Close()

	store := metrics.NewRolling(10, 0)
	svc := NewHTTP(config.NewStatic(url, model.ModePath, url, model.ModeMultipart, t.TempDir()), store)

	var transportErr *TransportError

	_, err := svc.Invoke(context.Background(), model.TaskPlayer, "/videos/a.mp4", defaultParams())
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError for unreachable backend, got %v", err)
	}

	_, err = svc.Invoke(context.Background(), model.TaskCrowd, writeVideo(t), defaultParams())
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError for unreachable multipart backend, got %v", err)
	}

	_, err = svc.Invoke(context.Background(), model.TaskCrowd, filepath.Join(t.TempDir(), "gone.mp4"), defaultParams())
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError for unreadable file, got %v", err)
	}

	if len(store.Snapshot().Models) != 0 {
		t.Fatal("failed calls must not be recorded")
	}
}

func TestInvalidBodiesFail(t *testing.T) {
	cases := []struct {
		name string
		task model.Task
		body string
	}{
		{"player html", model.TaskPlayer, `<html>oops</html>`},
		{"crowd html", model.TaskCrowd, `<html>oops</html>`},
		{"player array", model.TaskPlayer, `[1,2]`},
		{"player string", model.TaskPlayer, `"done"`},
		{"crowd array", model.TaskCrowd, `[1,2]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newBackend(t, http.StatusOK, tc.body)
			store := metrics.NewRolling(10, 0)
			svc := NewHTTP(config.NewStatic(b.URL, model.ModePath, b.URL, model.ModePath, t.TempDir()), store)

			_, err := svc.Invoke(context.Background(), tc.task, "/videos/a.mp4", defaultParams())
			var transportErr *TransportError
			if !errors.As(err, &transportErr) {
				t.Fatalf("expected TransportError, got %v", err)
			}
			var backendErr *BackendError
			if errors.As(err, &backendErr) {
				t.Fatalf("decode failure must not look like a backend rejection: %v", err)
			}
			if len(store.Snapshot().Models) != 0 {
				t.Fatal("failed calls must not be recorded")
			}
		})
	}
}

func intPtr(i int) *int {
	return &i
}
