package model

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
	}
	return fmt.Sprintf("%s: %s", e.Processor, e.Message)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

type Task string

const (
	TaskPlayer Task = "player"
	TaskCrowd  Task = "crowd"
)

func (t Task) Valid() bool {
	return t == TaskPlayer || t == TaskCrowd
}

type TransportMode string

const (
	ModePath      TransportMode = "path"
	ModeMultipart TransportMode = "multipart"
)

// UploadRecord is a previously uploaded video. Path is relative to the upload root.
type UploadRecord struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"createdAt"`
}

type NormalizedResult struct {
	Model     string                 `json:"model"`
	VideoInfo map[string]interface{} `json:"video_info"`
	Results   []FrameResult          `json:"results"`
	Summary   map[string]interface{} `json:"summary"`
}

// FrameResult is one sampled frame of a crowd backend response.
// Nil pointers are fields the backend did not send.
type FrameResult struct {
	FrameIndex       *int                   `json:"frame_index"`
	TimestampSeconds *float64               `json:"timestamp_s"`
	Count            *float64               `json:"count"`
	HeatmapURL       *string                `json:"heatmap_url"`
	Extras           map[string]interface{} `json:"extras"`
}

type Envelope struct {
	ID        string      `json:"id"`
	Task      Task        `json:"task"`
	InputPath string      `json:"input_path"`
	Status    string      `json:"status"`
	Model     string      `json:"model"`
	LatencyMs float64     `json:"latency_ms"`
	Data      interface{} `json:"data"`
}

type ModelStatsView struct {
	Count      uint64          `json:"count"`
	AvgMs      float64         `json:"avg_ms"`
	Window     int             `json:"window"`
	LastOutput json.RawMessage `json:"last_output"`
}

type MetricsSnapshot struct {
	Window int                       `json:"window"`
	Models map[string]ModelStatsView `json:"models"`
}

type MetricsResponse struct {
	TotalCalls uint64                    `json:"total_calls"`
	Models     map[string]ModelStatsView `json:"models"`
}

type UploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}

type RequestStats struct {
	RequestID    string        `json:"requestId"`
	Method       string        `json:"method"`
	Path         string        `json:"path"`
	Status       int           `json:"status"`
	Latency      time.Duration `json:"latency"`
	ResponseSize int           `json:"responseSize"`
}
