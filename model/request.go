package model

import (
	"fmt"
	"strings"
)

const (
	DefaultLocation           = "unknown"
	DefaultSamplingFPS        = 5
	DefaultConfThreshold      = 0.5
	DefaultSampleEverySeconds = 5
)

// InferenceRequest asks the gateway to run one task against an upload.
// SamplingFPS and ConfThreshold only apply to the player task, SampleEverySeconds
// only to the crowd task. The others are accepted and ignored.
type InferenceRequest struct {
	Task               Task     `json:"task"`
	ID                 string   `json:"id"`
	Location           string   `json:"location"`
	SamplingFPS        *int     `json:"sampling_fps"`
	ConfThreshold      *float64 `json:"conf_threshold"`
	SampleEverySeconds *int     `json:"sample_every_s"`
}

// Params are the backend parameters after defaults are applied.
type Params struct {
	Location           string
	SamplingFPS        int
	ConfThreshold      float64
	SampleEverySeconds int
}

func (r InferenceRequest) Validate() error {
	problems := []string{}

	if !r.Task.Valid() {
		problems = append(problems, fmt.Sprintf("task: must be one of 'player', 'crowd' (got %q)", r.Task))
	}

	if r.ID == "" {
		problems = append(problems, "id: field required")
	}

	if r.SamplingFPS != nil && (*r.SamplingFPS < 1 || *r.SamplingFPS > 60) {
		problems = append(problems, fmt.Sprintf("sampling_fps: must be between 1 and 60 (got %d)", *r.SamplingFPS))
	}

	if r.ConfThreshold != nil && (*r.ConfThreshold < 0 || *r.ConfThreshold > 1) {
		problems = append(problems, fmt.Sprintf("conf_threshold: must be between 0 and 1 (got %g)", *r.ConfThreshold))
	}

	if r.SampleEverySeconds != nil && *r.SampleEverySeconds < 1 {
		problems = append(problems, fmt.Sprintf("sample_every_s: must be at least 1 (got %d)", *r.SampleEverySeconds))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid inference request: %s", strings.Join(problems, "; "))
	}

	return nil
}

// Params applies defaults. Zero values fall back to the defaults too.
func (r InferenceRequest) Params() Params {
	p := Params{
		Location:           r.Location,
		SamplingFPS:        DefaultSamplingFPS,
		ConfThreshold:      DefaultConfThreshold,
		SampleEverySeconds: DefaultSampleEverySeconds,
	}

	if p.Location == "" {
		p.Location = DefaultLocation
	}

	if r.SamplingFPS != nil && *r.SamplingFPS != 0 {
		p.SamplingFPS = *r.SamplingFPS
	}

	if r.ConfThreshold != nil && *r.ConfThreshold != 0 {
		p.ConfThreshold = *r.ConfThreshold
	}

	if r.SampleEverySeconds != nil && *r.SampleEverySeconds != 0 {
		p.SampleEverySeconds = *r.SampleEverySeconds
	}

	return p
}
