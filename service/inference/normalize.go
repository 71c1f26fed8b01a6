package inference

import (
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vision-gateway/model"
)

const (
	HeatmapsWebPrefix = "/static/heatmaps"
	DefaultCrowdModel = "crowd_monitor_v0"
	unknownModel      = "unknown"
	heatmapsSegment   = "heatmaps/"
)

// Webify maps a backend heatmap file path to its public URL. It returns ""
// when nothing usable is left of the path.
func Webify(relPath string) string {
	p := strings.ReplaceAll(relPath, `\`, "/")

	var tail string
	switch {
	case strings.Contains(p, heatmapsSegment):
		tail = p[strings.Index(p, heatmapsSegment)+len(heatmapsSegment):]
	case strings.Contains(p, "/"):
		tail = p[strings.LastIndex(p, "/")+1:]
	default:
		tail = p
	}

	if tail == "" {
		return ""
	}

	return HeatmapsWebPrefix + "/" + tail
}

// NormalizeCrowd reshapes a crowd backend response into the canonical result.
func NormalizeCrowd(raw []byte) (model.NormalizedResult, error) {
	if !gjson.ValidBytes(raw) {
		return model.NormalizedResult{}, xerrors.New("crowd response is not valid JSON")
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return model.NormalizedResult{}, xerrors.New("crowd response is not a JSON object")
	}

	out := model.NormalizedResult{
		Model:     DefaultCrowdModel,
		VideoInfo: objectOrEmpty(doc.Get("video_info")),
		Results:   []model.FrameResult{},
		Summary:   objectOrEmpty(doc.Get("summary")),
	}

	if m := doc.Get("model"); present(m) {
		out.Model = m.String()
	}

	results := doc.Get("results")
	if results.IsArray() {
		results.ForEach(func(_, r gjson.Result) bool {
			out.Results = append(out.Results, normalizeFrame(r))
			return true
		})
	}

	return out, nil
}

func normalizeFrame(r gjson.Result) model.FrameResult {
	frame := model.FrameResult{
		Extras: objectOrEmpty(r.Get("extras")),
	}

	if v := r.Get("frame_index"); v.Type == gjson.Number {
		i := int(v.Int())
		frame.FrameIndex = &i
	}

	if v := r.Get("timestamp_s"); v.Type == gjson.Number {
		f := v.Float()
		frame.TimestampSeconds = &f
	}

	if v := r.Get("count"); v.Type == gjson.Number {
		f := v.Float()
		frame.Count = &f
	}

	if v := r.Get("heatmap_path"); truthy(v) {
		if url := Webify(v.String()); url != "" {
			frame.HeatmapURL = &url
		}
	}

	return frame
}

// modelOf reads the model name a backend reported, if any.
func modelOf(raw []byte) string {
	if m := gjson.GetBytes(raw, "model"); present(m) {
		return m.String()
	}
	return unknownModel
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// truthy treats false, 0, "", [] and {} like a missing value.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	case gjson.JSON:
		empty := true
		r.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return !empty
	}
	return r.Exists()
}

func objectOrEmpty(r gjson.Result) map[string]interface{} {
	if r.IsObject() {
		if m, ok := r.Value().(map[string]interface{}); ok {
			return m
		}
	}
	return map[string]interface{}{}
}
