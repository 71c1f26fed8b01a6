package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/khaledhikmat/vision-gateway/model"
)

// latencyRing is a fixed capacity FIFO of latencies. Not safe on its own;
// the owning store's mutex guards it.
type latencyRing struct {
	values []float64
	next   int
	size   int
}

func newLatencyRing(capacity int) *latencyRing {
	return &latencyRing{values: make([]float64, capacity)}
}

func (r *latencyRing) push(v float64) {
	r.values[r.next] = v
	r.next = (r.next + 1) % len(r.values)
	if r.size < len(r.values) {
		r.size++
	}
}

func (r *latencyRing) len() int {
	return r.size
}

func (r *latencyRing) mean() float64 {
	if r.size == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range r.contents() {
		sum += v
	}
	return sum / float64(r.size)
}

// contents returns a copy, oldest first.
func (r *latencyRing) contents() []float64 {
	out := make([]float64, 0, r.size)
	start := (r.next - r.size + len(r.values)) % len(r.values)
	for i := 0; i < r.size; i++ {
		out = append(out, r.values[(start+i)%len(r.values)])
	}
	return out
}

type modelStats struct {
	count      uint64
	latencies  *latencyRing
	lastOutput json.RawMessage
}

type rollingService struct {
	mu             sync.Mutex
	window         int
	maxOutputBytes int
	models         map[string]*modelStats
}

// NewRolling keeps per model counts, the last window latencies and the last
// output. maxOutputBytes <= 0 retains outputs of any size.
func NewRolling(window int, maxOutputBytes int) IService {
	if window <= 0 {
		window = DefaultWindow
	}

	return &rollingService{
		window:         window,
		maxOutputBytes: maxOutputBytes,
		models:         map[string]*modelStats{},
	}
}

func (svc *rollingService) Record(modelName string, latencyMs float64, output interface{}) {
	// Marshal outside the lock; the stored bytes are never mutated afterwards
	last := svc.encodeOutput(output)

	svc.mu.Lock()
	defer svc.mu.Unlock()

	stats, ok := svc.models[modelName]
	if !ok {
		stats = &modelStats{latencies: newLatencyRing(svc.window)}
		svc.models[modelName] = stats
	}

	stats.count++
	stats.latencies.push(latencyMs)
	stats.lastOutput = last
}

func (svc *rollingService) RecordFailure(_ string, _ string) {
}

func (svc *rollingService) Snapshot() model.MetricsSnapshot {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	snap := model.MetricsSnapshot{
		Window: svc.window,
		Models: make(map[string]model.ModelStatsView, len(svc.models)),
	}

	for name, stats := range svc.models {
		var last json.RawMessage
		if stats.lastOutput != nil {
			last = append(json.RawMessage(nil), stats.lastOutput...)
		}

		snap.Models[name] = model.ModelStatsView{
			Count:      stats.count,
			AvgMs:      Round2(stats.latencies.mean()),
			Window:     svc.window,
			LastOutput: last,
		}
	}

	return snap
}

func (svc *rollingService) encodeOutput(output interface{}) json.RawMessage {
	if output == nil {
		return json.RawMessage("null")
	}

	b, err := json.Marshal(output)
	if err != nil {
		b, _ = json.Marshal(map[string]interface{}{"unencodable": fmt.Sprintf("%T", output)})
	}

	if svc.maxOutputBytes > 0 && len(b) > svc.maxOutputBytes {
		b, _ = json.Marshal(map[string]interface{}{"truncated": true, "bytes": len(b)})
	}

	return b
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TotalCalls sums the counts of every model in the snapshot.
func TotalCalls(snap model.MetricsSnapshot) uint64 {
	var total uint64
	for _, m := range snap.Models {
		total += m.Count
	}
	return total
}
