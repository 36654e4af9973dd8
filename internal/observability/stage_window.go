package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

type StageStats struct {
	Stage   string  `json:"stage"`
	Samples int     `json:"samples"`
	LastMS  float64 `json:"last_ms"`
	AvgMS   float64 `json:"avg_ms"`
	P50MS   float64 `json:"p50_ms"`
	P95MS   float64 `json:"p95_ms"`
	P99MS   float64 `json:"p99_ms"`
}

// Indicator counts routed messages of one kind since start.
type Indicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type StageSnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
	Indicators  []Indicator  `json:"indicators,omitempty"`
}

// samples is a fixed-size ring of the most recent durations, in ms.
type samples struct {
	buf  []float64
	n    int
	next int
	last float64
}

func (s *samples) add(ms float64) {
	s.buf[s.next] = ms
	s.next = (s.next + 1) % len(s.buf)
	if s.n < len(s.buf) {
		s.n++
	}
	s.last = ms
}

func (s *samples) stats(stage string) StageStats {
	sorted := append([]float64(nil), s.buf[:s.n]...)
	sort.Float64s(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return StageStats{
		Stage:   stage,
		Samples: s.n,
		LastMS:  round2(s.last),
		AvgMS:   round2(sum / float64(s.n)),
		P50MS:   round2(percentile(sorted, 0.50)),
		P95MS:   round2(percentile(sorted, 0.95)),
		P99MS:   round2(percentile(sorted, 0.99)),
	}
}

// stageWindow backs /v1/perf/latency: per-stage rings for "route" and
// "completion" plus per-kind message counters.
type stageWindow struct {
	mu     sync.Mutex
	size   int
	stages map[string]*samples
	kinds  map[string]int
}

func newStageWindow(size int) *stageWindow {
	if size <= 0 {
		size = 256
	}
	return &stageWindow{
		size:   size,
		stages: make(map[string]*samples),
		kinds:  make(map[string]int),
	}
}

func (w *stageWindow) Observe(stage string, ms float64) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.stages[stage]
	if !ok {
		s = &samples{buf: make([]float64, w.size)}
		w.stages[stage] = s
	}
	s.add(ms)
}

func (w *stageWindow) ObserveIndicator(kind string) {
	if kind = strings.TrimSpace(kind); kind == "" {
		return
	}
	w.mu.Lock()
	w.kinds[kind]++
	w.mu.Unlock()
}

func (w *stageWindow) Snapshot() StageSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := StageSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.size,
		Stages:      make([]StageStats, 0, len(w.stages)),
		Indicators:  make([]Indicator, 0, len(w.kinds)),
	}
	for _, stage := range sortedKeys(w.stages) {
		snap.Stages = append(snap.Stages, w.stages[stage].stats(stage))
	}
	for _, kind := range sortedKeys(w.kinds) {
		snap.Indicators = append(snap.Indicators, Indicator{Name: kind, Count: w.kinds[kind]})
	}
	return snap
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
