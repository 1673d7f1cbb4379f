// Package trace collects scheduler events and summarizes task timing.
package trace

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"rtsense/kernel"
)

// Stats summarizes a series of tick intervals.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// TaskStats holds per-task timing. Period is the interval between
// successive wake-ups. Latency is the delay from wake-up to dispatch.
type TaskStats struct {
	Task    kernel.TaskID
	Period  Stats
	Latency Stats
}

type series struct {
	lastWake uint64
	seen     bool // a wake-up has been recorded
	pending  bool // woken, not yet dispatched
	periods  []float64
	latency  []float64
}

// Recorder is a kernel observer. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	tasks map[kernel.TaskID]*series
}

func NewRecorder() *Recorder {
	return &Recorder{tasks: make(map[kernel.TaskID]*series)}
}

// Observe records ev. Pass it to kernel.WithObserver.
func (r *Recorder) Observe(ev kernel.Event) {
	if ev.Kind != kernel.EventWake && ev.Kind != kernel.EventDispatch {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.tasks[ev.Task]
	if s == nil {
		s = &series{}
		r.tasks[ev.Task] = s
	}
	switch ev.Kind {
	case kernel.EventWake:
		if s.seen {
			s.periods = append(s.periods, float64(ev.Tick-s.lastWake))
		}
		s.lastWake = ev.Tick
		s.seen = true
		s.pending = true
	case kernel.EventDispatch:
		if s.pending {
			s.latency = append(s.latency, float64(ev.Tick-s.lastWake))
			s.pending = false
		}
	}
}

// Summary returns timing for every observed task, ordered by task ID.
func (r *Recorder) Summary() []TaskStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]kernel.TaskID, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]TaskStats, 0, len(ids))
	for _, id := range ids {
		s := r.tasks[id]
		out = append(out, TaskStats{Task: id, Period: summarize(s.periods), Latency: summarize(s.latency)})
	}
	return out
}

// Report writes one line per task. name maps IDs to task names.
func (r *Recorder) Report(w io.Writer, name func(kernel.TaskID) string) error {
	for _, ts := range r.Summary() {
		label := fmt.Sprintf("#%d", ts.Task)
		if name != nil {
			if n := name(ts.Task); n != "" {
				label = n
			}
		}
		p, l := ts.Period, ts.Latency
		if _, err := fmt.Fprintf(w, "%-6s period n=%d mean=%.1f sd=%.2f min=%.0f max=%.0f  latency mean=%.2f max=%.0f\n",
			label, p.N, p.Mean, p.StdDev, p.Min, p.Max, l.Mean, l.Max); err != nil {
			return err
		}
	}
	return nil
}

func summarize(x []float64) Stats {
	if len(x) == 0 {
		return Stats{}
	}
	s := Stats{N: len(x), Min: floats.Min(x), Max: floats.Max(x)}
	if len(x) == 1 {
		s.Mean = x[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	return s
}
