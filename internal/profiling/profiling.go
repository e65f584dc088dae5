// Package profiling accumulates wall-clock time per named section over one
// frame or streaming tick.
//
//	defer profiling.Track("world.Map.Update")()
package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Section is the time spent in one named section during a frame.
type Section struct {
	Name  string
	Total time.Duration
	Calls int
}

type section struct {
	total time.Duration
	calls int
}

// Profiler collects section timings. Track may be called from any goroutine;
// the generation worker records into the same frame as the main loop.
type Profiler struct {
	mu      sync.Mutex
	current map[string]*section
	frames  int

	// exponential average of whole-frame totals, keyed by section
	avg   map[string]time.Duration
	alpha float64
}

// New creates a profiler. alpha is the weight of the newest frame in the
// running average, clamped to (0, 1].
func New(alpha float64) *Profiler {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return &Profiler{
		current: make(map[string]*section),
		avg:     make(map[string]time.Duration),
		alpha:   alpha,
	}
}

// Default is the profiler behind the package-level functions.
var Default = New(0.1)

func Track(name string) func()          { return Default.Track(name) }
func ResetFrame()                       { Default.ResetFrame() }
func Snapshot() []Section               { return Default.Snapshot() }
func TopN(n int) string                 { return Default.TopN(n) }
func Average(name string) time.Duration { return Default.Average(name) }

// Track returns a stop function recording the time elapsed since the call.
func (p *Profiler) Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.mu.Lock()
		s := p.current[name]
		if s == nil {
			s = &section{}
			p.current[name] = s
		}
		s.total += d
		s.calls++
		p.mu.Unlock()
	}
}

// ResetFrame folds the current totals into the running averages and starts
// a new frame. Sections absent from a frame decay towards zero.
func (p *Profiler) ResetFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, prev := range p.avg {
		var cur time.Duration
		if s := p.current[name]; s != nil {
			cur = s.total
		}
		p.avg[name] = p.blend(prev, cur)
	}
	for name, s := range p.current {
		if _, ok := p.avg[name]; !ok {
			p.avg[name] = s.total
		}
	}
	clear(p.current)
	p.frames++
}

func (p *Profiler) blend(prev, cur time.Duration) time.Duration {
	return time.Duration(float64(prev)*(1-p.alpha) + float64(cur)*p.alpha)
}

// Frames returns how many frames have been closed by ResetFrame.
func (p *Profiler) Frames() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

// Average returns the running per-frame average of a section.
func (p *Profiler) Average(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.avg[name]
}

// Snapshot returns the current frame's sections, slowest first.
func (p *Profiler) Snapshot() []Section {
	p.mu.Lock()
	out := make([]Section, 0, len(p.current))
	for name, s := range p.current {
		out = append(out, Section{Name: name, Total: s.total, Calls: s.calls})
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n slowest sections of the current frame, e.g.
// "world.Map.Draw:4.2ms, render.chunk.rebuild:2.1ms(x3)".
func (p *Profiler) TopN(n int) string {
	secs := p.Snapshot()
	if n < len(secs) {
		secs = secs[:n]
	}
	parts := make([]string, 0, len(secs))
	for _, s := range secs {
		part := fmt.Sprintf("%s:%.1fms", s.Name, float64(s.Total.Microseconds())/1000)
		if s.Calls > 1 {
			part += fmt.Sprintf("(x%d)", s.Calls)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}
