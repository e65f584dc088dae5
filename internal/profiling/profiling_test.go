package profiling

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotOrdersAndCounts(t *testing.T) {
	p := New(0.5)
	p.mu.Lock()
	p.current["fast"] = &section{total: time.Millisecond, calls: 1}
	p.current["slow"] = &section{total: 3 * time.Millisecond, calls: 2}
	p.mu.Unlock()

	want := []Section{
		{Name: "slow", Total: 3 * time.Millisecond, Calls: 2},
		{Name: "fast", Total: time.Millisecond, Calls: 1},
	}
	if diff := cmp.Diff(want, p.Snapshot()); diff != "" {
		t.Fatalf("snapshot (-want +got):\n%s", diff)
	}
	if got := p.TopN(5); got != "slow:3.0ms(x2), fast:1.0ms" {
		t.Fatalf("TopN = %q", got)
	}
	if got := p.TopN(1); got != "slow:3.0ms(x2)" {
		t.Fatalf("TopN(1) = %q", got)
	}
}

func TestTrackRecords(t *testing.T) {
	p := New(1)
	stop := p.Track("sleep")
	time.Sleep(2 * time.Millisecond)
	stop()
	p.Track("sleep")()

	secs := p.Snapshot()
	if len(secs) != 1 || secs[0].Calls != 2 || secs[0].Total < 2*time.Millisecond {
		t.Fatalf("snapshot = %+v", secs)
	}
	if !strings.HasPrefix(p.TopN(1), "sleep:") {
		t.Fatalf("TopN = %q", p.TopN(1))
	}
}

func TestResetFrameAverages(t *testing.T) {
	p := New(0.5)
	set := func(d time.Duration) {
		p.mu.Lock()
		p.current["a"] = &section{total: d, calls: 1}
		p.mu.Unlock()
	}
	set(8 * time.Millisecond)
	p.ResetFrame()
	if got := p.Average("a"); got != 8*time.Millisecond {
		t.Fatalf("first frame average = %v", got)
	}
	set(4 * time.Millisecond)
	p.ResetFrame()
	if got := p.Average("a"); got != 6*time.Millisecond {
		t.Fatalf("second frame average = %v", got)
	}
	// a section missing from a frame decays
	p.ResetFrame()
	if got := p.Average("a"); got != 3*time.Millisecond {
		t.Fatalf("decayed average = %v", got)
	}
	if p.Frames() != 3 || len(p.Snapshot()) != 0 {
		t.Fatalf("frames = %d, snapshot = %v", p.Frames(), p.Snapshot())
	}
}
