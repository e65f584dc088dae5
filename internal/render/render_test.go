package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/block"
	"voxelstream/internal/geom"
)

type oneBlock struct {
	h       block.Handle
	outside block.Opacity
}

func (s oneBlock) FirstBlockPosition() geom.Vec3i { return geom.Vec3i{X: 32, Y: 0, Z: -32} }

func (s oneBlock) VisitBlocks(fn func(geom.Vec3i, block.Handle, block.Opacity)) {
	fn(geom.Vec3i{}, s.h, s.outside)
	fn(geom.Vec3i{X: 1}, block.Handle{}, block.OpacityNone)
}

func stone(t *testing.T) block.Handle {
	t.Helper()
	return block.DefaultRegistry().MustGet("Stone").Instantiate()
}

func TestBudget(t *testing.T) {
	b := NewBudget(2)
	if !b.Take() || !b.Take() {
		t.Fatal("budget of 2 should grant two takes")
	}
	if b.Take() {
		t.Fatal("exhausted budget granted a take")
	}
	var nilBudget *Budget
	if nilBudget.Take() {
		t.Fatal("nil budget granted a take")
	}
	if NewBudget(-3).Remaining() != 0 {
		t.Fatal("negative budget should clamp to zero")
	}
}

func TestChunkRendererDrawRebuildsOnce(t *testing.T) {
	sink := &CountingSink{}
	r := NewChunkRenderer(CountingSinks(sink), 0)
	src := oneBlock{h: stone(t)}

	if !r.NeedsUpdate() {
		t.Fatal("new renderer must need an update")
	}
	if !r.Draw(src, 0.016, NewBudget(1)) {
		t.Fatal("first draw with budget should rebuild")
	}
	if got := r.IndexCount(); got != 36 {
		t.Fatalf("index count = %d, want 36 for a lone cube", got)
	}
	if r.Draw(src, 0.016, NewBudget(1)) {
		t.Fatal("second draw rebuilt an up-to-date mesh")
	}
	if sink.Uploads.Load() != 1 || sink.Draws.Load() != 2 {
		t.Fatalf("uploads=%d draws=%d", sink.Uploads.Load(), sink.Draws.Load())
	}
}

func TestChunkRendererRespectsBudget(t *testing.T) {
	sink := &CountingSink{}
	r := NewChunkRenderer(CountingSinks(sink), 0)
	if r.Draw(oneBlock{h: stone(t)}, 0.016, NewBudget(0)) {
		t.Fatal("rebuilt without budget")
	}
	if !r.NeedsUpdate() || sink.Uploads.Load() != 0 || sink.Draws.Load() != 0 {
		t.Fatal("renderer without mesh must neither upload nor draw")
	}
}

func TestChunkRendererHiddenFaces(t *testing.T) {
	sink := &CountingSink{}
	r := NewChunkRenderer(CountingSinks(sink), 0)
	src := oneBlock{h: stone(t), outside: block.OpacityOf(geom.East, geom.West, geom.Top)}
	r.Draw(src, 0, NewBudget(1))
	if got := r.IndexCount(); got != 18 {
		t.Fatalf("index count = %d, want 18", got)
	}

	r.ScheduleUpdate()
	r.Draw(oneBlock{h: stone(t), outside: block.OpacityFull}, 0, NewBudget(1))
	if r.IndexCount() != 0 || sink.Releases.Load() != 1 {
		t.Fatalf("fully hidden cube should release its sink: count=%d releases=%d", r.IndexCount(), sink.Releases.Load())
	}
}

func TestChunkRendererTooFarReleases(t *testing.T) {
	sink := &CountingSink{}
	r := NewChunkRenderer(CountingSinks(sink), 1.0)
	src := oneBlock{h: stone(t)}
	r.Draw(src, 0, NewBudget(1))

	r.TooFarToDraw(0.6)
	if r.State() != StateTooFar || sink.Releases.Load() != 0 {
		t.Fatalf("state=%v releases=%d", r.State(), sink.Releases.Load())
	}
	r.TooFarToDraw(0.6)
	if r.State() != StateReleased || sink.Releases.Load() != 1 {
		t.Fatalf("state=%v releases=%d", r.State(), sink.Releases.Load())
	}
	if !r.NeedsUpdate() || r.IndexCount() != 0 {
		t.Fatal("released renderer must need an update")
	}
	r.TooFarToDraw(10)
	if sink.Releases.Load() != 1 {
		t.Fatal("released renderer released twice")
	}

	r.Draw(src, 0, NewBudget(1))
	if r.State() != StateActive || r.IndexCount() != 36 || sink.Uploads.Load() != 2 {
		t.Fatalf("drawing again should rebuild: state=%v count=%d uploads=%d", r.State(), r.IndexCount(), sink.Uploads.Load())
	}
}

func TestChunkRendererComingBackResetsTimer(t *testing.T) {
	sink := &CountingSink{}
	r := NewChunkRenderer(CountingSinks(sink), 1.0)
	src := oneBlock{h: stone(t)}
	r.Draw(src, 0, NewBudget(1))
	r.TooFarToDraw(0.9)
	r.Draw(src, 0, NewBudget(1))
	r.TooFarToDraw(0.9)
	if r.State() == StateReleased {
		t.Fatal("time out of range must reset when the chunk is drawn")
	}
}

func TestChunkRendererCulledRebuildsWithoutDrawing(t *testing.T) {
	sink := &CountingSink{}
	r := NewChunkRenderer(CountingSinks(sink), 0)
	if !r.Culled(oneBlock{h: stone(t)}, 0.5, NewBudget(1)) {
		t.Fatal("culled chunk with budget should rebuild")
	}
	if sink.Uploads.Load() != 1 || sink.Draws.Load() != 0 {
		t.Fatalf("uploads=%d draws=%d", sink.Uploads.Load(), sink.Draws.Load())
	}
	if r.TimeSinceLastRender() != 0.5 {
		t.Fatalf("time since last render = %f", r.TimeSinceLastRender())
	}
}

type fakeDrawable struct {
	stale    bool
	draws    int
	culls    int
	rebuilds int
	order    *[]int
	id       int
}

func (f *fakeDrawable) Draw(dt float64, b *Budget) bool {
	f.draws++
	*f.order = append(*f.order, f.id)
	return f.rebuild(b)
}

func (f *fakeDrawable) Culled(dt float64, b *Budget) bool {
	f.culls++
	return f.rebuild(b)
}

func (f *fakeDrawable) rebuild(b *Budget) bool {
	if f.stale && b.Take() {
		f.stale = false
		f.rebuilds++
		return true
	}
	return false
}

func TestQueueFrameBudget(t *testing.T) {
	const maxDraw, maxCull = 3, 2
	q := NewQueue(4, maxDraw, maxCull)
	var order []int
	var drawn, culled []*fakeDrawable
	for i := 0; i < 10; i++ {
		d := &fakeDrawable{stale: true, order: &order, id: i}
		q.EnqueueDraw(d, 9-i)
		drawn = append(drawn, d)
	}
	for i := 0; i < 5; i++ {
		d := &fakeDrawable{stale: true, order: &order, id: 100 + i}
		q.EnqueueCull(d)
		culled = append(culled, d)
	}

	st := q.Draw(0.016)
	if st.Drawn != 10 || st.Culled != 5 {
		t.Fatalf("stats = %+v", st)
	}
	if st.RebuiltOnDraw != maxDraw || st.RebuiltOnCull != maxCull {
		t.Fatalf("rebuilds draw=%d cull=%d, want %d and %d", st.RebuiltOnDraw, st.RebuiltOnCull, maxDraw, maxCull)
	}
	if st.DrawBudgetLeft != 0 || st.CullBudgetLeft != 0 {
		t.Fatalf("budget left = %d/%d", st.DrawBudgetLeft, st.CullBudgetLeft)
	}

	// Nearest chunks (largest ids, smallest distances) get the rebuilds.
	for _, id := range []int{9, 8, 7} {
		if drawn[id].rebuilds != 1 {
			t.Errorf("chunk %d at distance %d was not rebuilt", id, 9-id)
		}
	}
	if order[0] != 9 || order[1] != 8 {
		t.Errorf("draw order starts with %v, want nearest first", order[:2])
	}
	if culled[0].rebuilds != 1 || culled[1].rebuilds != 1 || culled[2].rebuilds != 0 {
		t.Error("cull budget not spent in enqueue order")
	}

	if q.Len() != 0 {
		t.Fatalf("queue not cleared: %d", q.Len())
	}
	st = q.Draw(0.016)
	if st.Drawn != 0 || st.Culled != 0 {
		t.Fatalf("second frame drew stale entries: %+v", st)
	}
}

func TestQueueClampsDistance(t *testing.T) {
	q := NewQueue(2, 1, 0)
	var order []int
	far := &fakeDrawable{stale: true, order: &order, id: 1}
	near := &fakeDrawable{stale: true, order: &order, id: 2}
	q.EnqueueDraw(far, 1000)
	q.EnqueueDraw(near, 1)
	q.Draw(0)
	if near.rebuilds != 1 || far.rebuilds != 0 {
		t.Fatal("clamped far chunk took the budget before the near one")
	}
}

func TestFrustumSphere(t *testing.T) {
	cam := LookAtCamera(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, 70, 1, 0.1, 500)
	f := FrustumFromMatrix(cam.ViewProjection())

	cases := []struct {
		name string
		s    geom.Sphere
		want bool
	}{
		{"ahead", geom.Sphere{Center: mgl32.Vec3{0, 0, -50}, Radius: 1}, true},
		{"behind", geom.Sphere{Center: mgl32.Vec3{0, 0, 50}, Radius: 1}, false},
		{"behind but large", geom.Sphere{Center: mgl32.Vec3{0, 0, 5}, Radius: 10}, true},
		{"far left", geom.Sphere{Center: mgl32.Vec3{-500, 0, -10}, Radius: 1}, false},
		{"past far plane", geom.Sphere{Center: mgl32.Vec3{0, 0, -1000}, Radius: 10}, false},
		{"straddling left plane", geom.Sphere{Center: mgl32.Vec3{-30, 0, -20}, Radius: 28}, true},
	}
	for _, c := range cases {
		if got := f.IntersectsSphere(c.s); got != c.want {
			t.Errorf("%s: IntersectsSphere = %v, want %v", c.name, got, c.want)
		}
	}
	if !f.ContainsPoint(mgl32.Vec3{0, 0, -10}) || f.ContainsPoint(mgl32.Vec3{0, 0, 10}) {
		t.Error("ContainsPoint disagrees with the view direction")
	}
}
