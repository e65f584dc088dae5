package render

// Drawable is a chunk as seen by the render queue. Both methods report
// whether they spent a unit of budget on a mesh rebuild.
type Drawable interface {
	Draw(dt float64, budget *Budget) bool
	Culled(dt float64, budget *Budget) bool
}

// Stats summarizes one frame.
type Stats struct {
	Drawn          int
	Culled         int
	TooFar         int
	RebuiltOnDraw  int
	RebuiltOnCull  int
	DrawBudgetLeft int
	CullBudgetLeft int
}

// Queue orders one frame's chunks by distance so the nearest ones get the
// rebuild budget first. Chunks outside the frustum go to a separate bucket
// with its own budget.
type Queue struct {
	maxDistance int
	maxDraw     int
	maxCull     int
	draw        [][]Drawable
	cull        []Drawable
}

// NewQueue creates a queue with one draw bucket per chunk distance up to
// maxDistance. maxDraw and maxCull are the per-frame rebuild budgets of the
// draw buckets and the cull bucket.
func NewQueue(maxDistance, maxDraw, maxCull int) *Queue {
	if maxDistance < 0 {
		maxDistance = 0
	}
	return &Queue{
		maxDistance: maxDistance,
		maxDraw:     maxDraw,
		maxCull:     maxCull,
		draw:        make([][]Drawable, maxDistance+1),
	}
}

// EnqueueDraw adds a visible chunk. Distances past the maximum share the last bucket.
func (q *Queue) EnqueueDraw(d Drawable, distance int) {
	if distance > q.maxDistance {
		distance = q.maxDistance
	}
	if distance < 0 {
		distance = 0
	}
	q.draw[distance] = append(q.draw[distance], d)
}

// EnqueueCull adds a chunk outside the frustum. It is not drawn but may use
// the cull budget to rebuild its mesh ahead of time.
func (q *Queue) EnqueueCull(d Drawable) {
	q.cull = append(q.cull, d)
}

// Len returns the number of queued chunks.
func (q *Queue) Len() int {
	n := len(q.cull)
	for _, b := range q.draw {
		n += len(b)
	}
	return n
}

// Draw processes the draw buckets nearest first, then the cull bucket, and
// empties the queue.
func (q *Queue) Draw(dt float64) Stats {
	var st Stats
	drawBudget := NewBudget(q.maxDraw)
	for i, bucket := range q.draw {
		for j, d := range bucket {
			if d.Draw(dt, drawBudget) {
				st.RebuiltOnDraw++
			}
			st.Drawn++
			bucket[j] = nil
		}
		q.draw[i] = bucket[:0]
	}

	cullBudget := NewBudget(q.maxCull)
	for i, d := range q.cull {
		if d.Culled(dt, cullBudget) {
			st.RebuiltOnCull++
		}
		st.Culled++
		q.cull[i] = nil
	}
	q.cull = q.cull[:0]

	st.DrawBudgetLeft = drawBudget.Remaining()
	st.CullBudgetLeft = cullBudget.Remaining()
	return st
}
