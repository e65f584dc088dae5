package async

import "sync"

// State of a Slot.
type State int

const (
	Idle State = iota
	Pending
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Slot runs at most one background task at a time and hands its result back
// to the owner through non-blocking polling. Submit and Poll are meant to be
// called from a single owner goroutine.
type Slot[T any] struct {
	mu     sync.Mutex
	state  State
	result T
	done   chan struct{}
}

// Submit starts fn on a new goroutine. It returns false, without running fn,
// when a task is already pending or its result has not been collected yet.
func (s *Slot[T]) Submit(fn func() T) bool {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return false
	}
	s.state = Pending
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go func() {
		r := fn()
		s.mu.Lock()
		s.result = r
		s.state = Ready
		s.mu.Unlock()
		close(done)
	}()
	return true
}

// State reports the current state without changing it.
func (s *Slot[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Poll returns the result and resets the slot to Idle if the task finished.
// It never blocks.
func (s *Slot[T]) Poll() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.state != Ready {
		return zero, false
	}
	r := s.result
	s.result = zero
	s.state = Idle
	s.done = nil
	return r, true
}

// Wait blocks until the pending task (if any) finishes and then behaves like Poll.
func (s *Slot[T]) Wait() (T, bool) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	return s.Poll()
}
