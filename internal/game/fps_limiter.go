package game

import "time"

// FPSLimiter paces frames to a target rate.
type FPSLimiter struct {
	next  time.Time
	sleep func(time.Duration)
	now   func() time.Time
}

// NewFPSLimiter paces with the real clock.
func NewFPSLimiter() *FPSLimiter {
	return &FPSLimiter{sleep: time.Sleep, now: time.Now}
}

// Wait blocks until the next frame is due at limit frames per second. A
// limit of 0 or less disables pacing. It sleeps most of the remaining time
// and spins for the last 200µs, which is far more precise at high caps.
func (f *FPSLimiter) Wait(limit int) {
	if limit <= 0 {
		f.next = time.Time{}
		return
	}
	target := time.Second / time.Duration(limit)

	if f.next.IsZero() {
		f.next = f.now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := f.next.Sub(f.now())
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			f.sleep(remaining - 200*time.Microsecond)
		}
		if !f.now().Before(f.next) {
			break
		}
	}

	// After a hitch, resync instead of racing to catch up.
	if late := f.now().Sub(f.next); late > target {
		f.next = f.now().Add(target)
	}
}
