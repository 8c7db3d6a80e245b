package observability

import "time"

// SetClockForTest replaces the limiter's clock.
func (rl *CaptureRateLimiter) SetClockForTest(now func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = now
}
