package observability

import (
	"crypto/md5"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const (
	defaultCaptureCacheSize = 100
	defaultCaptureInterval  = 5 * time.Minute
)

// CaptureRateLimiter limits how often the same message is sent to Sentry.
//
// The last capture time of every message hash is kept in an LRU cache;
// captures of a message seen within the interval are skipped.
//
// A nil value lets all messages through.
type CaptureRateLimiter struct {
	mu          sync.Mutex
	cache       *lru.Cache
	minDuration time.Duration
	now         func() time.Time
}

// NewCaptureRateLimiter returns a limiter allowing each message once per
// minDuration. A non-positive duration uses the default.
func NewCaptureRateLimiter(minDuration time.Duration) *CaptureRateLimiter {
	if minDuration <= 0 {
		minDuration = defaultCaptureInterval
	}

	// lru.New only fails for non-positive sizes.
	cache, _ := lru.New(defaultCaptureCacheSize)

	return &CaptureRateLimiter{
		cache:       cache,
		minDuration: minDuration,
		now:         time.Now,
	}
}

// AllowCapture returns true if a message should be captured and if so, updates
// the message's last capture time to now.
func (rl *CaptureRateLimiter) AllowCapture(msg string) bool {
	if rl == nil {
		return true
	}

	sum := md5.Sum([]byte(msg))
	hash := string(sum[:])

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if lastSent, ok := rl.cache.Get(hash); ok &&
		now.Sub(lastSent.(time.Time)) < rl.minDuration {
		return false
	}

	rl.cache.Add(hash, now)
	return true
}
