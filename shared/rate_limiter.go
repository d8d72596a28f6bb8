package shared

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPRequestRateLimiter spaces outbound requests to one host at least
// minimumDelay apart. Callers queue on the mutex in arrival order.
type HTTPRequestRateLimiter struct {
	minimumDelay time.Duration
	clock        Clock

	mutex sync.Mutex
	last  time.Time
}

func NewHTTPRequestRateLimiter(minimumDelay time.Duration) *HTTPRequestRateLimiter {
	return NewHTTPRequestRateLimiterWithClock(minimumDelay, RealClock{})
}

func NewHTTPRequestRateLimiterWithClock(minimumDelay time.Duration, clock Clock) *HTTPRequestRateLimiter {
	return &HTTPRequestRateLimiter{minimumDelay: minimumDelay, clock: clock}
}

// Wait blocks until the next request may be sent or ctx is done. A cancelled
// wait does not consume a slot.
func (l *HTTPRequestRateLimiter) Wait(ctx context.Context) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if !l.last.IsZero() {
		if remaining := l.minimumDelay - l.clock.Now().Sub(l.last); remaining > 0 {
			logrus.WithFields(logrus.Fields{
				"component":       "HTTPRequestRateLimiter",
				"remaining_delay": remaining,
			}).Debug("Enforcing rate limit delay")

			timer := l.clock.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C():
			}
		}
	}

	l.last = l.clock.Now()
	return nil
}
