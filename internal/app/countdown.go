package app

import (
	"sync"
	"time"
)

// countdown calls tick once per interval until stopped. Stop never blocks, so
// it is safe to call while holding the session lock that tick also takes; the
// session rejects ticks that arrive after it left the playing phase.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func startCountdown(interval time.Duration, tick func()) *countdown {
	c := &countdown{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				select {
				case <-c.stop:
					return
				default:
				}
				tick()
			}
		}
	}()
	return c
}

func (c *countdown) Stop() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}
