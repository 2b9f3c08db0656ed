// Package sim runs the small frame-driven toy simulations shown when a
// concept has no prebuilt animation.
package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultFrameInterval is roughly 30 frames per second.
const DefaultFrameInterval = time.Second / 30

// StepFunc advances a simulation by one frame. Returning false ends the loop.
type StepFunc func(frame uint64, dt time.Duration) bool

// Loop is a running frame task. The zero value is not usable; use Start.
type Loop struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	frames atomic.Uint64
}

// Start runs step on a ticker until ctx is done, Cancel is called, or step
// returns false. A non-positive interval uses DefaultFrameInterval.
func Start(ctx context.Context, interval time.Duration, step StepFunc) *Loop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Loop{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(l.done)
		defer cancel()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := l.frames.Add(1)
				if !step(n, interval) {
					return
				}
			}
		}
	}()
	return l
}

// Cancel stops the loop and returns once step will never run again. It is
// safe to call more than once. It must not be called from inside step.
func (l *Loop) Cancel() {
	if l == nil {
		return
	}
	l.once.Do(l.cancel)
	<-l.done
}

// Done is closed when the loop has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Frames returns how many frames have been stepped.
func (l *Loop) Frames() uint64 {
	return l.frames.Load()
}
