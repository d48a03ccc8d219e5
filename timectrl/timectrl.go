// Package timectrl drives per-frame evaluation loops.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Clock is the read side of a FrameClock, for components that only need
// the current simulated time.
type Clock interface {
	// Now returns the current simulated time.
	Now() time.Time
	// Elapsed returns the simulated time since the clock started.
	Elapsed() time.Duration
}

// Mode describes how the FrameClock advances simulated time.
type Mode int

const (
	// RealTime paces frames against the wall clock.
	RealTime Mode = iota
	// Accelerated emits frames back to back while still stepping by the
	// frame interval.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "real-time"
}

// Frame is delivered to listeners once per tick.
type Frame struct {
	Index   int
	SimTime time.Time
	Elapsed time.Duration
	Delta   time.Duration
}

// FrameClock advances simulated time one frame at a time and notifies
// registered listeners.
type FrameClock struct {
	mu            sync.RWMutex
	StartTime     time.Time
	FrameInterval time.Duration
	Mode          Mode

	current time.Time

	listeners []func(Frame)
}

// IntervalFromFPS converts a frame rate into a frame interval. Non-positive
// rates fall back to 60 fps.
func IntervalFromFPS(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

// NewFrameClock constructs a clock. A non-positive interval means 60 fps.
func NewFrameClock(start time.Time, interval time.Duration, mode Mode) *FrameClock {
	if interval <= 0 {
		interval = IntervalFromFPS(60)
	}
	return &FrameClock{
		StartTime:     start,
		FrameInterval: interval,
		Mode:          mode,
		current:       start,
	}
}

// Now returns the current simulated time.
func (fc *FrameClock) Now() time.Time {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.current
}

// Elapsed returns the simulated time since StartTime.
func (fc *FrameClock) Elapsed() time.Duration {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.current.Sub(fc.StartTime)
}

// SetTime jumps the simulated time, e.g. to resume a paused overlay.
func (fc *FrameClock) SetTime(t time.Time) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.current = t
}

// AddListener registers a callback invoked on every frame. Listeners run
// on the clock goroutine in registration order.
func (fc *FrameClock) AddListener(fn func(Frame)) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.listeners = append(fc.listeners, fn)
}

// Run emits frames in a separate goroutine until frames have been produced
// (frames <= 0 means unbounded) or ctx is cancelled. It returns a channel
// that is closed when the loop exits.
func (fc *FrameClock) Run(ctx context.Context, frames int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		fc.mu.RLock()
		interval := fc.FrameInterval
		mode := fc.Mode
		listeners := append([]func(Frame){}, fc.listeners...)
		fc.mu.RUnlock()

		var tick <-chan time.Time
		if mode == RealTime {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for i := 1; frames <= 0 || i <= frames; i++ {
			if tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}

			fc.mu.Lock()
			fc.current = fc.current.Add(interval)
			frame := Frame{
				Index:   i,
				SimTime: fc.current,
				Elapsed: fc.current.Sub(fc.StartTime),
				Delta:   interval,
			}
			fc.mu.Unlock()

			for _, fn := range listeners {
				fn(frame)
			}
		}
	}()
	return done
}
