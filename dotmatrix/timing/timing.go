// Package timing holds clock constants and a wall-clock frame limiter
// for display frontends.
package timing

import "time"

const (
	// CPUFrequency is the master clock in cycles per second.
	CPUFrequency = 4194304
	// CyclesPerFrame is one LCD refresh: 154 scanlines of 456 dots.
	CyclesPerFrame = 70224
	// FramesPerSecond is the resulting refresh rate, a little under 60.
	FramesPerSecond = float64(CPUFrequency) / float64(CyclesPerFrame)
)

// FrameDuration is the wall-clock length of one frame.
const FrameDuration = time.Second * CyclesPerFrame / CPUFrequency

// Limiter paces a render loop to the hardware refresh rate.
type Limiter struct {
	next time.Time
}

// NewLimiter returns a limiter anchored at the current time.
func NewLimiter() *Limiter {
	return &Limiter{next: time.Now().Add(FrameDuration)}
}

// Wait sleeps until the next frame deadline. If the caller fell
// behind, the deadline snaps forward instead of accumulating debt.
func (l *Limiter) Wait() {
	now := time.Now()
	if d := l.next.Sub(now); d > 0 {
		time.Sleep(d)
		now = l.next
	}
	l.next = now.Add(FrameDuration)
}
