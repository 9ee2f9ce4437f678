// ABOUTME: Input sources sampled by the tick loop.
// ABOUTME: Button is a software press counter standing in for the touch button.
package display

import "sync/atomic"

// Input reports an opaque state; the loop reacts when it changes.
type Input interface {
	Sample() uint64
}

// Button changes state on every Press.
type Button struct {
	presses atomic.Uint64
}

// Press records one button press.
func (b *Button) Press() {
	b.presses.Add(1)
}

// Sample returns the number of presses so far.
func (b *Button) Sample() uint64 {
	return b.presses.Load()
}
