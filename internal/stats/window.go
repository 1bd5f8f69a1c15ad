// Package stats provides the rolling and running statistics used by particles
// and networks: a fixed-capacity window and an unbounded summary.
package stats

import "math"

// Window keeps the most recent Cap() samples in a ring buffer and maintains
// their sum and sum of squares incrementally.
type Window struct {
	buf   []float64
	next  int // Slot the next sample is written to
	n     int
	sum   float64
	sumSq float64
}

// NewWindow creates a window holding at most capacity samples.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]float64, capacity)}
}

// Add pushes a sample, evicting the oldest one when the window is full.
func (w *Window) Add(v float64) {
	if w.n == len(w.buf) {
		old := w.buf[w.next]
		w.sum -= old
		w.sumSq -= old * old
	} else {
		w.n++
	}
	w.buf[w.next] = v
	w.sum += v
	w.sumSq += v * v
	w.next = (w.next + 1) % len(w.buf)
}

// Len returns the number of samples currently held.
func (w *Window) Len() int { return w.n }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Sum returns the sum of the held samples.
func (w *Window) Sum() float64 { return w.sum }

// Mean returns the mean of the held samples, or 0 when empty.
func (w *Window) Mean() float64 {
	if w.n == 0 {
		return 0
	}
	return w.sum / float64(w.n)
}

// StdDev returns the sample standard deviation, or 0 with fewer than two samples.
func (w *Window) StdDev() float64 {
	if w.n < 2 {
		return 0
	}
	mean := w.Mean()
	v := (w.sumSq - float64(w.n)*mean*mean) / float64(w.n-1)
	if v < 0 {
		// Cancellation noise after many evictions.
		return 0
	}
	return math.Sqrt(v)
}

// Values returns the held samples oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, 0, w.n)
	start := (w.next - w.n + len(w.buf)) % len(w.buf)
	for i := 0; i < w.n; i++ {
		out = append(out, w.buf[(start+i)%len(w.buf)])
	}
	return out
}

// Reset discards all samples.
func (w *Window) Reset() {
	w.next = 0
	w.n = 0
	w.sum = 0
	w.sumSq = 0
}
