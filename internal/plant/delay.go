package plant

import "math"

// DelayLine models the transport delay between the controller's action and
// the moment it reaches the process. It is a fixed-capacity ring buffer,
// pre-filled with zeros, so the first N shifts return the neutral value and
// shift k returns the value pushed on shift k-N afterwards.
type DelayLine struct {
	buf  []float64
	head int
}

// Samples converts a delay in seconds into a whole number of sample periods,
// rounding to nearest. A zero or negative delay yields zero samples.
func Samples(delaySec, ts float64) int {
	if delaySec <= 0 || ts <= 0 {
		return 0
	}
	return int(math.Round(delaySec / ts))
}

// NewDelayLine creates a delay line holding n samples. With n <= 0 the line
// degenerates to a pass-through.
func NewDelayLine(n int) *DelayLine {
	if n < 0 {
		n = 0
	}
	return &DelayLine{buf: make([]float64, n)}
}

// Shift pushes v onto the tail of the line and returns the value falling off
// the head. Length is invariant: exactly one value in, one value out.
func (d *DelayLine) Shift(v float64) float64 {
	if len(d.buf) == 0 {
		return v
	}
	out := d.buf[d.head]
	d.buf[d.head] = v
	d.head = (d.head + 1) % len(d.buf)
	return out
}

// Len returns the line's capacity in samples.
func (d *DelayLine) Len() int {
	return len(d.buf)
}
