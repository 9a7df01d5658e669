// Package debounce filters mechanical contact noise out of a digital input.
//
// A Debouncer holds a stable level and a candidate level. The stable level
// only follows the candidate once the candidate has been sampled unchanged for
// at least the debounce window. Edges are reported relative to the stable
// level before the most recent Update, so each physical transition yields
// exactly one edge no matter how many samples the bounce spans.
package debounce

import "time"

// DefaultWindow is the debounce window used when none is given.
const DefaultWindow = 5 * time.Millisecond

// Debouncer tracks the debounced state of one input line.
type Debouncer struct {
	window    time.Duration
	stable    bool
	previous  bool // stable level before the last Update
	candidate bool
	since     time.Time
}

// New creates a Debouncer whose stable level starts at initial.
// A non-positive window falls back to DefaultWindow.
func New(initial bool, window time.Duration) Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return Debouncer{
		window:    window,
		stable:    initial,
		previous:  initial,
		candidate: initial,
	}
}

// Update feeds a freshly sampled raw level taken at now.
func (d *Debouncer) Update(raw bool, now time.Time) {
	d.previous = d.stable

	if raw != d.candidate {
		// Contact moved (or bounced); restart the settle timer.
		d.candidate = raw
		d.since = now
		return
	}

	if d.candidate != d.stable && now.Sub(d.since) >= d.window {
		d.stable = d.candidate
	}
}

// Level returns the stable level.
func (d *Debouncer) Level() bool {
	return d.stable
}

// Settling reports whether a candidate level is waiting to be confirmed.
func (d *Debouncer) Settling() bool {
	return d.candidate != d.stable
}

// FallingEdge reports whether the last Update committed high to low.
// Under active-low wiring this is a press.
func (d *Debouncer) FallingEdge() bool {
	return d.previous && !d.stable
}

// RisingEdge reports whether the last Update committed low to high.
// Under active-low wiring this is a release.
func (d *Debouncer) RisingEdge() bool {
	return !d.previous && d.stable
}

// Window returns the debounce window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}
