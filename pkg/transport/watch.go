package transport

import "gitlab.com/gomidi/midi/v2"

// Transport is the method set the pad's controller drives.
type Transport interface {
	Send(msg midi.Message) error
	PollIncoming() (midi.Message, bool)
}

// Watch wraps a Transport and remembers the last message handed to it,
// so status displays can show traffic without touching the hot path.
type Watch struct {
	next  Transport
	last  midi.Message
	count uint32
}

// NewWatch wraps next.
func NewWatch(next Transport) *Watch {
	return &Watch{next: next}
}

// Send forwards msg and records it, whether or not the send succeeded.
func (w *Watch) Send(msg midi.Message) error {
	w.last = msg
	w.count++
	return w.next.Send(msg)
}

// PollIncoming forwards to the wrapped transport.
func (w *Watch) PollIncoming() (midi.Message, bool) {
	return w.next.PollIncoming()
}

// Last returns the most recent outbound message and how many were sent.
func (w *Watch) Last() (midi.Message, uint32) {
	return w.last, w.count
}
