// Package transport holds the pieces shared by the pad's MIDI transports:
// a non-blocking inbound queue, a send tap for status displays and a
// logging transport for running without hardware.
package transport

import (
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"
)

// DefaultInboxSize is the inbound queue depth used by the transports.
const DefaultInboxSize = 64

// Inbox is a bounded queue of inbound messages. Push never blocks: when the
// queue is full the message is dropped. Safe for one producer goroutine and
// one consumer.
type Inbox struct {
	ch      chan midi.Message
	dropped atomic.Uint64
}

// NewInbox creates an Inbox holding up to size messages.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{ch: make(chan midi.Message, size)}
}

// Push queues msg, or drops it if the queue is full.
func (b *Inbox) Push(msg midi.Message) bool {
	select {
	case b.ch <- msg:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Poll returns the oldest queued message, if any.
func (b *Inbox) Poll() (midi.Message, bool) {
	select {
	case msg := <-b.ch:
		return msg, true
	default:
		return nil, false
	}
}

// Len returns the number of queued messages.
func (b *Inbox) Len() int {
	return len(b.ch)
}

// Dropped returns how many messages were lost to a full queue.
func (b *Inbox) Dropped() uint64 {
	return b.dropped.Load()
}
