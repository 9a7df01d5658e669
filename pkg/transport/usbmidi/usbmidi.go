//go:build tinygo

// Package usbmidi sends the pad's messages over the RP2040's USB MIDI
// function and queues what the host sends back.
package usbmidi

import (
	"errors"

	tgmidi "machine/usb/adc/midi"
	"machine/usb/hid"

	"gitlab.com/gomidi/midi/v2"
)

// cable is the USB MIDI virtual cable every message goes out on.
const cable = 0

// slots must exceed the ring buffer depth so a queued packet is never
// overwritten before it is read.
const slots = 64

// ErrUnsupported is returned for messages the pad never emits.
var ErrUnsupported = errors.New("usbmidi: unsupported message")

// device is the part of the TinyGo MIDI port used here. The concrete type
// is unexported, so the port is held through this interface.
type device interface {
	NoteOn(cable, channel uint8, note tgmidi.Note, velocity uint8) error
	NoteOff(cable, channel uint8, note tgmidi.Note, velocity uint8) error
	ControlChange(cable, channel, control, value uint8) error
	SetHandler(func([]byte))
}

// USB is a controller transport over USB MIDI.
type USB struct {
	dev  device
	rx   *hid.RingBuffer
	pool [slots][4]byte
	next int
}

// New registers with the USB MIDI port. It must be called once at boot.
func New() *USB {
	u := &USB{
		dev: tgmidi.Port(),
		rx:  hid.NewRingBuffer(),
	}
	u.dev.SetHandler(u.receive)
	return u
}

// receive runs in the USB interrupt. Packets are 4-byte USB MIDI event
// packets; several may share one transfer.
func (u *USB) receive(b []byte) {
	for len(b) >= 4 {
		if b[0]&0x0F != 0 {
			slot := u.pool[u.next][:]
			copy(slot, b[:4])
			if u.rx.Put(slot) {
				u.next = (u.next + 1) % slots
			}
		}
		b = b[4:]
	}
}

// Send writes msg. USB MIDI channels are 1-based, gomidi's are 0-based.
func (u *USB) Send(msg midi.Message) error {
	var ch, a, b uint8
	switch {
	case msg.GetNoteOn(&ch, &a, &b):
		return u.dev.NoteOn(cable, ch+1, tgmidi.Note(a), b)
	case msg.GetNoteOff(&ch, &a, &b):
		return u.dev.NoteOff(cable, ch+1, tgmidi.Note(a), b)
	case msg.GetControlChange(&ch, &a, &b):
		return u.dev.ControlChange(cable, ch+1, a, b)
	}
	return ErrUnsupported
}

// PollIncoming returns the next inbound message with the USB cable header
// stripped.
func (u *USB) PollIncoming() (midi.Message, bool) {
	p, ok := u.rx.Get()
	if !ok {
		return nil, false
	}
	return midi.Message(append([]byte(nil), p[1:4]...)), true
}
