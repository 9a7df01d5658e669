// Package port sends the pad's MIDI through a gomidi driver port, for host
// builds that talk to ALSA/CoreMIDI (including a USB gadget's MIDI function).
package port

import (
	"fmt"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/transport"
)

// Port is a controller transport over gomidi driver ports.
type Port struct {
	send  func(midi.Message) error
	stop  func()
	inbox *transport.Inbox
	log   *slog.Logger
}

// New creates a Port around a send function. Use Listen to attach an input.
func New(send func(midi.Message) error, l *slog.Logger) *Port {
	if l == nil {
		l = slog.Default()
	}
	return &Port{
		send:  send,
		inbox: transport.NewInbox(transport.DefaultInboxSize),
		log:   l,
	}
}

// Open connects to the output port named out and, if in is not empty, to
// the input port named in. Names are matched the way gomidi's Find*Port do.
func Open(out, in string, l *slog.Logger) (*Port, error) {
	outPort, err := midi.FindOutPort(out)
	if err != nil {
		return nil, fmt.Errorf("find output %q: %w", out, err)
	}
	send, err := midi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", out, err)
	}

	p := New(send, l)
	p.log.Info("port: output connected", "device", outPort.String())

	if in != "" {
		inPort, err := midi.FindInPort(in)
		if err != nil {
			return nil, fmt.Errorf("find input %q: %w", in, err)
		}
		if err := p.Listen(inPort); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Listen queues everything arriving on in for PollIncoming.
func (p *Port) Listen(in drivers.In) error {
	stop, err := midi.ListenTo(in, p.receive, midi.HandleError(func(err error) {
		p.log.Warn("port: listener error", "device", in.String(), "err", err)
	}))
	if err != nil {
		return fmt.Errorf("listen %q: %w", in.String(), err)
	}
	p.stop = stop
	p.log.Info("port: input connected", "device", in.String())
	return nil
}

func (p *Port) receive(msg midi.Message, _ int32) {
	if !p.inbox.Push(msg) {
		p.log.Debug("port: inbox full, dropped", "msg", msg.String())
	}
}

// Send hands msg to the driver.
func (p *Port) Send(msg midi.Message) error {
	return p.send(msg)
}

// PollIncoming returns the next queued inbound message.
func (p *Port) PollIncoming() (midi.Message, bool) {
	return p.inbox.Poll()
}

// Close stops listening. The driver itself is closed with midi.CloseDriver.
func (p *Port) Close() {
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}
