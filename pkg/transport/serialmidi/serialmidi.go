// Package serialmidi drives a DIN MIDI port wired to a UART, for host
// builds that run the pad from a Raspberry Pi header or a USB-serial cable.
package serialmidi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.bug.st/serial"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/transport"
)

// BaudRate is the DIN MIDI line rate.
const BaudRate = 31250

// MaxSysEx is the longest system exclusive message kept from the line.
// Longer ones are dropped.
const MaxSysEx = 256

// readTimeout bounds how long the reader blocks so Close is noticed.
const readTimeout = 100 * time.Millisecond

// Serial is a controller transport over a byte stream.
type Serial struct {
	rw    io.ReadWriteCloser
	inbox *transport.Inbox
	log   *slog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Open opens the named serial device at baud (0 means BaudRate) and starts
// reading from it.
func Open(name string, baud int, l *slog.Logger) (*Serial, error) {
	if baud == 0 {
		baud = BaudRate
	}
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	s := New(p, l)
	s.log.Info("serialmidi: opened", "device", name, "baud", baud)
	return s, nil
}

// New starts reading MIDI from rw. Inbound messages are queued for
// PollIncoming; Send writes raw message bytes.
func New(rw io.ReadWriteCloser, l *slog.Logger) *Serial {
	if l == nil {
		l = slog.Default()
	}
	s := &Serial{
		rw:    rw,
		inbox: transport.NewInbox(transport.DefaultInboxSize),
		log:   l,
		done:  make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// reader decodes the line with gomidi's stream reader. It keeps running
// status and partial messages across writes, so a message may arrive split
// over several reads.
type reader struct {
	rd       *drivers.Reader
	log      *slog.Logger
	sysex    int // bytes buffered for the open SysEx, 0 when none is open
	skipping bool
}

func newReader(push func(midi.Message), l *slog.Logger) *reader {
	rd := drivers.NewReader(drivers.ListenConfig{
		SysEx:           true,
		SysExBufferSize: MaxSysEx,
		OnErr: func(err error) {
			l.Debug("serialmidi: bad input", "err", err)
		},
	}, func(b []byte, _ int32) {
		push(midi.Message(append([]byte(nil), b...)))
	})
	return &reader{rd: rd, log: l}
}

// write feeds p to the decoder a byte at a time. drivers.Reader does not
// bound its SysEx buffer, so a SysEx that would not fit with its closing
// F7 is cut here: the reader is reset and the rest of the message skipped.
func (r *reader) write(p []byte) {
	for i := range p {
		b := p[i]
		if b < 0xF8 && r.skipping {
			if b < 0x80 {
				continue
			}
			r.skipping = false
			if b == 0xF7 {
				continue
			}
		}
		switch {
		case b >= 0xF8:
		case b == 0xF0:
			r.sysex = 1
		case b >= 0x80:
			r.sysex = 0
		case r.sysex > 0:
			if r.sysex >= MaxSysEx-1 {
				r.log.Debug("serialmidi: sysex too long, dropped", "max", MaxSysEx)
				r.rd.Reset()
				r.sysex = 0
				r.skipping = true
				continue
			}
			r.sysex++
		}
		r.rd.EachMessage(p[i:i+1], 0)
	}
}

func (s *Serial) readLoop() {
	defer close(s.done)

	rd := newReader(func(msg midi.Message) {
		if !s.inbox.Push(msg) {
			s.log.Debug("serialmidi: inbox full, dropped", "msg", msg.String())
		}
	}, s.log)
	buf := make([]byte, 64)
	for {
		n, err := s.rw.Read(buf)
		if n > 0 {
			rd.write(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !s.isClosed() {
				s.log.Warn("serialmidi: read failed", "err", err)
			}
			return
		}
		if s.isClosed() {
			return
		}
	}
}

func (s *Serial) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Send writes msg to the line.
func (s *Serial) Send(msg midi.Message) error {
	if s.isClosed() {
		return io.ErrClosedPipe
	}
	if _, err := s.rw.Write(msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.String(), err)
	}
	return nil
}

// PollIncoming returns the next decoded inbound message.
func (s *Serial) PollIncoming() (midi.Message, bool) {
	return s.inbox.Poll()
}

// Dropped reports how many inbound messages were discarded.
func (s *Serial) Dropped() uint64 {
	return s.inbox.Dropped()
}

// Close closes the underlying stream and waits for the reader to exit.
func (s *Serial) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.rw.Close()
	<-s.done
	return err
}
