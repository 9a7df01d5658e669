package port

import (
	"bytes"
	"testing"

	"gitlab.com/gomidi/midi/v2"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/transport"
)

func TestSendForwards(t *testing.T) {
	var sent []midi.Message
	p := New(func(msg midi.Message) error {
		sent = append(sent, msg)
		return nil
	}, nil)

	if err := p.Send(midi.NoteOn(0, 60, 127)); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(sent) != 1 || !bytes.Equal(sent[0], midi.NoteOn(0, 60, 127)) {
		t.Errorf("Expected NoteOn forwarded, got %v", sent)
	}
}

func TestReceiveQueuesForPoll(t *testing.T) {
	p := New(func(midi.Message) error { return nil }, nil)

	for i := 0; i < 5; i++ {
		p.receive(midi.ControlChange(0, uint8(i), 1), int32(i))
	}
	for i := 0; i < 5; i++ {
		msg, ok := p.PollIncoming()
		if !ok {
			t.Fatalf("Poll %d: empty", i)
		}
		if !bytes.Equal(msg, midi.ControlChange(0, uint8(i), 1)) {
			t.Errorf("Poll %d: got %v", i, msg)
		}
	}
	if _, ok := p.PollIncoming(); ok {
		t.Error("Expected empty queue")
	}
}

func TestReceiveDropsWhenFull(t *testing.T) {
	p := New(func(midi.Message) error { return nil }, nil)

	for i := 0; i < transport.DefaultInboxSize+3; i++ {
		p.receive(midi.NoteOn(0, 1, 1), 0)
	}
	if p.inbox.Dropped() != 3 {
		t.Errorf("Dropped: expected 3, got %d", p.inbox.Dropped())
	}
}

func TestCloseWithoutListen(t *testing.T) {
	p := New(func(midi.Message) error { return nil }, nil)
	p.Close()
	p.Close()
}
