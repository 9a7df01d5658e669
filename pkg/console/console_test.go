package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/controller"
)

var _ Pad = (*controller.Controller)(nil)

type fakePort struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (p *fakePort) Buffered() int { return p.in.Len() }

func (p *fakePort) ReadByte() (byte, error) { return p.in.ReadByte() }

func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }

type fakePad struct {
	released int
}

func (p *fakePad) Stats() controller.Stats {
	return controller.Stats{Ticks: 42, Sent: 7, MaxGap: 2 * time.Millisecond}
}

func (p *fakePad) Mode() config.Mode { return config.ModeControlChange }

func (p *fakePad) Bank() uint8 { return 3 }

func (p *fakePad) ReleaseAll() { p.released++ }

func TestIdentify(t *testing.T) {
	port := &fakePort{}
	c := New(port, &fakePad{})

	port.in.WriteString(Identify + "\n")
	c.Poll()

	if got := port.out.String(); got != "areyouamidipad?yes\n" {
		t.Errorf("Expected handshake reply, got %q", got)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		line     string
		contains string
	}{
		{"status", "mode=cc bank=3"},
		{"stats", "ticks=42 sent=7"},
		{"stats", "max_gap=2ms"},
		{"off", "ok"},
		{"bogus", "unknown: bogus"},
	}

	for _, tt := range tests {
		port := &fakePort{}
		c := New(port, &fakePad{})
		port.in.WriteString(tt.line + "\r\n")
		c.Poll()
		if !strings.Contains(port.out.String(), tt.contains) {
			t.Errorf("%s: expected %q in %q", tt.line, tt.contains, port.out.String())
		}
	}
}

func TestOffReleasesAll(t *testing.T) {
	port := &fakePort{}
	pad := &fakePad{}
	c := New(port, pad)

	port.in.WriteString("off\n")
	c.Poll()
	if pad.released != 1 {
		t.Errorf("Expected one ReleaseAll, got %d", pad.released)
	}
}

func TestPartialLineWaits(t *testing.T) {
	port := &fakePort{}
	c := New(port, &fakePad{})

	port.in.WriteString("sta")
	c.Poll()
	if port.out.Len() != 0 {
		t.Fatalf("Partial line answered: %q", port.out.String())
	}
	port.in.WriteString("tus\n")
	c.Poll()
	if !strings.Contains(port.out.String(), "mode=") {
		t.Errorf("Expected status after line completed, got %q", port.out.String())
	}
}

func TestOverlongLineDropped(t *testing.T) {
	port := &fakePort{}
	c := New(port, &fakePad{})

	port.in.WriteString(strings.Repeat("x", 200) + "\n" + Identify + "\n")
	c.Poll()

	lines := strings.Split(strings.TrimSpace(port.out.String()), "\n")
	if lines[len(lines)-1] != Identify+"yes" {
		t.Errorf("Expected handshake after overlong line, got %q", port.out.String())
	}
}

func TestLoggerWarnOnly(t *testing.T) {
	var out bytes.Buffer
	l := NewLogger(&out)

	l.Info("controller: ready", "mode", "note")
	l.Debug("controller: inbound discarded")
	if out.Len() != 0 {
		t.Fatalf("Expected info and debug to be dropped, got %q", out.String())
	}

	l.Warn("controller: slow tick", "gap", time.Second)
	if !strings.Contains(out.String(), "level=WARN") || !strings.Contains(out.String(), "slow tick") {
		t.Errorf("Expected a warning line, got %q", out.String())
	}
}
