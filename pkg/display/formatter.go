package display

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"
)

// maxMessageBytes is how many raw bytes fit on one display row.
const maxMessageBytes = 5

// FrameFormatter formats pad state and MIDI messages for display.
// It creates compact strings suitable for 16-character wide display rows.
type FrameFormatter struct{}

// NewFrameFormatter creates a new frame formatter.
func NewFrameFormatter() *FrameFormatter {
	return &FrameFormatter{}
}

// FormatStatus renders the mode, bank and MIDI channel, e.g. "NOTE B0 CH1".
func (f *FrameFormatter) FormatStatus(mode config.Mode, bank uint8, channel uint8) string {
	return fmt.Sprintf("%s B%d CH%d", strings.ToUpper(mode.String()), bank, channel)
}

// FormatMessage returns the raw hex bytes of msg and a short decoded form.
// Channels are shown 1-based.
func (f *FrameFormatter) FormatMessage(msg midi.Message) (bytesStr, parsedStr string) {
	if len(msg) == 0 {
		return "--", "idle"
	}

	var b strings.Builder
	for i, v := range msg {
		if i == maxMessageBytes {
			b.WriteString("..")
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02X", v)
	}

	var ch, a, v uint8
	switch {
	case msg.GetNoteOn(&ch, &a, &v):
		parsedStr = fmt.Sprintf("ON%d n%d v%d", ch+1, a, v)
	case msg.GetNoteOff(&ch, &a, &v):
		parsedStr = fmt.Sprintf("OFF%d n%d", ch+1, a)
	case msg.GetControlChange(&ch, &a, &v):
		parsedStr = fmt.Sprintf("CC%d c%d v%d", ch+1, a, v)
	default:
		parsedStr = f.getTypeName(msg)
	}
	return b.String(), parsedStr
}

// FormatError formats an error for display.
func (f *FrameFormatter) FormatError(err error) string {
	msg := err.Error()
	if len(msg) > 12 {
		msg = msg[:12]
	}
	return msg
}

func (f *FrameFormatter) getTypeName(msg midi.Message) string {
	switch msg[0] {
	case 0xF0:
		return "SYSEX"
	case 0xF8:
		return "CLOCK"
	case 0xFA:
		return "START"
	case 0xFC:
		return "STOP"
	case 0xFE:
		return "SENSE"
	}
	return fmt.Sprintf("STATUS %02X", msg[0]&0xF0)
}
