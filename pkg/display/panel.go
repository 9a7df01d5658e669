package display

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"
)

// Screen is what a Panel draws on.
type Screen interface {
	ShowStatus(status string)
	ShowMessage(bytesStr, parsedStr string)
	ShowError(msg string)
}

// Panel redraws a Screen when the pad's mode or bank changes. A full
// redraw costs tens of milliseconds on I2C, so traffic alone never
// triggers one; the last message is shown with each status change.
type Panel struct {
	screen  Screen
	fmt     *FrameFormatter
	channel uint8

	drawn bool
	mode  config.Mode
	bank  uint8
	err   string
}

// NewPanel creates a panel for a pad sending on MIDI channel (1-16).
func NewPanel(s Screen, channel uint8) *Panel {
	return &Panel{screen: s, fmt: NewFrameFormatter(), channel: channel}
}

// Update redraws if mode or bank differ from what is on screen. It reports
// whether it drew.
func (p *Panel) Update(mode config.Mode, bank uint8, last midi.Message) bool {
	if p.drawn && mode == p.mode && bank == p.bank {
		return false
	}
	p.drawn = true
	p.mode = mode
	p.bank = bank

	p.screen.ShowStatus(p.fmt.FormatStatus(mode, bank, p.channel))
	if p.err != "" {
		p.screen.ShowError(p.err)
		p.err = ""
	} else {
		p.screen.ShowMessage(p.fmt.FormatMessage(last))
	}
	return true
}

// Error queues err for the next Update, which draws it in place of the
// last message. It stays up until the following status change.
func (p *Panel) Error(err error) {
	if err == nil {
		return
	}
	p.err = p.fmt.FormatError(err)
	p.drawn = false
}
