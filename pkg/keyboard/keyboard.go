//go:build tinygo

package keyboard

import (
	tgk "machine/usb/hid/keyboard"
)

// hidKeys adapts TinyGo's HID keyboard, whose concrete type is unexported.
type hidKeys struct {
	kb interface {
		Down(c tgk.Keycode) error
		Up(c tgk.Keycode) error
	}
}

func (h hidKeys) Down(code uint16) error { return h.kb.Down(tgk.Keycode(code)) }
func (h hidKeys) Up(code uint16) error   { return h.kb.Up(tgk.Keycode(code)) }

// New attaches a Sender to the USB HID keyboard.
func New() *Sender {
	return NewSender(hidKeys{kb: tgk.Port()})
}
