// Package keyboard types bound keys on the USB HID keyboard in keyboard mode.
package keyboard

// Keycodes handed to TinyGo's HID keyboard carry a tag in the high nibble:
// 0xF000 for a raw usage ID and 0xE000 for a modifier bit.
const (
	usageTag    = 0xF000
	modifierTag = 0xE000
)

// Modifier bits as they appear in a binding and in the HID boot report.
const (
	ModLeftCtrl uint8 = 1 << iota
	ModLeftShift
	ModLeftAlt
	ModLeftGUI
	ModRightCtrl
	ModRightShift
	ModRightAlt
	ModRightGUI
)

// KeyCode converts a HID usage ID (0x04 is 'a') to a TinyGo keycode.
// Zero stays zero, meaning no key.
func KeyCode(usage uint16) uint16 {
	if usage == 0 {
		return 0
	}
	return usageTag | (usage & 0xFF)
}

// ModifierCode returns the TinyGo keycode of a single modifier bit such as
// ModLeftShift.
func ModifierCode(mod uint8) uint16 {
	return modifierTag | uint16(mod)
}
