// Package config defines the configuration data structures for the MIDI pad.
// All structs are designed for zero-allocation binary serialization.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// CurrentVersion is the config format version.
// Bump this when making breaking changes to the config format.
// When firmware boots and finds a different version in flash, configs are wiped.
const CurrentVersion uint16 = 2

// NumActions is the number of action buttons on the pad.
const NumActions = 10

// Encoded sizes.
const (
	DeviceConfigSize  = 12
	ActionBindingSize = 8
	ProfileSize       = 20 + NumActions*ActionBindingSize // 100 bytes
)

// Device flags.
const (
	FlagDebugDisplay uint32 = 1 << 0 // Drive the SSD1306 status display
)

// Mode is the interpretation applied to action-button events.
type Mode uint8

const (
	ModeNote Mode = iota
	ModeControlChange
	ModeKeyboard

	NumModes = 3
)

// String returns a short name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeNote:
		return "note"
	case ModeControlChange:
		return "cc"
	case ModeKeyboard:
		return "keyboard"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m < NumModes
}

// Binding is a MIDI number (note or controller) and the value sent on press.
type Binding struct {
	Number uint8 // 0-127
	Value  uint8 // 0-127, velocity for notes
}

// KeyBinding is the USB HID key sent in keyboard mode.
// A zero Code means the button has no key bound.
type KeyBinding struct {
	Code      uint16 // HID keycode
	Modifiers uint8  // Ctrl/Shift/Alt/Gui (HID modifier byte)
}

// ActionBinding maps one action button to its output in every mode.
// Packed layout: [NoteNum:1][NoteVal:1][CCNum:1][CCVal:1][KeyLo:1][KeyHi:1][Mods:1][Reserved:1]
type ActionBinding struct {
	Note     Binding
	CC       Binding
	Key      KeyBinding
	Reserved uint8
}

// Profile is one named binding table.
// Total size: 100 bytes
// Layout:
//
//	[0-1]:   Version (uint16)
//	[2-3]:   Reserved (uint16)
//	[4-19]:  Name ([16]byte)
//	[20-99]: Bindings ([10]ActionBinding)
type Profile struct {
	Version  uint16
	Reserved uint16
	Name     [16]byte
	Bindings [NumActions]ActionBinding
}

// DeviceConfig holds global settings.
// Total size: 12 bytes
// Layout:
//
//	[0-1]: Version (uint16)
//	[2-5]: Flags (uint32)
//	[6]:   ActiveProfile (uint8)
//	[7]:   DebounceMs (uint8)
//	[8]:   DefaultMode (uint8)
//	[9]:   MIDIChannel (uint8, 1-16)
//	[10]:  BankStride (uint8)
//	[11]:  Reserved (uint8)
type DeviceConfig struct {
	Version       uint16
	Flags         uint32
	ActiveProfile uint8
	DebounceMs    uint8 // 0 selects the default window
	DefaultMode   Mode
	MIDIChannel   uint8
	BankStride    uint8 // 0 disables the bank buttons
	Reserved      uint8
}

// Errors
var (
	ErrInvalidSize    = errors.New("invalid config size")
	ErrInvalidChannel = errors.New("MIDI channel out of range")
	ErrInvalidMode    = errors.New("unknown mode")
	ErrInvalidBinding = errors.New("binding out of MIDI range")
)

// DefaultDevice returns the settings used when flash holds no device config.
func DefaultDevice() DeviceConfig {
	return DeviceConfig{
		Version:     CurrentVersion,
		DebounceMs:  5,
		DefaultMode: ModeNote,
		MIDIChannel: 1,
		BankStride:  NumActions,
	}
}

// DefaultProfile returns the built-in binding table: button i plays note i
// and controller i at full value, and types the digit keys 1-9, 0.
func DefaultProfile() Profile {
	p := Profile{Version: CurrentVersion}
	p.SetName("Default")
	for i := range p.Bindings {
		p.Bindings[i] = ActionBinding{
			Note: Binding{Number: uint8(i), Value: 127},
			CC:   Binding{Number: uint8(i), Value: 127},
			Key:  KeyBinding{Code: 0x1E + uint16(i)}, // HID '1'..'0'
		}
	}
	return p
}

// Validate checks that the device config can drive the controller.
func (d *DeviceConfig) Validate() error {
	if d.MIDIChannel < 1 || d.MIDIChannel > 16 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, d.MIDIChannel)
	}
	if !d.DefaultMode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, d.DefaultMode)
	}
	return nil
}

// Validate checks that every binding stays inside the 7-bit MIDI range
// and that note velocities are non-zero.
func (p *Profile) Validate() error {
	for i, b := range p.Bindings {
		// Velocity 0 is a NoteOff on the wire, so the press would be silent.
		if b.Note.Number > 127 || b.Note.Value == 0 || b.Note.Value > 127 {
			return fmt.Errorf("%w: button %d note %d/%d", ErrInvalidBinding, i, b.Note.Number, b.Note.Value)
		}
		if b.CC.Number > 127 || b.CC.Value > 127 {
			return fmt.Errorf("%w: button %d cc %d/%d", ErrInvalidBinding, i, b.CC.Number, b.CC.Value)
		}
	}
	return nil
}

// MaxNumber returns the highest note or controller number in bindings.
func MaxNumber(bindings []ActionBinding) uint8 {
	var highest uint8
	for _, b := range bindings {
		highest = max(highest, b.Note.Number, b.CC.Number)
	}
	return highest
}

// Marshal writes the Profile to w in binary format.
// Returns the number of bytes written.
func (p *Profile) Marshal(w io.Writer) (int, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	return w.Write(data)
}

// Unmarshal reads the Profile from r in binary format.
func (p *Profile) Unmarshal(r io.Reader) error {
	buf := make([]byte, ProfileSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	return p.UnmarshalBinary(buf)
}

// MarshalBinary implements encoding.BinaryMarshaler for Profile.
func (p *Profile) MarshalBinary() ([]byte, error) {
	buf := make([]byte, ProfileSize)
	binary.LittleEndian.PutUint16(buf[0:], p.Version)
	binary.LittleEndian.PutUint16(buf[2:], p.Reserved)
	copy(buf[4:20], p.Name[:])

	for i := range p.Bindings {
		b := &p.Bindings[i]
		offset := 20 + i*ActionBindingSize
		buf[offset] = b.Note.Number
		buf[offset+1] = b.Note.Value
		buf[offset+2] = b.CC.Number
		buf[offset+3] = b.CC.Value
		binary.LittleEndian.PutUint16(buf[offset+4:], b.Key.Code)
		buf[offset+6] = b.Key.Modifiers
		buf[offset+7] = b.Reserved
	}

	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Profile.
func (p *Profile) UnmarshalBinary(data []byte) error {
	if len(data) < ProfileSize {
		return ErrInvalidSize
	}

	p.Version = binary.LittleEndian.Uint16(data[0:])
	p.Reserved = binary.LittleEndian.Uint16(data[2:])
	copy(p.Name[:], data[4:20])

	for i := range p.Bindings {
		b := &p.Bindings[i]
		offset := 20 + i*ActionBindingSize
		b.Note.Number = data[offset]
		b.Note.Value = data[offset+1]
		b.CC.Number = data[offset+2]
		b.CC.Value = data[offset+3]
		b.Key.Code = binary.LittleEndian.Uint16(data[offset+4:])
		b.Key.Modifiers = data[offset+6]
		b.Reserved = data[offset+7]
	}

	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler for DeviceConfig.
func (d *DeviceConfig) MarshalBinary() ([]byte, error) {
	buf := make([]byte, DeviceConfigSize)
	binary.LittleEndian.PutUint16(buf[0:], d.Version)
	binary.LittleEndian.PutUint32(buf[2:], d.Flags)
	buf[6] = d.ActiveProfile
	buf[7] = d.DebounceMs
	buf[8] = uint8(d.DefaultMode)
	buf[9] = d.MIDIChannel
	buf[10] = d.BankStride
	buf[11] = d.Reserved
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for DeviceConfig.
func (d *DeviceConfig) UnmarshalBinary(data []byte) error {
	if len(data) < DeviceConfigSize {
		return ErrInvalidSize
	}

	d.Version = binary.LittleEndian.Uint16(data[0:])
	d.Flags = binary.LittleEndian.Uint32(data[2:])
	d.ActiveProfile = data[6]
	d.DebounceMs = data[7]
	d.DefaultMode = Mode(data[8])
	d.MIDIChannel = data[9]
	d.BankStride = data[10]
	d.Reserved = data[11]
	return nil
}

// GetName returns the profile name as a string (up to null terminator).
func (p *Profile) GetName() string {
	for i, b := range p.Name {
		if b == 0 {
			return string(p.Name[:i])
		}
	}
	return string(p.Name[:])
}

// SetName sets the profile name from a string.
// If the name is longer than 15 bytes, it is truncated.
// The name is always null-terminated.
func (p *Profile) SetName(name string) {
	b := []byte(name)
	if len(b) > 15 {
		b = b[:15]
	}
	p.Name = [16]byte{}
	copy(p.Name[:], b)
}
