package config

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeviceConfigMarshalUnmarshal(t *testing.T) {
	original := DeviceConfig{
		Version:       CurrentVersion,
		Flags:         FlagDebugDisplay,
		ActiveProfile: 5,
		DebounceMs:    10,
		DefaultMode:   ModeControlChange,
		MIDIChannel:   16,
		BankStride:    12,
	}

	data, err := original.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	if len(data) != DeviceConfigSize {
		t.Errorf("Expected %d bytes, got %d", DeviceConfigSize, len(data))
	}

	var decoded DeviceConfig
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	if decoded != original {
		t.Errorf("Decoded config: expected %+v, got %+v", original, decoded)
	}
}

func TestProfileLayout(t *testing.T) {
	p := Profile{Version: 7}
	p.SetName("Live")
	p.Bindings[1] = ActionBinding{
		Note: Binding{Number: 60, Value: 100},
		CC:   Binding{Number: 64, Value: 127},
		Key:  KeyBinding{Code: 0x0104, Modifiers: 0x02},
	}

	data, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if len(data) != ProfileSize {
		t.Fatalf("Expected %d bytes, got %d", ProfileSize, len(data))
	}

	if data[0] != 7 || data[1] != 0 {
		t.Errorf("Version bytes: expected [7 0], got %v", data[0:2])
	}
	if string(data[4:8]) != "Live" || data[8] != 0 {
		t.Errorf("Name bytes: got %q", data[4:20])
	}

	want := []byte{60, 100, 64, 127, 0x04, 0x01, 0x02, 0}
	if got := data[28:36]; !bytes.Equal(got, want) {
		t.Errorf("Binding 1 bytes: expected %v, got %v", want, got)
	}

	var decoded Profile
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if decoded != p {
		t.Errorf("Decoded profile differs: expected %+v, got %+v", p, decoded)
	}
}

func TestProfileMarshalWriter(t *testing.T) {
	profile := DefaultProfile()

	var buf bytes.Buffer
	n, err := profile.Marshal(&buf)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if n != ProfileSize {
		t.Errorf("Expected %d bytes written, got %d", ProfileSize, n)
	}

	var decoded Profile
	if err := decoded.Unmarshal(&buf); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.GetName() != "Default" {
		t.Errorf("Name mismatch: expected 'Default', got '%s'", decoded.GetName())
	}
	if decoded.Bindings != profile.Bindings {
		t.Error("Bindings mismatch after reader round trip")
	}
}

func TestProfileUnmarshalShortReader(t *testing.T) {
	var p Profile
	if err := p.Unmarshal(bytes.NewReader(make([]byte, ProfileSize-1))); err == nil {
		t.Error("Expected error for truncated profile")
	}
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()

	if err := p.Validate(); err != nil {
		t.Fatalf("Default profile invalid: %v", err)
	}
	for i, b := range p.Bindings {
		if b.Note.Number != uint8(i) || b.Note.Value != 127 {
			t.Errorf("Bindings[%d].Note: expected %d/127, got %d/%d", i, i, b.Note.Number, b.Note.Value)
		}
		if b.CC.Number != uint8(i) || b.CC.Value != 127 {
			t.Errorf("Bindings[%d].CC: expected %d/127, got %d/%d", i, i, b.CC.Number, b.CC.Value)
		}
		if b.Key.Code == 0 {
			t.Errorf("Bindings[%d].Key: expected a key code", i)
		}
	}
	if MaxNumber(p.Bindings[:]) != NumActions-1 {
		t.Errorf("MaxNumber: expected %d, got %d", NumActions-1, MaxNumber(p.Bindings[:]))
	}
}

func TestDeviceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DeviceConfig)
		wantErr error
	}{
		{"default", func(d *DeviceConfig) {}, nil},
		{"channel 16", func(d *DeviceConfig) { d.MIDIChannel = 16 }, nil},
		{"channel 0", func(d *DeviceConfig) { d.MIDIChannel = 0 }, ErrInvalidChannel},
		{"channel 17", func(d *DeviceConfig) { d.MIDIChannel = 17 }, ErrInvalidChannel},
		{"keyboard mode", func(d *DeviceConfig) { d.DefaultMode = ModeKeyboard }, nil},
		{"unknown mode", func(d *DeviceConfig) { d.DefaultMode = 3 }, ErrInvalidMode},
	}

	for _, tt := range tests {
		d := DefaultDevice()
		tt.mutate(&d)
		err := d.Validate()
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestProfileValidate(t *testing.T) {
	p := DefaultProfile()
	p.Bindings[4].Note.Value = 128
	if err := p.Validate(); !errors.Is(err, ErrInvalidBinding) {
		t.Errorf("Expected ErrInvalidBinding for note value, got %v", err)
	}

	p = DefaultProfile()
	p.Bindings[0].Note.Value = 0
	if err := p.Validate(); !errors.Is(err, ErrInvalidBinding) {
		t.Errorf("Expected ErrInvalidBinding for zero velocity, got %v", err)
	}

	p = DefaultProfile()
	p.Bindings[0].CC.Value = 0
	if err := p.Validate(); err != nil {
		t.Errorf("CC value 0 should be allowed, got %v", err)
	}

	p = DefaultProfile()
	p.Bindings[9].CC.Number = 200
	if err := p.Validate(); !errors.Is(err, ErrInvalidBinding) {
		t.Errorf("Expected ErrInvalidBinding for cc number, got %v", err)
	}
}

func TestModeString(t *testing.T) {
	tests := []struct {
		mode     Mode
		expected string
	}{
		{ModeNote, "note"},
		{ModeControlChange, "cc"},
		{ModeKeyboard, "keyboard"},
		{Mode(9), "mode(9)"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.expected {
			t.Errorf("Mode(%d).String(): expected '%s', got '%s'", tt.mode, tt.expected, got)
		}
	}
}

func TestProfileNameHandling(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Short", "Short"},
		{"ExactlyFifteen!", "ExactlyFifteen!"},                // 15 chars
		{"ThisIsAVeryLongNameThatExceeds", "ThisIsAVeryLong"}, // Truncated to 15
		{"", ""},
	}

	for _, tt := range tests {
		p := Profile{}
		p.SetName("previous name that is long")
		p.SetName(tt.name)

		result := p.GetName()
		if result != tt.expected {
			t.Errorf("SetName('%s'): expected '%s', got '%s'", tt.name, tt.expected, result)
		}

		if p.Name[len(tt.expected)] != 0 {
			t.Errorf("Name '%s' not null-terminated", tt.name)
		}
	}
}

func TestUnmarshalInvalidSize(t *testing.T) {
	var profile Profile
	err := profile.UnmarshalBinary([]byte{1, 2, 3})
	if err != ErrInvalidSize {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}

	var device DeviceConfig
	err = device.UnmarshalBinary([]byte{1, 2})
	if err != ErrInvalidSize {
		t.Errorf("Expected ErrInvalidSize, got %v", err)
	}
}

func BenchmarkProfileUnmarshal(b *testing.B) {
	profile := DefaultProfile()
	data, _ := profile.MarshalBinary()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var p Profile
		if err := p.UnmarshalBinary(data); err != nil {
			b.Fatal(err)
		}
	}
}
