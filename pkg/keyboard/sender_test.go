package keyboard

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// recordKeys logs every call as "Down(F004)" or "Up(E001)".
type recordKeys struct {
	calls  []string
	failOn string
}

func (r *recordKeys) Down(code uint16) error { return r.record("Down", code) }
func (r *recordKeys) Up(code uint16) error   { return r.record("Up", code) }

func (r *recordKeys) record(op string, code uint16) error {
	call := fmt.Sprintf("%s(%04X)", op, code)
	if call == r.failOn {
		return errors.New("endpoint busy")
	}
	r.calls = append(r.calls, call)
	return nil
}

func TestSenderSingleKey(t *testing.T) {
	kb := &recordKeys{}
	s := NewSender(kb)

	if err := s.KeyDown(0x04, ModLeftCtrl|ModLeftShift); err != nil {
		t.Fatalf("KeyDown failed: %v", err)
	}
	if err := s.KeyUp(0x04, ModLeftCtrl|ModLeftShift); err != nil {
		t.Fatalf("KeyUp failed: %v", err)
	}

	expected := []string{"Down(E001)", "Down(E002)", "Down(F004)", "Up(F004)", "Up(E001)", "Up(E002)"}
	if !reflect.DeepEqual(kb.calls, expected) {
		t.Errorf("Expected %v, got %v", expected, kb.calls)
	}
}

func TestSenderSharedModifier(t *testing.T) {
	kb := &recordKeys{}
	s := NewSender(kb)

	s.KeyDown(0x04, ModLeftCtrl)
	s.KeyDown(0x05, ModLeftCtrl)
	s.KeyUp(0x04, ModLeftCtrl)

	expected := []string{"Down(E001)", "Down(F004)", "Down(F005)", "Up(F004)"}
	if !reflect.DeepEqual(kb.calls, expected) {
		t.Fatalf("Ctrl must stay held for the second key: expected %v, got %v", expected, kb.calls)
	}

	s.KeyUp(0x05, ModLeftCtrl)
	expected = append(expected, "Up(F005)", "Up(E001)")
	if !reflect.DeepEqual(kb.calls, expected) {
		t.Errorf("Expected %v, got %v", expected, kb.calls)
	}
}

func TestSenderSharedKey(t *testing.T) {
	kb := &recordKeys{}
	s := NewSender(kb)

	s.KeyDown(0x04, 0)
	s.KeyDown(0x04, ModLeftShift)
	s.KeyUp(0x04, 0)

	expected := []string{"Down(F004)", "Down(E002)"}
	if !reflect.DeepEqual(kb.calls, expected) {
		t.Fatalf("Expected %v, got %v", expected, kb.calls)
	}

	s.KeyUp(0x04, ModLeftShift)
	expected = append(expected, "Up(F004)", "Up(E002)")
	if !reflect.DeepEqual(kb.calls, expected) {
		t.Errorf("Expected %v, got %v", expected, kb.calls)
	}
}

func TestSenderKeyDownFailureReleasesModifiers(t *testing.T) {
	kb := &recordKeys{failOn: "Down(F004)"}
	s := NewSender(kb)

	if err := s.KeyDown(0x04, ModLeftAlt); err == nil {
		t.Fatal("Expected KeyDown to fail")
	}

	expected := []string{"Down(E004)", "Up(E004)"}
	if !reflect.DeepEqual(kb.calls, expected) {
		t.Errorf("Expected %v, got %v", expected, kb.calls)
	}

	// A later press starts from a clean count.
	kb.failOn = ""
	kb.calls = nil
	s.KeyDown(0x05, ModLeftAlt)
	s.KeyUp(0x05, ModLeftAlt)
	expected = []string{"Down(E004)", "Down(F005)", "Up(F005)", "Up(E004)"}
	if !reflect.DeepEqual(kb.calls, expected) {
		t.Errorf("Expected %v, got %v", expected, kb.calls)
	}
}
