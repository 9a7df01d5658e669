package main

import (
	"strings"
	"testing"
	"time"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/controller"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/pins"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts options
		ok   bool
	}{
		{"defaults", options{tick: time.Millisecond, baud: 31250}, true},
		{"default baud", options{tick: time.Millisecond, serialDev: "/dev/ttyAMA0"}, true},
		{"zero tick", options{tick: 0}, false},
		{"negative tick", options{tick: -time.Millisecond}, false},
		{"negative baud", options{tick: time.Millisecond, baud: -1}, false},
	}

	for _, tt := range tests {
		err := tt.opts.validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestParsePins(t *testing.T) {
	names, err := parsePins(" GPIO4, " + strings.Join(pins.RaspberryPi[1:], ","))
	if err != nil {
		t.Fatalf("parsePins failed: %v", err)
	}
	if names[0] != "GPIO4" {
		t.Errorf("Expected trimmed name GPIO4, got %q", names[0])
	}

	if _, err := parsePins("GPIO4,GPIO5"); err == nil {
		t.Errorf("Expected fewer than %d names to fail", controller.NumChannels)
	}
}
