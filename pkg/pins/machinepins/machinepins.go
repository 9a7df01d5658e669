//go:build tinygo

// Package machinepins reads the pad's switches from RP2040 GPIO.
package machinepins

import (
	"machine"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/controller"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/pins"
)

// Input reads the switch lines.
type Input struct {
	pins [controller.NumChannels]machine.Pin
}

// New configures every channel pin as an input with pull-up.
func New() *Input {
	in := &Input{}
	for ch, n := range pins.PicoGPIO {
		p := machine.Pin(n)
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		in.pins[ch] = p
	}
	return in
}

// Read returns the raw level of channel ch. High is released.
func (in *Input) Read(ch int) bool {
	return in.pins[ch].Get()
}
