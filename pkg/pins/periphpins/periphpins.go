// Package periphpins reads the pad's switches through periph.io, for running
// the controller on a Linux board.
package periphpins

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/controller"
)

// ErrUnknownPin is returned when a pin name is not registered.
var ErrUnknownPin = errors.New("periphpins: unknown pin")

// Input reads the switch lines.
type Input struct {
	pins [controller.NumChannels]gpio.PinIn
}

// Open initializes the host drivers and looks up every pin by name.
func Open(names [controller.NumChannels]string) (*Input, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	var ps [controller.NumChannels]gpio.PinIn
	for ch, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("channel %d: %w: %s", ch, ErrUnknownPin, name)
		}
		ps[ch] = p
	}
	return New(ps)
}

// New configures ps as pulled-up inputs. Edges are not used; the controller
// polls.
func New(ps [controller.NumChannels]gpio.PinIn) (*Input, error) {
	for ch, p := range ps {
		if p == nil {
			return nil, fmt.Errorf("channel %d: %w", ch, ErrUnknownPin)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("channel %d (%s): %w", ch, p.Name(), err)
		}
	}
	return &Input{pins: ps}, nil
}

// Read returns the raw level of channel ch. High is released.
func (in *Input) Read(ch int) bool {
	return in.pins[ch].Read() == gpio.High
}
