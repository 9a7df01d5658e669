// Package pins maps the pad's input channels to physical pins.
//
// Every line is an active-low switch to ground with the internal pull-up
// enabled, so an idle line reads high.
package pins

import "github.com/tuffrabit/tinygo-midipad-rp2040/pkg/controller"

// PicoGPIO is the RP2040 GPIO number wired to each channel. GPIO0/1 are
// left free for the DIN MIDI UART.
var PicoGPIO = [controller.NumChannels]uint8{
	2, 3, 4, 5, 6, 7, 8, 9, 10, 11, // action buttons
	12, 13, // bank down, bank up
	14, 15, 16, // note, cc, keyboard
}

// ExpressionPedal is the ADC pin held for a pedal input. Nothing reads it yet.
const ExpressionPedal = 26

// RaspberryPi names the BCM GPIO lines used for each channel on a Pi header,
// as gpioreg knows them. GPIO14/15 are the UART.
var RaspberryPi = [controller.NumChannels]string{
	"GPIO4", "GPIO5", "GPIO6", "GPIO12", "GPIO13",
	"GPIO16", "GPIO17", "GPIO18", "GPIO19", "GPIO20",
	"GPIO21", "GPIO22",
	"GPIO23", "GPIO24", "GPIO25",
}
