//go:build tinygo

package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/console"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/controller"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/display"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/keyboard"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/pins/machinepins"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/transport"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/transport/usbmidi"
)

// MAIN THREAD DUTIES
//
// Sample the switches, emit MIDI or key events, drain what the host sends,
// answer the serial console. Nothing else runs on this core.

func main() {
	// Shares machine.Serial with the console.
	logger := console.NewLogger(machine.Serial)

	in := machinepins.New()
	dev, prof, startErr := loadConfig(logger)

	cfg, err := controller.ConfigFrom(dev, prof)
	if err != nil {
		logger.Error("main: config rejected, using defaults", "err", err)
		cfg = controller.DefaultConfig()
		if startErr == nil {
			startErr = err
		}
	}

	out := transport.NewWatch(usbmidi.New())
	ctl, err := controller.New(cfg, in, out,
		controller.WithLogger(logger),
		controller.WithKeySender(keyboard.New()),
	)
	if err != nil {
		// Only reachable with a broken default config.
		logger.Error("main: controller", "err", err)
		for {
			time.Sleep(time.Second)
		}
	}

	// A startup error turns the display on even when the stored flags
	// could not be read.
	var panel *display.Panel
	if dev.Flags&config.FlagDebugDisplay != 0 || startErr != nil {
		if mgr := display.NewManager(); mgr != nil {
			panel = display.NewPanel(mgr, cfg.Channel)
			panel.Error(startErr)
		}
	}

	con := console.New(machine.Serial, ctl)

	ctl.Run(context.Background(), time.Now, func() {
		con.Poll()
		if panel != nil {
			last, _ := out.Last()
			panel.Update(ctl.Mode(), ctl.Bank(), last)
		}
	})
}

// loadConfig reads the device config and active profile from flash. The
// pad stays playable on the defaults if the filesystem cannot be mounted;
// the error is returned for the display.
func loadConfig(logger *slog.Logger) (config.DeviceConfig, config.Profile, error) {
	mgr, err := storage.New(machine.Flash, true, storage.WithLogger(logger))
	if err != nil {
		logger.Error("main: storage unavailable, using defaults", "err", err)
		return config.DefaultDevice(), config.DefaultProfile(), err
	}
	defer mgr.Close()

	dev, prof := mgr.LoadActive()
	logger.Info("main: config loaded", "profile", prof.GetName(), "channel", dev.MIDIChannel, "mode", dev.DefaultMode)
	return dev, prof, nil
}
