// Command padhost runs the pad controller on a Linux board: switches on the
// GPIO header, MIDI out through a DIN UART or a host MIDI port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/controller"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/pins"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/pins/periphpins"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/transport"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/transport/port"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/transport/serialmidi"
)

var logger *slog.Logger

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

type options struct {
	serialDev string
	baud      int
	outPort   string
	inPort    string
	image     string
	pinNames  string
	tick      time.Duration
}

func (o options) validate() error {
	if o.tick <= 0 {
		return fmt.Errorf("-tick: must be positive, got %v", o.tick)
	}
	if o.baud < 0 {
		return fmt.Errorf("-baud: must not be negative, got %d", o.baud)
	}
	return nil
}

// closer is implemented by every transport padhost can open.
type closer interface {
	controller.Transport
	Close() error
}

type portCloser struct{ *port.Port }

func (p portCloser) Close() error {
	p.Port.Close()
	midi.CloseDriver()
	return nil
}

type nopCloser struct{ *transport.Log }

func (nopCloser) Close() error { return nil }

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (adds source location)")
	var opts options
	flag.StringVar(&opts.serialDev, "serial", "", "DIN MIDI serial device, e.g. /dev/ttyAMA0")
	flag.IntVar(&opts.baud, "baud", serialmidi.BaudRate, "serial baud rate")
	flag.StringVar(&opts.outPort, "port", "", "MIDI output port name (used when -serial is empty)")
	flag.StringVar(&opts.inPort, "in", "", "MIDI input port name to drain")
	flag.StringVar(&opts.image, "image", "", "flash image holding the device config and profiles")
	flag.StringVar(&opts.pinNames, "pins", strings.Join(pins.RaspberryPi[:], ","), "comma-separated GPIO names, one per channel")
	flag.DurationVar(&opts.tick, "tick", time.Millisecond, "controller tick interval")
	flag.Parse()

	initLogger(*debug)
	if err := opts.validate(); err != nil {
		logger.Error("padhost: bad flags", "err", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("padhost: exit", "err", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	dev, prof, err := loadConfig(opts.image)
	if err != nil {
		return err
	}
	cfg, err := controller.ConfigFrom(dev, prof)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	names, err := parsePins(opts.pinNames)
	if err != nil {
		return err
	}
	in, err := periphpins.Open(names)
	if err != nil {
		return err
	}

	out, err := openTransport(opts)
	if err != nil {
		return err
	}
	defer out.Close()

	ctl, err := controller.New(cfg, in, out, controller.WithLogger(logger))
	if err != nil {
		return err
	}
	logger.Info("padhost: running",
		"profile", prof.GetName(),
		"channel", dev.MIDIChannel,
		"mode", ctl.Mode(),
		"tick", opts.tick,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(opts.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			ctl.ReleaseAll()
			st := ctl.Stats()
			logger.Info("padhost: stopped",
				"ticks", st.Ticks,
				"sent", st.Sent,
				"send_errors", st.SendErrors,
				"slow_ticks", st.SlowTicks,
				"max_gap", st.MaxGap,
			)
			return ctx.Err()
		case now := <-ticker.C:
			ctl.Tick(now)
		}
	}
}

// loadConfig reads the active device config and profile from a flash image,
// or returns the defaults when no image is given.
func loadConfig(image string) (config.DeviceConfig, config.Profile, error) {
	if image == "" {
		return config.DefaultDevice(), config.DefaultProfile(), nil
	}
	blockDev, err := storage.OpenFileDevice(image, pageSize, blockSize)
	if err != nil {
		return config.DeviceConfig{}, config.Profile{}, err
	}
	defer blockDev.Close()

	mgr, err := storage.New(blockDev, false, storage.WithLogger(logger))
	if err != nil {
		return config.DeviceConfig{}, config.Profile{}, fmt.Errorf("%s: %w", image, err)
	}
	defer mgr.Close()

	dev, prof := mgr.LoadActive()
	return dev, prof, nil
}

// Flash geometry of the RP2040 boards the images are built for.
const (
	pageSize  = 256
	blockSize = 4096
)

func parsePins(s string) ([controller.NumChannels]string, error) {
	var names [controller.NumChannels]string
	fields := strings.Split(s, ",")
	if len(fields) != controller.NumChannels {
		return names, fmt.Errorf("-pins: expected %d names, got %d", controller.NumChannels, len(fields))
	}
	for i, f := range fields {
		names[i] = strings.TrimSpace(f)
	}
	return names, nil
}

func openTransport(opts options) (closer, error) {
	switch {
	case opts.serialDev != "":
		s, err := serialmidi.Open(opts.serialDev, opts.baud, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case opts.outPort != "":
		p, err := port.Open(opts.outPort, opts.inPort, logger)
		if err != nil {
			return nil, err
		}
		return portCloser{p}, nil
	default:
		logger.Warn("padhost: no output given, logging messages only")
		return nopCloser{transport.NewLog(logger)}, nil
	}
}
