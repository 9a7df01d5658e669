// Command bindimg writes a LittleFS flash image holding the pad's device
// config and one binding profile, ready to be flashed at the filesystem
// offset of the firmware.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/storage"
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

// Flash geometry: 256 byte pages, 4KB erase blocks.
const (
	pageSize  = 256
	blockSize = 4096
)

type options struct {
	out      string
	blocks   int64
	slot     uint
	name     string
	channel  uint
	mode     string
	debounce uint
	stride   uint
	notes    string
	ccs      string
	keys     string
	display  bool
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (adds source location)")
	var opts options
	flag.StringVar(&opts.out, "o", "midipad.img", "output image path")
	flag.Int64Var(&opts.blocks, "blocks", 64, "image size in 4KB blocks")
	flag.UintVar(&opts.slot, "slot", 0, "profile slot, also made the active profile")
	flag.StringVar(&opts.name, "name", "Default", "profile name (15 chars max)")
	flag.UintVar(&opts.channel, "channel", 1, "MIDI channel 1-16")
	flag.StringVar(&opts.mode, "mode", "note", "power-up mode: note, cc or keyboard")
	flag.UintVar(&opts.debounce, "debounce", 5, "debounce window in ms")
	flag.UintVar(&opts.stride, "stride", config.NumActions, "bank stride, 0 disables banks")
	flag.StringVar(&opts.notes, "notes", "", "comma-separated note numbers, one per button")
	flag.StringVar(&opts.ccs, "ccs", "", "comma-separated controller numbers, one per button")
	flag.BoolVar(&opts.display, "display", false, "enable the debug OLED status display")
	flag.StringVar(&opts.keys, "keys", "", "comma-separated HID usage codes (0x1E style), one per button")
	flag.Parse()

	initLogger(*debug)
	if err := run(opts); err != nil {
		logger.Error("bindimg: failed", "err", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	dev, prof, err := build(opts)
	if err != nil {
		return err
	}

	blockDev, err := storage.CreateFileDevice(opts.out, pageSize, blockSize, opts.blocks)
	if err != nil {
		return err
	}
	defer blockDev.Close()

	mgr, err := storage.New(blockDev, true, storage.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("%s: %w", opts.out, err)
	}
	defer mgr.Close()

	if err := mgr.SaveDevice(&dev); err != nil {
		return fmt.Errorf("save device config: %w", err)
	}
	if err := mgr.SaveProfile(dev.ActiveProfile, &prof); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	stats, err := mgr.GetStats()
	if err != nil {
		return err
	}
	logger.Info("bindimg: image written",
		"path", opts.out,
		"profile", prof.GetName(),
		"slot", dev.ActiveProfile,
		"used", stats.UsedSpace,
		"total", stats.TotalSpace,
	)
	return nil
}

// build turns the options into a device config and profile.
func build(opts options) (config.DeviceConfig, config.Profile, error) {
	dev := config.DefaultDevice()
	prof := config.DefaultProfile()

	mode, err := parseMode(opts.mode)
	if err != nil {
		return dev, prof, err
	}
	if opts.slot > 255 || opts.channel > 255 || opts.debounce > 255 || opts.stride > 255 {
		return dev, prof, fmt.Errorf("slot, channel, debounce and stride must fit in a byte")
	}
	dev.ActiveProfile = uint8(opts.slot)
	dev.MIDIChannel = uint8(opts.channel)
	dev.DefaultMode = mode
	dev.DebounceMs = uint8(opts.debounce)
	dev.BankStride = uint8(opts.stride)
	if opts.display {
		dev.Flags |= config.FlagDebugDisplay
	}

	prof.SetName(opts.name)
	if err := applyList(opts.notes, 127, func(i int, v uint64) { prof.Bindings[i].Note.Number = uint8(v) }); err != nil {
		return dev, prof, fmt.Errorf("-notes: %w", err)
	}
	if err := applyList(opts.ccs, 127, func(i int, v uint64) { prof.Bindings[i].CC.Number = uint8(v) }); err != nil {
		return dev, prof, fmt.Errorf("-ccs: %w", err)
	}
	if err := applyList(opts.keys, 0xFF, func(i int, v uint64) { prof.Bindings[i].Key.Code = uint16(v) }); err != nil {
		return dev, prof, fmt.Errorf("-keys: %w", err)
	}

	if err := dev.Validate(); err != nil {
		return dev, prof, err
	}
	return dev, prof, prof.Validate()
}

func parseMode(s string) (config.Mode, error) {
	for m := config.Mode(0); m < config.NumModes; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", config.ErrInvalidMode, s)
}

// applyList parses up to NumActions comma-separated numbers (decimal or 0x
// hex) no larger than limit and hands each to set. Empty input is a no-op.
func applyList(s string, limit uint64, set func(i int, v uint64)) error {
	if s == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	if len(fields) > config.NumActions {
		return fmt.Errorf("%d values for %d buttons", len(fields), config.NumActions)
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 0, 16)
		if err != nil {
			return fmt.Errorf("button %d: %w", i, err)
		}
		if v > limit {
			return fmt.Errorf("button %d: %d exceeds %d", i, v, limit)
		}
		set(i, v)
	}
	return nil
}
