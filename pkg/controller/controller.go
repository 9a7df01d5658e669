// Package controller implements the pad's polling loop: it samples every
// input channel, debounces it, turns button edges into MIDI or keyboard
// events under the current mode, follows the mode and bank selectors and
// throws away anything the host sends back.
//
// The loop is cooperative. Tick never sleeps or blocks on I/O; the caller
// decides how often to call it (Run calls it back to back).
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/debounce"
)

// Channel layout. Channels 0-9 are the action buttons.
const (
	NumActions = config.NumActions

	BankDown            = 10
	BankUp              = 11
	SwitchNote          = 12
	SwitchControlChange = 13
	SwitchKeyboard      = 14

	NumChannels = 15
)

// MaxDrainPerTick bounds how many inbound messages one tick discards.
const MaxDrainPerTick = 256

// Input reads the raw level of a logical channel.
// Wiring is active-low: true means not actuated.
type Input interface {
	Read(channel int) bool
}

// Transport carries MIDI messages to and from the host.
// Send is fire-and-forget: a transport that cannot take a message right now
// buffers or drops it. PollIncoming must not block.
type Transport interface {
	Send(msg midi.Message) error
	PollIncoming() (midi.Message, bool)
}

// KeySender emits USB keyboard events for keyboard mode.
type KeySender interface {
	KeyDown(code uint16, modifiers uint8) error
	KeyUp(code uint16, modifiers uint8) error
}

var (
	ErrNilInput     = errors.New("controller: nil input")
	ErrNilTransport = errors.New("controller: nil transport")
)

// Config is the immutable setup of a Controller.
type Config struct {
	Debounce    time.Duration
	Channel     uint8 // MIDI channel 1-16
	DefaultMode config.Mode
	BankStride  uint8 // 0 disables banks
	Bindings    [NumActions]config.ActionBinding
}

// DefaultConfig returns the factory setup.
func DefaultConfig() Config {
	cfg, _ := ConfigFrom(config.DefaultDevice(), config.DefaultProfile())
	return cfg
}

// ConfigFrom builds a Config from the stored device settings and profile.
func ConfigFrom(dev config.DeviceConfig, prof config.Profile) (Config, error) {
	if err := dev.Validate(); err != nil {
		return Config{}, err
	}
	if err := prof.Validate(); err != nil {
		return Config{}, err
	}
	return Config{
		Debounce:    time.Duration(dev.DebounceMs) * time.Millisecond,
		Channel:     dev.MIDIChannel,
		DefaultMode: dev.DefaultMode,
		BankStride:  dev.BankStride,
		Bindings:    prof.Bindings,
	}, nil
}

// Stats counts what the loop has done since construction.
type Stats struct {
	Ticks      uint64
	Sent       uint64
	SendErrors uint64
	KeyErrors  uint64
	Drained    uint64
	SlowTicks  uint64        // ticks that came later than a quarter window
	MaxGap     time.Duration // longest time between two ticks
}

// latch remembers what a press emitted so its release matches it.
type latch struct {
	active    bool
	mode      config.Mode
	number    uint8
	key       config.KeyBinding
	keyIssued bool
}

// Controller owns all per-channel state and the operating mode.
type Controller struct {
	cfg  Config
	in   Input
	out  Transport
	keys KeySender
	log  *slog.Logger

	debouncers [NumChannels]debounce.Debouncer
	held       [NumActions]latch
	mode       config.Mode
	bank       uint8
	maxBank    uint8
	channel    uint8 // 0-based, as gomidi wants it

	lastTick time.Time
	slowGap  time.Duration
	stats    Stats
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithKeySender enables keyboard mode output.
func WithKeySender(k KeySender) Option {
	return func(c *Controller) {
		c.keys = k
	}
}

// New creates a Controller. Every debouncer starts at the channel's current
// raw level. If a mode switch line is already held at power-up its mode is
// selected, otherwise cfg.DefaultMode.
func New(cfg Config, in Input, out Transport, opts ...Option) (*Controller, error) {
	if in == nil {
		return nil, ErrNilInput
	}
	if out == nil {
		return nil, ErrNilTransport
	}
	if cfg.Channel < 1 || cfg.Channel > 16 {
		return nil, fmt.Errorf("%w: %d", config.ErrInvalidChannel, cfg.Channel)
	}
	if !cfg.DefaultMode.Valid() {
		return nil, fmt.Errorf("%w: %d", config.ErrInvalidMode, cfg.DefaultMode)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = debounce.DefaultWindow
	}

	c := &Controller{
		cfg:     cfg,
		in:      in,
		out:     out,
		log:     slog.New(slog.DiscardHandler),
		mode:    cfg.DefaultMode,
		channel: cfg.Channel - 1,
		slowGap: cfg.Debounce / 4,
	}
	for _, opt := range opts {
		opt(c)
	}

	for ch := range c.debouncers {
		c.debouncers[ch] = debounce.New(in.Read(ch), cfg.Debounce)
	}
	for line := 0; line < config.NumModes; line++ {
		if !c.debouncers[SwitchNote+line].Level() {
			c.mode = config.Mode(line)
		}
	}
	c.maxBank = maxBank(cfg)

	c.log.Info("controller: ready",
		"mode", c.mode,
		"channel", cfg.Channel,
		"debounce", cfg.Debounce,
		"banks", int(c.maxBank)+1,
	)
	return c, nil
}

// maxBank returns the highest bank whose shifted numbers all stay <= 127.
func maxBank(cfg Config) uint8 {
	if cfg.BankStride == 0 {
		return 0
	}
	return (127 - config.MaxNumber(cfg.Bindings[:])) / cfg.BankStride
}

// Mode returns the active operating mode.
func (c *Controller) Mode() config.Mode {
	return c.mode
}

// Bank returns the active bank.
func (c *Controller) Bank() uint8 {
	return c.bank
}

// Held reports whether action button i has an emitted press awaiting release.
func (c *Controller) Held(i int) bool {
	if i < 0 || i >= NumActions {
		return false
	}
	return c.held[i].active
}

// Stats returns a copy of the loop counters.
func (c *Controller) Stats() Stats {
	return c.stats
}

// Tick runs one iteration of the loop with now as the sample time:
// sample, dispatch action edges, update bank and mode, drain inbound.
func (c *Controller) Tick(now time.Time) {
	c.trackTiming(now)

	for ch := range c.debouncers {
		c.debouncers[ch].Update(c.in.Read(ch), now)
	}

	for i := 0; i < NumActions; i++ {
		d := &c.debouncers[i]
		if d.FallingEdge() {
			c.press(i)
		} else if d.RisingEdge() {
			c.release(i)
		}
	}

	c.updateBank()
	c.updateMode()
	c.drain()
}

// Run calls Tick back to back until ctx is done. If each is not nil it runs
// after every tick, for the other work sharing the loop; it must not block.
func (c *Controller) Run(ctx context.Context, clock func() time.Time, each func()) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Tick(clock())
		if each != nil {
			each()
		}
	}
}

// ReleaseAll emits the release of every held button.
func (c *Controller) ReleaseAll() {
	for i := range c.held {
		c.release(i)
	}
}

func (c *Controller) trackTiming(now time.Time) {
	if !c.lastTick.IsZero() {
		gap := now.Sub(c.lastTick)
		if gap > c.stats.MaxGap {
			c.stats.MaxGap = gap
			if gap > c.slowGap {
				c.log.Warn("controller: slow tick", "gap", gap, "window", c.cfg.Debounce)
			}
		}
		if gap > c.slowGap {
			c.stats.SlowTicks++
		}
	}
	c.lastTick = now
	c.stats.Ticks++
}

func (c *Controller) press(i int) {
	b := &c.cfg.Bindings[i]
	offset := c.bank * c.cfg.BankStride
	l := latch{active: true, mode: c.mode}

	switch c.mode {
	case config.ModeNote:
		l.number = b.Note.Number + offset
		c.send(midi.NoteOn(c.channel, l.number, b.Note.Value))
	case config.ModeControlChange:
		l.number = b.CC.Number + offset
		c.send(midi.ControlChange(c.channel, l.number, b.CC.Value))
	case config.ModeKeyboard:
		l.key = b.Key
		l.keyIssued = c.keyDown(i, b.Key)
	}

	c.held[i] = l
}

func (c *Controller) release(i int) {
	l := c.held[i]
	if !l.active {
		// Held since power-up; nothing was emitted for the press.
		return
	}
	c.held[i] = latch{}

	switch l.mode {
	case config.ModeNote:
		c.send(midi.NoteOff(c.channel, l.number))
	case config.ModeControlChange:
		c.send(midi.ControlChange(c.channel, l.number, 0))
	case config.ModeKeyboard:
		if l.keyIssued {
			if err := c.keys.KeyUp(l.key.Code, l.key.Modifiers); err != nil {
				c.stats.KeyErrors++
				c.log.Debug("controller: key up failed", "button", i, "err", err)
			}
		}
	}
}

func (c *Controller) keyDown(i int, k config.KeyBinding) bool {
	if c.keys == nil || k.Code == 0 {
		c.log.Debug("controller: no key bound", "button", i)
		return false
	}
	if err := c.keys.KeyDown(k.Code, k.Modifiers); err != nil {
		c.stats.KeyErrors++
		c.log.Debug("controller: key down failed", "button", i, "err", err)
		return false
	}
	return true
}

func (c *Controller) send(msg midi.Message) {
	if err := c.out.Send(msg); err != nil {
		c.stats.SendErrors++
		c.log.Debug("controller: send failed", "msg", msg, "err", err)
		return
	}
	c.stats.Sent++
}

func (c *Controller) updateBank() {
	bank := c.bank
	if c.debouncers[BankDown].FallingEdge() && bank > 0 {
		bank--
	}
	if c.debouncers[BankUp].FallingEdge() && bank < c.maxBank {
		bank++
	}
	if bank != c.bank {
		c.log.Info("controller: bank changed", "from", c.bank, "to", bank)
		c.bank = bank
	}
}

// updateMode selects the mode of any switch line that was just pulled low.
// When several lines fall in the same tick the highest line wins.
func (c *Controller) updateMode() {
	mode := c.mode
	for line := 0; line < config.NumModes; line++ {
		if c.debouncers[SwitchNote+line].FallingEdge() {
			mode = config.Mode(line)
		}
	}
	if mode != c.mode {
		c.log.Info("controller: mode changed", "from", c.mode, "to", mode)
		c.mode = mode
	}
}

func (c *Controller) drain() {
	for n := 0; n < MaxDrainPerTick; n++ {
		msg, ok := c.out.PollIncoming()
		if !ok {
			return
		}
		c.stats.Drained++
		c.log.Debug("controller: inbound discarded", "msg", msg)
	}
}
