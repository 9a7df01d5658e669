// Package storage keeps the pad's device config and binding profiles in
// LittleFS. It handles atomic writes, version checking, and cleanup of
// temporary files.
package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	configDir     = "/config"
	profilesDir   = "/config/profiles"
	deviceFile    = "/config/device.bin"
	tempSuffix    = ".tmp"
	profileSuffix = ".bin"

	// Approximate LittleFS cost of one small file, metadata included.
	fileOverhead = 32
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrDeviceNotFound  = errors.New("device config not found")
	ErrInvalidProfile  = errors.New("invalid profile data")
	ErrInvalidDevice   = errors.New("invalid device config data")
)

// Manager handles config persistence using LittleFS.
type Manager struct {
	fs       *littlefs.LFS
	blockDev tinyfs.BlockDevice
	mounted  bool
	log      *slog.Logger
}

// Stats provides information about storage usage.
type Stats struct {
	TotalSpace   int64
	UsedSpace    int64
	FreeSpace    int64
	ProfileCount int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for recoverable problems found at mount.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// New mounts the filesystem on blockDev and performs boot-time cleanup.
// If format is true and mount fails, the device is formatted first.
func New(blockDev tinyfs.BlockDevice, format bool, opts ...Option) (*Manager, error) {
	lfs := littlefs.New(blockDev)

	// Conservative settings for RP2040 flash
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	if err := lfs.Mount(); err != nil {
		if !format {
			return nil, fmt.Errorf("mount: %w", err)
		}
		if err := lfs.Format(); err != nil {
			return nil, fmt.Errorf("format: %w", err)
		}
		if err := lfs.Mount(); err != nil {
			return nil, fmt.Errorf("mount after format: %w", err)
		}
	}

	m := &Manager{
		fs:       lfs,
		blockDev: blockDev,
		mounted:  true,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.bootCleanup(); err != nil {
		m.log.Warn("storage: cleanup failed", "err", err)
	}

	needsWipe, err := m.checkVersion()
	if err != nil {
		m.log.Warn("storage: version check failed", "err", err)
	}
	if needsWipe {
		// Layouts changed with the firmware; old files cannot be decoded.
		m.log.Info("storage: config version changed, wiping", "version", config.CurrentVersion)
		if err := m.wipeAll(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Close unmounts the filesystem.
func (m *Manager) Close() error {
	if m.mounted {
		m.mounted = false
		return m.fs.Unmount()
	}
	return nil
}

// bootCleanup removes temporary files left over from interrupted writes.
func (m *Manager) bootCleanup() error {
	for _, dir := range []string{configDir, profilesDir} {
		entries, err := m.readDir(dir)
		if err != nil {
			if isNotExist(err) {
				return nil
			}
			return err
		}
		for _, entry := range entries {
			if name := entry.Name(); strings.HasSuffix(name, tempSuffix) {
				m.fs.Remove(path.Join(dir, name))
			}
		}
	}
	return nil
}

func (m *Manager) readDir(dirPath string) ([]os.FileInfo, error) {
	f, err := m.fs.Open(dirPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !f.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", dirPath)
	}
	return f.Readdir(-1)
}

// checkVersion reports whether stored configs were written by a different
// layout version and must be wiped.
func (m *Manager) checkVersion() (bool, error) {
	data, err := m.readFile(deviceFile, config.DeviceConfigSize)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	version := uint16(data[0]) | uint16(data[1])<<8
	return version != config.CurrentVersion, nil
}

func (m *Manager) wipeAll() error {
	slots, err := m.ListProfiles()
	if err == nil {
		for _, slot := range slots {
			m.DeleteProfile(slot)
		}
	}
	if err := m.fs.Remove(deviceFile); err != nil && !isNotExist(err) {
		return err
	}
	return nil
}

func (m *Manager) ensureDirs() error {
	if err := m.fs.Mkdir(configDir, 0755); err != nil && !isExist(err) {
		return err
	}
	if err := m.fs.Mkdir(profilesDir, 0755); err != nil && !isExist(err) {
		return err
	}
	return nil
}

// isExist checks for "already exists". LittleFS errors don't always match
// os.IsExist, so the message is checked too.
func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

// isNotExist is the missing-file counterpart of isExist.
func isNotExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsNotExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "No directory entry")
}

// readFile reads exactly size bytes from name. Files are far smaller than
// the cache, so a single read returns everything there is.
func (m *Manager) readFile(name string, size int) ([]byte, error) {
	f, err := m.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, size)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n != size {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

// LoadDevice loads the device configuration.
func (m *Manager) LoadDevice(cfg *config.DeviceConfig) error {
	data, err := m.readFile(deviceFile, config.DeviceConfigSize)
	if err != nil {
		if isNotExist(err) {
			return ErrDeviceNotFound
		}
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return ErrInvalidDevice
		}
		return fmt.Errorf("read device config: %w", err)
	}
	if err := cfg.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDevice, err)
	}
	return nil
}

// SaveDevice validates and saves the device configuration atomically.
func (m *Manager) SaveDevice(cfg *config.DeviceConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := m.ensureDirs(); err != nil {
		return err
	}

	cfg.Version = config.CurrentVersion
	data, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}
	return m.atomicWrite(deviceFile, data)
}

// LoadProfile loads the profile in slot.
func (m *Manager) LoadProfile(slot uint8, profile *config.Profile) error {
	data, err := m.readFile(m.profilePath(slot), config.ProfileSize)
	if err != nil {
		if isNotExist(err) {
			return ErrProfileNotFound
		}
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return ErrInvalidProfile
		}
		return fmt.Errorf("read profile %d: %w", slot, err)
	}
	if err := profile.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}

// SaveProfile validates and saves a profile to slot atomically.
func (m *Manager) SaveProfile(slot uint8, profile *config.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := m.ensureDirs(); err != nil {
		return err
	}

	profile.Version = config.CurrentVersion
	data, err := profile.MarshalBinary()
	if err != nil {
		return err
	}
	return m.atomicWrite(m.profilePath(slot), data)
}

// LoadActive returns the stored device config and the profile it selects.
// Missing or unreadable files fall back to the built-in defaults, so the
// pad always boots playable.
func (m *Manager) LoadActive() (config.DeviceConfig, config.Profile) {
	dev := config.DefaultDevice()
	var stored config.DeviceConfig
	switch err := m.LoadDevice(&stored); {
	case err == nil && stored.Validate() == nil:
		dev = stored
	case errors.Is(err, ErrDeviceNotFound):
	case err == nil:
		m.log.Warn("storage: device config rejected, using defaults", "err", stored.Validate())
	default:
		m.log.Warn("storage: device config unreadable, using defaults", "err", err)
	}

	prof := config.DefaultProfile()
	var p config.Profile
	switch err := m.LoadProfile(dev.ActiveProfile, &p); {
	case err == nil && p.Validate() == nil:
		prof = p
	case errors.Is(err, ErrProfileNotFound):
		m.log.Debug("storage: no profile in slot, using default", "slot", dev.ActiveProfile)
	case err == nil:
		m.log.Warn("storage: profile rejected, using default", "slot", dev.ActiveProfile, "err", p.Validate())
	default:
		m.log.Warn("storage: profile unreadable, using default", "slot", dev.ActiveProfile, "err", err)
	}
	return dev, prof
}

// DeleteProfile removes the profile in slot.
func (m *Manager) DeleteProfile(slot uint8) error {
	if err := m.fs.Remove(m.profilePath(slot)); err != nil {
		if isNotExist(err) {
			return ErrProfileNotFound
		}
		return err
	}
	return nil
}

// ProfileExists checks if a profile exists in slot.
func (m *Manager) ProfileExists(slot uint8) bool {
	f, err := m.fs.Open(m.profilePath(slot))
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ListProfiles returns the occupied profile slots.
func (m *Manager) ListProfiles() ([]uint8, error) {
	entries, err := m.readDir(profilesDir)
	if err != nil {
		if isNotExist(err) {
			return []uint8{}, nil
		}
		return nil, err
	}

	var slots []uint8
	for _, entry := range entries {
		name := entry.Name()
		// "N.bin"
		if !strings.HasSuffix(name, profileSuffix) {
			continue
		}
		if slot, err := strconv.ParseUint(strings.TrimSuffix(name, profileSuffix), 10, 8); err == nil {
			slots = append(slots, uint8(slot))
		}
	}
	return slots, nil
}

// GetStats estimates storage usage. LittleFS has no direct free-space call.
func (m *Manager) GetStats() (*Stats, error) {
	profiles, err := m.ListProfiles()
	if err != nil {
		return nil, err
	}

	used := int64(len(profiles)*(config.ProfileSize+fileOverhead) + config.DeviceConfigSize + fileOverhead)
	total := m.blockDev.Size()

	return &Stats{
		TotalSpace:   total,
		UsedSpace:    used,
		FreeSpace:    total - used,
		ProfileCount: len(profiles),
	}, nil
}

// CanFitProfile conservatively estimates whether another profile fits.
func (m *Manager) CanFitProfile() bool {
	stats, err := m.GetStats()
	if err != nil {
		return false
	}
	return stats.FreeSpace > m.blockDev.EraseBlockSize()
}

func (m *Manager) profilePath(slot uint8) string {
	return path.Join(profilesDir, strconv.Itoa(int(slot))+profileSuffix)
}

// atomicWrite writes data to a temporary file, syncs it, then renames it
// over filepath. The original is never left partially written.
func (m *Manager) atomicWrite(filepath string, data []byte) error {
	tempPath := filepath + tempSuffix

	m.fs.Remove(tempPath)

	f, err := m.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s: %w", tempPath, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		m.fs.Remove(tempPath)
		return fmt.Errorf("write %s: %w", tempPath, err)
	}

	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			f.Close()
			m.fs.Remove(tempPath)
			return fmt.Errorf("sync %s: %w", tempPath, err)
		}
	}

	if err := f.Close(); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	// LittleFS rename doesn't replace
	m.fs.Remove(filepath)

	if err := m.fs.Rename(tempPath, filepath); err != nil {
		m.fs.Remove(tempPath)
		return fmt.Errorf("rename %s: %w", tempPath, err)
	}
	return nil
}

// ForceWipe erases all configuration.
func (m *Manager) ForceWipe() error {
	return m.wipeAll()
}
