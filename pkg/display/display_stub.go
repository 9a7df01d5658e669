//go:build !tinygo || nodebug

// Package display provides a no-op stub when built with the nodebug tag
// or for a host.
//
// To build without display support, use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

// Manager is a no-op stub.
type Manager struct{}

// NewManager returns nil; callers skip the display.
func NewManager() *Manager {
	return nil
}

// ShowStatus is a no-op in nodebug mode.
func (m *Manager) ShowStatus(status string) {}

// ShowMessage is a no-op in nodebug mode.
func (m *Manager) ShowMessage(bytesStr, parsedStr string) {}

// ShowError is a no-op in nodebug mode.
func (m *Manager) ShowError(msg string) {}
