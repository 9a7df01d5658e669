//go:build tinygo && !nodebug

// Package display provides SSD1306 OLED display support for debug output.
// The yellow rows (0-1) show the title and the pad's mode and bank; the
// blue rows (2-3) show the last MIDI message sent.
//
// To build without display support (saves RAM and flash), use:
//
//	tinygo build -tags=nodebug -target=pico -o firmware.uf2 .
package display

import (
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	// I2C configuration. GPIO0/1 belong to the DIN MIDI UART.
	i2cAddress = 0x3C
	sclPin     = machine.GPIO21
	sdaPin     = machine.GPIO20

	screenWidth  = 128
	screenHeight = 64
	rowHeight    = 10
	rows         = screenHeight / rowHeight
	maxChars     = 21

	rowTitle     = 0
	rowStatus    = 1
	rowOutBytes  = 2
	rowOutParsed = 3
)

// Colors for monochrome display
var (
	black = color.RGBA{0, 0, 0, 0}
	white = color.RGBA{255, 255, 255, 255}
)

// Manager handles the SSD1306 display for debug output.
type Manager struct {
	device *ssd1306.Device
	i2c    *machine.I2C
}

// NewManager creates and initializes the display manager.
// Returns nil if display initialization fails (non-fatal for debug).
func NewManager() *Manager {
	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400000,
		SCL:       sclPin,
		SDA:       sdaPin,
	}); err != nil {
		println("display: i2c config failed:", err.Error())
		return nil
	}

	// Bus stabilization
	time.Sleep(10 * time.Millisecond)

	dev := ssd1306.NewI2C(i2c)
	dev.Configure(ssd1306.Config{
		Address: i2cAddress,
		Width:   screenWidth,
		Height:  screenHeight,
	})
	dev.ClearDisplay()

	mgr := &Manager{
		device: dev,
		i2c:    i2c,
	}
	mgr.drawString(rowTitle, "MIDIPAD")
	mgr.drawString(rowStatus, "starting...")
	mgr.refresh()

	return mgr
}

// ShowStatus displays the pad status line.
func (m *Manager) ShowStatus(status string) {
	m.clearRow(rowStatus)
	m.drawString(rowStatus, truncate(status, maxChars))
	m.refresh()
}

// ShowMessage displays the last outgoing message on the blue rows.
func (m *Manager) ShowMessage(bytesStr, parsedStr string) {
	m.clearRow(rowOutBytes)
	m.clearRow(rowOutParsed)
	m.drawString(rowOutBytes, truncate("O:"+bytesStr, maxChars))
	m.drawString(rowOutParsed, truncate(" "+parsedStr, maxChars))
	m.refresh()
}

// ShowError displays an error message on the blue rows.
func (m *Manager) ShowError(msg string) {
	m.clearRow(rowOutBytes)
	m.clearRow(rowOutParsed)
	m.drawString(rowOutBytes, "ERR:")
	m.drawString(rowOutParsed, truncate(msg, maxChars))
	m.refresh()
}

func (m *Manager) clearRow(row int) {
	if row < 0 || row >= rows {
		return
	}
	yStart := int16(row * rowHeight)
	for y := yStart; y < yStart+rowHeight; y++ {
		for x := int16(0); x < screenWidth; x++ {
			m.device.SetPixel(x, y, black)
		}
	}
}

// drawString draws s on row; tinyfont positions text by its baseline.
func (m *Manager) drawString(row int, s string) {
	if row < 0 || row >= rows {
		return
	}
	baseline := int16((row+1)*rowHeight - 2)
	tinyfont.WriteLine(m.device, &proggy.TinySZ8pt7b, 0, baseline, s, white)
}

func (m *Manager) refresh() {
	m.device.Display()
}
