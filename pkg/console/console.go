// Package console answers line commands on the USB serial port: an
// identity handshake for host tools plus a few diagnostics.
package console

import (
	"fmt"
	"strings"

	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-midipad-rp2040/pkg/controller"
)

// Identify is the handshake line a host sends; the pad answers with
// Identify + "yes".
const Identify = "areyouamidipad?"

// Port is a non-blocking serial port such as machine.Serial.
type Port interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// Pad is the controller state the console reports on.
type Pad interface {
	Stats() controller.Stats
	Mode() config.Mode
	Bank() uint8
	ReleaseAll()
}

// Console reads command lines from a Port.
type Console struct {
	port     Port
	pad      Pad
	inIndex  int
	inBuffer [128]byte
}

// New creates a console for pad on port.
func New(port Port, pad Pad) *Console {
	return &Console{port: port, pad: pad}
}

// Poll consumes whatever bytes are waiting and runs every complete line.
// It never blocks.
func (c *Console) Poll() {
	for c.port.Buffered() > 0 {
		b, err := c.port.ReadByte()
		if err != nil {
			return
		}
		if b == '\n' {
			line := strings.TrimSpace(string(c.inBuffer[:c.inIndex]))
			c.inIndex = 0
			if line != "" {
				c.handle(line)
			}
			continue
		}
		if c.inIndex == len(c.inBuffer) {
			// Overlong line; drop it.
			c.inIndex = 0
		}
		c.inBuffer[c.inIndex] = b
		c.inIndex++
	}
}

func (c *Console) handle(line string) {
	switch line {
	case Identify:
		c.write(Identify + "yes")
	case "status":
		c.write(fmt.Sprintf("mode=%s bank=%d", c.pad.Mode(), c.pad.Bank()))
	case "stats":
		st := c.pad.Stats()
		c.write(fmt.Sprintf("ticks=%d sent=%d send_errors=%d key_errors=%d drained=%d slow=%d max_gap=%s",
			st.Ticks, st.Sent, st.SendErrors, st.KeyErrors, st.Drained, st.SlowTicks, st.MaxGap))
	case "off":
		c.pad.ReleaseAll()
		c.write("ok")
	default:
		c.write("unknown: " + line)
	}
}

func (c *Console) write(out string) {
	c.port.Write([]byte(out + "\n"))
}
