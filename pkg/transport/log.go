package transport

import (
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
)

// Log is a transport with no hardware behind it: outbound messages go to a
// logger and nothing ever arrives.
type Log struct {
	log *slog.Logger
}

// NewLog creates a Log transport.
func NewLog(l *slog.Logger) *Log {
	if l == nil {
		l = slog.Default()
	}
	return &Log{log: l}
}

// Send logs msg.
func (t *Log) Send(msg midi.Message) error {
	t.log.Info("midi: out", "msg", msg.String(), "bytes", []byte(msg))
	return nil
}

// PollIncoming always reports an empty queue.
func (t *Log) PollIncoming() (midi.Message, bool) {
	return nil, false
}
