package sink

import (
	"strings"

	"go.uber.org/zap"
)

// Zap adapts a zap logger to the session log contract. Report text is
// split at its line break: the first line becomes the message and the
// remainder a detail field. Warning lines are logged at WARN.
type Zap struct {
	log *zap.Logger
}

// NewZap returns a sink logging through log.
func NewZap(log *zap.Logger) *Zap {
	return &Zap{log: log}
}

// Line implements meter.LogSink.
func (z *Zap) Line(text string) {
	msg := text
	var fields []zap.Field
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		msg = text[:i]
		fields = append(fields, zap.String("detail", text[i+1:]))
	}
	if rest, ok := strings.CutPrefix(msg, "warning: "); ok {
		z.log.Warn(rest, fields...)
		return
	}
	z.log.Info(msg, fields...)
}
