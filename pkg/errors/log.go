package errors

import (
	"github.com/sirupsen/logrus"
)

// LogHandler is an ErrorHandler that writes structured entries through
// logrus.
type LogHandler struct {
	// Logger receives the entries. Nil means the logrus standard logger.
	Logger *logrus.Logger
	// Verbose adds stack traces to panic entries.
	Verbose bool
}

func (h *LogHandler) logger() *logrus.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return logrus.StandardLogger()
}

// HandleError logs a TreeError at error level.
func (h *LogHandler) HandleError(err *TreeError) {
	if err == nil {
		return
	}
	fields := logrus.Fields{
		"op":   err.Op,
		"kind": err.Kind.String(),
	}
	if !err.ID.IsNil() {
		fields["node"] = err.ID.String()
	}
	entry := h.logger().WithFields(fields)
	if err.Err != nil {
		entry = entry.WithError(err.Err)
	}
	entry.Error("sprig error")
}

// HandlePanic logs a PanicError at error level.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	entry := h.logger().WithField("panic", err.Value)
	if err.Op != "" {
		entry = entry.WithField("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		entry = entry.WithField("stack", err.StackTrace)
	}
	entry.Error("sprig panic")
}
