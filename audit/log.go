package audit

import (
	"github.com/rs/zerolog"

	"github.com/kochabx/authguard/log"
)

// LogSink writes events to the structured logger, severity mapped to log
// level. It is the default delegate when persistence is disabled.
type LogSink struct{}

// NewLogSink creates a sink backed by the global logger.
func NewLogSink() Sink {
	return &LogSink{}
}

func (s *LogSink) Record(eventType, severity, message string, metadata map[string]string) {
	var event *zerolog.Event
	switch severity {
	case SeverityCritical:
		event = log.Error()
	case SeverityWarning:
		event = log.Warn()
	default:
		event = log.Info()
	}

	event = event.Str("event_type", eventType)
	for k, v := range metadata {
		event = event.Str(k, v)
	}
	event.Msg(message)
}

var _ Sink = (*LogSink)(nil)
