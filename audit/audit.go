// Package audit provides the fire-and-forget security-event sink. A sink
// must never block or fail the primary auth operation; implementations
// swallow their own errors and log them.
package audit

import "time"

// Severity levels for security events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Common event types emitted by the session registry and validator.
const (
	EventSessionCreated     = "SESSION_CREATED"
	EventSessionInvalidated = "SESSION_INVALIDATED"
	EventTokenRotated       = "TOKEN_ROTATED"
	EventValidationFailed   = "VALIDATION_FAILED"
	EventRiskEscalated      = "RISK_ESCALATED"
)

// Event is one recorded security event.
type Event struct {
	Type      string            `json:"type"`
	Severity  string            `json:"severity"`
	Message   string            `json:"message"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Sink records security events. Record must not block the caller.
type Sink interface {
	Record(eventType, severity, message string, metadata map[string]string)
}

// NoopSink discards all events.
type NoopSink struct{}

// NewNoopSink creates a sink that discards everything.
func NewNoopSink() Sink {
	return &NoopSink{}
}

func (s *NoopSink) Record(eventType, severity, message string, metadata map[string]string) {}
