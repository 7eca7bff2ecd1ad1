package audit

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/kochabx/authguard/log"
)

// SecurityEvent is the persisted form of an audit event.
type SecurityEvent struct {
	ID        uint      `gorm:"primarykey"`
	EventType string    `gorm:"size:64;index"`
	Severity  string    `gorm:"size:16;index"`
	Message   string    `gorm:"size:512"`
	Metadata  string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// DBSink persists events to the relational store. Write failures are
// logged and swallowed; the audit trail is best-effort by contract.
type DBSink struct {
	db *gorm.DB
}

// NewDBSink creates a database sink and migrates its table.
func NewDBSink(gdb *gorm.DB) (*DBSink, error) {
	if err := gdb.AutoMigrate(&SecurityEvent{}); err != nil {
		return nil, err
	}
	return &DBSink{db: gdb}, nil
}

// Record inserts one event row.
func (s *DBSink) Record(eventType, severity, message string, metadata map[string]string) {
	var meta string
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			meta = string(raw)
		}
	}

	event := &SecurityEvent{
		EventType: eventType,
		Severity:  severity,
		Message:   message,
		Metadata:  meta,
		CreatedAt: time.Now(),
	}

	if err := s.db.Create(event).Error; err != nil {
		log.Warn().
			Str("event_type", eventType).
			Err(err).
			Msg("failed to persist security event")
	}
}

var _ Sink = (*DBSink)(nil)
