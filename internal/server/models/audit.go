package models

import "time"

// AuditAction is the kind of access an audit entry records.
type AuditAction string

const (
	AuditSelect AuditAction = "SELECT"
	AuditInsert AuditAction = "INSERT"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// TimestampLayout renders instants the way the browser client does
// (ISO 8601, millisecond precision, UTC as "Z").
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Table names as they appear in audit entries.
const (
	TableProfiles       = "profiles"
	TableSessions       = "symptom_sessions"
	TableMessages       = "symptom_messages"
	TableAuditLogs      = "audit_logs"
	TableAllPatientData = "all_patient_data"
)

// AuditEntry is one append-only audit record. RecordID and Changes are optional.
type AuditEntry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	TableName string         `json:"table_name"`
	Action    AuditAction    `json:"action"`
	RecordID  *string        `json:"record_id,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
