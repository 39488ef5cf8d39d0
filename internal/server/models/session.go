package models

import "time"

// UrgencyLevel is the triage verdict of a symptom session. Stored in the clear
// so history can be filtered by it.
type UrgencyLevel string

const (
	UrgencyEmergency UrgencyLevel = "emergency"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencyRoutine   UrgencyLevel = "routine"
)

// Valid reports whether u is one of the known levels.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyEmergency, UrgencyUrgent, UrgencyRoutine:
		return true
	}
	return false
}

// SymptomSession is the plaintext application shape of one symptom check.
// A nil Conditions slice means the field was never set.
type SymptomSession struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	UrgencyLevel   *UrgencyLevel `json:"urgency_level,omitempty"`
	Conditions     []string      `json:"conditions,omitempty"`
	Specialist     *string       `json:"specialist,omitempty"`
	Recommendation *string       `json:"recommendation,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// StoredSession is the row persisted in the symptom_sessions table.
type StoredSession struct {
	ID                      string
	UserID                  string
	UrgencyLevel            *UrgencyLevel
	ConditionsEncrypted     *string
	Specialist              *string
	RecommendationEncrypted *string
	CreatedAt               time.Time
}
