// internal/domain/checkin/status.go
package checkin

// Status is the lifecycle state of a check-in prompt.
// Transitions only move forward: sent -> completed | missed | sleeping.
// 'pending' exists in the schema but records are created already 'sent'.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusSleeping  Status = "sleeping"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusMissed, StatusSleeping:
		return true
	}
	return false
}
