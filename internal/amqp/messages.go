package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// EntryEvent is the lightweight message published after a ledger-entry write.
// It carries only identifiers; consumers fetch the current record from the
// database, so a stale event after a later update does no harm.
type EntryEvent struct {
	EntryID   uuid.UUID `json:"entry_id"`
	PlanID    uuid.UUID `json:"plan_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryEvent(entryID, planID uuid.UUID, action string) *EntryEvent {
	return &EntryEvent{
		EntryID:   entryID,
		PlanID:    planID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (e *EntryEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EntryEventFromJSON(data []byte) (*EntryEvent, error) {
	var e EntryEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
