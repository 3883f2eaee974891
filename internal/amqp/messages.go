package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"dompet/internal/core"
)

// Ledger event operations.
const (
	OpSync   = "sync"
	OpDelete = "delete"
)

// LedgerEvent announces a change to a budget, expense or transfer.
// Sync events carry only identity and version; the worker reloads the row from the database.
// Delete events carry the last known entry since the row is already gone.
type LedgerEvent struct {
	Op        string            `json:"op"`
	Kind      core.EntryKind    `json:"kind"`
	ID        string            `json:"id"`
	GroupID   string            `json:"groupId"`
	Version   int64             `json:"version"`
	Entry     *core.LedgerEntry `json:"entry,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewSyncEvent(kind core.EntryKind, id, groupID string, version int64) *LedgerEvent {
	return &LedgerEvent{
		Op:        OpSync,
		Kind:      kind,
		ID:        id,
		GroupID:   groupID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func NewDeleteEvent(entry core.LedgerEntry) *LedgerEvent {
	return &LedgerEvent{
		Op:        OpDelete,
		Kind:      entry.Kind,
		ID:        entry.ID,
		GroupID:   entry.GroupID,
		Version:   entry.Version,
		Entry:     &entry,
		Timestamp: time.Now(),
	}
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Op != OpSync && msg.Op != OpDelete {
		return nil, fmt.Errorf("unknown ledger event op %q", msg.Op)
	}
	if _, err := core.ParseEntryKind(string(msg.Kind)); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("ledger event without id")
	}
	if msg.Op == OpDelete && msg.Entry == nil {
		return nil, fmt.Errorf("delete event without entry")
	}
	return &msg, nil
}
