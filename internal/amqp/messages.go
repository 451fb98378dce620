package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names the ledger mutation carried by a LedgerEvent.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
	CategoryCreated    EventKind = "category.created"
	CategoryDeleted    EventKind = "category.deleted"
	CurrencyCreated    EventKind = "currency.created"
	CurrencyDeleted    EventKind = "currency.deleted"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	switch k {
	case TransactionCreated, TransactionUpdated, TransactionDeleted,
		CategoryCreated, CategoryDeleted, CurrencyCreated, CurrencyDeleted:
		return true
	}
	return false
}

// LedgerEvent is a lightweight change notification. It carries only the
// record ID and the ledger version; consumers fetch the record themselves.
type LedgerEvent struct {
	Kind      EventKind `json:"kind"`
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates a new event stamped with the current time
func NewLedgerEvent(kind EventKind, id string, version int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:      kind,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.ID == "" {
		return nil, fmt.Errorf("event %s without id", e.Kind)
	}
	return &e, nil
}
