package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one audit event waiting in the outbox table. The worker publishes
// it with ID as the Kafka key, so consumers can drop redeliveries.
type Entry struct {
	ID            uuid.UUID
	AggregateType string // audit aggregate, e.g. certificate_request
	AggregateID   string // request id, certificate id or identity
	EventType     string // audit action
	Payload       []byte // JSON audit.Event
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

func NewEntry(aggregateType, aggregateID, eventType string, payload []byte) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}
