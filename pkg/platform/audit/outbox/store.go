package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"certflow/pkg/platform/audit"
)

// Store defines the outbox persistence operations.
// Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	// FetchUnprocessed returns up to limit pending entries, oldest first.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error
	CountPending(ctx context.Context) (int64, error)
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

// AuditStore adapts an outbox Store into an audit.Store: every audit event
// becomes an outbox entry keyed by its aggregate.
type AuditStore struct {
	store Store
}

func NewAuditStore(store Store) *AuditStore {
	return &AuditStore{store: store}
}

func (s *AuditStore) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	entry := NewEntry(event.Aggregate, event.Subject, string(event.Action), payload)
	if event.ID != uuid.Nil {
		entry.ID = event.ID
	}
	if !event.Timestamp.IsZero() {
		entry.CreatedAt = event.Timestamp
	}
	return s.store.Append(ctx, entry)
}
