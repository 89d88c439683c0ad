// Package tracer is the span abstraction used around ledger calls, with an
// OpenTelemetry adapter and a no-op implementation.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Attribute keys used on ledger spans.
const (
	AttrOperation = "ledger.operation"
	AttrBackend   = "ledger.backend"
	AttrCaller    = "ledger.caller"
	AttrSubject   = "ledger.subject"
	AttrRequestID = "ledger.request_id"
	AttrTxHash    = "ledger.tx_hash"
	AttrOutcome   = "ledger.outcome"
)

// EventReceipt marks a confirmed write inside a span.
const EventReceipt = "ledger.receipt"
