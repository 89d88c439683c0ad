package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"certflow/pkg/domain"
	"certflow/pkg/requestcontext"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Actor      domain.Identity   `json:"actor"`
	Action     Action            `json:"action"`
	Aggregate  string            `json:"aggregate"`
	Subject    string            `json:"subject"`
	Decision   string            `json:"decision,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	TxHash     string            `json:"tx_hash,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	ClientKind string            `json:"client_kind,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Action names a recorded state change.
type Action string

const (
	ActionUserRegistered       Action = "user_registered"
	ActionInstituteAuthorized  Action = "institute_authorized"
	ActionInstituteRevoked     Action = "institute_revoked"
	ActionAuthorizationDenied  Action = "authorization_denied"
	ActionRequestSubmitted     Action = "certificate_request_submitted"
	ActionRequestApproved      Action = "certificate_request_approved"
	ActionApprovalCheckpointed Action = "certificate_approval_checkpointed"
	ActionRequestWithdrawn     Action = "certificate_request_withdrawn"
	ActionRequestRejected      Action = "certificate_request_rejected"
	ActionSessionCreated       Action = "session_created"
	ActionLoginFailed          Action = "login_failed"
	ActionSessionRevoked       Action = "session_revoked"
)

// Aggregate types used as outbox partitioning hints.
const (
	AggregateUser        = "user"
	AggregateInstitute   = "institute"
	AggregateRequest     = "certificate_request"
	AggregateCertificate = "certificate"
	AggregateSession     = "session"
)

// Decisions recorded on events.
const (
	DecisionGranted = "granted"
	DecisionDenied  = "denied"
)

// Enrich fills correlation fields from the request context.
func (e Event) Enrich(ctx context.Context) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if e.ClientKind == "" {
		e.ClientKind = requestcontext.ClientKind(ctx)
	}
	return e
}
