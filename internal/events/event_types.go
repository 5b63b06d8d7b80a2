package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/petnice/clinic-dashboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionStarted    EventType = "session_started"
	EventSessionEnded      EventType = "session_ended"
	EventSessionExpired    EventType = "session_expired"
	EventSessionRejected   EventType = "session_rejected"
	EventAccountRegistered EventType = "account_registered"
	EventRecordCreated     EventType = "record_created"
	EventRecordUpdated     EventType = "record_updated"
	EventRecordDeleted     EventType = "record_deleted"
)

// Actor identifies who caused an event. Empty for anonymous actions.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Email  string      `json:"email,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}

// ActorFrom builds an actor from an identity, which may be nil.
func ActorFrom(identity *domain.Identity) Actor {
	if identity == nil {
		return Actor{}
	}
	return Actor{UserID: identity.ID, Email: identity.Email, Role: identity.Role}
}

// Event represents something the dashboard did on behalf of a user.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// RecordPayload describes a mutation of a clinic record.
type RecordPayload struct {
	Resource string `json:"resource"`
	RecordID string `json:"record_id,omitempty"`
}

// SessionPayload describes a session transition.
type SessionPayload struct {
	Reason string `json:"reason,omitempty"`
}

// RegistrationPayload carries the address of a newly registered account.
type RegistrationPayload struct {
	Email string `json:"email"`
}
