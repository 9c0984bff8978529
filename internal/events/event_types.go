package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered           EventType = "user_registered"
	EventServiceCreated           EventType = "service_created"
	EventServiceUpdated           EventType = "service_updated"
	EventServiceDeleted           EventType = "service_deleted"
	EventApplicationSubmitted     EventType = "application_submitted"
	EventApplicationStatusChanged EventType = "application_status_changed"
)

// AllEventTypes lists every event the portal emits.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventServiceCreated,
	EventServiceUpdated,
	EventServiceDeleted,
	EventApplicationSubmitted,
	EventApplicationStatusChanged,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subjectID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ServiceChangedPayload is shared by the catalogue events.
type ServiceChangedPayload struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	IsActive bool   `json:"is_active"`
}

// ApplicationSubmittedPayload payload.
type ApplicationSubmittedPayload struct {
	ServiceID    string `json:"service_id"`
	ServiceTitle string `json:"service_title"`
	Category     string `json:"category"`
}

// ApplicationStatusChangedPayload payload.
type ApplicationStatusChangedPayload struct {
	ApplicantID string                   `json:"applicant_id"`
	OldStatus   domain.ApplicationStatus `json:"old_status"`
	NewStatus   domain.ApplicationStatus `json:"new_status"`
	Remarks     string                   `json:"remarks,omitempty"`
}
