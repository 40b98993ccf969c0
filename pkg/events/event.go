package events

import (
	"strings"
	"time"
)

// Marketplace event codes published to the NATS bus.
const (
	SubmissionCreated  = "SUBMISSION_CREATED"
	SubmissionApproved = "SUBMISSION_APPROVED"
	SubmissionRejected = "SUBMISSION_REJECTED"
	DepositSettled     = "DEPOSIT_SETTLED"
)

// StreamName is the JetStream stream carrying every marketplace event.
const StreamName = "EVENTS"

// SubjectWildcard matches every subject on the stream.
const SubjectWildcard = "events.>"

// Subject builds the NATS subject for one event code.
func Subject(eventType string) string {
	return "events." + eventType
}

// TypeFromSubject recovers the event code from a delivered subject.
func TypeFromSubject(subject string) string {
	return subject[strings.LastIndex(subject, ".")+1:]
}

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USER_LOGIN").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
