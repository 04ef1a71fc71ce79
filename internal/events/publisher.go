package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectRegistrationRequested  = "user.registration_requested"
	SubjectPasswordResetRequested = "user.password_reset_requested"
)

// EventPublisher hands confirmation codes off to the notification pipeline.
// Delivery is best-effort; the pending record in the ephemeral store stays
// the source of truth whether or not the message arrives.
type EventPublisher interface {
	PublishRegistrationRequested(email, code string) error
	PublishPasswordResetRequested(email, code string) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (EventPublisher, error) {
	nc, err := nats.Connect(natsURL)

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

type ConfirmationRequestedEvent struct {
	EventType   string    `json:"event_type"`
	EventID     uuid.UUID `json:"event_id"`
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requested_at"`
}

func (p *NatsPublisher) PublishRegistrationRequested(email, code string) error {
	return p.publish(SubjectRegistrationRequested, email, code)
}

func (p *NatsPublisher) PublishPasswordResetRequested(email, code string) error {
	return p.publish(SubjectPasswordResetRequested, email, code)
}

func (p *NatsPublisher) publish(subject, email, code string) error {
	event := ConfirmationRequestedEvent{
		EventType:   subject,
		EventID:     uuid.New(),
		Email:       email,
		Code:        code,
		RequestedAt: time.Now(),
	}

	eventJSON, err := json.Marshal(event)

	if err != nil {
		log.Printf("Error marshalling event JSON: %v", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		log.Printf("Error publishing to NATS: %v", err)
		return err
	}

	log.Printf("Published event to NATS on subject '%s'", subject)

	return nil
}
