package worker

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"contacts-service/internal/events"
	"contacts-service/internal/mailer"
)

// Worker consumes confirmation-code events and turns them into emails.
type Worker struct {
	conn   *nats.Conn
	sender mailer.Sender
	subs   []*nats.Subscription
}

func New(conn *nats.Conn, sender mailer.Sender) *Worker {
	return &Worker{conn: conn, sender: sender}
}

func (w *Worker) Start() error {
	regSub, err := w.conn.Subscribe(events.SubjectRegistrationRequested, w.handleRegistrationRequested)
	if err != nil {
		return err
	}
	w.subs = append(w.subs, regSub)

	resetSub, err := w.conn.Subscribe(events.SubjectPasswordResetRequested, w.handlePasswordResetRequested)
	if err != nil {
		return err
	}
	w.subs = append(w.subs, resetSub)

	return nil
}

func (w *Worker) Stop() {
	for _, sub := range w.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("Error unsubscribing from %s: %v", sub.Subject, err)
		}
	}
}

func (w *Worker) handleRegistrationRequested(msg *nats.Msg) {
	event, ok := decodeEvent(msg)
	if !ok {
		return
	}

	subject := "Confirm your registration"
	body := fmt.Sprintf(
		"Welcome!\n\nUse this code to confirm your registration: %s\n\nThe code expires in 24 hours.",
		event.Code,
	)

	w.deliver(event, subject, body)
}

func (w *Worker) handlePasswordResetRequested(msg *nats.Msg) {
	event, ok := decodeEvent(msg)
	if !ok {
		return
	}

	subject := "Confirm your password reset"
	body := fmt.Sprintf(
		"A password reset was requested for your account.\n\nUse this code to confirm it: %s\n\nThe code expires in 30 minutes. If you did not request this, ignore this email.",
		event.Code,
	)

	w.deliver(event, subject, body)
}

func decodeEvent(msg *nats.Msg) (events.ConfirmationRequestedEvent, bool) {
	var event events.ConfirmationRequestedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("Error unmarshalling event: %v", err)
		return event, false
	}
	return event, true
}

func (w *Worker) deliver(event events.ConfirmationRequestedEvent, subject, body string) {
	log.Printf("📬 Event Received: %s for %s", event.EventType, event.Email)

	if err := w.sender.Send(event.Email, subject, body); err != nil {
		log.Printf("❌ FAILED to send email to %s: %v", event.Email, err)
		return
	}

	log.Printf("✅ SUCCESS: email sent to %s", event.Email)
}
