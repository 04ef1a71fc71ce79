package worker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contacts-service/internal/events"
)

type recordingSender struct {
	to      string
	subject string
	body    string
	calls   int
}

func (r *recordingSender) Send(to, subject, body string) error {
	r.to = to
	r.subject = subject
	r.body = body
	r.calls++
	return nil
}

func encodeEvent(t *testing.T, subject, email, code string) *nats.Msg {
	t.Helper()

	payload, err := json.Marshal(events.ConfirmationRequestedEvent{
		EventType:   subject,
		EventID:     uuid.New(),
		Email:       email,
		Code:        code,
		RequestedAt: time.Now(),
	})
	require.NoError(t, err)

	return &nats.Msg{Subject: subject, Data: payload}
}

func TestWorker_HandleRegistrationRequested(t *testing.T) {
	sender := &recordingSender{}
	w := New(nil, sender)

	msg := encodeEvent(t, events.SubjectRegistrationRequested, "alice@example.com", "deadbeef")
	w.handleRegistrationRequested(msg)

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "alice@example.com", sender.to)
	assert.Equal(t, "Confirm your registration", sender.subject)
	assert.Contains(t, sender.body, "deadbeef")
}

func TestWorker_HandlePasswordResetRequested(t *testing.T) {
	sender := &recordingSender{}
	w := New(nil, sender)

	msg := encodeEvent(t, events.SubjectPasswordResetRequested, "bob@example.com", "cafe1234")
	w.handlePasswordResetRequested(msg)

	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "bob@example.com", sender.to)
	assert.Equal(t, "Confirm your password reset", sender.subject)
	assert.Contains(t, sender.body, "cafe1234")
}

func TestWorker_IgnoresMalformedPayload(t *testing.T) {
	sender := &recordingSender{}
	w := New(nil, sender)

	w.handleRegistrationRequested(&nats.Msg{Data: []byte("not json")})

	assert.Equal(t, 0, sender.calls)
}
