package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/formworks/formworks-server/internal/models"
)

// Subjects follow form.<form_id>.submission.<event>, so integrations can
// subscribe per form with form.*.submission.* or per event with
// form.*.submission.created.

// Publisher emits submission lifecycle events to NATS. A nil Publisher is
// valid and publishes nothing, so the server runs standalone without a
// broker.
type Publisher struct {
	nc *nats.Conn
}

// NewPublisher creates a NATS-backed event publisher
func NewPublisher(nc *nats.Conn) *Publisher {
	return &Publisher{nc: nc}
}

// SubmissionEvent is the wire payload for submission lifecycle events
type SubmissionEvent struct {
	Event        string                  `json:"event"`
	SubmissionID string                  `json:"submissionId"`
	FormID       string                  `json:"formId"`
	TenantID     string                  `json:"tenantId"`
	Status       models.SubmissionStatus `json:"status"`
	OccurredAt   time.Time               `json:"occurredAt"`
}

// SubmissionCreated publishes a created event for a new submission
func (p *Publisher) SubmissionCreated(submission *models.Submission) {
	p.publish("created", submission)
}

// SubmissionDecided publishes an approved or rejected event
func (p *Publisher) SubmissionDecided(submission *models.Submission) {
	switch submission.Status {
	case models.SubmissionApproved:
		p.publish("approved", submission)
	case models.SubmissionRejected:
		p.publish("rejected", submission)
	}
}

func (p *Publisher) publish(event string, submission *models.Submission) {
	if p == nil || p.nc == nil {
		return
	}

	payload := SubmissionEvent{
		Event:        event,
		SubmissionID: submission.ID.String(),
		FormID:       submission.FormID.String(),
		TenantID:     submission.TenantID.String(),
		Status:       submission.Status,
		OccurredAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to marshal submission event")
		return
	}

	subject := fmt.Sprintf("form.%s.submission.%s", submission.FormID, event)
	if err := p.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to publish submission event")
	}
}
