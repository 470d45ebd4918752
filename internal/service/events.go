package service

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published on the message bus.
const (
	SubjectAssignmentGenerated = "sitlearn.assignment.generated"
	SubjectRubricCreated       = "sitlearn.rubric.created"
	SubjectEvaluationCompleted = "sitlearn.evaluation.completed"
	SubjectEvaluationFinalized = "sitlearn.evaluation.finalized"
)

// Publisher emits domain events. Publishing is fire-and-forget: a failure is
// logged and never propagated to the request path.
type Publisher interface {
	Publish(subject string, payload any)
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSPublisher wraps a NATS connection as an event publisher.
func NewNATSPublisher(conn *nats.Conn, logger zerolog.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

func (p *natsPublisher) Publish(subject string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	if err := p.conn.Publish(subject, raw); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event. Used when the
// message bus is not configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(string, any) {}
