// Package events publishes review outcomes so notification workers can tell
// students their activity was approved or rejected.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultSubject is used when no subject prefix is configured.
const DefaultSubject = "hub.activity.reviewed"

// ActivityReviewed is emitted after a successful approve or reject.
type ActivityReviewed struct {
	EventID    string    `json:"event_id"`
	ActivityID uint      `json:"activity_id"`
	StudentID  uint      `json:"student_id"`
	ReviewerID uint      `json:"reviewer_id"`
	Status     string    `json:"status"`
	Points     int       `json:"points"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers lifecycle events to the broker.
type Publisher interface {
	PublishReviewed(ctx context.Context, event ActivityReviewed) error
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher returns a publisher on conn, or a no-op publisher when conn is nil.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) Publisher {
	if conn == nil {
		return noopPublisher{}
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	return &natsPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) PublishReviewed(ctx context.Context, event ActivityReviewed) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := Encode(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}

	p.logger.Debug().
		Str("event_id", event.EventID).
		Uint("activity_id", event.ActivityID).
		Str("status", event.Status).
		Msg("review event published")

	return nil
}

// Encode stamps missing identifiers and serialises the event.
func Encode(event ActivityReviewed) ([]byte, error) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode review event: %w", err)
	}
	return payload, nil
}

type noopPublisher struct{}

func (noopPublisher) PublishReviewed(context.Context, ActivityReviewed) error {
	return nil
}
