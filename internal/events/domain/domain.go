package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event represents an audit event.
// Type examples: "email.sent", "email.failed", "config.created"
// Meta may contain provider, recipient counts, ip, etc.
type Event struct {
	Type       string
	UserID     uuid.UUID
	TargetType string
	TargetID   string
	Meta       map[string]string
	Time       time.Time
}

// Publisher publishes events to an external system (log, table, queue, etc.).
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
