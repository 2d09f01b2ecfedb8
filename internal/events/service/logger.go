package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/corvusHold/postal/internal/events/domain"
)

// Logger is a Publisher that writes events to the service log.
type Logger struct {
	log zerolog.Logger
}

func NewLogger(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Publish(ctx context.Context, e domain.Event) error {
	l.log.Info().
		Str("type", e.Type).
		Str("user_id", e.UserID.String()).
		Str("target_type", e.TargetType).
		Str("target_id", e.TargetID).
		Fields(map[string]any{"meta": e.Meta}).
		Time("ts", e.Time).
		Msg("event")
	return nil
}

// Fanout publishes to every wrapped Publisher; the first error wins but
// remaining publishers still run.
type Fanout struct {
	pubs []domain.Publisher
}

func NewFanout(pubs ...domain.Publisher) *Fanout { return &Fanout{pubs: pubs} }

func (f *Fanout) Publish(ctx context.Context, e domain.Event) error {
	var firstErr error
	for _, p := range f.pubs {
		if err := p.Publish(ctx, e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
