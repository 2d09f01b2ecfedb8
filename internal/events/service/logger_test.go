package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/postal/internal/events/domain"
)

func TestLoggerEmitsEvent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(zerolog.New(&buf))

	uid := uuid.New()
	err := l.Publish(context.Background(), domain.Event{
		Type:       "config.created",
		UserID:     uid,
		TargetType: "email_config",
		TargetID:   "abc",
		Time:       time.Now().UTC(),
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `"type":"config.created"`)
	require.Contains(t, out, uid.String())
	require.Contains(t, out, `"target_type":"email_config"`)
}

type errPublisher struct {
	err   error
	calls int
}

func (p *errPublisher) Publish(ctx context.Context, e domain.Event) error {
	p.calls++
	return p.err
}

func TestFanoutRunsAllFirstErrorWins(t *testing.T) {
	first := &errPublisher{err: errors.New("first")}
	second := &errPublisher{err: errors.New("second")}
	third := &errPublisher{}

	f := NewFanout(first, second, third)
	err := f.Publish(context.Background(), domain.Event{Type: "email.sent"})

	require.EqualError(t, err, "first")
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, second.calls)
	require.Equal(t, 1, third.calls)
}
