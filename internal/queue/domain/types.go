package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrNotCancellable = errors.New("job is not pending")
)

// Job is a durable bulk-send request consumed by the worker. The
// recipient list is stored as raw text and re-extracted at run time so
// the job row is self-contained.
type Job struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Subject     string
	Message     string
	Recipients  string
	Batched     bool
	Status      Status
	Attempts    int
	MaxAttempts int
	LastError   string
	ScheduledAt time.Time
	LockedUntil *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Repository persists queue jobs.
type Repository interface {
	Enqueue(ctx context.Context, j *Job) error
	// ClaimNext atomically claims the oldest runnable job (pending and
	// due, or processing past its visibility timeout), marks it
	// processing, bumps attempts, and sets locked_until. Returns
	// (nil, nil) when the queue is empty.
	ClaimNext(ctx context.Context, lockTTL time.Duration) (*Job, error)
	Complete(ctx context.Context, id uuid.UUID) error
	// Fail records the error; the job goes back to pending with a
	// backoff unless attempts have reached max_attempts, in which case
	// it is terminal. Returns whether the failure was terminal.
	Fail(ctx context.Context, id uuid.UUID, errText string) (bool, error)
	Cancel(ctx context.Context, userID, id uuid.UUID) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Job, error)
}
