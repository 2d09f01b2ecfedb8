package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	senderdomain "github.com/corvusHold/postal/internal/senderconfig/domain"
)

// Status applies to both a single ledger row and the whole delivery log.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPartial Status = "partial"
)

var (
	// ErrUnsupportedFormat means the uploaded recipient file is not a
	// spreadsheet or delimited-text type the extractor understands.
	ErrUnsupportedFormat = errors.New("unsupported recipient file format")
	// ErrNoRecipients means no valid recipient survived validation and dedup.
	ErrNoRecipients = errors.New("no valid recipients found")
	// ErrTransportBuild wraps a malformed provider/host/port combination.
	ErrTransportBuild = errors.New("transport build failed")
	// ErrPersistence wraps a log store failure mid-run. It aborts the run.
	ErrPersistence = errors.New("delivery log persistence failed")
	// ErrRowFinalized is returned when a terminal ledger row is marked again.
	ErrRowFinalized = errors.New("ledger row already finalized")
)

// RecipientRecord is the validated {email, name} pair produced by the
// extractor. Email is lowercased; Name is empty when the source had none.
type RecipientRecord struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// LedgerRow is one recipient's outcome inside a DeliveryLog. Rows move
// pending -> success|failed exactly once and never back.
type LedgerRow struct {
	Email  string     `json:"email"`
	Status Status     `json:"status"`
	SentAt *time.Time `json:"sent_at,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// DeliveryLog records one send operation (single or bulk) and its
// per-recipient ledger, in extractor order.
type DeliveryLog struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ConfigID   uuid.UUID
	Subject    string
	IsBulk     bool
	Recipients []LedgerRow
	Status     Status
	SentAt     *time.Time
	CreatedAt  time.Time
}

// NewDeliveryLog builds a log with every row pending, preserving
// recipient order.
func NewDeliveryLog(userID, configID uuid.UUID, subject string, isBulk bool, recipients []RecipientRecord) *DeliveryLog {
	rows := make([]LedgerRow, len(recipients))
	for i, r := range recipients {
		rows[i] = LedgerRow{Email: r.Email, Status: StatusPending}
	}
	return &DeliveryLog{
		ID:         uuid.New(),
		UserID:     userID,
		ConfigID:   configID,
		Subject:    subject,
		IsBulk:     isBulk,
		Recipients: rows,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// MarkSuccess transitions row i to success.
func (d *DeliveryLog) MarkSuccess(i int, at time.Time) error {
	return d.mark(i, StatusSuccess, at, "")
}

// MarkFailed transitions row i to failed, keeping the provider's error
// text verbatim.
func (d *DeliveryLog) MarkFailed(i int, at time.Time, errText string) error {
	return d.mark(i, StatusFailed, at, errText)
}

func (d *DeliveryLog) mark(i int, s Status, at time.Time, errText string) error {
	if i < 0 || i >= len(d.Recipients) {
		return errors.New("ledger row index out of range")
	}
	if d.Recipients[i].Status != StatusPending {
		return ErrRowFinalized
	}
	at = at.UTC()
	d.Recipients[i].Status = s
	d.Recipients[i].SentAt = &at
	d.Recipients[i].Error = errText
	return nil
}

// Aggregate derives the whole-run status from the ledger rows: success
// iff no row failed, failed iff no row succeeded, otherwise partial.
func (d *DeliveryLog) Aggregate() Status {
	var succeeded, failed int
	for _, r := range d.Recipients {
		switch r.Status {
		case StatusSuccess:
			succeeded++
		case StatusFailed:
			failed++
		}
	}
	switch {
	case failed == 0:
		return StatusSuccess
	case succeeded == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// Counts returns (successful, failed) row totals.
func (d *DeliveryLog) Counts() (int, int) {
	var succeeded, failed int
	for _, r := range d.Recipients {
		switch r.Status {
		case StatusSuccess:
			succeeded++
		case StatusFailed:
			failed++
		}
	}
	return succeeded, failed
}

// SendError is one sampled per-recipient failure returned to the caller.
type SendError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// RunResult summarizes a completed dispatch run. Errors is capped at
// MaxSampledErrors entries.
type RunResult struct {
	Total      int
	Successful int
	Failed     int
	Errors     []SendError
	LogID      uuid.UUID
}

// MaxSampledErrors bounds the error sample in a RunResult.
const MaxSampledErrors = 10

// Artifact is a filesystem-backed temporary upload (recipient file or
// attachment) owned by the request for its duration.
type Artifact struct {
	Name     string
	Path     string
	MIMEType string
}

// Message is one personalized email handed to a Transport.
type Message struct {
	To          RecipientRecord
	Subject     string
	HTMLBody    string
	Attachments []Artifact
}

// Transport sends messages for one dispatch run. A single Transport is
// built per run and reused for every recipient; it is never shared
// across runs.
type Transport interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// TransportFactory builds a Transport from a resolved sender
// configuration. Auth and connection failures are not retried here.
type TransportFactory interface {
	Build(cfg senderdomain.ResolvedSenderConfig) (Transport, error)
}

// Scheduler is the injectable pacing capability. Delay returns early
// with the context error when ctx is cancelled.
type Scheduler interface {
	Delay(ctx context.Context, d time.Duration) error
}

// Cleaner removes ephemeral artifacts best-effort.
type Cleaner interface {
	Remove(paths ...string)
}

// Repository persists delivery logs. Update rewrites the full document;
// one engine instance owns one run, so no optimistic concurrency.
type Repository interface {
	Create(ctx context.Context, d *DeliveryLog) error
	Update(ctx context.Context, d *DeliveryLog) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*DeliveryLog, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*DeliveryLog, int64, error)
}
