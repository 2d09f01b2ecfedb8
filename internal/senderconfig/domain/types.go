package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Well-known provider selectors. Anything else must be ProviderCustom
// with an explicit host.
const (
	ProviderGmail   = "gmail"
	ProviderOutlook = "outlook"
	ProviderYahoo   = "yahoo"
	ProviderZoho    = "zoho"
	ProviderCustom  = "custom"
)

var (
	// ErrAlreadyConfigured: exactly one configuration per user; there is
	// no update-in-place, delete first.
	ErrAlreadyConfigured = errors.New("sender configuration already exists")
	ErrNotConfigured     = errors.New("no sender configuration for user")
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrHostRequired      = errors.New("host is required for custom provider")
)

// SenderConfig is a user's stored outbound mail identity. Credential
// holds the encrypted app password; plaintext never touches this struct.
type SenderConfig struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Provider   string
	Email      string
	Credential string
	Host       string
	Port       int
	Secure     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ResolvedSenderConfig is the immutable per-run value handed to the
// transport factory, with the credential decrypted just-in-time. It is
// constructed once per run and never written back anywhere.
type ResolvedSenderConfig struct {
	Provider string
	Email    string
	Password string
	Host     string
	Port     int
	Secure   bool
}

// KnownProvider reports whether p is a supported selector.
func KnownProvider(p string) bool {
	switch p {
	case ProviderGmail, ProviderOutlook, ProviderYahoo, ProviderZoho, ProviderCustom:
		return true
	}
	return false
}

// Repository abstracts persistence for sender configurations.
type Repository interface {
	Create(ctx context.Context, c *SenderConfig) error
	GetByUser(ctx context.Context, userID uuid.UUID) (*SenderConfig, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// CreateInput carries the plaintext credential from the controller; the
// service encrypts it before it reaches the repository.
type CreateInput struct {
	UserID   uuid.UUID
	Provider string
	Email    string
	Password string
	Host     string
	Port     int
	Secure   bool
}

// Service encapsulates business logic for sender configurations.
type Service interface {
	Create(ctx context.Context, in CreateInput) (*SenderConfig, error)
	Get(ctx context.Context, userID uuid.UUID) (*SenderConfig, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	// Resolve loads and decrypts the user's configuration for one run.
	Resolve(ctx context.Context, userID uuid.UUID) (ResolvedSenderConfig, uuid.UUID, error)
}
