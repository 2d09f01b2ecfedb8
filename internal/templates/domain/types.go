package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Template categories mirror the admin UI filter groups.
const (
	CategoryMarketing     = "marketing"
	CategoryTransactional = "transactional"
	CategoryNewsletter    = "newsletter"
	CategoryNotification  = "notification"
	CategoryOther         = "other"
)

var (
	ErrNotFound        = errors.New("template not found")
	ErrInvalidCategory = errors.New("invalid template category")
	ErrNameTaken       = errors.New("template name already exists")
)

// Template is a stored reusable message. UsageCount/LastUsedAt are
// bumped every time a send references the template.
type Template struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Name       string
	Subject    string
	Message    string
	Category   string
	IsActive   bool
	UsageCount int
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	switch c {
	case CategoryMarketing, CategoryTransactional, CategoryNewsletter, CategoryNotification, CategoryOther:
		return true
	}
	return false
}

type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*Template, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*Template, error)
	ListByUser(ctx context.Context, userID uuid.UUID, category string) ([]*Template, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	MarkUsed(ctx context.Context, id uuid.UUID) error
}

type CreateInput struct {
	UserID   uuid.UUID
	Name     string
	Subject  string
	Message  string
	Category string
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Template, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Template, error)
	List(ctx context.Context, userID uuid.UUID, category string) ([]*Template, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// Use resolves an active template for a send and records the usage.
	Use(ctx context.Context, userID, templateID uuid.UUID) (subject, message string, err error)
}
