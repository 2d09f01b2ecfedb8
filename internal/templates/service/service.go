package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corvusHold/postal/internal/templates/domain"
)

type service struct {
	repo domain.Repository
}

func New(repo domain.Repository) domain.Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, in domain.CreateInput) (*domain.Template, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.New("template name is required")
	}
	category := strings.ToLower(strings.TrimSpace(in.Category))
	if category == "" {
		category = domain.CategoryOther
	}
	if !domain.ValidCategory(category) {
		return nil, domain.ErrInvalidCategory
	}
	if _, err := s.repo.GetByName(ctx, in.UserID, name); err == nil {
		return nil, domain.ErrNameTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	t := &domain.Template{
		ID:        uuid.New(),
		UserID:    in.UserID,
		Name:      name,
		Subject:   in.Subject,
		Message:   in.Message,
		Category:  category,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Template, error) {
	t, err := s.repo.GetByID(ctx, userID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return t, err
}

func (s *service) List(ctx context.Context, userID uuid.UUID, category string) ([]*domain.Template, error) {
	return s.repo.ListByUser(ctx, userID, strings.ToLower(strings.TrimSpace(category)))
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (s *service) Use(ctx context.Context, userID, templateID uuid.UUID) (string, string, error) {
	t, err := s.Get(ctx, userID, templateID)
	if err != nil {
		return "", "", err
	}
	if !t.IsActive {
		return "", "", domain.ErrNotFound
	}
	if err := s.repo.MarkUsed(ctx, t.ID); err != nil {
		return "", "", err
	}
	return t.Subject, t.Message, nil
}
