package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corvusHold/postal/internal/platform/crypto"
	"github.com/corvusHold/postal/internal/senderconfig/domain"
)

const defaultSubmissionPort = 587

type service struct {
	repo domain.Repository
	box  *crypto.Box
}

func New(repo domain.Repository, box *crypto.Box) domain.Service {
	return &service{repo: repo, box: box}
}

func (s *service) Create(ctx context.Context, in domain.CreateInput) (*domain.SenderConfig, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if !domain.KnownProvider(provider) {
		return nil, domain.ErrUnknownProvider
	}
	if provider == domain.ProviderCustom && strings.TrimSpace(in.Host) == "" {
		return nil, domain.ErrHostRequired
	}

	if _, err := s.repo.GetByUser(ctx, in.UserID); err == nil {
		return nil, domain.ErrAlreadyConfigured
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	ct, err := s.box.Encrypt(in.Password)
	if err != nil {
		return nil, err
	}

	port := in.Port
	if port <= 0 {
		port = defaultSubmissionPort
	}

	now := time.Now().UTC()
	cfg := &domain.SenderConfig{
		ID:         uuid.New(),
		UserID:     in.UserID,
		Provider:   provider,
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Credential: ct,
		Host:       strings.TrimSpace(in.Host),
		Port:       port,
		Secure:     in.Secure,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*domain.SenderConfig, error) {
	cfg, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotConfigured
	}
	return cfg, err
}

func (s *service) Delete(ctx context.Context, userID uuid.UUID) error {
	err := s.repo.DeleteByUser(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotConfigured
	}
	return err
}

// Resolve decrypts the stored credential into an immutable per-run
// value. The stored row is never mutated by the send path.
func (s *service) Resolve(ctx context.Context, userID uuid.UUID) (domain.ResolvedSenderConfig, uuid.UUID, error) {
	cfg, err := s.Get(ctx, userID)
	if err != nil {
		return domain.ResolvedSenderConfig{}, uuid.UUID{}, err
	}
	pw, err := s.box.Decrypt(cfg.Credential)
	if err != nil {
		return domain.ResolvedSenderConfig{}, uuid.UUID{}, err
	}
	return domain.ResolvedSenderConfig{
		Provider: cfg.Provider,
		Email:    cfg.Email,
		Password: pw,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Secure:   cfg.Secure,
	}, cfg.ID, nil
}
