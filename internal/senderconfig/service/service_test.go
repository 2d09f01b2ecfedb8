package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/postal/internal/platform/crypto"
	"github.com/corvusHold/postal/internal/senderconfig/domain"
)

type mockRepo struct {
	byUser map[uuid.UUID]*domain.SenderConfig
}

func newMockRepo() *mockRepo {
	return &mockRepo{byUser: map[uuid.UUID]*domain.SenderConfig{}}
}

func (m *mockRepo) Create(ctx context.Context, c *domain.SenderConfig) error {
	m.byUser[c.UserID] = c
	return nil
}

func (m *mockRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.SenderConfig, error) {
	c, ok := m.byUser[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if _, ok := m.byUser[userID]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byUser, userID)
	return nil
}

func newService(repo domain.Repository) domain.Service {
	return New(repo, crypto.NewBox("test-key"))
}

func TestCreateEncryptsCredential(t *testing.T) {
	repo := newMockRepo()
	s := newService(repo)
	uid := uuid.New()

	cfg, err := s.Create(context.Background(), domain.CreateInput{
		UserID:   uid,
		Provider: "Gmail",
		Email:    "Sender@Example.com",
		Password: "app-password",
	})
	require.NoError(t, err)
	require.Equal(t, "gmail", cfg.Provider)
	require.Equal(t, "sender@example.com", cfg.Email)
	require.Equal(t, 587, cfg.Port)
	require.NotEqual(t, "app-password", cfg.Credential)
	require.NotContains(t, cfg.Credential, "app-password")
}

func TestCreateRejectsSecondConfig(t *testing.T) {
	repo := newMockRepo()
	s := newService(repo)
	uid := uuid.New()

	_, err := s.Create(context.Background(), domain.CreateInput{UserID: uid, Provider: "gmail", Email: "a@x.com", Password: "p"})
	require.NoError(t, err)

	_, err = s.Create(context.Background(), domain.CreateInput{UserID: uid, Provider: "outlook", Email: "a@x.com", Password: "p"})
	require.ErrorIs(t, err, domain.ErrAlreadyConfigured)
}

func TestCreateCustomRequiresHost(t *testing.T) {
	s := newService(newMockRepo())

	_, err := s.Create(context.Background(), domain.CreateInput{UserID: uuid.New(), Provider: "custom", Email: "a@x.com", Password: "p"})
	require.ErrorIs(t, err, domain.ErrHostRequired)

	cfg, err := s.Create(context.Background(), domain.CreateInput{UserID: uuid.New(), Provider: "custom", Email: "a@x.com", Password: "p", Host: "mail.corp.example"})
	require.NoError(t, err)
	require.Equal(t, "mail.corp.example", cfg.Host)
	require.Equal(t, 587, cfg.Port)
}

func TestCreateUnknownProvider(t *testing.T) {
	s := newService(newMockRepo())
	_, err := s.Create(context.Background(), domain.CreateInput{UserID: uuid.New(), Provider: "pigeon", Email: "a@x.com", Password: "p"})
	require.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestResolveDecryptsWithoutMutatingStored(t *testing.T) {
	repo := newMockRepo()
	s := newService(repo)
	uid := uuid.New()

	created, err := s.Create(context.Background(), domain.CreateInput{UserID: uid, Provider: "yahoo", Email: "a@x.com", Password: "secret-pw"})
	require.NoError(t, err)

	resolved, configID, err := s.Resolve(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, created.ID, configID)
	require.Equal(t, "secret-pw", resolved.Password)
	require.Equal(t, "yahoo", resolved.Provider)

	// stored row still holds ciphertext
	require.NotContains(t, repo.byUser[uid].Credential, "secret-pw")
}

func TestResolveNotConfigured(t *testing.T) {
	s := newService(newMockRepo())
	_, _, err := s.Resolve(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestDeleteNotConfigured(t *testing.T) {
	s := newService(newMockRepo())
	require.ErrorIs(t, s.Delete(context.Background(), uuid.New()), domain.ErrNotConfigured)
}
