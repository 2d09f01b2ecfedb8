package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/postal/internal/templates/domain"
)

type mockRepo struct {
	byID map[uuid.UUID]*domain.Template
	used []uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: map[uuid.UUID]*domain.Template{}}
}

func (m *mockRepo) Create(ctx context.Context, t *domain.Template) error {
	m.byID[t.ID] = t
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Template, error) {
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (m *mockRepo) GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Template, error) {
	for _, t := range m.byID {
		if t.UserID == userID && t.Name == name {
			return t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) ListByUser(ctx context.Context, userID uuid.UUID, category string) ([]*domain.Template, error) {
	var out []*domain.Template
	for _, t := range m.byID {
		if t.UserID == userID && (category == "" || t.Category == category) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	m.used = append(m.used, id)
	m.byID[id].UsageCount++
	return nil
}

func TestCreateDefaultsAndValidation(t *testing.T) {
	s := New(newMockRepo())
	uid := uuid.New()

	tpl, err := s.Create(context.Background(), domain.CreateInput{UserID: uid, Name: "welcome", Subject: "Hi", Message: "Hello {{name}}"})
	require.NoError(t, err)
	require.Equal(t, domain.CategoryOther, tpl.Category)
	require.True(t, tpl.IsActive)

	_, err = s.Create(context.Background(), domain.CreateInput{UserID: uid, Name: ""})
	require.Error(t, err)

	_, err = s.Create(context.Background(), domain.CreateInput{UserID: uid, Name: "x", Category: "spam"})
	require.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestCreateDuplicateName(t *testing.T) {
	s := New(newMockRepo())
	uid := uuid.New()
	_, err := s.Create(context.Background(), domain.CreateInput{UserID: uid, Name: "welcome"})
	require.NoError(t, err)
	_, err = s.Create(context.Background(), domain.CreateInput{UserID: uid, Name: "welcome"})
	require.ErrorIs(t, err, domain.ErrNameTaken)
}

func TestUseTracksUsage(t *testing.T) {
	repo := newMockRepo()
	s := New(repo)
	uid := uuid.New()

	tpl, err := s.Create(context.Background(), domain.CreateInput{UserID: uid, Name: "promo", Subject: "Sale", Message: "Deals {{name}}", Category: "marketing"})
	require.NoError(t, err)

	subject, message, err := s.Use(context.Background(), uid, tpl.ID)
	require.NoError(t, err)
	require.Equal(t, "Sale", subject)
	require.Equal(t, "Deals {{name}}", message)
	require.Equal(t, []uuid.UUID{tpl.ID}, repo.used)
	require.Equal(t, 1, repo.byID[tpl.ID].UsageCount)
}

func TestUseUnknownOrForeignTemplate(t *testing.T) {
	repo := newMockRepo()
	s := New(repo)
	uid := uuid.New()

	tpl, err := s.Create(context.Background(), domain.CreateInput{UserID: uid, Name: "promo"})
	require.NoError(t, err)

	_, _, err = s.Use(context.Background(), uuid.New(), tpl.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = s.Use(context.Background(), uid, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
