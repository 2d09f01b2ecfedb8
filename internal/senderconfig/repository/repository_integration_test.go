package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvusHold/postal/internal/senderconfig/domain"
)

func TestRepository_CRUD_Integration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("skipping integration test: DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		t.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	repo := New(pool)
	uid := uuid.New()
	now := time.Now().UTC()
	cfg := &domain.SenderConfig{
		ID:         uuid.New(),
		UserID:     uid,
		Provider:   domain.ProviderGmail,
		Email:      "itest@example.com",
		Credential: "ciphertext",
		Port:       587,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.Create(ctx, cfg); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.DeleteByUser(ctx, uid) })

	got, err := repo.GetByUser(ctx, uid)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if got.Email != cfg.Email || got.Provider != cfg.Provider {
		t.Fatalf("unexpected row: %+v", got)
	}

	if err := repo.DeleteByUser(ctx, uid); err != nil {
		t.Fatalf("DeleteByUser failed: %v", err)
	}
	if _, err := repo.GetByUser(ctx, uid); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows after delete, got %v", err)
	}
}
