package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvusHold/postal/internal/dispatch/domain"
)

func TestRepository_LogLifecycle_Integration(t *testing.T) {
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
	dl := domain.NewDeliveryLog(uid, uuid.New(), "itest subject", true, []domain.RecipientRecord{
		{Email: "a@x.com", Name: "Ann"},
		{Email: "b@x.com"},
	})
	if err := repo.Create(ctx, dl); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// simulate the paced loop: mark and rewrite
	if err := dl.MarkSuccess(0, time.Now()); err != nil {
		t.Fatalf("MarkSuccess failed: %v", err)
	}
	if err := dl.MarkFailed(1, time.Now(), "550 rejected"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	dl.Status = dl.Aggregate()
	now := time.Now().UTC()
	dl.SentAt = &now
	if err := repo.Update(ctx, dl); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, uid, dl.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.StatusPartial {
		t.Fatalf("expected partial status got %s", got.Status)
	}
	if len(got.Recipients) != 2 {
		t.Fatalf("expected 2 ledger rows got %d", len(got.Recipients))
	}
	if got.Recipients[1].Error != "550 rejected" {
		t.Fatalf("expected verbatim error text got %q", got.Recipients[1].Error)
	}

	items, total, err := repo.ListByUser(ctx, uid, 10, 0)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if total < 1 || len(items) < 1 {
		t.Fatalf("expected at least one log, got total=%d len=%d", total, len(items))
	}
}
