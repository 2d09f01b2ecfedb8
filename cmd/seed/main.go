package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvusHold/postal/internal/config"
	tdomain "github.com/corvusHold/postal/internal/templates/domain"
	trepo "github.com/corvusHold/postal/internal/templates/repository"
	tsvc "github.com/corvusHold/postal/internal/templates/service"
)

// seed installs the starter template set for a user. Safe to re-run:
// templates that already exist are skipped.
func main() {
	userIDStr := flag.String("user-id", os.Getenv("USER_ID"), "user UUID to seed templates for")
	flag.Parse()

	uid, err := uuid.Parse(*userIDStr)
	if err != nil {
		fatalf("invalid -user-id: %v", err)
	}

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		fatalf("load config: %v", err)
	}
	pgCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		fatalf("invalid DATABASE_URL: %v", err)
	}
	pgPool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		fatalf("pg pool: %v", err)
	}
	defer pgPool.Close()

	svc := tsvc.New(trepo.New(pgPool))

	created, skipped := 0, 0
	for _, in := range starterTemplates() {
		in.UserID = uid
		if _, err := svc.Create(ctx, in); err != nil {
			if errors.Is(err, tdomain.ErrNameTaken) {
				skipped++
				continue
			}
			fatalf("create template %q: %v", in.Name, err)
		}
		created++
	}
	fmt.Printf("seeded templates for %s: %d created, %d skipped\n", uid, created, skipped)
}

func starterTemplates() []tdomain.CreateInput {
	return []tdomain.CreateInput{
		{
			Name:     "welcome",
			Subject:  "Welcome aboard",
			Message:  "Hi {{name}},\n\nThanks for joining us. Reply to this email if you have any questions.",
			Category: tdomain.CategoryTransactional,
		},
		{
			Name:     "newsletter",
			Subject:  "This month at a glance",
			Message:  "Hi {{name}},\n\nHere is what we shipped this month.",
			Category: tdomain.CategoryNewsletter,
		},
		{
			Name:     "promo",
			Subject:  "A small thank you",
			Message:  "Hi {{name}},\n\nAs one of our early users, here is a discount code for you.",
			Category: tdomain.CategoryMarketing,
		},
		{
			Name:     "maintenance-notice",
			Subject:  "Scheduled maintenance",
			Message:  "Hi {{name}},\n\nWe will be performing scheduled maintenance this weekend.",
			Category: tdomain.CategoryNotification,
		},
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
