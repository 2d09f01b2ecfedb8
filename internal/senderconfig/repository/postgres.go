package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvusHold/postal/internal/senderconfig/domain"
)

type PostgresRepository struct {
	pg *pgxpool.Pool
}

func New(pg *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pg: pg}
}

func (r *PostgresRepository) Create(ctx context.Context, c *domain.SenderConfig) error {
	_, err := r.pg.Exec(ctx, `
		INSERT INTO email_configs (id, user_id, provider, email, credential, host, port, secure, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.UserID, c.Provider, c.Email, c.Credential, c.Host, c.Port, c.Secure, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.SenderConfig, error) {
	row := r.pg.QueryRow(ctx, `
		SELECT id, user_id, provider, email, credential, host, port, secure, created_at, updated_at
		FROM email_configs WHERE user_id = $1`, userID)
	var c domain.SenderConfig
	err := row.Scan(&c.ID, &c.UserID, &c.Provider, &c.Email, &c.Credential, &c.Host, &c.Port, &c.Secure, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pg.Exec(ctx, `DELETE FROM email_configs WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
