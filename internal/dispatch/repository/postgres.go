package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvusHold/postal/internal/dispatch/domain"
)

// PostgresRepository stores delivery logs with the recipient ledger as
// a JSONB document, rewritten whole on every update. One engine
// instance owns one run, so there is no concurrent writer per row.
type PostgresRepository struct {
	pg *pgxpool.Pool
}

func New(pg *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pg: pg}
}

func (r *PostgresRepository) Create(ctx context.Context, d *domain.DeliveryLog) error {
	recipients, err := json.Marshal(d.Recipients)
	if err != nil {
		return err
	}
	_, err = r.pg.Exec(ctx, `
		INSERT INTO delivery_logs (id, user_id, config_id, subject, is_bulk, recipients, status, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.UserID, d.ConfigID, d.Subject, d.IsBulk, recipients, string(d.Status), d.SentAt, d.CreatedAt,
	)
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, d *domain.DeliveryLog) error {
	recipients, err := json.Marshal(d.Recipients)
	if err != nil {
		return err
	}
	_, err = r.pg.Exec(ctx, `
		UPDATE delivery_logs SET recipients = $2, status = $3, sent_at = $4 WHERE id = $1`,
		d.ID, recipients, string(d.Status), d.SentAt,
	)
	return err
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.DeliveryLog, error) {
	row := r.pg.QueryRow(ctx, `
		SELECT id, user_id, config_id, subject, is_bulk, recipients, status, sent_at, created_at
		FROM delivery_logs WHERE id = $1 AND user_id = $2`, id, userID)
	return scanLog(row)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*domain.DeliveryLog, int64, error) {
	rows, err := r.pg.Query(ctx, `
		SELECT id, user_id, config_id, subject, is_bulk, recipients, status, sent_at, created_at
		FROM delivery_logs WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.DeliveryLog
	for rows.Next() {
		d, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.pg.QueryRow(ctx, `SELECT COUNT(*) FROM delivery_logs WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (*domain.DeliveryLog, error) {
	var (
		d          domain.DeliveryLog
		recipients []byte
		status     string
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.ConfigID, &d.Subject, &d.IsBulk, &recipients, &status, &d.SentAt, &d.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recipients, &d.Recipients); err != nil {
		return nil, err
	}
	d.Status = domain.Status(status)
	return &d, nil
}
