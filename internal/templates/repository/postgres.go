package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvusHold/postal/internal/templates/domain"
)

type PostgresRepository struct {
	pg *pgxpool.Pool
}

func New(pg *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pg: pg}
}

const cols = "id, user_id, name, subject, message, category, is_active, usage_count, last_used_at, created_at, updated_at"

func (r *PostgresRepository) Create(ctx context.Context, t *domain.Template) error {
	_, err := r.pg.Exec(ctx, `
		INSERT INTO email_templates (id, user_id, name, subject, message, category, is_active, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.UserID, t.Name, t.Subject, t.Message, t.Category, t.IsActive, t.UsageCount, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Template, error) {
	row := r.pg.QueryRow(ctx, `SELECT `+cols+` FROM email_templates WHERE id = $1 AND user_id = $2`, id, userID)
	return scanTemplate(row)
}

func (r *PostgresRepository) GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Template, error) {
	row := r.pg.QueryRow(ctx, `SELECT `+cols+` FROM email_templates WHERE user_id = $1 AND name = $2`, userID, name)
	return scanTemplate(row)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, category string) ([]*domain.Template, error) {
	rows, err := r.pg.Query(ctx, `
		SELECT `+cols+` FROM email_templates
		WHERE user_id = $1 AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC`, userID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pg.Exec(ctx, `DELETE FROM email_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pg.Exec(ctx, `
		UPDATE email_templates SET usage_count = usage_count + 1, last_used_at = now(), updated_at = now()
		WHERE id = $1`, id)
	return err
}

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var t domain.Template
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Subject, &t.Message, &t.Category, &t.IsActive, &t.UsageCount, &t.LastUsedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
