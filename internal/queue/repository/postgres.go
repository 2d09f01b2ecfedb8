package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvusHold/postal/internal/queue/domain"
)

type PostgresRepository struct {
	pg *pgxpool.Pool
}

func New(pg *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pg: pg}
}

func (r *PostgresRepository) Enqueue(ctx context.Context, j *domain.Job) error {
	_, err := r.pg.Exec(ctx, `
		INSERT INTO email_queue (id, user_id, subject, message, recipients, batched, status, attempts, max_attempts, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		j.ID, j.UserID, j.Subject, j.Message, j.Recipients, j.Batched, string(j.Status), j.Attempts, j.MaxAttempts, j.ScheduledAt, j.CreatedAt, j.UpdatedAt,
	)
	return err
}

// ClaimNext uses FOR UPDATE SKIP LOCKED so concurrent workers never
// claim the same row. A processing job whose locked_until has passed is
// treated as abandoned and reclaimed.
func (r *PostgresRepository) ClaimNext(ctx context.Context, lockTTL time.Duration) (*domain.Job, error) {
	row := r.pg.QueryRow(ctx, `
		UPDATE email_queue SET
			status = 'processing',
			attempts = attempts + 1,
			locked_until = now() + $1,
			updated_at = now()
		WHERE id = (
			SELECT id FROM email_queue
			WHERE (status = 'pending' AND scheduled_at <= now())
			   OR (status = 'processing' AND locked_until < now())
			ORDER BY scheduled_at, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, user_id, subject, message, recipients, batched, status, attempts, max_attempts, last_error, scheduled_at, locked_until, created_at, updated_at, completed_at`,
		lockTTL,
	)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

func (r *PostgresRepository) Complete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pg.Exec(ctx, `
		UPDATE email_queue SET status = 'completed', locked_until = NULL, completed_at = now(), updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *PostgresRepository) Fail(ctx context.Context, id uuid.UUID, errText string) (bool, error) {
	row := r.pg.QueryRow(ctx, `
		UPDATE email_queue SET
			status = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'pending' END,
			scheduled_at = CASE WHEN attempts >= max_attempts THEN scheduled_at ELSE now() + interval '1 minute' * attempts END,
			last_error = $2,
			locked_until = NULL,
			updated_at = now()
		WHERE id = $1
		RETURNING status`, id, errText)
	var status string
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrJobNotFound
		}
		return false, err
	}
	return status == string(domain.StatusFailed), nil
}

func (r *PostgresRepository) Cancel(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pg.Exec(ctx, `
		UPDATE email_queue SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, gerr := r.GetByID(ctx, userID, id); gerr != nil {
			return gerr
		}
		return domain.ErrNotCancellable
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Job, error) {
	row := r.pg.QueryRow(ctx, `
		SELECT id, user_id, subject, message, recipients, batched, status, attempts, max_attempts, last_error, scheduled_at, locked_until, created_at, updated_at, completed_at
		FROM email_queue WHERE id = $1 AND user_id = $2`, id, userID)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	return j, err
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		j         domain.Job
		status    string
		lastError *string
	)
	err := row.Scan(&j.ID, &j.UserID, &j.Subject, &j.Message, &j.Recipients, &j.Batched, &status, &j.Attempts, &j.MaxAttempts, &lastError, &j.ScheduledAt, &j.LockedUntil, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	j.Status = domain.Status(status)
	if lastError != nil {
		j.LastError = *lastError
	}
	return &j, nil
}
