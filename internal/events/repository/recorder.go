package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvusHold/postal/internal/events/domain"
)

// Recorder persists audit events to the audit_logs table.
type Recorder struct {
	pg *pgxpool.Pool
}

func NewRecorder(pg *pgxpool.Pool) *Recorder {
	return &Recorder{pg: pg}
}

func (r *Recorder) Publish(ctx context.Context, e domain.Event) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}
	_, err = r.pg.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, target_type, target_id, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), e.UserID, e.Type, e.TargetType, e.TargetID, meta, e.Time,
	)
	return err
}
