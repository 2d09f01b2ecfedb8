package queue

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/corvusHold/postal/internal/config"
	dispatchdomain "github.com/corvusHold/postal/internal/dispatch/domain"
	ctrl "github.com/corvusHold/postal/internal/queue/controller"
	repo "github.com/corvusHold/postal/internal/queue/repository"
	"github.com/corvusHold/postal/internal/queue/worker"
)

// Register wires the queue module: HTTP routes for enqueue/status plus
// the background worker, which the caller starts.
func Register(g *echo.Group, pg *pgxpool.Pool, cfg config.Config, log zerolog.Logger, dispatch dispatchdomain.Service) *worker.Worker {
	r := repo.New(pg)
	c := ctrl.New(r, cfg.QueueMaxAttempts)
	c.RegisterV1(g)
	return worker.New(r, dispatch, cfg.QueuePollInterval, cfg.QueueLockTTL, log)
}
