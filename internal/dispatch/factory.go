package dispatch

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/corvusHold/postal/internal/config"
	"github.com/corvusHold/postal/internal/dispatch/cleanup"
	ctrl "github.com/corvusHold/postal/internal/dispatch/controller"
	"github.com/corvusHold/postal/internal/dispatch/domain"
	"github.com/corvusHold/postal/internal/dispatch/engine"
	repo "github.com/corvusHold/postal/internal/dispatch/repository"
	svc "github.com/corvusHold/postal/internal/dispatch/service"
	"github.com/corvusHold/postal/internal/dispatch/transport"
	eventsdomain "github.com/corvusHold/postal/internal/events/domain"
	"github.com/corvusHold/postal/internal/platform/ratelimit"
	senderdomain "github.com/corvusHold/postal/internal/senderconfig/domain"
)

// Register wires the dispatch module and registers HTTP routes on the
// authenticated group. The service is returned for the queue worker,
// which runs the same engine as its job body.
func Register(g *echo.Group, pg *pgxpool.Pool, cfg config.Config, log zerolog.Logger, senders senderdomain.Service, tpls domain.Templates, pub eventsdomain.Publisher, store ratelimit.Store) domain.Service {
	r := repo.New(pg)
	clean := cleanup.New(log)
	eng := engine.New(
		transport.NewFactory(cfg.SMTPTimeout),
		r,
		engine.TimeScheduler{},
		clean,
		log,
		cfg.SendPacing,
		cfg.BatchSize,
		cfg.BatchDelay,
	)
	s := svc.New(eng, r, senders, tpls, pub, clean, cfg.SendPacing, cfg.BatchSize, cfg.BatchDelay)

	bulkLimit := ratelimit.MiddlewareWithStore(ratelimit.Policy{
		Name:   "emails:bulk",
		Window: cfg.BulkQuotaWindow,
		Limit:  cfg.BulkQuotaLimit,
		Key:    ratelimit.KeyUserOrIP("emails:bulk"),
	}, store)

	c := ctrl.New(s, cfg.UploadDir, clean)
	c.RegisterV1(g, bulkLimit)
	return s
}
