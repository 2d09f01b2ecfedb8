package senderconfig

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	eventsdomain "github.com/corvusHold/postal/internal/events/domain"
	"github.com/corvusHold/postal/internal/platform/crypto"
	ctrl "github.com/corvusHold/postal/internal/senderconfig/controller"
	"github.com/corvusHold/postal/internal/senderconfig/domain"
	repo "github.com/corvusHold/postal/internal/senderconfig/repository"
	svc "github.com/corvusHold/postal/internal/senderconfig/service"
)

// Register wires the senderconfig module and registers HTTP routes on
// the authenticated group. The service is returned so the dispatch
// module can resolve configurations at send time.
func Register(g *echo.Group, pg *pgxpool.Pool, box *crypto.Box, pub eventsdomain.Publisher) domain.Service {
	r := repo.New(pg)
	s := svc.New(r, box)
	c := ctrl.New(s, pub)
	c.RegisterV1(g)
	return s
}
