package templates

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	ctrl "github.com/corvusHold/postal/internal/templates/controller"
	"github.com/corvusHold/postal/internal/templates/domain"
	repo "github.com/corvusHold/postal/internal/templates/repository"
	svc "github.com/corvusHold/postal/internal/templates/service"
)

// Register wires the templates module and registers HTTP routes on the
// authenticated group. The service is returned so the dispatch module
// can resolve templates at send time.
func Register(g *echo.Group, pg *pgxpool.Pool) domain.Service {
	r := repo.New(pg)
	s := svc.New(r)
	c := ctrl.New(s)
	c.RegisterV1(g)
	return s
}
