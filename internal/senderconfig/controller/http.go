package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/corvusHold/postal/internal/auth/middleware"
	eventsdomain "github.com/corvusHold/postal/internal/events/domain"
	"github.com/corvusHold/postal/internal/platform/validation"
	"github.com/corvusHold/postal/internal/senderconfig/domain"
)

type Controller struct {
	svc domain.Service
	pub eventsdomain.Publisher
}

func New(svc domain.Service, pub eventsdomain.Publisher) *Controller {
	return &Controller{svc: svc, pub: pub}
}

func (h *Controller) RegisterV1(g *echo.Group) {
	g.POST("/email-config", h.createConfig)
	g.GET("/email-config", h.getConfig)
	g.DELETE("/email-config", h.deleteConfig)
}

type createConfigReq struct {
	Provider string `json:"provider" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Secure   bool   `json:"secure"`
}

type configResp struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	Email     string `json:"email"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port"`
	Secure    bool   `json:"secure"`
	CreatedAt string `json:"created_at"`
}

func toConfigResp(c *domain.SenderConfig) configResp {
	return configResp{
		ID:        c.ID.String(),
		Provider:  c.Provider,
		Email:     c.Email,
		Host:      c.Host,
		Port:      c.Port,
		Secure:    c.Secure,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Controller) createConfig(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var req createConfigReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}
	cfg, err := h.svc.Create(c.Request().Context(), domain.CreateInput{
		UserID:   uid,
		Provider: req.Provider,
		Email:    req.Email,
		Password: req.Password,
		Host:     req.Host,
		Port:     req.Port,
		Secure:   req.Secure,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyConfigured):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUnknownProvider), errors.Is(err, domain.ErrHostRequired):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not save configuration"})
	}
	_ = h.pub.Publish(c.Request().Context(), eventsdomain.Event{
		Type:       "config.created",
		UserID:     uid,
		TargetType: "email_config",
		TargetID:   cfg.ID.String(),
		Meta:       map[string]string{"provider": cfg.Provider},
		Time:       time.Now().UTC(),
	})
	return c.JSON(http.StatusCreated, toConfigResp(cfg))
}

func (h *Controller) getConfig(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	cfg, err := h.svc.Get(c.Request().Context(), uid)
	if errors.Is(err, domain.ErrNotConfigured) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load configuration"})
	}
	return c.JSON(http.StatusOK, toConfigResp(cfg))
}

func (h *Controller) deleteConfig(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	err := h.svc.Delete(c.Request().Context(), uid)
	if errors.Is(err, domain.ErrNotConfigured) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not delete configuration"})
	}
	_ = h.pub.Publish(c.Request().Context(), eventsdomain.Event{
		Type:       "config.deleted",
		UserID:     uid,
		TargetType: "email_config",
		Time:       time.Now().UTC(),
	})
	return c.NoContent(http.StatusNoContent)
}
