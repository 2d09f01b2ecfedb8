package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authmw "github.com/corvusHold/postal/internal/auth/middleware"
	"github.com/corvusHold/postal/internal/platform/validation"
	"github.com/corvusHold/postal/internal/templates/domain"
)

type Controller struct {
	svc domain.Service
}

func New(svc domain.Service) *Controller {
	return &Controller{svc: svc}
}

func (h *Controller) RegisterV1(g *echo.Group) {
	g.POST("/templates", h.createTemplate)
	g.GET("/templates", h.listTemplates)
	g.GET("/templates/:id", h.getTemplate)
	g.DELETE("/templates/:id", h.deleteTemplate)
}

type createTemplateReq struct {
	Name     string `json:"name" validate:"required,max=120"`
	Subject  string `json:"subject" validate:"required"`
	Message  string `json:"message" validate:"required"`
	Category string `json:"category"`
}

type templateResp struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	Category   string `json:"category"`
	IsActive   bool   `json:"is_active"`
	UsageCount int    `json:"usage_count"`
	LastUsedAt string `json:"last_used_at,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toTemplateResp(t *domain.Template) templateResp {
	resp := templateResp{
		ID:         t.ID.String(),
		Name:       t.Name,
		Subject:    t.Subject,
		Message:    t.Message,
		Category:   t.Category,
		IsActive:   t.IsActive,
		UsageCount: t.UsageCount,
		CreatedAt:  t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.LastUsedAt != nil {
		resp.LastUsedAt = t.LastUsedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *Controller) createTemplate(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var req createTemplateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}
	t, err := h.svc.Create(c.Request().Context(), domain.CreateInput{
		UserID:   uid,
		Name:     req.Name,
		Subject:  req.Subject,
		Message:  req.Message,
		Category: req.Category,
	})
	switch {
	case errors.Is(err, domain.ErrNameTaken):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCategory):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not save template"})
	}
	return c.JSON(http.StatusCreated, toTemplateResp(t))
}

func (h *Controller) listTemplates(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	list, err := h.svc.List(c.Request().Context(), uid, c.QueryParam("category"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not list templates"})
	}
	out := make([]templateResp, 0, len(list))
	for _, t := range list {
		out = append(out, toTemplateResp(t))
	}
	return c.JSON(http.StatusOK, map[string]any{"templates": out})
}

func (h *Controller) getTemplate(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid template id"})
	}
	t, err := h.svc.Get(c.Request().Context(), uid, id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load template"})
	}
	return c.JSON(http.StatusOK, toTemplateResp(t))
}

func (h *Controller) deleteTemplate(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid template id"})
	}
	err = h.svc.Delete(c.Request().Context(), uid, id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not delete template"})
	}
	return c.NoContent(http.StatusNoContent)
}
