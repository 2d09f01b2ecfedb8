package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authmw "github.com/corvusHold/postal/internal/auth/middleware"
	"github.com/corvusHold/postal/internal/platform/validation"
	"github.com/corvusHold/postal/internal/queue/domain"
)

type Controller struct {
	repo        domain.Repository
	maxAttempts int
}

func New(repo domain.Repository, maxAttempts int) *Controller {
	return &Controller{repo: repo, maxAttempts: maxAttempts}
}

func (h *Controller) RegisterV1(g *echo.Group) {
	g.POST("/emails/bulk/enqueue", h.enqueue)
	g.GET("/emails/jobs/:id", h.getJob)
	g.POST("/emails/jobs/:id/cancel", h.cancelJob)
}

type enqueueReq struct {
	Recipients  string `json:"recipients" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	Message     string `json:"message" validate:"required"`
	Batched     bool   `json:"batched"`
	ScheduledAt string `json:"scheduled_at"`
}

type jobResp struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
	LastError   string `json:"last_error,omitempty"`
	ScheduledAt string `json:"scheduled_at"`
	CompletedAt string `json:"completed_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func toJobResp(j *domain.Job) jobResp {
	resp := jobResp{
		ID:          j.ID.String(),
		Status:      string(j.Status),
		Attempts:    j.Attempts,
		MaxAttempts: j.MaxAttempts,
		LastError:   j.LastError,
		ScheduledAt: j.ScheduledAt.UTC().Format(time.RFC3339),
		CreatedAt:   j.CreatedAt.UTC().Format(time.RFC3339),
	}
	if j.CompletedAt != nil {
		resp.CompletedAt = j.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *Controller) enqueue(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var req enqueueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}
	scheduledAt := time.Now().UTC()
	if req.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid scheduled_at, want RFC3339"})
		}
		scheduledAt = t.UTC()
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:          uuid.New(),
		UserID:      uid,
		Subject:     req.Subject,
		Message:     req.Message,
		Recipients:  req.Recipients,
		Batched:     req.Batched,
		Status:      domain.StatusPending,
		MaxAttempts: h.maxAttempts,
		ScheduledAt: scheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.Enqueue(c.Request().Context(), job); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not enqueue job"})
	}
	return c.JSON(http.StatusAccepted, toJobResp(job))
}

func (h *Controller) getJob(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	job, err := h.repo.GetByID(c.Request().Context(), uid, id)
	if errors.Is(err, domain.ErrJobNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load job"})
	}
	return c.JSON(http.StatusOK, toJobResp(job))
}

func (h *Controller) cancelJob(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	err = h.repo.Cancel(c.Request().Context(), uid, id)
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrNotCancellable):
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not cancel job"})
	}
	return c.NoContent(http.StatusNoContent)
}
