package controller

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authmw "github.com/corvusHold/postal/internal/auth/middleware"
	"github.com/corvusHold/postal/internal/dispatch/domain"
	svc "github.com/corvusHold/postal/internal/dispatch/service"
	"github.com/corvusHold/postal/internal/platform/validation"
	senderdomain "github.com/corvusHold/postal/internal/senderconfig/domain"
)

type Controller struct {
	svc       domain.Service
	uploadDir string
	clean     domain.Cleaner
}

func New(s domain.Service, uploadDir string, clean domain.Cleaner) *Controller {
	return &Controller{svc: s, uploadDir: uploadDir, clean: clean}
}

func (h *Controller) RegisterV1(g *echo.Group, bulkLimit echo.MiddlewareFunc) {
	g.POST("/emails/send", h.sendSingle)
	g.POST("/emails/bulk/file", h.sendBulkFile, bulkLimit)
	g.POST("/emails/bulk/text", h.sendBulkText, bulkLimit)
	g.GET("/emails/logs", h.listLogs)
	g.GET("/emails/logs/:id", h.getLog)
}

type sendSingleReq struct {
	To         string  `json:"to" validate:"required,email"`
	Name       string  `json:"name"`
	Subject    string  `json:"subject" validate:"required"`
	Message    string  `json:"message" validate:"required"`
	TemplateID *string `json:"template_id"`
}

type sendBulkTextReq struct {
	Recipients string  `json:"recipients" validate:"required"`
	Subject    string  `json:"subject"`
	Message    string  `json:"message"`
	TemplateID *string `json:"template_id"`
	Batched    bool    `json:"batched"`
}

func parseTemplateID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (h *Controller) sendSingle(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var req sendSingleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}
	tid, err := parseTemplateID(req.TemplateID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid template_id"})
	}
	res, err := h.svc.SendSingle(c.Request().Context(), uid, domain.SingleInput{
		To:         req.To,
		Name:       req.Name,
		Subject:    req.Subject,
		Message:    req.Message,
		TemplateID: tid,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	if res.Failed > 0 {
		body := map[string]any{"status": "failed"}
		if len(res.Errors) > 0 {
			body["error"] = res.Errors[0].Error
		}
		return c.JSON(http.StatusBadGateway, body)
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "sent", "log_id": res.LogID})
}

func (h *Controller) sendBulkFile(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "recipient file is required"})
	}
	file, err := h.saveUpload(fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not store upload"})
	}
	// once the recipient file is on disk, every failure exit owns its
	// removal; the service takes over that duty on success
	attachments, err := h.saveAttachments(c)
	if err != nil {
		h.discard(file, attachments)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not store upload"})
	}
	tid, err := parseTemplateID(formPtr(c, "template_id"))
	if err != nil {
		h.discard(file, attachments)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid template_id"})
	}

	sum, err := h.svc.SendBulkFile(c.Request().Context(), uid, domain.BulkFileInput{
		File:        file,
		Subject:     c.FormValue("subject"),
		Message:     c.FormValue("message"),
		Attachments: attachments,
		TemplateID:  tid,
		Batched:     c.FormValue("batched") == "true",
	})
	if err != nil {
		return h.mapError(c, err)
	}
	// the run has already completed by the time we respond; 202 keeps
	// the long-request contract callers poll logs against
	return c.JSON(http.StatusAccepted, sum)
}

func (h *Controller) sendBulkText(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	var req sendBulkTextReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err))
	}
	tid, err := parseTemplateID(req.TemplateID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid template_id"})
	}
	sum, err := h.svc.SendBulkText(c.Request().Context(), uid, domain.BulkTextInput{
		Text:       req.Recipients,
		Subject:    req.Subject,
		Message:    req.Message,
		TemplateID: tid,
		Batched:    req.Batched,
	})
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusAccepted, sum)
}

type ledgerRowResp struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	SentAt string `json:"sent_at,omitempty"`
	Error  string `json:"error,omitempty"`
}

type logResp struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	IsBulk     bool            `json:"is_bulk"`
	Status     string          `json:"status"`
	Recipients []ledgerRowResp `json:"recipients"`
	SentAt     string          `json:"sent_at,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

func toLogResp(d *domain.DeliveryLog) logResp {
	rows := make([]ledgerRowResp, 0, len(d.Recipients))
	for _, r := range d.Recipients {
		row := ledgerRowResp{Email: r.Email, Status: string(r.Status), Error: r.Error}
		if r.SentAt != nil {
			row.SentAt = r.SentAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	resp := logResp{
		ID:         d.ID.String(),
		Subject:    d.Subject,
		IsBulk:     d.IsBulk,
		Status:     string(d.Status),
		Recipients: rows,
		CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if d.SentAt != nil {
		resp.SentAt = d.SentAt.UTC().Format(time.RFC3339)
	}
	return resp
}

type listLogsResp struct {
	Items      []logResp `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

func (h *Controller) listLogs(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	res, err := h.svc.Logs(c.Request().Context(), uid, page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not list logs"})
	}
	items := make([]logResp, 0, len(res.Items))
	for _, d := range res.Items {
		items = append(items, toLogResp(d))
	}
	return c.JSON(http.StatusOK, listLogsResp{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	})
}

func (h *Controller) getLog(c echo.Context) error {
	uid, ok := authmw.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	d, err := h.svc.GetLog(c.Request().Context(), uid, id)
	if err != nil || d == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	return c.JSON(http.StatusOK, toLogResp(d))
}

func (h *Controller) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, senderdomain.ErrNotConfigured):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email configuration not found, set up a sender first"})
	case errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrNoRecipients),
		errors.Is(err, domain.ErrTransportBuild),
		errors.Is(err, svc.ErrInvalidRecipient):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrPersistence):
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not persist delivery log"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "send failed"})
}

func formPtr(c echo.Context, key string) *string {
	v := c.FormValue(key)
	if v == "" {
		return nil
	}
	return &v
}

// saveUpload copies a multipart part into the upload dir so the run
// owns a stable path it can delete afterwards.
func (h *Controller) saveUpload(fh *multipart.FileHeader) (domain.Artifact, error) {
	src, err := fh.Open()
	if err != nil {
		return domain.Artifact{}, err
	}
	defer src.Close()

	dst, err := os.CreateTemp(h.uploadDir, "postal-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return domain.Artifact{}, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return domain.Artifact{}, err
	}
	return domain.Artifact{
		Name:     fh.Filename,
		Path:     dst.Name(),
		MIMEType: fh.Header.Get("Content-Type"),
	}, nil
}

// saveAttachments stores each attachment part. On failure it returns
// the artifacts saved so far so the caller can discard them.
func (h *Controller) saveAttachments(c echo.Context) ([]domain.Artifact, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	return h.saveAll(form.File["attachments"])
}

func (h *Controller) saveAll(fhs []*multipart.FileHeader) ([]domain.Artifact, error) {
	var out []domain.Artifact
	for _, fh := range fhs {
		a, err := h.saveUpload(fh)
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (h *Controller) discard(file domain.Artifact, attachments []domain.Artifact) {
	paths := make([]string, 0, len(attachments)+1)
	paths = append(paths, file.Path)
	for _, a := range attachments {
		paths = append(paths, a.Path)
	}
	h.clean.Remove(paths...)
}
