package domain

import (
	"context"

	"github.com/google/uuid"
)

// SingleInput sends one email to one recipient.
type SingleInput struct {
	To          string
	Name        string
	Subject     string
	Message     string
	Attachments []Artifact
	TemplateID  *uuid.UUID
}

// BulkFileInput drives a bulk run from an uploaded recipient file.
type BulkFileInput struct {
	File        Artifact
	Subject     string
	Message     string
	Attachments []Artifact
	TemplateID  *uuid.UUID
	Batched     bool
}

// BulkTextInput drives a bulk run from pasted recipient text.
type BulkTextInput struct {
	Text        string
	Subject     string
	Message     string
	Attachments []Artifact
	TemplateID  *uuid.UUID
	Batched     bool
}

// BulkSummary is the response shape for bulk sends: counts, a capped
// error sample, and the paced wall-clock estimate.
type BulkSummary struct {
	Total         int         `json:"total"`
	Successful    int         `json:"successful"`
	Failed        int         `json:"failed"`
	EstimatedTime string      `json:"estimated_time"`
	Errors        []SendError `json:"errors,omitempty"`
	LogID         uuid.UUID   `json:"log_id"`
}

// LogPage is a paginated slice of a user's delivery logs.
type LogPage struct {
	Items      []*DeliveryLog
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// Templates resolves a stored template into (subject, message) and
// records the usage. Implemented by the templates module.
type Templates interface {
	Use(ctx context.Context, userID, templateID uuid.UUID) (subject, message string, err error)
}

// Service orchestrates sends: resolve configuration, extract
// recipients, run the engine, publish audit events.
type Service interface {
	SendSingle(ctx context.Context, userID uuid.UUID, in SingleInput) (RunResult, error)
	SendBulkFile(ctx context.Context, userID uuid.UUID, in BulkFileInput) (BulkSummary, error)
	SendBulkText(ctx context.Context, userID uuid.UUID, in BulkTextInput) (BulkSummary, error)
	Logs(ctx context.Context, userID uuid.UUID, page, pageSize int) (LogPage, error)
	GetLog(ctx context.Context, userID, id uuid.UUID) (*DeliveryLog, error)
}
