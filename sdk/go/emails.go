package postal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SendSingleRequest sends one email to one recipient.
type SendSingleRequest struct {
	To         string `json:"to"`
	Name       string `json:"name,omitempty"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	TemplateID string `json:"template_id,omitempty"`
}

// SendSingleResponse is the result of a single send.
type SendSingleResponse struct {
	Status string `json:"status"`
	LogID  string `json:"log_id"`
}

// SendBulkTextRequest drives a bulk run from pasted recipient text.
type SendBulkTextRequest struct {
	Recipients string `json:"recipients"`
	Subject    string `json:"subject,omitempty"`
	Message    string `json:"message,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
	Batched    bool   `json:"batched,omitempty"`
}

// SendError is one failed recipient from a bulk run's error sample.
type SendError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// BulkSummary summarizes a completed bulk run.
type BulkSummary struct {
	Total         int         `json:"total"`
	Successful    int         `json:"successful"`
	Failed        int         `json:"failed"`
	EstimatedTime string      `json:"estimated_time"`
	Errors        []SendError `json:"errors,omitempty"`
	LogID         string      `json:"log_id"`
}

// LedgerRow is one recipient's outcome inside a delivery log.
type LedgerRow struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	SentAt string `json:"sent_at,omitempty"`
	Error  string `json:"error,omitempty"`
}

// DeliveryLog is one stored dispatch run.
type DeliveryLog struct {
	ID         string      `json:"id"`
	Subject    string      `json:"subject"`
	IsBulk     bool        `json:"is_bulk"`
	Status     string      `json:"status"`
	Recipients []LedgerRow `json:"recipients"`
	SentAt     string      `json:"sent_at,omitempty"`
	CreatedAt  string      `json:"created_at"`
}

// LogPage is a page of delivery logs, newest first.
type LogPage struct {
	Items      []DeliveryLog `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// SendSingle sends one email.
func (c *Client) SendSingle(ctx context.Context, req SendSingleRequest) (*SendSingleResponse, error) {
	var out SendSingleResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/emails/send", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendBulkText runs a bulk send from pasted recipient text.
func (c *Client) SendBulkText(ctx context.Context, req SendBulkTextRequest) (*BulkSummary, error) {
	var out BulkSummary
	if err := c.do(ctx, http.MethodPost, "/api/v1/emails/bulk/text", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLogs returns a page of the caller's delivery logs.
func (c *Client) ListLogs(ctx context.Context, page, pageSize int) (*LogPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if pageSize > 0 {
		q.Set("page_size", fmt.Sprint(pageSize))
	}
	path := "/api/v1/emails/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out LogPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLog returns one delivery log by id.
func (c *Client) GetLog(ctx context.Context, id string) (*DeliveryLog, error) {
	var out DeliveryLog
	if err := c.do(ctx, http.MethodGet, "/api/v1/emails/logs/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
