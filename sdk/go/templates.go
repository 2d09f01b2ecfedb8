package postal

import (
	"context"
	"net/http"
	"net/url"
)

// TemplateRequest creates a reusable email template.
type TemplateRequest struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
}

// Template is a stored reusable email template.
type Template struct {
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

// CreateTemplate stores a new template for the caller.
func (c *Client) CreateTemplate(ctx context.Context, req TemplateRequest) (*Template, error) {
	var out Template
	if err := c.do(ctx, http.MethodPost, "/api/v1/templates", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTemplates returns the caller's templates, optionally filtered by
// category.
func (c *Client) ListTemplates(ctx context.Context, category string) ([]Template, error) {
	path := "/api/v1/templates"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var out struct {
		Templates []Template `json:"templates"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Templates, nil
}

// GetTemplate returns one template by id.
func (c *Client) GetTemplate(ctx context.Context, id string) (*Template, error) {
	var out Template
	if err := c.do(ctx, http.MethodGet, "/api/v1/templates/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTemplate removes one template by id.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/templates/"+url.PathEscape(id), nil, nil)
}
