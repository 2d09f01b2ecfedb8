package postal

import (
	"context"
	"net/http"
)

// EmailConfigRequest registers the caller's sender configuration.
type EmailConfigRequest struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
}

// EmailConfig is the stored sender configuration. The credential is
// never returned by the API.
type EmailConfig struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	Email     string `json:"email"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port"`
	Secure    bool   `json:"secure"`
	CreatedAt string `json:"created_at"`
}

// CreateEmailConfig registers the sender configuration for the caller.
func (c *Client) CreateEmailConfig(ctx context.Context, req EmailConfigRequest) (*EmailConfig, error) {
	var out EmailConfig
	if err := c.do(ctx, http.MethodPost, "/api/v1/email-config", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEmailConfig returns the caller's sender configuration.
func (c *Client) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	var out EmailConfig
	if err := c.do(ctx, http.MethodGet, "/api/v1/email-config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEmailConfig removes the caller's sender configuration.
func (c *Client) DeleteEmailConfig(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/email-config", nil, nil)
}
