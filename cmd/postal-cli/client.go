package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PostalClient is a thin HTTP client over the dispatch API.
type PostalClient struct {
	BaseURL string
	Token   string
}

func newClient() *PostalClient {
	return &PostalClient{BaseURL: apiURL, Token: apiToken}
}

func (c *PostalClient) do(method, path string, body any, out any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.BaseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func (c *PostalClient) Health() error {
	var out map[string]any
	if err := c.do(http.MethodGet, "/healthz", nil, &out); err != nil {
		return err
	}
	printJSON(out)
	return nil
}

type sendTextReq struct {
	Recipients string `json:"recipients"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
}

func (c *PostalClient) SendText(recipients, subject, message string) error {
	var out map[string]any
	err := c.do(http.MethodPost, "/api/v1/emails/bulk/text", sendTextReq{
		Recipients: recipients,
		Subject:    subject,
		Message:    message,
	}, &out)
	if err != nil {
		return err
	}
	printJSON(out)
	return nil
}

type logRow struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	Status     string `json:"status"`
	Recipients []struct {
		Status string `json:"status"`
	} `json:"recipients"`
	CreatedAt string `json:"created_at"`
}

func (c *PostalClient) ListLogs(page int) error {
	var out struct {
		Items []logRow `json:"items"`
		Total int64    `json:"total"`
		Page  int      `json:"page"`
	}
	path := fmt.Sprintf("/api/v1/emails/logs?page=%d", page)
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return err
	}
	if outputFmt == "json" {
		printJSON(out)
		return nil
	}
	fmt.Printf("%-36s  %-24s  %6s  %6s  %6s  %-8s  %s\n", "ID", "SUBJECT", "TOTAL", "OK", "FAIL", "STATUS", "CREATED")
	for _, l := range out.Items {
		var ok, fail int
		for _, r := range l.Recipients {
			switch r.Status {
			case "success":
				ok++
			case "failed":
				fail++
			}
		}
		subject := l.Subject
		if len(subject) > 24 {
			subject = subject[:21] + "..."
		}
		fmt.Printf("%-36s  %-24s  %6d  %6d  %6d  %-8s  %s\n", l.ID, subject, len(l.Recipients), ok, fail, l.Status, l.CreatedAt)
	}
	fmt.Printf("\n%d log(s), page %d\n", out.Total, out.Page)
	return nil
}

type templateRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Usage    int    `json:"usage_count"`
	IsActive bool   `json:"is_active"`
}

func (c *PostalClient) ListTemplates(category string) error {
	var out struct {
		Templates []templateRow `json:"templates"`
	}
	path := "/api/v1/templates"
	if category != "" {
		path += "?category=" + category
	}
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return err
	}
	if outputFmt == "json" {
		printJSON(out)
		return nil
	}
	fmt.Printf("%-36s  %-20s  %-14s  %6s  %s\n", "ID", "NAME", "CATEGORY", "USED", "ACTIVE")
	for _, t := range out.Templates {
		fmt.Printf("%-36s  %-20s  %-14s  %6d  %v\n", t.ID, t.Name, t.Category, t.Usage, t.IsActive)
	}
	return nil
}
