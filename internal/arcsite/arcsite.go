// Package arcsite manages design projects in ArcSite. A project is created
// when an appointment is scheduled and carries everything the drawing team
// needs on site: customer contact, work-site address, and the sales rep.
package arcsite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Customer is the project's customer contact block.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// WorkSiteAddress locates the job site.
type WorkSiteAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code"`
}

// SalesRep identifies the rep assigned to the project.
type SalesRep struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Project is a created or fetched ArcSite project.
type Project struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Customer        Customer        `json:"customer"`
	WorkSiteAddress WorkSiteAddress `json:"work_site_address"`
	SalesRep        SalesRep        `json:"sales_rep"`
}

// ProjectSpec is the payload for project creation and update.
type ProjectSpec struct {
	Name            string          `json:"name"`
	Owner           string          `json:"owner,omitempty"`
	Customer        Customer        `json:"customer"`
	WorkSiteAddress WorkSiteAddress `json:"work_site_address"`
	SalesRep        SalesRep        `json:"sale_rep"`
}

type Client struct {
	http    *http.Client
	baseURL string
	token   string
	owner   string
	logger  *slog.Logger
}

func New(config *Config, logger *slog.Logger) *Client {
	return &Client{
		http:    &http.Client{Timeout: 60 * time.Second},
		baseURL: config.BaseURL,
		token:   config.Token,
		owner:   config.Owner,
		logger:  logger.With("system", "arcsite"),
	}
}

// CreateProject creates a project owned by the configured account.
// A 400 response naming an existing project name maps to ErrDuplicateName.
func (c *Client) CreateProject(ctx context.Context, spec ProjectSpec) (*Project, error) {
	spec.Owner = c.owner

	var project Project
	if err := c.do(ctx, http.MethodPost, "/projects", spec, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject replaces the project's customer, address, and rep details.
func (c *Client) UpdateProject(ctx context.Context, id string, spec ProjectSpec) error {
	return c.do(ctx, http.MethodPut, "/projects/"+id, spec, nil)
}

// GetProject fetches a project by id.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+id, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("arcsite: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

		if resp.StatusCode == http.StatusBadRequest && isDuplicateName(raw) {
			return ErrDuplicateName
		}
		return fmt.Errorf("arcsite: %s %s status %d: %s", method, path, resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// isDuplicateName inspects a 400 body for the upstream duplicate-name
// message. The message field is preferred but a raw substring match covers
// non-JSON error bodies too.
func isDuplicateName(raw []byte) bool {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return strings.Contains(payload.Message, "project name already exists")
	}
	return strings.Contains(string(raw), "project name already exists")
}
