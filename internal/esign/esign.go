// Package esign drives the e-signature provider (Zoho Sign). A signature
// request is created from the proposal PDF, signature and date fields are
// stamped onto the last page, and the request is submitted to the customer.
// Requests run under the owning sales rep's principal so the signed document
// lands in the rep's account; reps without a provisioned identity fall back
// to the shared service principal.
package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atlaspest/salesbridge/internal/auth"
)

// principalPrefix namespaces sales-rep signing credentials in the
// credential store.
const principalPrefix = "esign:"

// Request is a created signature request.
type Request struct {
	RequestID  string
	DocumentID string
	TotalPages int
}

// Signer is the customer recipient of a signature request.
type Signer struct {
	Name  string
	Email string
	Phone string
}

type Client struct {
	client           *auth.Client
	http             *http.Client
	baseURL          string
	defaultPrincipal string
	logger           *slog.Logger
}

func New(client *auth.Client, config *Config, logger *slog.Logger) *Client {
	return &Client{
		client:           client,
		http:             &http.Client{Timeout: 120 * time.Second},
		baseURL:          config.BaseURL,
		defaultPrincipal: config.DefaultPrincipal,
		logger:           logger.With("system", "esign"),
	}
}

// PrincipalFor returns the signing principal for a sales rep, falling back
// to the shared service principal when the rep has none provisioned.
func (c *Client) PrincipalFor(ctx context.Context, salesRepEmail string) string {
	key := principalPrefix + strings.ToLower(salesRepEmail)
	return c.client.ResolvePrincipal(ctx, key, c.defaultPrincipal)
}

// CreateRequestFromURL downloads the proposal PDF from docURL and creates a
// signature request named name around it.
func (c *Client) CreateRequestFromURL(ctx context.Context, principal, name, docURL string) (*Request, error) {
	document, err := c.download(ctx, docURL)
	if err != nil {
		return nil, fmt.Errorf("esign: fetch document: %w", err)
	}

	data, err := json.Marshal(map[string]any{
		"requests": map[string]any{
			"request_name": name,
		},
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	file, err := form.CreateFormFile("file", "proposal.pdf")
	if err != nil {
		return nil, err
	}
	if _, err := file.Write(document); err != nil {
		return nil, err
	}
	if err := form.WriteField("data", string(data)); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/requests",
		bytes.NewReader(buf.Bytes()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.client.Do(ctx, principal, req)
	if err != nil {
		return nil, fmt.Errorf("esign: create request: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Requests struct {
			RequestID   string `json:"request_id"`
			DocumentIDs []struct {
				DocumentID string `json:"document_id"`
				TotalPages int    `json:"total_pages"`
			} `json:"document_ids"`
		} `json:"requests"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("esign: decode create response: %w", err)
	}
	if payload.Requests.RequestID == "" || len(payload.Requests.DocumentIDs) == 0 {
		return nil, fmt.Errorf("esign: create response missing request or document id")
	}

	doc := payload.Requests.DocumentIDs[0]
	return &Request{
		RequestID:  payload.Requests.RequestID,
		DocumentID: doc.DocumentID,
		TotalPages: doc.TotalPages,
	}, nil
}

// AddSignatureFields stamps a signature field and a sign-date field for the
// signer onto the given zero-based page of the document.
func (c *Client) AddSignatureFields(ctx context.Context, principal, requestID, documentID string, signer Signer, page int) error {
	fields := []map[string]any{
		{
			"field_type_name": "Signature",
			"field_category":  "Signature",
			"document_id":     documentID,
			"page_no":         page,
			"is_mandatory":    true,
			"x_coord":         60,
			"y_coord":         650,
			"abs_width":       200,
			"abs_height":      36,
		},
		{
			"field_type_name": "Sign Date",
			"field_category":  "Date",
			"document_id":     documentID,
			"page_no":         page,
			"is_mandatory":    true,
			"x_coord":         320,
			"y_coord":         650,
			"abs_width":       120,
			"abs_height":      36,
			"date_format":     "MM/dd/yyyy",
		},
	}

	payload := map[string]any{
		"requests": map[string]any{
			"actions": []map[string]any{
				{
					"action_type":           "SIGN",
					"recipient_name":        signer.Name,
					"recipient_email":       signer.Email,
					"recipient_phonenumber": signer.Phone,
					"verify_recipient":      false,
					"fields":                fields,
				},
			},
		},
	}

	return c.form(ctx, principal, http.MethodPut, "/requests/"+requestID, payload, nil)
}

// SubmitForSignature sends the prepared request to its recipients.
func (c *Client) SubmitForSignature(ctx context.Context, principal, requestID string) error {
	return c.form(ctx, principal, http.MethodPost, "/requests/"+requestID+"/submit", nil, nil)
}

// SendReminder nudges recipients who have not signed yet.
func (c *Client) SendReminder(ctx context.Context, principal, requestID string) error {
	return c.form(ctx, principal, http.MethodPost, "/requests/"+requestID+"/remind", nil, nil)
}

// DownloadPDF fetches the request's current PDF rendition. Before signing
// this is the prepared proposal; after completion it carries the signatures.
func (c *Client) DownloadPDF(ctx context.Context, principal, requestID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+"/requests/"+requestID+"/pdf", nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(ctx, principal, req)
	if err != nil {
		return nil, fmt.Errorf("esign: download pdf: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// form issues a urlencoded request with an optional data payload, the shape
// the provider expects for request mutation endpoints.
func (c *Client) form(ctx context.Context, principal, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		values := url.Values{"data": {string(data)}}
		body = strings.NewReader(values.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(ctx, principal, req)
	if err != nil {
		return fmt.Errorf("esign: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) download(ctx context.Context, docURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document url status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
