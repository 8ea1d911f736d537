// Package fieldservice manages customers in the field-service system
// (PestRoutes). The API authenticates every call with a token/key pair
// passed as query parameters and wraps results in per-entity envelopes.
package fieldservice

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
	"time"
)

// CreateCustomerCommand carries everything needed to open a commercial
// customer account.
type CreateCustomerCommand struct {
	FirstName   string
	LastName    string
	CompanyName string
	Street      string
	City        string
	State       string
	Zip         string
	Phone       string
	Email       string
	MultiUnit   bool
}

// Customer is the field-service view of a customer account.
type Customer struct {
	ID          string `json:"customerID"`
	FirstName   string `json:"fname"`
	LastName    string `json:"lname"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Zip         string `json:"zip"`
	Email       string `json:"email"`
}

// Appointment is a scheduled or completed service visit.
type Appointment struct {
	ID         string `json:"appointmentID"`
	CustomerID string `json:"customerID"`
	Date       string `json:"date"`
	Status     string `json:"status"`
}

type Client struct {
	http      *http.Client
	baseURL   string
	authToken string
	authKey   string
	logger    *slog.Logger
}

func New(config *Config, logger *slog.Logger) *Client {
	return &Client{
		http:      &http.Client{Timeout: 120 * time.Second},
		baseURL:   config.BaseURL,
		authToken: config.AuthToken,
		authKey:   config.AuthKey,
		logger:    logger.With("system", "fieldservice"),
	}
}

// CreateCustomer opens a commercial customer account and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, cmd CreateCustomerCommand) (string, error) {
	multiUnit := "0"
	if cmd.MultiUnit {
		multiUnit = "1"
	}

	return c.create(ctx, "/customer/create", map[string]string{
		"fname":             cmd.FirstName,
		"lname":             cmd.LastName,
		"companyName":       cmd.CompanyName,
		"address":           cmd.Street,
		"city":              cmd.City,
		"state":             cmd.State,
		"zip":               cmd.Zip,
		"phone1":            cmd.Phone,
		"email":             cmd.Email,
		"commercialAccount": "1",
		"multiUnit":         multiUnit,
		"status":            "1",
	})
}

// CreateAdditionalContact attaches a secondary contact to a customer.
func (c *Client) CreateAdditionalContact(ctx context.Context, customerID, name, email, phone string) error {
	_, err := c.create(ctx, "/additionalContact/create", map[string]string{
		"customerID": customerID,
		"name":       name,
		"email":      email,
		"phone":      phone,
	})
	return err
}

// CreateNote records an internal note on the customer account, hidden from
// the customer portal.
func (c *Client) CreateNote(ctx context.Context, customerID, note string) error {
	_, err := c.create(ctx, "/note/create", map[string]string{
		"customerID":   customerID,
		"notes":        note,
		"showCustomer": "0",
	})
	return err
}

// UploadDocument attaches a PDF to the customer account.
func (c *Client) UploadDocument(ctx context.Context, customerID, filename, description string, document []byte) error {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	file, err := form.CreateFormFile("uploadFile", filename)
	if err != nil {
		return err
	}
	if _, err := file.Write(document); err != nil {
		return err
	}
	if err := form.WriteField("customerID", customerID); err != nil {
		return err
	}
	if err := form.WriteField("description", description); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.url("/document/create"),
		bytes.NewReader(buf.Bytes()),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fieldservice: upload document: %w", err)
	}
	defer resp.Body.Close()

	return c.check(resp, "/document/create")
}

// GetAppointment fetches an appointment by id.
func (c *Client) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	var envelope struct {
		Appointment Appointment `json:"appointment"`
	}
	if err := c.get(ctx, "/appointment/"+id, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Appointment, nil
}

// GetCustomer fetches a customer by id.
func (c *Client) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var envelope struct {
		Customer Customer `json:"customer"`
	}
	if err := c.get(ctx, "/customer/"+id, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Customer, nil
}

// create posts a JSON body to a create endpoint and returns the created
// entity's id when the response carries one.
func (c *Client) create(ctx context.Context, path string, fields map[string]string) (string, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.url(path), bytes.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fieldservice: post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := c.check(resp, path); err != nil {
		return "", err
	}

	var payload struct {
		Success bool        `json:"success"`
		Result  json.Number `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("fieldservice: decode %s response: %w", path, err)
	}
	if !payload.Success {
		return "", fmt.Errorf("fieldservice: %s reported failure", path)
	}
	return payload.Result.String(), nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fieldservice: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := c.check(resp, path); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) check(resp *http.Response, path string) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("fieldservice: %s status %d: %s", path, resp.StatusCode, body)
	}
	return nil
}

func (c *Client) url(path string) string {
	values := url.Values{
		"authenticationToken": {c.authToken},
		"authenticationKey":   {c.authKey},
	}
	return c.baseURL + path + "?" + values.Encode()
}
