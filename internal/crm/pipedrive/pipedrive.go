// Package pipedrive implements the crm.Backend capability over the
// Pipedrive v1 API. Pipedrive authenticates with a static company API token
// passed as a query parameter, so calls bypass the refresh-capable auth
// client entirely.
package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/proposal"
)

type Backend struct {
	http     *http.Client
	baseURL  string
	apiToken string
	logger   *slog.Logger
}

func New(config *Config, logger *slog.Logger) *Backend {
	return &Backend{
		http:     &http.Client{Timeout: 60 * time.Second},
		baseURL:  config.BaseURL,
		apiToken: config.APIToken,
		logger:   logger.With("system", "crm.pipedrive"),
	}
}

func (b *Backend) Name() correlation.Backend {
	return correlation.BackendPipedrive
}

// stageID maps the shared stage vocabulary onto the pipeline's stage ids.
func stageID(stage crm.Stage) (int, error) {
	switch stage {
	case crm.StageProposalSent:
		return stageProposalSent, nil
	case crm.StageSold:
		return stageSold, nil
	case crm.StageSoldServiced:
		return stageSoldServiced, nil
	default:
		return 0, fmt.Errorf("pipedrive: no stage id for %q", stage)
	}
}

type dealRecord struct {
	ID         int    `json:"id"`
	StageID    int    `json:"stage_id"`
	PersonName string `json:"person_name"`
	OrgName    string `json:"org_name"`
	PersonID   *struct {
		Value int `json:"value"`
	} `json:"person_id"`
	UserID *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user_id"`
	Address    string `json:"130f4703de6770a75cfaaee28ed42334a8200a78"`
	City       string `json:"0dcd5ef507c068612473388b2b185e9ae939351b"`
	State      string `json:"16964aa4b6bda425f239e32862d101ffa6df311e"`
	Zip        string `json:"5097d5ad377ff0ebbb7f7938d97eaba1c43dbad4"`
	Upsell     any    `json:"8b3d0e240661ec4e7db9dc938ac26b4198b5bb3e"`
	CustomerID string `json:"16e3271f2697f92ae207e2ef64c8d3fcd7130cc6"`
}

func (b *Backend) GetDeal(ctx context.Context, id string) (*crm.Deal, error) {
	var r dealRecord
	if err := b.get(ctx, "/deals/"+id, &r); err != nil {
		return nil, err
	}

	deal := &crm.Deal{
		ID:         strconv.Itoa(r.ID),
		PersonName: r.PersonName,
		OrgName:    r.OrgName,
		WorkSite: crm.Address{
			Street: r.Address,
			City:   r.City,
			State:  r.State,
			Zip:    r.Zip,
		},
		Upsell:     truthy(r.Upsell),
		CustomerID: r.CustomerID,
	}

	switch r.StageID {
	case stageProposalSent:
		deal.Stage = crm.StageProposalSent
	case stageSold:
		deal.Stage = crm.StageSold
	case stageSoldServiced:
		deal.Stage = crm.StageSoldServiced
	}

	if r.PersonID != nil {
		deal.PersonID = strconv.Itoa(r.PersonID.Value)
	}
	if r.UserID != nil {
		deal.Owner = crm.SalesRep{Name: r.UserID.Name, Email: r.UserID.Email}
	}
	return deal, nil
}

func (b *Backend) GetContact(ctx context.Context, id string) (*crm.Contact, error) {
	var r struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     []struct {
			Value string `json:"value"`
		} `json:"email"`
		Phone []struct {
			Value string `json:"value"`
		} `json:"phone"`
	}
	if err := b.get(ctx, "/persons/"+id, &r); err != nil {
		return nil, err
	}

	contact := &crm.Contact{
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
	if len(r.Email) > 0 {
		contact.Email = r.Email[0].Value
	}
	if len(r.Email) > 1 {
		contact.SecondEmail = r.Email[1].Value
	}
	if len(r.Phone) > 0 {
		contact.Phone = r.Phone[0].Value
	}
	if len(r.Phone) > 1 {
		contact.SecondPhone = r.Phone[1].Value
	}
	return contact, nil
}

func (b *Backend) UpdateStage(ctx context.Context, dealID string, stage crm.Stage) error {
	id, err := stageID(stage)
	if err != nil {
		return err
	}
	return b.updateDeal(ctx, dealID, map[string]any{
		"stage_id": id,
	})
}

func (b *Backend) UpdateProposalFields(ctx context.Context, dealID string, d proposal.Details, proposalDate string) error {
	multiUnit := "No"
	if d.MultiUnit {
		multiUnit = "Yes"
	}

	return b.updateDeal(ctx, dealID, map[string]any{
		keyServiceType:        d.ServiceType,
		keyInitialPrice:       d.InitialPrice,
		keyRecurringPrice:     d.RecurringPrice,
		keyFrequency:          string(d.RecurringFrequency),
		keyContractLength:     d.ContractLength,
		keyContractValue:      d.AnnualContractValue.String(),
		keyMultiUnitProperty:  multiUnit,
		keyUnitQuota:          d.UnitQuotaPerService,
		keyServiceInformation: d.AdditionalServiceInformation,
		keyProposalDate:       proposalDate,
	})
}

func (b *Backend) AttachCustomer(ctx context.Context, dealID, customerID, dateSigned string) error {
	return b.updateDeal(ctx, dealID, map[string]any{
		"stage_id":    stageSold,
		keyCustomerID: customerID,
		keyDateSigned: dateSigned,
	})
}

func (b *Backend) updateDeal(ctx context.Context, dealID string, fields map[string]any) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, b.url("/deals/"+dealID),
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("pipedrive: update deal %s: %w", dealID, err)
	}
	defer resp.Body.Close()

	return b.check(resp, "/deals/"+dealID)
}

func (b *Backend) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url(path), nil)
	if err != nil {
		return err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("pipedrive: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := b.check(resp, path); err != nil {
		return err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return crm.ErrDealNotFound
	}
	return json.Unmarshal(envelope.Data, out)
}

func (b *Backend) check(resp *http.Response, path string) error {
	if resp.StatusCode == http.StatusNotFound {
		return crm.ErrDealNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("pipedrive: %s status %d: %s", path, resp.StatusCode, body)
	}
	return nil
}

func (b *Backend) url(path string) string {
	return b.baseURL + path + "?api_token=" + url.QueryEscape(b.apiToken)
}

// truthy interprets a custom enum/flag field, which Pipedrive may return as
// a string label, an option id, or a bare number.
func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s == "yes" || s == "true" || s == "1"
	case float64:
		return val != 0
	default:
		return false
	}
}
