// Package zoho implements the crm.Backend capability over the Zoho CRM v2
// API. All calls go through the auth client under the org's service
// principal; Zoho uses the Zoho-oauthtoken authorization scheme.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/atlaspest/salesbridge/internal/auth"
	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/proposal"
)

// Scheme is the Authorization scheme Zoho APIs expect.
const Scheme = "Zoho-oauthtoken"

type Backend struct {
	client    *auth.Client
	baseURL   string
	principal string
	logger    *slog.Logger
}

func New(client *auth.Client, config *Config, logger *slog.Logger) *Backend {
	return &Backend{
		client:    client,
		baseURL:   config.BaseURL,
		principal: config.Principal,
		logger:    logger.With("system", "crm.zoho"),
	}
}

func (b *Backend) Name() correlation.Backend {
	return correlation.BackendZoho
}

type dealRecord struct {
	ID          string `json:"id"`
	Stage       string `json:"Stage"`
	ContactName *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"Contact_Name"`
	AccountName *struct {
		Name string `json:"name"`
	} `json:"Account_Name"`
	Owner *struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"Owner"`
	Street       string `json:"Street"`
	City         string `json:"City"`
	State        string `json:"State"`
	ZipCode      string `json:"Zip_Code"`
	Upsell       bool   `json:"Is_This_An_Upsell"`
	PestRoutesID string `json:"PestRoutes_ID"`
}

func (b *Backend) GetDeal(ctx context.Context, id string) (*crm.Deal, error) {
	var envelope struct {
		Data []dealRecord `json:"data"`
	}
	if err := b.get(ctx, "/Deals/"+id, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 {
		return nil, crm.ErrDealNotFound
	}

	r := envelope.Data[0]
	deal := &crm.Deal{
		ID:    r.ID,
		Stage: crm.Stage(r.Stage),
		WorkSite: crm.Address{
			Street: r.Street,
			City:   r.City,
			State:  r.State,
			Zip:    r.ZipCode,
		},
		Upsell:     r.Upsell,
		CustomerID: r.PestRoutesID,
	}
	if r.ContactName != nil {
		deal.PersonID = r.ContactName.ID
		deal.PersonName = r.ContactName.Name
	}
	if r.AccountName != nil {
		deal.OrgName = r.AccountName.Name
	}
	if r.Owner != nil {
		deal.Owner = crm.SalesRep{Name: r.Owner.Name, Email: r.Owner.Email}
	}
	return deal, nil
}

func (b *Backend) GetContact(ctx context.Context, id string) (*crm.Contact, error) {
	var envelope struct {
		Data []struct {
			FirstName      string `json:"First_Name"`
			LastName       string `json:"Last_Name"`
			Email          string `json:"Email"`
			SecondaryEmail string `json:"Secondary_Email"`
			Phone          string `json:"Phone"`
			Mobile         string `json:"Mobile"`
		} `json:"data"`
	}
	if err := b.get(ctx, "/Contacts/"+id, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 {
		return nil, crm.ErrDealNotFound
	}

	r := envelope.Data[0]
	return &crm.Contact{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		SecondEmail: r.SecondaryEmail,
		Phone:       r.Phone,
		SecondPhone: r.Mobile,
	}, nil
}

func (b *Backend) UpdateStage(ctx context.Context, dealID string, stage crm.Stage) error {
	return b.updateDeal(ctx, dealID, map[string]any{
		"Stage": string(stage),
	})
}

func (b *Backend) UpdateProposalFields(ctx context.Context, dealID string, d proposal.Details, proposalDate string) error {
	multiUnit := "No"
	if d.MultiUnit {
		multiUnit = "Yes"
	}

	return b.updateDeal(ctx, dealID, map[string]any{
		"Service_Type":                   d.ServiceType,
		"Initial_Price":                  d.InitialPrice,
		"Recurring_Price":                d.RecurringPrice,
		"Recurring_Frequency":            string(d.RecurringFrequency),
		"Contract_Length":                d.ContractLength,
		"Annual_Contract_Value":          d.AnnualContractValue.String(),
		"Multi_Unit_Property":            multiUnit,
		"Unit_Quota_Per_Service":         d.UnitQuotaPerService,
		"Additional_Service_Information": d.AdditionalServiceInformation,
		"Proposal_Sent_Date":             proposalDate,
	})
}

func (b *Backend) AttachCustomer(ctx context.Context, dealID, customerID, dateSigned string) error {
	return b.updateDeal(ctx, dealID, map[string]any{
		"Stage":         string(crm.StageSold),
		"PestRoutes_ID": customerID,
		"Date_Signed":   dateSigned,
	})
}

func (b *Backend) updateDeal(ctx context.Context, dealID string, fields map[string]any) error {
	payload := map[string]any{
		"data": []map[string]any{fields},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPut, b.baseURL+"/Deals/"+dealID,
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(ctx, b.principal, req)
	if err != nil {
		return fmt.Errorf("zoho: update deal %s: %w", dealID, err)
	}
	resp.Body.Close()
	return nil
}

func (b *Backend) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := b.client.Do(ctx, b.principal, req)
	if err != nil {
		return fmt.Errorf("zoho: get %s: %w", path, err)
	}
	defer resp.Body.Close()

	// Zoho returns 204 with no body when the record does not exist.
	if resp.StatusCode == http.StatusNoContent {
		return crm.ErrDealNotFound
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
