package zoho_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlaspest/salesbridge/internal/auth"
	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/crm/zoho"
)

type fakeStore struct {
	credential auth.Credential
}

func (s *fakeStore) Find(_ context.Context, principal string) (*auth.Credential, error) {
	if principal != s.credential.Principal {
		return nil, auth.ErrUnknownPrincipal
	}
	c := s.credential
	return &c, nil
}

func (s *fakeStore) Exists(_ context.Context, principal string) (bool, error) {
	return principal == s.credential.Principal, nil
}

func (s *fakeStore) SaveAccessToken(_ context.Context, _, token string) error {
	s.credential.AccessToken = token
	return nil
}

func newBackend(url string) *zoho.Backend {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &fakeStore{credential: auth.Credential{
		Principal:   "zoho",
		AccessToken: "tok",
	}}
	client := auth.NewClient(store, zoho.Scheme, logger)
	return zoho.New(client, &zoho.Config{BaseURL: url, Principal: "zoho"}, logger)
}

func TestGetDeal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Deals/555" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Zoho-oauthtoken tok" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"data":[{
			"id": "555",
			"Stage": "Sold",
			"Contact_Name": {"id": "901", "name": "Sam Reyes"},
			"Account_Name": {"name": "Hilltown Apartments"},
			"Owner": {"name": "Lee Chan", "email": "Lee@AtlasPest.com"},
			"Street": "9 Brook St",
			"City": "Aurora",
			"State": "CO",
			"Zip_Code": "80010",
			"Is_This_An_Upsell": true,
			"PestRoutes_ID": "700"
		}]}`))
	}))
	defer server.Close()

	deal, err := newBackend(server.URL).GetDeal(context.Background(), "555")
	if err != nil {
		t.Fatalf("GetDeal: %v", err)
	}

	if deal.ID != "555" || deal.Stage != crm.StageSold {
		t.Errorf("id/stage = %q/%q", deal.ID, deal.Stage)
	}
	if deal.PersonID != "901" || deal.PersonName != "Sam Reyes" {
		t.Errorf("contact = %q/%q", deal.PersonID, deal.PersonName)
	}
	if deal.OrgName != "Hilltown Apartments" {
		t.Errorf("org = %q", deal.OrgName)
	}
	if deal.WorkSite.Street != "9 Brook St" || deal.WorkSite.Zip != "80010" {
		t.Errorf("work site = %+v", deal.WorkSite)
	}
	if !deal.Upsell || deal.CustomerID != "700" {
		t.Errorf("upsell/customer = %v/%q", deal.Upsell, deal.CustomerID)
	}
	if deal.Owner.Email != "Lee@AtlasPest.com" {
		t.Errorf("owner = %+v", deal.Owner)
	}
}

func TestGetDealNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	_, err := newBackend(server.URL).GetDeal(context.Background(), "1")
	if !errors.Is(err, crm.ErrDealNotFound) {
		t.Errorf("err = %v, want ErrDealNotFound", err)
	}
}

func TestGetDealEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	_, err := newBackend(server.URL).GetDeal(context.Background(), "1")
	if !errors.Is(err, crm.ErrDealNotFound) {
		t.Errorf("err = %v, want ErrDealNotFound", err)
	}
}

func TestGetContact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Contacts/901" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":[{
			"First_Name": "Sam",
			"Last_Name": "Reyes",
			"Email": "sam@hilltown.example",
			"Secondary_Email": "billing@hilltown.example",
			"Phone": "555-0100",
			"Mobile": "555-0101"
		}]}`))
	}))
	defer server.Close()

	contact, err := newBackend(server.URL).GetContact(context.Background(), "901")
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}

	if contact.FirstName != "Sam" || contact.LastName != "Reyes" {
		t.Errorf("name = %q %q", contact.FirstName, contact.LastName)
	}
	if contact.Email != "sam@hilltown.example" || contact.SecondEmail != "billing@hilltown.example" {
		t.Errorf("emails = %q / %q", contact.Email, contact.SecondEmail)
	}
	if contact.Phone != "555-0100" || contact.SecondPhone != "555-0101" {
		t.Errorf("phones = %q / %q", contact.Phone, contact.SecondPhone)
	}
}

// decodeUpdate unwraps Zoho's {"data":[{...}]} update envelope.
func decodeUpdate(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if len(payload.Data) != 1 {
		t.Fatalf("data rows = %d, want 1", len(payload.Data))
	}
	return payload.Data[0]
}

func TestUpdateStage(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/Deals/555" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		received = decodeUpdate(t, r)
		w.Write([]byte(`{"data":[{"status":"success"}]}`))
	}))
	defer server.Close()

	err := newBackend(server.URL).UpdateStage(context.Background(), "555", crm.StageProposalSent)
	if err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}
	if received["Stage"] != "Proposal Sent" {
		t.Errorf("Stage = %v", received["Stage"])
	}
}

func TestAttachCustomer(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = decodeUpdate(t, r)
		w.Write([]byte(`{"data":[{"status":"success"}]}`))
	}))
	defer server.Close()

	err := newBackend(server.URL).AttachCustomer(context.Background(), "555", "700", "2026-08-30")
	if err != nil {
		t.Fatalf("AttachCustomer: %v", err)
	}

	if received["Stage"] != "Sold" {
		t.Errorf("Stage = %v", received["Stage"])
	}
	if received["PestRoutes_ID"] != "700" {
		t.Errorf("PestRoutes_ID = %v", received["PestRoutes_ID"])
	}
	if received["Date_Signed"] != "2026-08-30" {
		t.Errorf("Date_Signed = %v", received["Date_Signed"])
	}
}
