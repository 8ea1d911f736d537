package pipedrive_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/crm/pipedrive"
)

func newBackend(url string) *pipedrive.Backend {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipedrive.New(&pipedrive.Config{BaseURL: url, APIToken: "secret-token"}, logger)
}

const dealResponse = `{"data":{
	"id": 981,
	"stage_id": 5,
	"person_name": "Sam Reyes",
	"org_name": "Brook Dental",
	"person_id": {"value": 42},
	"user_id": {"name": "Lee Chan", "email": "lee@atlaspest.com"},
	"130f4703de6770a75cfaaee28ed42334a8200a78": "9 Brook St",
	"0dcd5ef507c068612473388b2b185e9ae939351b": "Aurora",
	"16964aa4b6bda425f239e32862d101ffa6df311e": "CO",
	"5097d5ad377ff0ebbb7f7938d97eaba1c43dbad4": "80010",
	"8b3d0e240661ec4e7db9dc938ac26b4198b5bb3e": "Yes",
	"16e3271f2697f92ae207e2ef64c8d3fcd7130cc6": "700"
}}`

func TestGetDeal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deals/981" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_token"); got != "secret-token" {
			t.Errorf("api_token = %q", got)
		}
		w.Write([]byte(dealResponse))
	}))
	defer server.Close()

	deal, err := newBackend(server.URL).GetDeal(context.Background(), "981")
	if err != nil {
		t.Fatalf("GetDeal: %v", err)
	}

	if deal.ID != "981" || deal.PersonID != "42" {
		t.Errorf("ids = %q/%q", deal.ID, deal.PersonID)
	}
	if deal.Stage != crm.StageSold {
		t.Errorf("stage = %q, want Sold", deal.Stage)
	}
	if deal.WorkSite.Street != "9 Brook St" || deal.WorkSite.Zip != "80010" {
		t.Errorf("work site = %+v", deal.WorkSite)
	}
	if !deal.Upsell {
		t.Error("Upsell = false, want true")
	}
	if deal.CustomerID != "700" {
		t.Errorf("customer id = %q", deal.CustomerID)
	}
	if deal.Owner.Email != "lee@atlaspest.com" {
		t.Errorf("owner = %+v", deal.Owner)
	}
}

func TestGetDealUpsellVariants(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"string label", `"Yes"`, true},
		{"string no", `"No"`, false},
		{"bool", `true`, true},
		{"option id", `1`, true},
		{"zero", `0`, false},
		{"absent", `null`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"data":{"id": 1, "8b3d0e240661ec4e7db9dc938ac26b4198b5bb3e": ` + tc.value + `}}`))
			}))
			defer server.Close()

			deal, err := newBackend(server.URL).GetDeal(context.Background(), "1")
			if err != nil {
				t.Fatalf("GetDeal: %v", err)
			}
			if deal.Upsell != tc.want {
				t.Errorf("Upsell = %v, want %v", deal.Upsell, tc.want)
			}
		})
	}
}

func TestGetDealNullData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null}`))
	}))
	defer server.Close()

	_, err := newBackend(server.URL).GetDeal(context.Background(), "1")
	if !errors.Is(err, crm.ErrDealNotFound) {
		t.Errorf("err = %v, want ErrDealNotFound", err)
	}
}

func TestGetDealNotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newBackend(server.URL).GetDeal(context.Background(), "1")
	if !errors.Is(err, crm.ErrDealNotFound) {
		t.Errorf("err = %v, want ErrDealNotFound", err)
	}
}

func TestGetContact(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/persons/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"data":{
			"first_name": "Pat",
			"last_name": "Low",
			"email": [{"value": "pat@brook.example"}, {"value": "billing@brook.example"}],
			"phone": [{"value": "555-0100"}]
		}}`))
	}))
	defer server.Close()

	contact, err := newBackend(server.URL).GetContact(context.Background(), "42")
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}

	if contact.FirstName != "Pat" || contact.LastName != "Low" {
		t.Errorf("name = %q %q", contact.FirstName, contact.LastName)
	}
	if contact.Email != "pat@brook.example" || contact.SecondEmail != "billing@brook.example" {
		t.Errorf("emails = %q / %q", contact.Email, contact.SecondEmail)
	}
	if contact.Phone != "555-0100" || contact.SecondPhone != "" {
		t.Errorf("phones = %q / %q", contact.Phone, contact.SecondPhone)
	}
}

func TestUpdateStage(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/deals/981" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	err := newBackend(server.URL).UpdateStage(context.Background(), "981", crm.StageProposalSent)
	if err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}
	if received["stage_id"] != float64(2) {
		t.Errorf("stage_id = %v, want 2", received["stage_id"])
	}
}

func TestUpdateStageUnknown(t *testing.T) {
	err := newBackend("http://unused").UpdateStage(context.Background(), "1", crm.Stage("Imaginary"))
	if err == nil {
		t.Fatal("unknown stage should error before any request")
	}
}

func TestAttachCustomer(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	err := newBackend(server.URL).AttachCustomer(context.Background(), "981", "700", "2026-08-30")
	if err != nil {
		t.Fatalf("AttachCustomer: %v", err)
	}

	if received["stage_id"] != float64(5) {
		t.Errorf("stage_id = %v, want the Sold stage", received["stage_id"])
	}
	if received["16e3271f2697f92ae207e2ef64c8d3fcd7130cc6"] != "700" {
		t.Errorf("customer field = %v", received["16e3271f2697f92ae207e2ef64c8d3fcd7130cc6"])
	}
	if received["7b7de0d22fdc904d983e1bb7ef96279950e3bd60"] != "2026-08-30" {
		t.Errorf("date signed field = %v", received["7b7de0d22fdc904d983e1bb7ef96279950e3bd60"])
	}
}
