package fieldservice_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlaspest/salesbridge/internal/fieldservice"
)

func newClient(url string) *fieldservice.Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fieldservice.New(&fieldservice.Config{
		BaseURL:   url,
		AuthToken: "tok",
		AuthKey:   "key",
	}, logger)
}

func checkAuth(t *testing.T, r *http.Request) {
	t.Helper()
	q := r.URL.Query()
	if q.Get("authenticationToken") != "tok" || q.Get("authenticationKey") != "key" {
		t.Errorf("auth params = %q/%q", q.Get("authenticationToken"), q.Get("authenticationKey"))
	}
}

func TestCreateCustomer(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/customer/create" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		checkAuth(t, r)
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"success": true, "result": 700}`))
	}))
	defer server.Close()

	id, err := newClient(server.URL).CreateCustomer(context.Background(), fieldservice.CreateCustomerCommand{
		FirstName:   "Sam",
		LastName:    "Reyes",
		CompanyName: "Hilltown Apartments",
		Street:      "9 Brook St",
		City:        "Aurora",
		State:       "CO",
		Zip:         "80010",
		Phone:       "555-0100",
		Email:       "sam@hilltown.example",
		MultiUnit:   true,
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if id != "700" {
		t.Errorf("id = %q, want 700", id)
	}

	if received["companyName"] != "Hilltown Apartments" || received["zip"] != "80010" {
		t.Errorf("fields = %+v", received)
	}
	if received["commercialAccount"] != "1" {
		t.Error("account not flagged commercial")
	}
	if received["multiUnit"] != "1" {
		t.Errorf("multiUnit = %q, want 1", received["multiUnit"])
	}
	if received["status"] != "1" {
		t.Errorf("status = %q, want active", received["status"])
	}
}

func TestCreateCustomerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).CreateCustomer(context.Background(), fieldservice.CreateCustomerCommand{})
	if err == nil {
		t.Fatal("reported failure should surface as an error")
	}
}

func TestCreateAdditionalContact(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/additionalContact/create" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"success": true, "result": 12}`))
	}))
	defer server.Close()

	err := newClient(server.URL).CreateAdditionalContact(
		context.Background(), "700", "Sam Reyes", "sam@hilltown.example", "555-0100",
	)
	if err != nil {
		t.Fatalf("CreateAdditionalContact: %v", err)
	}
	if received["customerID"] != "700" || received["name"] != "Sam Reyes" {
		t.Errorf("fields = %+v", received)
	}
}

func TestCreateNoteHiddenFromCustomer(t *testing.T) {
	var received map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.Write([]byte(`{"success": true, "result": 3}`))
	}))
	defer server.Close()

	err := newClient(server.URL).CreateNote(context.Background(), "700", "signed proposal on file")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if received["notes"] != "signed proposal on file" {
		t.Errorf("notes = %q", received["notes"])
	}
	if received["showCustomer"] != "0" {
		t.Error("note visible to customer")
	}
}

func TestUploadDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/create" {
			t.Errorf("path = %q", r.URL.Path)
		}
		checkAuth(t, r)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}

		file, header, err := r.FormFile("uploadFile")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "signed-proposal.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "%PDF-signed" {
			t.Errorf("content = %q", content)
		}

		if r.FormValue("customerID") != "700" {
			t.Errorf("customerID = %q", r.FormValue("customerID"))
		}
		if r.FormValue("description") != "Signed service proposal" {
			t.Errorf("description = %q", r.FormValue("description"))
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	err := newClient(server.URL).UploadDocument(
		context.Background(), "700", "signed-proposal.pdf", "Signed service proposal", []byte("%PDF-signed"),
	)
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
}

func TestGetAppointment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/appointment/appt-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"appointment":{
			"appointmentID": "appt-1",
			"customerID": "700",
			"date": "2026-08-30",
			"status": "completed"
		}}`))
	}))
	defer server.Close()

	appointment, err := newClient(server.URL).GetAppointment(context.Background(), "appt-1")
	if err != nil {
		t.Fatalf("GetAppointment: %v", err)
	}
	if appointment.CustomerID != "700" || appointment.Status != "completed" {
		t.Errorf("appointment = %+v", appointment)
	}
}

func TestGetCustomer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/customer/700" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"customer":{
			"customerID": "700",
			"fname": "Sam",
			"lname": "Reyes",
			"companyName": "Hilltown Apartments",
			"email": "sam@hilltown.example"
		}}`))
	}))
	defer server.Close()

	customer, err := newClient(server.URL).GetCustomer(context.Background(), "700")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if customer.ID != "700" || customer.CompanyName != "Hilltown Apartments" {
		t.Errorf("customer = %+v", customer)
	}
}

func TestUpstreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("backend offline"))
	}))
	defer server.Close()

	if _, err := newClient(server.URL).GetCustomer(context.Background(), "700"); err == nil {
		t.Fatal("bad gateway should surface as an error")
	}
}
