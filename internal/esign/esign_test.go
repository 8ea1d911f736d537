package esign_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlaspest/salesbridge/internal/auth"
	"github.com/atlaspest/salesbridge/internal/esign"
)

type fakeStore struct {
	credentials map[string]*auth.Credential
}

func (s *fakeStore) Find(_ context.Context, principal string) (*auth.Credential, error) {
	c, ok := s.credentials[principal]
	if !ok {
		return nil, auth.ErrUnknownPrincipal
	}
	return c, nil
}

func (s *fakeStore) Exists(_ context.Context, principal string) (bool, error) {
	_, ok := s.credentials[principal]
	return ok, nil
}

func (s *fakeStore) SaveAccessToken(_ context.Context, principal, token string) error {
	s.credentials[principal].AccessToken = token
	return nil
}

func newClient(url string, store auth.Store) *esign.Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return esign.New(
		auth.NewClient(store, "Zoho-oauthtoken", logger),
		&esign.Config{BaseURL: url, DefaultPrincipal: "esign"},
		logger,
	)
}

func serviceStore() *fakeStore {
	return &fakeStore{credentials: map[string]*auth.Credential{
		"esign": {Principal: "esign", AccessToken: "tok"},
	}}
}

func TestPrincipalFor(t *testing.T) {
	store := serviceStore()
	store.credentials["esign:lee@atlaspest.com"] = &auth.Credential{
		Principal:   "esign:lee@atlaspest.com",
		AccessToken: "rep-tok",
	}
	client := newClient("http://unused", store)

	if got := client.PrincipalFor(context.Background(), "Lee@AtlasPest.com"); got != "esign:lee@atlaspest.com" {
		t.Errorf("provisioned rep resolved to %q", got)
	}
	if got := client.PrincipalFor(context.Background(), "nobody@atlaspest.com"); got != "esign" {
		t.Errorf("unprovisioned rep resolved to %q, want the service principal", got)
	}
}

func TestCreateRequestFromURL(t *testing.T) {
	docServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-proposal-bytes"))
	}))
	defer docServer.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/requests" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "proposal.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "%PDF-proposal-bytes" {
			t.Errorf("file content = %q", content)
		}

		var data struct {
			Requests struct {
				RequestName string `json:"request_name"`
			} `json:"requests"`
		}
		if err := json.Unmarshal([]byte(r.FormValue("data")), &data); err != nil {
			t.Fatalf("decode data field: %v", err)
		}
		if data.Requests.RequestName != "Sam - Hilltown Apartments" {
			t.Errorf("request name = %q", data.Requests.RequestName)
		}

		w.Write([]byte(`{"requests":{
			"request_id": "sr-1",
			"document_ids": [{"document_id": "doc-1", "total_pages": 5}]
		}}`))
	}))
	defer server.Close()

	request, err := newClient(server.URL, serviceStore()).CreateRequestFromURL(
		context.Background(), "esign", "Sam - Hilltown Apartments", docServer.URL+"/share/proposal",
	)
	if err != nil {
		t.Fatalf("CreateRequestFromURL: %v", err)
	}
	if request.RequestID != "sr-1" || request.DocumentID != "doc-1" || request.TotalPages != 5 {
		t.Errorf("request = %+v", request)
	}
}

func TestCreateRequestMissingIDs(t *testing.T) {
	docServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF"))
	}))
	defer docServer.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"requests":{"request_id": "", "document_ids": []}}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL, serviceStore()).CreateRequestFromURL(
		context.Background(), "esign", "x", docServer.URL,
	)
	if err == nil {
		t.Fatal("response without ids should error")
	}
}

func TestAddSignatureFields(t *testing.T) {
	var data string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/requests/sr-1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %q", ct)
		}
		data = r.FormValue("data")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	signer := esign.Signer{Name: "Sam Reyes", Email: "sam@hilltown.example", Phone: "555-0100"}
	err := newClient(server.URL, serviceStore()).AddSignatureFields(
		context.Background(), "esign", "sr-1", "doc-1", signer, 4,
	)
	if err != nil {
		t.Fatalf("AddSignatureFields: %v", err)
	}

	var payload struct {
		Requests struct {
			Actions []struct {
				ActionType     string `json:"action_type"`
				RecipientName  string `json:"recipient_name"`
				RecipientEmail string `json:"recipient_email"`
				Fields         []struct {
					FieldTypeName string `json:"field_type_name"`
					DocumentID    string `json:"document_id"`
					PageNo        int    `json:"page_no"`
				} `json:"fields"`
			} `json:"actions"`
		} `json:"requests"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("decode data field: %v", err)
	}
	if len(payload.Requests.Actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(payload.Requests.Actions))
	}

	action := payload.Requests.Actions[0]
	if action.ActionType != "SIGN" || action.RecipientEmail != "sam@hilltown.example" {
		t.Errorf("action = %+v", action)
	}
	if len(action.Fields) != 2 {
		t.Fatalf("fields = %d, want signature and date", len(action.Fields))
	}
	for _, f := range action.Fields {
		if f.DocumentID != "doc-1" || f.PageNo != 4 {
			t.Errorf("field %q placed on %s page %d", f.FieldTypeName, f.DocumentID, f.PageNo)
		}
	}
}

func TestSubmitAndRemind(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newClient(server.URL, serviceStore())
	if err := client.SubmitForSignature(context.Background(), "esign", "sr-1"); err != nil {
		t.Fatalf("SubmitForSignature: %v", err)
	}
	if err := client.SendReminder(context.Background(), "esign", "sr-1"); err != nil {
		t.Fatalf("SendReminder: %v", err)
	}

	want := []string{"/requests/sr-1/submit", "/requests/sr-1/remind"}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("call %d path = %q, want %q", i, paths[i], p)
		}
	}
}

func TestDownloadPDF(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/requests/sr-1/pdf" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte("%PDF-signed"))
	}))
	defer server.Close()

	document, err := newClient(server.URL, serviceStore()).DownloadPDF(context.Background(), "esign", "sr-1")
	if err != nil {
		t.Fatalf("DownloadPDF: %v", err)
	}
	if string(document) != "%PDF-signed" {
		t.Errorf("document = %q", document)
	}
}
