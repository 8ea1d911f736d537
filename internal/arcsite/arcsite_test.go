package arcsite_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atlaspest/salesbridge/internal/arcsite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newClient(url string) *arcsite.Client {
	return arcsite.New(&arcsite.Config{
		BaseURL: url,
		Token:   "token",
		Owner:   "projects@atlaspest.com",
	}, discardLogger())
}

func TestCreateProject(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/projects" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "proj-1", "name": "Hilltown"})
	}))
	defer server.Close()

	project, err := newClient(server.URL).CreateProject(context.Background(), arcsite.ProjectSpec{
		Name:     "Hilltown",
		Customer: arcsite.Customer{Name: "Sam Reyes"},
		SalesRep: arcsite.SalesRep{Email: "dana@atlaspest.com"},
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.ID != "proj-1" {
		t.Errorf("project id = %q", project.ID)
	}

	// The configured owner is stamped onto every created project.
	if received["owner"] != "projects@atlaspest.com" {
		t.Errorf("owner = %v", received["owner"])
	}
	// The rep field uses the upstream's "sale_rep" name.
	if _, ok := received["sale_rep"]; !ok {
		t.Errorf("payload missing sale_rep field: %v", received)
	}
}

func TestCreateProjectDuplicateName(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"json message", `{"message":"project name already exists"}`},
		{"raw body", "error: project name already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newClient(server.URL).CreateProject(context.Background(), arcsite.ProjectSpec{Name: "Hilltown"})
			if !errors.Is(err, arcsite.ErrDuplicateName) {
				t.Errorf("err = %v, want ErrDuplicateName", err)
			}
		})
	}
}

func TestCreateProjectOtherBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"missing required field"}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).CreateProject(context.Background(), arcsite.ProjectSpec{})
	if err == nil || errors.Is(err, arcsite.ErrDuplicateName) {
		t.Errorf("err = %v, want generic error", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := &arcsite.Config{Token: "t"}
	if err := cfg.Finalize(nil); err == nil {
		t.Error("missing owner should fail validation")
	}

	cfg = &arcsite.Config{Token: "t", Owner: "o@example.com"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.BaseURL != "https://api.arcsite.com/v2" {
		t.Errorf("default base url = %q", cfg.BaseURL)
	}
}
