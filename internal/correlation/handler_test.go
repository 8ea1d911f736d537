package correlation_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/pkg/pagination"
	"github.com/atlaspest/salesbridge/pkg/routes"
)

type fakeSystem struct {
	correlation.System

	records     []correlation.Record
	lastPage    pagination.PageRequest
	lastFilters correlation.Filters
	findErr     error
}

func (s *fakeSystem) List(
	_ context.Context,
	page pagination.PageRequest,
	filters correlation.Filters,
) (*pagination.PageResult[correlation.Record], error) {
	s.lastPage = page
	s.lastFilters = filters
	result := pagination.NewPageResult(s.records, len(s.records), page.Page, page.PageSize)
	return &result, nil
}

func (s *fakeSystem) Find(_ context.Context, id uuid.UUID) (*correlation.Record, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return &s.records[i], nil
		}
	}
	return nil, correlation.ErrNotFound
}

func newTestMux(sys correlation.System) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	handler := correlation.NewHandler(sys, logger, cfg)

	mux := http.NewServeMux()
	routes.Register(mux, handler.Routes())
	return mux
}

func seedRecord() correlation.Record {
	return correlation.Record{
		ID:        uuid.New(),
		Backend:   correlation.BackendZoho,
		DealID:    "555",
		ContactID: "901",
		ProjectID: "arc-9",
		Stage:     correlation.StageProposalSent,
	}
}

func TestList(t *testing.T) {
	sys := &fakeSystem{records: []correlation.Record{seedRecord()}}
	mux := newTestMux(sys)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet, "/records?page=2&page_size=10&stage=proposal_sent&crm_backend=zoho", nil,
	))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if sys.lastPage.Page != 2 || sys.lastPage.PageSize != 10 {
		t.Errorf("page request = %+v", sys.lastPage)
	}
	if sys.lastFilters.Stage == nil || *sys.lastFilters.Stage != "proposal_sent" {
		t.Errorf("stage filter = %v", sys.lastFilters.Stage)
	}
	if sys.lastFilters.Backend == nil || *sys.lastFilters.Backend != "zoho" {
		t.Errorf("backend filter = %v", sys.lastFilters.Backend)
	}

	var result pagination.PageResult[correlation.Record]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Total != 1 || len(result.Data) != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.Data[0].DealID != "555" {
		t.Errorf("record = %+v", result.Data[0])
	}
}

func TestFind(t *testing.T) {
	record := seedRecord()
	mux := newTestMux(&fakeSystem{records: []correlation.Record{record}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/"+record.ID.String(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var got correlation.Record
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != record.ID || got.ProjectID != "arc-9" {
		t.Errorf("record = %+v", got)
	}
}

func TestFindInvalidID(t *testing.T) {
	mux := newTestMux(&fakeSystem{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFindNotFound(t *testing.T) {
	mux := newTestMux(&fakeSystem{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	sys := &fakeSystem{records: []correlation.Record{seedRecord()}}
	mux := newTestMux(sys)

	body := `{"page": 1, "page_size": 500, "project_id": "arc"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/records/search", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if sys.lastPage.PageSize != 100 {
		t.Errorf("page size = %d, want capped at 100", sys.lastPage.PageSize)
	}
	if sys.lastFilters.ProjectID == nil || *sys.lastFilters.ProjectID != "arc" {
		t.Errorf("project filter = %v", sys.lastFilters.ProjectID)
	}
}

func TestSearchMalformedBody(t *testing.T) {
	mux := newTestMux(&fakeSystem{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/records/search", strings.NewReader("{broken")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
