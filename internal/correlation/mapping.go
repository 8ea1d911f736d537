package correlation

import (
	"net/url"

	"github.com/atlaspest/salesbridge/pkg/query"
	"github.com/atlaspest/salesbridge/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "correlation_records", "r").
	Project("id", "ID").
	Project("crm_backend", "Backend").
	Project("deal_id", "DealID").
	Project("contact_id", "ContactID").
	Project("project_id", "ProjectID").
	Project("sign_request_id", "SignRequestID").
	Project("field_service_customer_id", "FieldServiceCustomerID").
	Project("stage", "Stage").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for record queries.
// Nil fields are ignored; all matches are exact except ProjectID, which is
// contains-matched for operator lookups from partial identifiers.
type Filters struct {
	Backend    *string `json:"crm_backend,omitempty"`
	Stage      *string `json:"stage,omitempty"`
	DealID     *string `json:"deal_id,omitempty"`
	ProjectID  *string `json:"project_id,omitempty"`
	CustomerID *string `json:"field_service_customer_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Backend", f.Backend).
		WhereEquals("Stage", f.Stage).
		WhereEquals("DealID", f.DealID).
		WhereContains("ProjectID", f.ProjectID).
		WhereEquals("FieldServiceCustomerID", f.CustomerID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if b := values.Get("crm_backend"); b != "" {
		f.Backend = &b
	}
	if s := values.Get("stage"); s != "" {
		f.Stage = &s
	}
	if d := values.Get("deal_id"); d != "" {
		f.DealID = &d
	}
	if p := values.Get("project_id"); p != "" {
		f.ProjectID = &p
	}
	if c := values.Get("field_service_customer_id"); c != "" {
		f.CustomerID = &c
	}

	return f
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.ID,
		&r.Backend,
		&r.DealID,
		&r.ContactID,
		&r.ProjectID,
		&r.SignRequestID,
		&r.FieldServiceCustomerID,
		&r.Stage,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
