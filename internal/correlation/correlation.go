// Package correlation implements the durable record linking one sale's
// identifiers across the CRM, design-project, e-signature, and
// field-service systems. Records are append-only: a sale's audit trail is
// never deleted, only advanced through its stages.
package correlation

import (
	"time"

	"github.com/google/uuid"
)

// Backend tags which CRM system owns a record's deal and contact refs.
// Exactly one backend's ref pair is populated per record.
type Backend string

const (
	BackendZoho      Backend = "zoho"
	BackendPipedrive Backend = "pipedrive"
)

// Stage is the internal workflow state, kept in sync with but distinct
// from the CRM's own stage field.
type Stage string

const (
	StageInitiated    Stage = "initiated"
	StageProposalSent Stage = "proposal_sent"
	StageSold         Stage = "sold"
	StageSoldServiced Stage = "sold_serviced"
)

// Record is the unit of workflow state. ProjectID is unique; SignRequestID
// is unique once set; FieldServiceCustomerID is set at most once, after
// signing.
type Record struct {
	ID                     uuid.UUID `json:"id"`
	Backend                Backend   `json:"crm_backend"`
	DealID                 string    `json:"deal_id"`
	ContactID              string    `json:"contact_id"`
	ProjectID              string    `json:"project_id"`
	SignRequestID          *string   `json:"sign_request_id"`
	FieldServiceCustomerID *string   `json:"field_service_customer_id"`
	Stage                  Stage     `json:"stage"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// CreateCommand carries the data for a new record at the Initiated stage.
type CreateCommand struct {
	Backend   Backend
	DealID    string
	ContactID string
	ProjectID string
}
