package workflow

import (
	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/crm"
)

// CustomerDetail is inline customer contact data carried by senders that
// include it in the webhook payload.
type CustomerDetail struct {
	FirstName   string
	LastName    string
	Email       string
	SecondEmail string
	Phone       string
	SecondPhone string
}

// AppointmentScheduledEvent announces a booked sales appointment. Zoho
// includes the customer, work site, and rep inline; Pipedrive sends only
// the deal and person ids and the orchestrator fetches the rest from the
// CRM.
type AppointmentScheduledEvent struct {
	Backend   correlation.Backend
	DealID    string
	ContactID string
	Company   string
	Customer  *CustomerDetail
	WorkSite  *crm.Address
	SalesRep  *crm.SalesRep
}

// ProposalSignedEvent announces that a rep finalized a proposal drawing.
// DocumentURL is a fetchable rendition of the proposal PDF.
type ProposalSignedEvent struct {
	ProjectID   string
	DocumentURL string
}

// OperationRequestCompleted is the only document-signed operation type that
// drives the workflow; all others are acknowledged and ignored.
const OperationRequestCompleted = "RequestCompleted"

// DocumentSignedEvent announces e-signature request activity.
type DocumentSignedEvent struct {
	Operation     string
	SignRequestID string
}

// AppointmentCompletedEvent announces a finished field-service visit.
type AppointmentCompletedEvent struct {
	AppointmentID string
}
