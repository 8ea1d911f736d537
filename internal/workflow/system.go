package workflow

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/atlaspest/salesbridge/internal/arcsite"
	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/esign"
	"github.com/atlaspest/salesbridge/internal/fieldservice"
)

// System is the orchestrator surface consumed by the webhook layer: one
// entry point per inbound event, each taking an already-authenticated,
// already-parsed payload.
type System interface {
	OnAppointmentScheduled(ctx context.Context, event AppointmentScheduledEvent) error
	OnProposalSigned(ctx context.Context, event ProposalSignedEvent) error
	OnDocumentSigned(ctx context.Context, event DocumentSignedEvent) error
	OnAppointmentCompleted(ctx context.Context, event AppointmentCompletedEvent) error

	// SendProposalReminder nudges the customer on an unsigned proposal.
	SendProposalReminder(ctx context.Context, signRequestID string) error
}

// Records is the slice of the correlation store the orchestrator uses.
type Records interface {
	Create(ctx context.Context, cmd correlation.CreateCommand) (*correlation.Record, error)
	FindByProjectID(ctx context.Context, projectID string) (*correlation.Record, error)
	FindBySignRequestID(ctx context.Context, signRequestID string) (*correlation.Record, error)
	ListByCustomer(ctx context.Context, customerID string) ([]correlation.Record, error)
	SetSignRequest(ctx context.Context, id uuid.UUID, signRequestID string) error
	SetCustomer(ctx context.Context, id uuid.UUID, customerID string) error
	AdvanceStage(ctx context.Context, id uuid.UUID, from, to correlation.Stage) error
}

// Backends resolves the CRM implementation owning a record or event.
type Backends interface {
	For(name correlation.Backend) (crm.Backend, error)
	ForRecord(rec *correlation.Record) (crm.Backend, error)
}

// Projects is the design-project system surface.
type Projects interface {
	CreateProject(ctx context.Context, spec arcsite.ProjectSpec) (*arcsite.Project, error)
	UpdateProject(ctx context.Context, id string, spec arcsite.ProjectSpec) error
	GetProject(ctx context.Context, id string) (*arcsite.Project, error)
}

// Signatures is the e-signature provider surface.
type Signatures interface {
	PrincipalFor(ctx context.Context, salesRepEmail string) string
	CreateRequestFromURL(ctx context.Context, principal, name, docURL string) (*esign.Request, error)
	AddSignatureFields(ctx context.Context, principal, requestID, documentID string, signer esign.Signer, page int) error
	SubmitForSignature(ctx context.Context, principal, requestID string) error
	SendReminder(ctx context.Context, principal, requestID string) error
	DownloadPDF(ctx context.Context, principal, requestID string) ([]byte, error)
}

// Archive is the append-only signed-document store.
type Archive interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
}

// FieldService is the field-service management surface.
type FieldService interface {
	CreateCustomer(ctx context.Context, cmd fieldservice.CreateCustomerCommand) (string, error)
	CreateAdditionalContact(ctx context.Context, customerID, name, email, phone string) error
	UploadDocument(ctx context.Context, customerID, filename, description string, document []byte) error
	CreateNote(ctx context.Context, customerID, note string) error
	GetAppointment(ctx context.Context, id string) (*fieldservice.Appointment, error)
	GetCustomer(ctx context.Context, id string) (*fieldservice.Customer, error)
}
