package correlation

import (
	"context"

	"github.com/google/uuid"

	"github.com/atlaspest/salesbridge/pkg/pagination"
)

// System defines the public contract for correlation record operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Record], error)

	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	Create(ctx context.Context, cmd CreateCommand) (*Record, error)

	FindByProjectID(ctx context.Context, projectID string) (*Record, error)
	FindBySignRequestID(ctx context.Context, signRequestID string) (*Record, error)
	// ListByCustomer returns all records attached to a field-service
	// customer, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]Record, error)

	// SetSignRequest stores the e-signature request id and advances the
	// record from Initiated to ProposalSent in one compare-and-set update.
	SetSignRequest(ctx context.Context, id uuid.UUID, signRequestID string) error
	// SetCustomer stores the field-service customer id and advances the
	// record from ProposalSent to Sold in one compare-and-set update.
	SetCustomer(ctx context.Context, id uuid.UUID, customerID string) error
	// AdvanceStage moves the record from one stage to the next; returns
	// ErrStageConflict if the record is not in the expected stage.
	AdvanceStage(ctx context.Context, id uuid.UUID, from, to Stage) error
}
