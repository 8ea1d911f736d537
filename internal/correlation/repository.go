package correlation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/atlaspest/salesbridge/pkg/pagination"
	"github.com/atlaspest/salesbridge/pkg/query"
	"github.com/atlaspest/salesbridge/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a correlation repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "correlation"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "ProjectID", "DealID")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count correlation records: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query correlation records: %w", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)
	return r.queryOne(ctx, q, args)
}

func (r *repo) FindByProjectID(ctx context.Context, projectID string) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ProjectID", projectID)
	return r.queryOne(ctx, q, args)
}

func (r *repo) FindBySignRequestID(ctx context.Context, signRequestID string) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("SignRequestID", signRequestID)
	return r.queryOne(ctx, q, args)
}

func (r *repo) ListByCustomer(ctx context.Context, customerID string) ([]Record, error) {
	qb := query.NewBuilder(projection, defaultSort)
	qb.WhereEquals("FieldServiceCustomerID", &customerID)

	q, args := qb.Build()
	records, err := repository.QueryMany(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records by customer: %w", err)
	}
	return records, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Record, error) {
	q := `
		INSERT INTO correlation_records(id, crm_backend, deal_id, contact_id, project_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, crm_backend, deal_id, contact_id, project_id, sign_request_id,
			field_service_customer_id, stage, created_at, updated_at`

	args := []any{uuid.New(), cmd.Backend, cmd.DealID, cmd.ContactID, cmd.ProjectID}

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"correlation record created",
		"id", rec.ID,
		"backend", rec.Backend,
		"project_id", rec.ProjectID,
	)
	return &rec, nil
}

func (r *repo) SetSignRequest(ctx context.Context, id uuid.UUID, signRequestID string) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE correlation_records
		SET sign_request_id = $2, stage = $3, updated_at = now()
		WHERE id = $1 AND stage = $4`,
		id, signRequestID, StageProposalSent, StageInitiated,
	)
	if err != nil {
		return repository.MapError(err, ErrStageConflict, ErrDuplicate)
	}

	r.logger.Info("sign request recorded", "id", id, "sign_request_id", signRequestID)
	return nil
}

func (r *repo) SetCustomer(ctx context.Context, id uuid.UUID, customerID string) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE correlation_records
		SET field_service_customer_id = $2, stage = $3, updated_at = now()
		WHERE id = $1 AND stage = $4`,
		id, customerID, StageSold, StageProposalSent,
	)
	if err != nil {
		return repository.MapError(err, ErrStageConflict, ErrDuplicate)
	}

	r.logger.Info("field service customer recorded", "id", id, "customer_id", customerID)
	return nil
}

func (r *repo) AdvanceStage(ctx context.Context, id uuid.UUID, from, to Stage) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		`UPDATE correlation_records
		SET stage = $3, updated_at = now()
		WHERE id = $1 AND stage = $2`,
		id, from, to,
	)
	if err != nil {
		return repository.MapError(err, ErrStageConflict, ErrStageConflict)
	}

	r.logger.Info("record stage advanced", "id", id, "from", from, "to", to)
	return nil
}

func (r *repo) queryOne(ctx context.Context, q string, args []any) (*Record, error) {
	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}
