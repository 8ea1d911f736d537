// Package workflow implements the cross-system sales state machine:
// Initiated → ProposalSent → Sold → SoldServiced. Each inbound webhook
// event drives at most one transition; duplicate or out-of-order
// deliveries are absorbed by ref checks and compare-and-set stage
// advances on the correlation record.
package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atlaspest/salesbridge/internal/arcsite"
	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/esign"
	"github.com/atlaspest/salesbridge/internal/fieldservice"
	"github.com/atlaspest/salesbridge/internal/notify"
	"github.com/atlaspest/salesbridge/internal/proposal"
)

// Orchestrator coordinates the external systems for each workflow event.
type Orchestrator struct {
	records    Records
	crm        Backends
	projects   Projects
	signatures Signatures
	field      FieldService
	archive    Archive
	notifier   notify.Notifier
	location   *time.Location
	logger     *slog.Logger
}

// Runtime bundles the orchestrator's collaborators.
type Runtime struct {
	Records    Records
	CRM        Backends
	Projects   Projects
	Signatures Signatures
	Field      FieldService
	Archive    Archive
	Notifier   notify.Notifier
}

func New(rt Runtime, config *Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		records:    rt.Records,
		crm:        rt.CRM,
		projects:   rt.Projects,
		signatures: rt.Signatures,
		field:      rt.Field,
		archive:    rt.Archive,
		notifier:   rt.Notifier,
		location:   config.Location(),
		logger:     logger.With("system", "workflow"),
	}
}

// OnAppointmentScheduled creates the design project for a booked sales
// appointment and opens the sale's correlation record at Initiated.
//
// A duplicate project name is a data-quality problem, not a transient
// fault: the sales rep is alerted, no record is created, and the event is
// acknowledged so the sender does not retry.
func (o *Orchestrator) OnAppointmentScheduled(ctx context.Context, event AppointmentScheduledEvent) error {
	spec, err := o.projectSpec(ctx, event)
	if err != nil {
		return fmt.Errorf("assemble project: %w", err)
	}

	project, err := o.projects.CreateProject(ctx, spec)
	if errors.Is(err, arcsite.ErrDuplicateName) {
		o.logger.Warn("duplicate project name",
			"name", spec.Name,
			"deal_id", event.DealID,
		)
		o.alert(ctx, notify.Alert{
			To: spec.SalesRep.Email,
			Subject: fmt.Sprintf(
				"Duplicate design project for %s @ %s",
				spec.Name, time.Now().In(o.location).Format(time.RFC3339),
			),
			Body: fmt.Sprintf(
				"A design project named %q already exists. The appointment for deal %s was not linked; resolve the naming conflict and reschedule.",
				spec.Name, event.DealID,
			),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	record, err := o.records.Create(ctx, correlation.CreateCommand{
		Backend:   event.Backend,
		DealID:    event.DealID,
		ContactID: event.ContactID,
		ProjectID: project.ID,
	})
	if errors.Is(err, correlation.ErrDuplicate) {
		o.logger.Info("correlation record already exists, replay ignored",
			"project_id", project.ID,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create correlation record: %w", err)
	}

	// The create endpoint ignores some detail fields; patch them on.
	if err := o.projects.UpdateProject(ctx, project.ID, spec); err != nil {
		return fmt.Errorf("update project %s: %w", project.ID, err)
	}

	o.logger.Info("sale initiated",
		"record_id", record.ID,
		"backend", event.Backend,
		"deal_id", event.DealID,
		"project_id", project.ID,
	)
	return nil
}

// OnProposalSigned turns a finalized proposal drawing into an e-signature
// request and advances the record to ProposalSent. The CRM stage is set
// before field extraction so it reflects reality even when extraction
// fails; an unreadable document alerts the rep instead of failing the
// transition.
func (o *Orchestrator) OnProposalSigned(ctx context.Context, event ProposalSignedEvent) error {
	record, err := o.records.FindByProjectID(ctx, event.ProjectID)
	if errors.Is(err, correlation.ErrNotFound) {
		// Projects created outside this workflow have no record; deliberate no-op.
		o.logger.Info("no correlation record for project, skipping",
			"project_id", event.ProjectID,
		)
		return nil
	}
	if err != nil {
		return err
	}

	if record.SignRequestID != nil {
		o.logger.Info("signature request already exists, replay ignored",
			"record_id", record.ID,
			"sign_request_id", *record.SignRequestID,
		)
		return nil
	}

	project, err := o.projects.GetProject(ctx, event.ProjectID)
	if err != nil {
		return fmt.Errorf("get project %s: %w", event.ProjectID, err)
	}
	repEmail := strings.ToLower(project.SalesRep.Email)

	backend, err := o.crm.ForRecord(record)
	if err != nil {
		return err
	}

	deal, err := backend.GetDeal(ctx, record.DealID)
	if err != nil {
		return fmt.Errorf("get deal %s: %w", record.DealID, err)
	}

	contact, err := backend.GetContact(ctx, record.ContactID)
	if err != nil {
		return fmt.Errorf("get contact %s: %w", record.ContactID, err)
	}

	principal := o.signatures.PrincipalFor(ctx, repEmail)

	request, err := o.signatures.CreateRequestFromURL(
		ctx, principal,
		requestName(deal.PersonName, deal.OrgName),
		event.DocumentURL,
	)
	if err != nil {
		return fmt.Errorf("create signature request: %w", err)
	}

	if err := o.records.SetSignRequest(ctx, record.ID, request.RequestID); err != nil {
		if errors.Is(err, correlation.ErrStageConflict) {
			o.logger.Info("concurrent delivery advanced record first",
				"record_id", record.ID,
			)
			return nil
		}
		return err
	}

	signer := esign.Signer{
		Name:  deal.PersonName,
		Email: contact.Email,
		Phone: contact.Phone,
	}
	if err := o.signatures.AddSignatureFields(
		ctx, principal,
		request.RequestID, request.DocumentID,
		signer, request.TotalPages-1,
	); err != nil {
		return fmt.Errorf("add signature fields: %w", err)
	}

	if err := o.signatures.SubmitForSignature(ctx, principal, request.RequestID); err != nil {
		return fmt.Errorf("submit for signature: %w", err)
	}

	document, err := o.signatures.DownloadPDF(ctx, principal, request.RequestID)
	if err != nil {
		return fmt.Errorf("download proposal pdf: %w", err)
	}

	// Stage first: the CRM must show Proposal Sent even if extraction fails.
	if err := backend.UpdateStage(ctx, record.DealID, crm.StageProposalSent); err != nil {
		return fmt.Errorf("update deal stage: %w", err)
	}

	details, err := proposal.Extract(document)
	if err != nil {
		o.logger.Warn("proposal extraction failed",
			"record_id", record.ID,
			"error", err,
		)
		o.alert(ctx, notify.Alert{
			To:      repEmail,
			Subject: fmt.Sprintf("Manual field entry required for deal %s", record.DealID),
			Body: fmt.Sprintf(
				"The proposal document for project %s could not be parsed. Enter the pricing and contract fields on the deal by hand.",
				event.ProjectID,
			),
		})
		return nil
	}

	if err := backend.UpdateProposalFields(ctx, record.DealID, details, o.today()); err != nil {
		return fmt.Errorf("push proposal fields: %w", err)
	}

	o.logger.Info("proposal sent",
		"record_id", record.ID,
		"sign_request_id", request.RequestID,
	)
	return nil
}

// OnDocumentSigned onboards the customer into the field-service system
// once the signature request completes and advances the record to Sold.
// Upsell deals reuse the existing field-service customer. Extraction
// failures never block onboarding.
func (o *Orchestrator) OnDocumentSigned(ctx context.Context, event DocumentSignedEvent) error {
	if event.Operation != OperationRequestCompleted {
		o.logger.Info("ignoring signature notification",
			"operation", event.Operation,
			"sign_request_id", event.SignRequestID,
		)
		return nil
	}

	record, err := o.records.FindBySignRequestID(ctx, event.SignRequestID)
	if err != nil {
		// A completed request without a record means the prior transition
		// never happened; this needs a human.
		return fmt.Errorf("lookup sign request %s: %w", event.SignRequestID, err)
	}

	if record.FieldServiceCustomerID != nil {
		o.logger.Info("customer already onboarded, replay ignored",
			"record_id", record.ID,
			"customer_id", *record.FieldServiceCustomerID,
		)
		return nil
	}

	backend, err := o.crm.ForRecord(record)
	if err != nil {
		return err
	}

	deal, err := backend.GetDeal(ctx, record.DealID)
	if err != nil {
		return fmt.Errorf("get deal %s: %w", record.DealID, err)
	}

	principal := o.signatures.PrincipalFor(ctx, strings.ToLower(deal.Owner.Email))

	signed, err := o.signatures.DownloadPDF(ctx, principal, event.SignRequestID)
	if err != nil {
		return fmt.Errorf("download signed pdf: %w", err)
	}

	var details proposal.Details
	if extracted, err := proposal.Extract(signed); err != nil {
		o.logger.Warn("signed document extraction failed",
			"record_id", record.ID,
			"error", err,
		)
		o.alert(ctx, notify.Alert{
			To:      deal.Owner.Email,
			Subject: fmt.Sprintf("Signed document unreadable for deal %s", record.DealID),
			Body: fmt.Sprintf(
				"The signed document for request %s could not be parsed. Customer onboarding continues without extracted detail; verify the account by hand.",
				event.SignRequestID,
			),
		})
	} else {
		details = extracted
	}

	customerID, err := o.onboardCustomer(ctx, backend, record, deal, details)
	if err != nil {
		return err
	}

	if err := o.records.SetCustomer(ctx, record.ID, customerID); err != nil {
		if errors.Is(err, correlation.ErrStageConflict) {
			o.logger.Info("concurrent delivery onboarded customer first",
				"record_id", record.ID,
			)
			return nil
		}
		return err
	}

	if err := o.attachDocuments(ctx, customerID, event.SignRequestID, signed); err != nil {
		return err
	}

	if details.AdditionalServiceInformation != "" {
		if err := o.field.CreateNote(ctx, customerID, details.AdditionalServiceInformation); err != nil {
			return fmt.Errorf("create service note: %w", err)
		}
	}

	if err := backend.AttachCustomer(ctx, record.DealID, customerID, o.today()); err != nil {
		return fmt.Errorf("mark deal sold: %w", err)
	}

	o.logger.Info("sale closed",
		"record_id", record.ID,
		"customer_id", customerID,
		"upsell", deal.Upsell,
	)
	return nil
}

// OnAppointmentCompleted advances the one Sold deal behind a completed
// service visit to SoldServiced. More than one Sold deal for the customer
// is ambiguous: alert a human and mutate nothing.
func (o *Orchestrator) OnAppointmentCompleted(ctx context.Context, event AppointmentCompletedEvent) error {
	appointment, err := o.field.GetAppointment(ctx, event.AppointmentID)
	if err != nil {
		return fmt.Errorf("get appointment %s: %w", event.AppointmentID, err)
	}

	records, err := o.records.ListByCustomer(ctx, appointment.CustomerID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		// Customer never went through this workflow.
		o.logger.Info("no correlation records for customer, skipping",
			"customer_id", appointment.CustomerID,
		)
		return nil
	}

	type soldMatch struct {
		record  correlation.Record
		backend crm.Backend
	}
	var sold []soldMatch

	for _, record := range records {
		backend, err := o.crm.ForRecord(&record)
		if err != nil {
			return err
		}

		deal, err := backend.GetDeal(ctx, record.DealID)
		if err != nil {
			return fmt.Errorf("get deal %s: %w", record.DealID, err)
		}

		if deal.Stage == crm.StageSold {
			sold = append(sold, soldMatch{record: record, backend: backend})
		}
	}

	if len(sold) > 1 {
		o.logger.Warn("multiple sold deals for customer",
			"customer_id", appointment.CustomerID,
			"count", len(sold),
		)
		o.alert(ctx, notify.Alert{
			Subject: fmt.Sprintf(
				"More than 1 deal in Sold stage for customer %s @ %s",
				appointment.CustomerID, time.Now().In(o.location).Format(time.RFC3339),
			),
			Body: fmt.Sprintf(
				"Could not advance to Sold - Serviced because %d deals are in Sold stage for customer %s.\nEncountered during completed appointment %s.",
				len(sold), appointment.CustomerID, event.AppointmentID,
			),
		})
		return nil
	}

	if len(sold) == 0 {
		o.logger.Info("no sold deal for customer, nothing to advance",
			"customer_id", appointment.CustomerID,
		)
		return nil
	}

	match := sold[0]
	if err := match.backend.UpdateStage(ctx, match.record.DealID, crm.StageSoldServiced); err != nil {
		return fmt.Errorf("update deal stage: %w", err)
	}

	if err := o.records.AdvanceStage(
		ctx, match.record.ID,
		correlation.StageSold, correlation.StageSoldServiced,
	); err != nil && !errors.Is(err, correlation.ErrStageConflict) {
		return err
	}

	o.logger.Info("sale serviced",
		"record_id", match.record.ID,
		"deal_id", match.record.DealID,
	)
	return nil
}

// SendProposalReminder nudges the customer on an unsigned proposal under
// the owning rep's principal.
func (o *Orchestrator) SendProposalReminder(ctx context.Context, signRequestID string) error {
	record, err := o.records.FindBySignRequestID(ctx, signRequestID)
	if err != nil {
		return err
	}

	backend, err := o.crm.ForRecord(record)
	if err != nil {
		return err
	}

	deal, err := backend.GetDeal(ctx, record.DealID)
	if err != nil {
		return fmt.Errorf("get deal %s: %w", record.DealID, err)
	}

	principal := o.signatures.PrincipalFor(ctx, strings.ToLower(deal.Owner.Email))
	return o.signatures.SendReminder(ctx, principal, signRequestID)
}

// onboardCustomer creates the field-service customer for a closed sale,
// or reuses the existing one for upsell deals.
func (o *Orchestrator) onboardCustomer(
	ctx context.Context,
	backend crm.Backend,
	record *correlation.Record,
	deal *crm.Deal,
	details proposal.Details,
) (string, error) {
	if deal.Upsell && deal.CustomerID != "" {
		o.logger.Info("upsell, reusing existing customer",
			"record_id", record.ID,
			"customer_id", deal.CustomerID,
		)
		return deal.CustomerID, nil
	}

	contact, err := backend.GetContact(ctx, record.ContactID)
	if err != nil {
		return "", fmt.Errorf("get contact %s: %w", record.ContactID, err)
	}

	customerID, err := o.field.CreateCustomer(ctx, fieldservice.CreateCustomerCommand{
		FirstName:   contact.FirstName,
		LastName:    contact.LastName,
		CompanyName: deal.OrgName,
		Street:      deal.WorkSite.Street,
		City:        deal.WorkSite.City,
		State:       deal.WorkSite.State,
		Zip:         deal.WorkSite.Zip,
		Phone:       contact.Phone,
		Email:       contact.Email,
		MultiUnit:   details.MultiUnit,
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}

	if contact.SecondEmail != "" || contact.SecondPhone != "" {
		name := strings.TrimSpace(contact.FirstName + " " + contact.LastName)
		if err := o.field.CreateAdditionalContact(
			ctx, customerID, name, contact.SecondEmail, contact.SecondPhone,
		); err != nil {
			return "", fmt.Errorf("create additional contact: %w", err)
		}
	}

	return customerID, nil
}

// attachDocuments uploads the signed contract and its diagram page to the
// customer account and archives the contract. A document that yields no
// diagram page only logs; the other uploads are required.
func (o *Orchestrator) attachDocuments(ctx context.Context, customerID, signRequestID string, signed []byte) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.field.UploadDocument(
			gctx, customerID,
			"signed-proposal.pdf",
			"Signed service proposal "+o.today(),
			signed,
		)
	})

	g.Go(func() error {
		diagram, err := proposal.DiagramPage(signed, 1)
		if err != nil {
			o.logger.Warn("diagram page extraction failed",
				"customer_id", customerID,
				"error", err,
			)
			return nil
		}
		return o.field.UploadDocument(
			gctx, customerID,
			"site-diagram.pdf",
			"Service site diagram",
			diagram,
		)
	})

	g.Go(func() error {
		return o.archive.Upload(
			gctx,
			"signed/"+signRequestID+".pdf",
			bytes.NewReader(signed),
			"application/pdf",
		)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("attach documents: %w", err)
	}
	return nil
}

// projectSpec assembles the design-project payload, fetching contact and
// deal detail from the CRM when the event did not carry it inline.
func (o *Orchestrator) projectSpec(ctx context.Context, event AppointmentScheduledEvent) (arcsite.ProjectSpec, error) {
	customer := event.Customer
	workSite := event.WorkSite
	salesRep := event.SalesRep
	company := event.Company

	if customer == nil || workSite == nil || salesRep == nil {
		backend, err := o.crm.For(event.Backend)
		if err != nil {
			return arcsite.ProjectSpec{}, err
		}

		deal, err := backend.GetDeal(ctx, event.DealID)
		if err != nil {
			return arcsite.ProjectSpec{}, fmt.Errorf("get deal %s: %w", event.DealID, err)
		}

		contact, err := backend.GetContact(ctx, event.ContactID)
		if err != nil {
			return arcsite.ProjectSpec{}, fmt.Errorf("get contact %s: %w", event.ContactID, err)
		}

		if customer == nil {
			customer = &CustomerDetail{
				FirstName:   contact.FirstName,
				LastName:    contact.LastName,
				Email:       contact.Email,
				SecondEmail: contact.SecondEmail,
				Phone:       contact.Phone,
				SecondPhone: contact.SecondPhone,
			}
		}
		if workSite == nil {
			workSite = &deal.WorkSite
		}
		if salesRep == nil {
			salesRep = &deal.Owner
		}
		if company == "" {
			company = deal.OrgName
		}
	}

	name := strings.TrimSpace(customer.FirstName + " " + customer.LastName)
	if company == "" {
		company = name
	}

	return arcsite.ProjectSpec{
		Name: company,
		Customer: arcsite.Customer{
			Name:  name,
			Phone: customer.Phone,
			Email: customer.Email,
		},
		WorkSiteAddress: arcsite.WorkSiteAddress{
			Street:  workSite.Street,
			City:    workSite.City,
			State:   workSite.State,
			ZipCode: workSite.Zip,
		},
		SalesRep: arcsite.SalesRep{
			Name:  salesRep.Name,
			Email: salesRep.Email,
			Phone: salesRep.Phone,
		},
	}, nil
}

func (o *Orchestrator) alert(ctx context.Context, alert notify.Alert) {
	if err := o.notifier.Send(ctx, alert); err != nil {
		o.logger.Error("alert delivery failed",
			"subject", alert.Subject,
			"error", err,
		)
	}
}

func (o *Orchestrator) today() string {
	return time.Now().In(o.location).Format("2006-01-02")
}

// requestName titles a signature request after the customer's first name
// and company.
func requestName(personName, orgName string) string {
	first := personName
	if fields := strings.Fields(personName); len(fields) > 0 {
		first = fields[0]
	}
	if orgName == "" {
		return first
	}
	return first + " - " + orgName
}
