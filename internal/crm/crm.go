// Package crm provides a common deal/contact capability over the two
// interchangeable CRM backends. The orchestrator is polymorphic over this
// interface; which backend serves a sale is decided by the ref pair
// populated on its correlation record.
package crm

import (
	"context"

	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/proposal"
)

// Stage is the CRM's own deal status, kept in sync with but distinct from
// the internal workflow stage.
type Stage string

const (
	StageProposalSent Stage = "Proposal Sent"
	StageSold         Stage = "Sold"
	StageSoldServiced Stage = "Sold - Serviced"
)

// Address is a work-site or billing address.
type Address struct {
	Street string
	City   string
	State  string
	Zip    string
}

// SalesRep identifies the deal owner.
type SalesRep struct {
	Name  string
	Email string
	Phone string
}

// Deal is the backend-independent view of a CRM deal.
type Deal struct {
	ID         string
	Stage      Stage
	PersonID   string
	PersonName string
	OrgName    string
	WorkSite   Address
	Owner      SalesRep
	// Upsell deals attach to an existing field-service customer instead of
	// creating a new one; CustomerID carries that existing id.
	Upsell     bool
	CustomerID string
}

// Contact is the backend-independent view of a CRM contact/person.
type Contact struct {
	FirstName   string
	LastName    string
	Email       string
	SecondEmail string
	Phone       string
	SecondPhone string
}

// Backend is the capability each CRM implementation provides.
type Backend interface {
	Name() correlation.Backend
	GetDeal(ctx context.Context, id string) (*Deal, error)
	GetContact(ctx context.Context, id string) (*Contact, error)
	UpdateStage(ctx context.Context, dealID string, stage Stage) error
	// UpdateProposalFields pushes extracted commercial terms and the
	// proposal-sent date into the deal's named fields.
	UpdateProposalFields(ctx context.Context, dealID string, d proposal.Details, proposalDate string) error
	// AttachCustomer marks the deal Sold with its field-service customer id
	// and signing date.
	AttachCustomer(ctx context.Context, dealID, customerID, dateSigned string) error
}

// Registry resolves the backend owning a correlation record.
type Registry struct {
	backends map[correlation.Backend]Backend
}

// NewRegistry creates a Registry over the given backends.
func NewRegistry(backends ...Backend) *Registry {
	m := make(map[correlation.Backend]Backend, len(backends))
	for _, b := range backends {
		m[b.Name()] = b
	}
	return &Registry{backends: m}
}

// For returns the backend with the given name.
func (r *Registry) For(name correlation.Backend) (Backend, error) {
	b, ok := r.backends[name]
	if !ok {
		return nil, ErrUnknownBackend
	}
	return b, nil
}

// ForRecord returns the backend owning the record's deal ref.
func (r *Registry) ForRecord(rec *correlation.Record) (Backend, error) {
	return r.For(rec.Backend)
}
