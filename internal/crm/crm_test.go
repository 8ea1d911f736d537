package crm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/proposal"
)

type stubBackend struct {
	name correlation.Backend
}

func (s *stubBackend) Name() correlation.Backend { return s.name }

func (s *stubBackend) GetDeal(context.Context, string) (*crm.Deal, error) { return nil, nil }

func (s *stubBackend) GetContact(context.Context, string) (*crm.Contact, error) { return nil, nil }

func (s *stubBackend) UpdateStage(context.Context, string, crm.Stage) error { return nil }

func (s *stubBackend) UpdateProposalFields(context.Context, string, proposal.Details, string) error {
	return nil
}

func (s *stubBackend) AttachCustomer(context.Context, string, string, string) error { return nil }

func TestRegistryFor(t *testing.T) {
	zoho := &stubBackend{name: correlation.BackendZoho}
	pipedrive := &stubBackend{name: correlation.BackendPipedrive}
	registry := crm.NewRegistry(zoho, pipedrive)

	b, err := registry.For(correlation.BackendZoho)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if b != zoho {
		t.Error("resolved the wrong backend")
	}

	if _, err := registry.For(correlation.Backend("hubspot")); !errors.Is(err, crm.ErrUnknownBackend) {
		t.Errorf("err = %v, want ErrUnknownBackend", err)
	}
}

func TestRegistryForRecord(t *testing.T) {
	pipedrive := &stubBackend{name: correlation.BackendPipedrive}
	registry := crm.NewRegistry(pipedrive)

	b, err := registry.ForRecord(&correlation.Record{Backend: correlation.BackendPipedrive})
	if err != nil {
		t.Fatalf("ForRecord: %v", err)
	}
	if b != pipedrive {
		t.Error("resolved the wrong backend")
	}
}
