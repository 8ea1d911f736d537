package api

import (
	"github.com/atlaspest/salesbridge/internal/arcsite"
	"github.com/atlaspest/salesbridge/internal/auth"
	"github.com/atlaspest/salesbridge/internal/config"
	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/crm/pipedrive"
	"github.com/atlaspest/salesbridge/internal/crm/zoho"
	"github.com/atlaspest/salesbridge/internal/esign"
	"github.com/atlaspest/salesbridge/internal/fieldservice"
	"github.com/atlaspest/salesbridge/internal/workflow"
)

// Domain holds all domain systems that comprise the service.
type Domain struct {
	Records  correlation.System
	Workflow workflow.System
}

// NewDomain creates all domain systems from the API runtime. The Zoho OAuth
// client is shared between the CRM backend and the e-signature client since
// both authenticate against the same principal store.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	records := correlation.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	principals := auth.NewStore(runtime.Database.Connection(), runtime.Logger)
	client := auth.NewClient(principals, zoho.Scheme, runtime.Logger)

	backends := crm.NewRegistry(
		zoho.New(client, &cfg.Zoho, runtime.Logger),
		pipedrive.New(&cfg.Pipedrive, runtime.Logger),
	)

	orchestrator := workflow.New(
		workflow.Runtime{
			Records:    records,
			CRM:        backends,
			Projects:   arcsite.New(&cfg.ArcSite, runtime.Logger),
			Signatures: esign.New(client, &cfg.ESign, runtime.Logger),
			Field:      fieldservice.New(&cfg.FieldService, runtime.Logger),
			Archive:    runtime.Storage,
			Notifier:   runtime.Notifier,
		},
		&cfg.Workflow,
		runtime.Logger,
	)

	return &Domain{
		Records:  records,
		Workflow: orchestrator,
	}
}
