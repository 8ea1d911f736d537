package api

import (
	"github.com/atlaspest/salesbridge/internal/config"
	"github.com/atlaspest/salesbridge/internal/infrastructure"
	"github.com/atlaspest/salesbridge/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Notifier:  infra.Notifier,
		},
		Pagination: cfg.API.Pagination,
	}
}
