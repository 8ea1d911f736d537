// Package api assembles the service modules: the admin API for inspecting
// correlation records and the signed-document archive, and the webhook
// endpoints the external systems deliver events to.
package api

import (
	"net/http"

	"github.com/atlaspest/salesbridge/internal/config"
	"github.com/atlaspest/salesbridge/internal/infrastructure"
	"github.com/atlaspest/salesbridge/internal/webhooks"
	"github.com/atlaspest/salesbridge/pkg/middleware"
	"github.com/atlaspest/salesbridge/pkg/module"
	"github.com/atlaspest/salesbridge/pkg/openapi"
	"github.com/atlaspest/salesbridge/pkg/routes"
)

// Modules holds the mountable HTTP modules that comprise the service.
type Modules struct {
	API      *module.Module
	Webhooks *module.Module
}

// NewModules builds the admin API and webhook modules over a shared domain.
// Both modules dispatch into the same workflow orchestrator so a webhook
// replay and an admin inspection observe the same correlation state.
func NewModules(cfg *config.Config, infra *infrastructure.Infrastructure) (*Modules, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	spec, err := buildSpec(cfg)
	if err != nil {
		return nil, err
	}
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))

	admin := module.New(cfg.API.BasePath, mux)
	admin.Use(middleware.CORS(&cfg.API.CORS))
	admin.Use(middleware.Logger(runtime.Logger))

	hookMux := http.NewServeMux()
	handler := webhooks.NewHandler(
		domain.Workflow,
		runtime.Notifier,
		&cfg.Webhooks,
		infra.Logger.With("module", "webhooks"),
	)
	routes.Register(hookMux, handler.Routes())

	hooks := module.New("/webhooks", hookMux)
	hooks.Use(middleware.Logger(infra.Logger.With("module", "webhooks")))

	return &Modules{
		API:      admin,
		Webhooks: hooks,
	}, nil
}
