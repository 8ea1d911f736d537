package main

import (
	"encoding/json"
	"net/http"

	"github.com/atlaspest/salesbridge/internal/api"
	"github.com/atlaspest/salesbridge/internal/config"
	"github.com/atlaspest/salesbridge/internal/infrastructure"
	"github.com/atlaspest/salesbridge/pkg/module"
)

type Modules struct {
	API      *module.Module
	Webhooks *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	modules, err := api.NewModules(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{
		API:      modules.API,
		Webhooks: modules.Webhooks,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Webhooks)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
