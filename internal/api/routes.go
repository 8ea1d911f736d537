package api

import (
	"net/http"

	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		correlation.NewHandler(domain.Records, runtime.Logger, runtime.Pagination).Routes(),
		newArchiveHandler(runtime.Storage, runtime.Logger).routes(),
	)
}
