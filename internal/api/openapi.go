package api

import (
	"fmt"

	"github.com/atlaspest/salesbridge/internal/config"
	"github.com/atlaspest/salesbridge/pkg/openapi"
)

func buildSpec(cfg *config.Config) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"CorrelationRecord": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                        {Type: "string", Format: "uuid"},
				"crm_backend":               {Type: "string", Enum: []any{"zoho", "pipedrive"}},
				"deal_id":                   {Type: "string", Description: "Deal identifier in the CRM backend"},
				"contact_id":                {Type: "string", Description: "Contact identifier in the CRM backend"},
				"project_id":                {Type: "string", Description: "Design project identifier"},
				"sign_request_id":           {Type: "string", Description: "E-signature request identifier, set once the proposal is sent"},
				"field_service_customer_id": {Type: "string", Description: "Field service customer identifier, set once the contract is signed"},
				"stage":                     {Type: "string", Enum: []any{"initiated", "proposal_sent", "sold", "sold_serviced"}},
				"created_at":                {Type: "string", Format: "date-time"},
				"updated_at":                {Type: "string", Format: "date-time"},
			},
		},
		"RecordPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":        {Type: "array", Items: openapi.SchemaRef("CorrelationRecord")},
				"total":       {Type: "integer"},
				"page":        {Type: "integer"},
				"page_size":   {Type: "integer"},
				"total_pages": {Type: "integer"},
			},
		},
		"RecordSearch": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"page":                      {Type: "integer", Example: 1},
				"page_size":                 {Type: "integer", Example: 20},
				"search":                    {Type: "string", Description: "Matches project and deal identifiers"},
				"crm_backend":               {Type: "string"},
				"stage":                     {Type: "string"},
				"deal_id":                   {Type: "string"},
				"project_id":                {Type: "string"},
				"field_service_customer_id": {Type: "string"},
			},
		},
		"ArchiveEntry": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"key":    {Type: "string"},
				"exists": {Type: "boolean"},
			},
		},
	})

	spec.Paths["/records"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List correlation records",
			Tags:    []string{"records"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
				openapi.QueryParam("page_size", "integer", "Results per page", false),
				openapi.QueryParam("search", "string", "Matches project and deal identifiers", false),
				openapi.QueryParam("crm_backend", "string", "Filter by CRM backend", false),
				openapi.QueryParam("stage", "string", "Filter by workflow stage", false),
				openapi.QueryParam("deal_id", "string", "Filter by deal identifier", false),
				openapi.QueryParam("project_id", "string", "Filter by design project identifier", false),
				openapi.QueryParam("field_service_customer_id", "string", "Filter by field service customer", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Page of correlation records", "RecordPage"),
			},
		},
	}

	spec.Paths["/records/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a correlation record",
			Tags:       []string{"records"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Record identifier")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Correlation record", "CorrelationRecord"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/records/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search correlation records",
			Tags:        []string{"records"},
			RequestBody: openapi.RequestBodyJSON("RecordSearch", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Page of correlation records", "RecordPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/archive/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Check for an archived contract",
			Tags:    []string{"archive"},
			Parameters: []*openapi.Parameter{{
				Name:        "key",
				In:          "path",
				Required:    true,
				Description: "Blob key of the archived document",
				Schema:      &openapi.Schema{Type: "string"},
			}},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Archive entry", "ArchiveEntry"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/archive/download/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Download an archived contract",
			Tags:    []string{"archive"},
			Parameters: []*openapi.Parameter{{
				Name:        "key",
				In:          "path",
				Required:    true,
				Description: "Blob key of the archived document",
				Schema:      &openapi.Schema{Type: "string"},
			}},
			Responses: map[int]*openapi.Response{
				200: {Description: "Signed contract PDF"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}
	return data, nil
}
