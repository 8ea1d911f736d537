// Package webhooks is the inbound HTTP surface: one route per upstream
// event, each behind the sender's own authentication style. Malformed
// payloads are acknowledged and dropped per the validation taxonomy —
// senders retry on failure statuses, and a payload that cannot be decoded
// will not improve on redelivery.
package webhooks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/atlaspest/salesbridge/internal/auth"
	"github.com/atlaspest/salesbridge/internal/correlation"
	"github.com/atlaspest/salesbridge/internal/crm"
	"github.com/atlaspest/salesbridge/internal/notify"
	"github.com/atlaspest/salesbridge/internal/workflow"
	"github.com/atlaspest/salesbridge/pkg/handlers"
	"github.com/atlaspest/salesbridge/pkg/middleware"
	"github.com/atlaspest/salesbridge/pkg/routes"
)

// AuthHeader carries the shared secret for header-authenticated senders.
const AuthHeader = "X-Atlaspest-Auth"

// Handler routes authenticated webhook events into the workflow.
type Handler struct {
	workflow   workflow.System
	notifier   notify.Notifier
	config     *Config
	maxPayload int64
	logger     *slog.Logger
}

func NewHandler(wf workflow.System, notifier notify.Notifier, config *Config, logger *slog.Logger) *Handler {
	return &Handler{
		workflow:   wf,
		notifier:   notifier,
		config:     config,
		maxPayload: config.MaxPayloadSizeBytes(),
		logger:     logger.With("handler", "webhooks"),
	}
}

// Routes returns the webhook route group with per-sender guards applied.
func (h *Handler) Routes() routes.Group {
	zoho := middleware.HeaderSecret(AuthHeader, h.config.ZohoSecret)
	arcsite := middleware.HeaderSecret(AuthHeader, h.config.ArcSiteSecret)
	basic := middleware.BasicAuth(h.config.BasicUsername, h.config.BasicPassword)
	query := middleware.QuerySecret("token", h.config.QueryToken)

	return routes.Group{
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/zoho/appointment-scheduled", Handler: guarded(zoho, h.ZohoAppointmentScheduled)},
			{Method: "POST", Pattern: "/pipedrive/appointment-scheduled", Handler: guarded(basic, h.PipedriveAppointmentScheduled)},
			{Method: "POST", Pattern: "/arcsite/proposal-signed", Handler: guarded(arcsite, h.ProposalSigned)},
			{Method: "POST", Pattern: "/esign/document-signed", Handler: guarded(zoho, h.DocumentSigned)},
			{Method: "GET", Pattern: "/fieldservice/appointments/{id}/completed", Handler: guarded(query, h.AppointmentCompleted)},
			{Method: "POST", Pattern: "/proposals/{id}/remind", Handler: guarded(basic, h.ProposalReminder)},
		},
	}
}

func guarded(guard func(http.Handler) http.Handler, handler http.HandlerFunc) http.HandlerFunc {
	return guard(handler).ServeHTTP
}

type zohoLeadPayload struct {
	DealID    string `json:"dealId"`
	ContactID string `json:"contactId"`
	Company   string `json:"company"`
	Customer  struct {
		Name        string `json:"name"`
		Phone       string `json:"phone"`
		Email       string `json:"email"`
		SecondEmail string `json:"secondEmail"`
		SecondPhone string `json:"secondPhone"`
	} `json:"customer"`
	WorkSite struct {
		Street string `json:"street"`
		City   string `json:"city"`
		State  string `json:"state"`
		Zip    string `json:"zip"`
	} `json:"workSite"`
	SalesRep struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"salesRep"`
}

// ZohoAppointmentScheduled handles the CRM's booked-appointment event,
// which carries the customer, work site, and rep inline.
func (h *Handler) ZohoAppointmentScheduled(w http.ResponseWriter, r *http.Request) {
	body, payload, ok := decode[zohoLeadPayload](h, w, r)
	if !ok {
		return
	}

	first, last := splitName(payload.Customer.Name)
	event := workflow.AppointmentScheduledEvent{
		Backend:   correlation.BackendZoho,
		DealID:    payload.DealID,
		ContactID: payload.ContactID,
		Company:   payload.Company,
		Customer: &workflow.CustomerDetail{
			FirstName:   first,
			LastName:    last,
			Email:       payload.Customer.Email,
			SecondEmail: payload.Customer.SecondEmail,
			Phone:       payload.Customer.Phone,
			SecondPhone: payload.Customer.SecondPhone,
		},
	}
	event.WorkSite = &crm.Address{
		Street: payload.WorkSite.Street,
		City:   payload.WorkSite.City,
		State:  payload.WorkSite.State,
		Zip:    payload.WorkSite.Zip,
	}
	event.SalesRep = &crm.SalesRep{
		Name:  strings.TrimSpace(payload.SalesRep.FirstName + " " + payload.SalesRep.LastName),
		Email: payload.SalesRep.Email,
		Phone: payload.SalesRep.Phone,
	}

	if err := h.workflow.OnAppointmentScheduled(r.Context(), event); err != nil {
		h.fail(w, r, "zoho appointment-scheduled", body, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type pipedriveDealAddedPayload struct {
	Current struct {
		ID       int    `json:"id"`
		PersonID int    `json:"person_id"`
		OrgName  string `json:"org_name"`
	} `json:"current"`
}

// PipedriveAppointmentScheduled handles the Pipedrive deal-added event,
// which identifies the deal and person; the workflow fetches the rest.
func (h *Handler) PipedriveAppointmentScheduled(w http.ResponseWriter, r *http.Request) {
	body, payload, ok := decode[pipedriveDealAddedPayload](h, w, r)
	if !ok {
		return
	}

	event := workflow.AppointmentScheduledEvent{
		Backend:   correlation.BackendPipedrive,
		DealID:    strconv.Itoa(payload.Current.ID),
		ContactID: strconv.Itoa(payload.Current.PersonID),
		Company:   payload.Current.OrgName,
	}

	if err := h.workflow.OnAppointmentScheduled(r.Context(), event); err != nil {
		h.fail(w, r, "pipedrive appointment-scheduled", body, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type proposalSignedPayload struct {
	Data struct {
		ProjectID string `json:"project_id"`
		URL       string `json:"url"`
	} `json:"data"`
}

// ProposalSigned handles the design system's finalized-proposal event.
func (h *Handler) ProposalSigned(w http.ResponseWriter, r *http.Request) {
	body, payload, ok := decode[proposalSignedPayload](h, w, r)
	if !ok {
		return
	}

	event := workflow.ProposalSignedEvent{
		ProjectID:   payload.Data.ProjectID,
		DocumentURL: payload.Data.URL,
	}

	if err := h.workflow.OnProposalSigned(r.Context(), event); err != nil {
		h.fail(w, r, "arcsite proposal-signed", body, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type documentSignedPayload struct {
	Requests struct {
		RequestID string `json:"request_id"`
	} `json:"requests"`
	Notifications struct {
		OperationType string `json:"operation_type"`
	} `json:"notifications"`
}

// DocumentSigned handles the e-signature provider's request notifications.
func (h *Handler) DocumentSigned(w http.ResponseWriter, r *http.Request) {
	body, payload, ok := decode[documentSignedPayload](h, w, r)
	if !ok {
		return
	}

	event := workflow.DocumentSignedEvent{
		Operation:     payload.Notifications.OperationType,
		SignRequestID: payload.Requests.RequestID,
	}

	if err := h.workflow.OnDocumentSigned(r.Context(), event); err != nil {
		h.fail(w, r, "esign document-signed", body, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AppointmentCompleted handles the field-service completed-visit callback,
// which only carries the appointment id in the path.
func (h *Handler) AppointmentCompleted(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	event := workflow.AppointmentCompletedEvent{AppointmentID: id}

	if err := h.workflow.OnAppointmentCompleted(r.Context(), event); err != nil {
		h.fail(w, r, "fieldservice appointment-completed", []byte(id), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ProposalReminder lets an operator nudge an unsigned proposal.
func (h *Handler) ProposalReminder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.workflow.SendProposalReminder(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads and parses the request body. A payload that does not parse
// is logged and acknowledged; redelivery would fail identically.
func decode[T any](h *Handler, w http.ResponseWriter, r *http.Request) ([]byte, T, bool) {
	var payload T

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxPayload))
	if err != nil {
		h.logger.Warn("reading webhook payload failed", "path", r.URL.Path, "error", err)
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return nil, payload, false
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("malformed webhook payload",
			"path", r.URL.Path,
			"error", err,
		)
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return nil, payload, false
	}

	return body, payload, true
}

// fail surfaces a workflow error to the sender and records the originating
// event so a human can replay the business effect by hand.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, event string, body []byte, err error) {
	if alertErr := h.notifier.Send(r.Context(), notify.Alert{
		Subject: fmt.Sprintf("Webhook processing failed: %s", event),
		Body: fmt.Sprintf(
			"Event: %s\nError: %v\n\nPayload:\n%s",
			event, err, body,
		),
	}); alertErr != nil {
		h.logger.Error("failure alert delivery failed", "event", event, "error", alertErr)
	}

	handlers.RespondError(w, h.logger.With("event", event), mapStatus(err), err)
}

// mapStatus distinguishes credential failures from generic upstream errors.
func mapStatus(err error) int {
	if errors.Is(err, auth.ErrAuthFailed) {
		return http.StatusBadGateway
	}
	if errors.Is(err, correlation.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func splitName(full string) (string, string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
