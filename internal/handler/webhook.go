package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/efreitasn/coursedesk/internal/service"
	"github.com/go-chi/chi/v5"
)

// WebhookHandler serves webhook subscriptions for batch and notification
// events.
type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// subscribeRequest is the body of POST /webhooks. One subscription is kept
// per (url, event) pair.
type subscribeRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

type subscriptionJSON struct {
	WebhookID string `json:"webhook_id"`
	Event     string `json:"event"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type webhookListResponse struct {
	Webhooks []subscriptionJSON `json:"webhooks"`
}

type eventCatalogResponse struct {
	Events []string `json:"events"`
}

// Upsert handles POST /webhooks. Responds 201 when at least one
// subscription is new, 200 when every pair was already registered.
func (h *WebhookHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	subs, created, err := h.webhookSvc.Upsert(service.UpsertWebhookRequest(req))
	if err != nil {
		mapWebhookError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeSubscriptions(w, status, subs)
}

// List handles GET /webhooks, optionally narrowed with ?event=.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	event := r.URL.Query().Get("event")
	if event == "" {
		writeSubscriptions(w, http.StatusOK, h.webhookSvc.List())
		return
	}

	subs, err := h.webhookSvc.ListByEvent(event)
	if err != nil {
		mapWebhookError(w, err)
		return
	}
	writeSubscriptions(w, http.StatusOK, subs)
}

// Events handles GET /webhooks/events.
func (h *WebhookHandler) Events(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, eventCatalogResponse{Events: domain.WebhookEvents})
}

// Get handles GET /webhooks/{webhook_id}.
func (h *WebhookHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.webhookSvc.Get(chi.URLParam(r, "webhook_id"))
	if err != nil {
		mapWebhookError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toSubscriptionJSON(sub))
}

// Delete handles DELETE /webhooks/{webhook_id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.webhookSvc.Delete(chi.URLParam(r, "webhook_id")); err != nil {
		mapWebhookError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeSubscriptions(w http.ResponseWriter, status int, subs []*domain.Webhook) {
	resp := webhookListResponse{Webhooks: make([]subscriptionJSON, 0, len(subs))}
	for _, sub := range subs {
		resp.Webhooks = append(resp.Webhooks, toSubscriptionJSON(sub))
	}
	WriteJSON(w, status, resp)
}

func toSubscriptionJSON(sub *domain.Webhook) subscriptionJSON {
	return subscriptionJSON{
		WebhookID: sub.WebhookID,
		Event:     sub.Event,
		URL:       sub.URL,
		CreatedAt: formatTime(sub.CreatedAt),
		UpdatedAt: formatTime(sub.UpdatedAt),
	}
}

func mapWebhookError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, http.StatusBadRequest, "validation_error", ve.Message)
	case errors.Is(err, domain.ErrWebhookNotFound):
		WriteError(w, http.StatusNotFound, "webhook_not_found", "Webhook not found")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
