package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/efreitasn/coursedesk/internal/service"
	"github.com/go-chi/chi/v5"
)

// NotificationHandler handles HTTP requests for push notification endpoints.
type NotificationHandler struct {
	notificationSvc *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationSvc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// sendNotificationRequest is the JSON request body for POST /notifications.
type sendNotificationRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Audience string `json:"audience"`
	Link     string `json:"link"`
}

type notificationResponse struct {
	NotificationID string  `json:"notification_id"`
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	Audience       string  `json:"audience"`
	Link           *string `json:"link"`
	SentAt         string  `json:"sent_at"`
}

type notificationListResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
}

func buildNotificationResponse(n *domain.Notification) notificationResponse {
	resp := notificationResponse{
		NotificationID: n.NotificationID,
		Title:          n.Title,
		Body:           n.Body,
		Audience:       n.Audience,
		SentAt:         formatTime(n.SentAt),
	}
	if n.Link != "" {
		link := n.Link
		resp.Link = &link
	}
	return resp
}

// Send handles POST /notifications.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	n, err := h.notificationSvc.Send(service.SendNotificationRequest{
		Title:    req.Title,
		Body:     req.Body,
		Audience: req.Audience,
		Link:     req.Link,
	})
	if err != nil {
		mapNotificationError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildNotificationResponse(n))
}

// Get handles GET /notifications/{notification_id}.
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.notificationSvc.Get(chi.URLParam(r, "notification_id"))
	if err != nil {
		mapNotificationError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildNotificationResponse(n))
}

// List handles GET /notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	notifications, total, err := h.notificationSvc.List(page, limit)
	if err != nil {
		mapNotificationError(w, err)
		return
	}

	items := make([]notificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = buildNotificationResponse(n)
	}

	WriteJSON(w, http.StatusOK, notificationListResponse{
		Notifications: items,
		Total:         total,
		Page:          page,
		Limit:         limit,
	})
}

// mapNotificationError maps domain errors to HTTP responses for
// notification endpoints.
func mapNotificationError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrBatchNotFound):
		WriteError(w, http.StatusNotFound, "batch_not_found", "Audience batch not found")
	case errors.Is(err, domain.ErrNotificationNotFound):
		WriteError(w, http.StatusNotFound, "notification_not_found", "Notification not found")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
