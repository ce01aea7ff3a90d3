package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/efreitasn/coursedesk/internal/store"
	"github.com/google/uuid"
)

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	URL    string   `label:"url" validate:"required,max=2048,url,startswith=https://"`
	Events []string `label:"events" validate:"required,min=1,dive,webhook_event"`
}

// WebhookService handles webhook CRUD and event dispatch.
type WebhookService struct {
	store  *store.WebhookStore
	client *http.Client
	logger *slog.Logger
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(webhookStore *store.WebhookStore, webhookTimeout time.Duration, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		store: webhookStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
		logger: logger,
	}
}

// Upsert validates the request and creates webhook subscriptions for each
// (event, url) pair that is not subscribed yet. Returns the resulting
// webhooks, whether any new subscription was created, and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	req.URL = strings.TrimSpace(req.URL)
	if err := validateRequest(req); err != nil {
		return nil, false, err
	}

	// Deduplicate events while preserving order.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		wh, created := s.store.Upsert(&domain.Webhook{
			WebhookID: uuid.New().String(),
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if created {
			anyCreated = true
		}
		webhooks = append(webhooks, wh)
	}

	return webhooks, anyCreated, nil
}

// List returns all webhook subscriptions.
func (s *WebhookService) List() []*domain.Webhook {
	return s.store.List()
}

// Get returns one webhook subscription by ID.
func (s *WebhookService) Get(webhookID string) (*domain.Webhook, error) {
	return s.store.Get(webhookID)
}

// ListByEvent returns the subscriptions to one event.
func (s *WebhookService) ListByEvent(event string) ([]*domain.Webhook, error) {
	if !domain.IsWebhookEvent(event) {
		return nil, &domain.ValidationError{Message: unknownEventMessage(event)}
	}
	return s.store.ListByEvent(event), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// eventPayload is the JSON body of every webhook delivery.
type eventPayload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

type scheduleEntryData struct {
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
}

type batchEventData struct {
	BatchID        string              `json:"batch_id"`
	Title          string              `json:"title"`
	Slug           string              `json:"slug"`
	Program        string              `json:"program"`
	Status         string              `json:"status"`
	Price          float64             `json:"price"`
	DiscountPrice  float64             `json:"discount_price"`
	EffectivePrice float64             `json:"effective_price"`
	IsEMI          bool                `json:"is_emi"`
	EMITotal       *float64            `json:"emi_total,omitempty"`
	EMISchedule    []scheduleEntryData `json:"emi_schedule,omitempty"`
}

type notificationEventData struct {
	NotificationID string `json:"notification_id"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	Audience       string `json:"audience"`
	Link           string `json:"link,omitempty"`
	SentAt         string `json:"sent_at"`
}

// DispatchBatchEvent notifies every subscriber of event about b.
// Fire-and-forget.
func (s *WebhookService) DispatchBatchEvent(event string, b *domain.Batch) {
	data := batchEventData{
		BatchID:        b.BatchID,
		Title:          b.Title,
		Slug:           b.Slug,
		Program:        b.Program,
		Status:         string(b.Status),
		Price:          domain.AmountToFloat(b.Price),
		DiscountPrice:  domain.AmountToFloat(b.DiscountPrice),
		EffectivePrice: domain.AmountToFloat(b.EffectivePrice()),
		IsEMI:          b.IsEMI,
	}
	if b.IsEMI && b.EMI != nil {
		total := domain.AmountToFloat(b.EMI.TotalAmount)
		data.EMITotal = &total
		data.EMISchedule = make([]scheduleEntryData, len(b.EMI.Schedule))
		for i, inst := range b.EMI.Schedule {
			data.EMISchedule[i] = scheduleEntryData{Month: inst.Month, Amount: domain.AmountToFloat(inst.Amount)}
		}
	}

	s.dispatch(event, data)
}

// DispatchNotificationSent notifies notification.sent subscribers.
// Fire-and-forget.
func (s *WebhookService) DispatchNotificationSent(n *domain.Notification) {
	s.dispatch(domain.EventNotificationSent, notificationEventData{
		NotificationID: n.NotificationID,
		Title:          n.Title,
		Body:           n.Body,
		Audience:       n.Audience,
		Link:           n.Link,
		SentAt:         n.SentAt.UTC().Format(time.RFC3339),
	})
}

func (s *WebhookService) dispatch(event string, data any) {
	hooks := s.store.ListByEvent(event)
	if len(hooks) == 0 {
		return
	}

	payload := eventPayload{
		Event:     event,
		Timestamp: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Data:      data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("webhook payload encoding failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, wh := range hooks {
		go s.deliver(wh, event, body)
	}
}

// deliver sends the webhook payload via HTTP POST with the required headers.
// Failures are logged and not retried.
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		s.logDeliveryFailure(wh, eventType, err.Error())
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logDeliveryFailure(wh, eventType, err.Error())
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logDeliveryFailure(wh, eventType, resp.Status)
	}
}

func (s *WebhookService) logDeliveryFailure(wh *domain.Webhook, eventType, reason string) {
	s.logger.Warn("webhook delivery failed",
		slog.String("webhook_id", wh.WebhookID),
		slog.String("event", eventType),
		slog.String("error", reason),
	)
}
