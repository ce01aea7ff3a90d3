package domain

import "time"

// Webhook event names.
const (
	EventBatchCreated     = "batch.created"
	EventBatchUpdated     = "batch.updated"
	EventBatchDeleted     = "batch.deleted"
	EventBatchClosed      = "batch.closed"
	EventNotificationSent = "notification.sent"
)

// WebhookEvents lists every event a webhook may subscribe to.
var WebhookEvents = []string{
	EventBatchCreated,
	EventBatchUpdated,
	EventBatchDeleted,
	EventBatchClosed,
	EventNotificationSent,
}

// Webhook represents an integrator's subscription to one event at one URL.
type Webhook struct {
	WebhookID string
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsWebhookEvent reports whether event is one of WebhookEvents.
func IsWebhookEvent(event string) bool {
	for _, e := range WebhookEvents {
		if e == event {
			return true
		}
	}
	return false
}
