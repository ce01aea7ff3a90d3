package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrBatchNotFound        = errors.New("batch_not_found")
	ErrBatchClosed          = errors.New("batch_closed")
	ErrSlugTaken            = errors.New("slug_taken")
	ErrInstallmentMismatch  = errors.New("installment_mismatch")
	ErrWebhookNotFound      = errors.New("webhook_not_found")
	ErrNotificationNotFound = errors.New("notification_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
