package domain

import "time"

// AudienceAll addresses a notification to every user of the platform.
const AudienceAll = "all"

// Notification is a push notification sent from the admin console.
type Notification struct {
	NotificationID string
	Title          string
	Body           string
	Audience       string // AudienceAll or a batch ID
	Link           string
	SentAt         time.Time
}
