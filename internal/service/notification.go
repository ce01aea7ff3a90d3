package service

import (
	"strings"
	"time"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/efreitasn/coursedesk/internal/store"
	"github.com/google/uuid"
)

// NotificationDispatcher publishes sent notifications.
type NotificationDispatcher interface {
	DispatchNotificationSent(n *domain.Notification)
}

// SendNotificationRequest represents the input for sending a push
// notification.
type SendNotificationRequest struct {
	Title    string `label:"title" validate:"required,max=120"`
	Body     string `label:"body" validate:"required,max=1000"`
	Audience string `label:"audience" validate:"required,max=64"`
	Link     string `label:"link" validate:"omitempty,max=2048,url,startswith=https://"`
}

// NotificationService records push notifications and fans them out.
type NotificationService struct {
	store      *store.NotificationStore
	batchStore *store.BatchStore
	dispatcher NotificationDispatcher
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	notificationStore *store.NotificationStore,
	batchStore *store.BatchStore,
	dispatcher NotificationDispatcher,
) *NotificationService {
	return &NotificationService{
		store:      notificationStore,
		batchStore: batchStore,
		dispatcher: dispatcher,
	}
}

// Send validates the request, records the notification and dispatches it.
// The audience is "all" or the ID of an existing batch.
func (s *NotificationService) Send(req SendNotificationRequest) (*domain.Notification, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	req.Audience = strings.TrimSpace(req.Audience)
	req.Link = strings.TrimSpace(req.Link)

	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Audience != domain.AudienceAll && !s.batchStore.Exists(req.Audience) {
		return nil, domain.ErrBatchNotFound
	}

	n := &domain.Notification{
		NotificationID: uuid.New().String(),
		Title:          req.Title,
		Body:           req.Body,
		Audience:       req.Audience,
		Link:           req.Link,
		SentAt:         time.Now().UTC(),
	}
	s.store.Append(n)

	if s.dispatcher != nil {
		s.dispatcher.DispatchNotificationSent(n)
	}
	return n, nil
}

// Get retrieves a sent notification by ID.
func (s *NotificationService) Get(id string) (*domain.Notification, error) {
	return s.store.Get(id)
}

// List returns sent notifications newest first.
func (s *NotificationService) List(page, limit int) ([]*domain.Notification, int, error) {
	if err := validatePage(page, limit); err != nil {
		return nil, 0, err
	}
	notifications, total := s.store.List(page, limit)
	return notifications, total, nil
}
