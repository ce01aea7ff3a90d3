package store

import (
	"sync"

	"github.com/efreitasn/coursedesk/internal/domain"
)

// NotificationStore is a thread-safe in-memory store for sent
// notifications. Notifications are append-only and chronological.
type NotificationStore struct {
	mu            sync.RWMutex
	notifications []*domain.Notification
	byID          map[string]*domain.Notification
}

// NewNotificationStore creates an empty NotificationStore.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		byID: make(map[string]*domain.Notification),
	}
}

// Append records a sent notification.
func (s *NotificationStore) Append(n *domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, n)
	s.byID[n.NotificationID] = n
}

// Get retrieves a notification by ID. It returns
// domain.ErrNotificationNotFound if it does not exist.
func (s *NotificationStore) Get(id string) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	return n, nil
}

// List returns notifications newest first, 1-based paginated, and the
// total number of notifications.
func (s *NotificationStore) List(page, limit int) ([]*domain.Notification, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.notifications)
	start := (page - 1) * limit
	if start >= total {
		return []*domain.Notification{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	result := make([]*domain.Notification, 0, end-start)
	for i := total - 1 - start; i > total-1-end; i-- {
		result = append(result, s.notifications[i])
	}
	return result, total
}
