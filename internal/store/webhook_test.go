package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/efreitasn/coursedesk/internal/domain"
)

func newTestWebhook(id, event, url string) *domain.Webhook {
	now := time.Now()
	return &domain.Webhook{
		WebhookID: id,
		Event:     event,
		URL:       url,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestWebhookStore_Upsert_NewSubscription(t *testing.T) {
	s := NewWebhookStore()
	w := newTestWebhook("wh-1", domain.EventBatchCreated, "https://example.com/hook")

	got, created := s.Upsert(w)
	if !created {
		t.Fatal("expected Upsert to report a new subscription")
	}
	if got.WebhookID != "wh-1" {
		t.Fatalf("expected webhook ID wh-1, got %s", got.WebhookID)
	}

	stored, err := s.Get("wh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.URL != "https://example.com/hook" {
		t.Fatalf("expected URL https://example.com/hook, got %s", stored.URL)
	}
}

func TestWebhookStore_Upsert_ExistingPairKeepsID(t *testing.T) {
	s := NewWebhookStore()
	s.Upsert(newTestWebhook("wh-1", domain.EventBatchCreated, "https://example.com/hook"))

	got, created := s.Upsert(newTestWebhook("wh-2", domain.EventBatchCreated, "https://example.com/hook"))
	if created {
		t.Fatal("expected Upsert to return false for an existing event+url pair")
	}
	if got.WebhookID != "wh-1" {
		t.Fatalf("expected existing webhook wh-1, got %s", got.WebhookID)
	}
	if _, err := s.Get("wh-2"); err != domain.ErrWebhookNotFound {
		t.Fatalf("expected wh-2 not to be stored, got %v", err)
	}
}

func TestWebhookStore_Upsert_SameEventDifferentURLs(t *testing.T) {
	s := NewWebhookStore()
	s.Upsert(newTestWebhook("wh-1", domain.EventBatchCreated, "https://b.example.com/hook"))
	s.Upsert(newTestWebhook("wh-2", domain.EventBatchCreated, "https://a.example.com/hook"))

	hooks := s.ListByEvent(domain.EventBatchCreated)
	if len(hooks) != 2 {
		t.Fatalf("expected 2 subscribers, got %d", len(hooks))
	}
	if hooks[0].URL != "https://a.example.com/hook" {
		t.Fatalf("expected subscribers ordered by URL, got %s first", hooks[0].URL)
	}
}

func TestWebhookStore_ListByEvent_Empty(t *testing.T) {
	s := NewWebhookStore()

	hooks := s.ListByEvent(domain.EventBatchClosed)
	if hooks == nil {
		t.Fatal("expected non-nil empty slice, got nil")
	}
	if len(hooks) != 0 {
		t.Fatalf("expected 0 webhooks, got %d", len(hooks))
	}
}

func TestWebhookStore_List_OrderedByCreation(t *testing.T) {
	s := NewWebhookStore()
	now := time.Now()

	w1 := newTestWebhook("wh-1", domain.EventBatchCreated, "https://example.com/1")
	w1.CreatedAt = now.Add(time.Second)
	w2 := newTestWebhook("wh-2", domain.EventBatchDeleted, "https://example.com/2")
	w2.CreatedAt = now
	s.Upsert(w1)
	s.Upsert(w2)

	hooks := s.List()
	if len(hooks) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(hooks))
	}
	if hooks[0].WebhookID != "wh-2" || hooks[1].WebhookID != "wh-1" {
		t.Fatalf("expected [wh-2 wh-1], got [%s %s]", hooks[0].WebhookID, hooks[1].WebhookID)
	}
}

func TestWebhookStore_Delete(t *testing.T) {
	s := NewWebhookStore()
	s.Upsert(newTestWebhook("wh-1", domain.EventBatchCreated, "https://example.com/hook"))

	if err := s.Delete("wh-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get("wh-1"); err != domain.ErrWebhookNotFound {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}
	if hooks := s.ListByEvent(domain.EventBatchCreated); len(hooks) != 0 {
		t.Fatalf("expected secondary index to be cleaned up, got %d", len(hooks))
	}

	// The pair can be subscribed again with a fresh ID.
	if _, created := s.Upsert(newTestWebhook("wh-3", domain.EventBatchCreated, "https://example.com/hook")); !created {
		t.Fatal("expected re-subscription after delete to create a new webhook")
	}

	if err := s.Delete("no-such-webhook"); err != domain.ErrWebhookNotFound {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}
}

func TestWebhookStore_ConcurrentAccess(t *testing.T) {
	s := NewWebhookStore()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Upsert(newTestWebhook(fmt.Sprintf("wh-%d", i), domain.EventBatchUpdated, fmt.Sprintf("https://example.com/%d", i)))
		}(i)
		go func() {
			defer wg.Done()
			s.ListByEvent(domain.EventBatchUpdated)
		}()
	}
	wg.Wait()

	if got := len(s.List()); got != 100 {
		t.Fatalf("expected 100 webhooks, got %d", got)
	}
}
