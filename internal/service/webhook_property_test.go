package service

import (
	"fmt"
	"testing"

	"github.com/efreitasn/coursedesk/internal/domain"
	"pgregory.net/rapid"
)

// TestProperty_WebhookUpsertIdempotency verifies that re-registering the
// same (event, url) pairs never creates new subscriptions and keeps every
// webhook_id stable, while a new URL always creates fresh ones.
func TestProperty_WebhookUpsertIdempotency(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc, _ := newTestWebhookService()

		events := rapid.SliceOfNDistinct(rapid.SampledFrom(domain.WebhookEvents), 1, len(domain.WebhookEvents), rapid.ID[string]).Draw(t, "events")
		url1 := fmt.Sprintf("https://example.com/hook/%d", rapid.IntRange(1, 99999).Draw(t, "urlSuffix1"))
		url2 := fmt.Sprintf("https://other.example.com/hook/%d", rapid.IntRange(1, 99999).Draw(t, "urlSuffix2"))

		first, created, err := svc.Upsert(UpsertWebhookRequest{URL: url1, Events: events})
		if err != nil {
			t.Fatalf("initial upsert failed: %v", err)
		}
		if !created {
			t.Fatal("expected created=true for initial registration")
		}

		repeats := rapid.IntRange(1, 5).Draw(t, "repeats")
		for i := 0; i < repeats; i++ {
			again, created, err := svc.Upsert(UpsertWebhookRequest{URL: url1, Events: events})
			if err != nil {
				t.Fatalf("repeat %d failed: %v", i, err)
			}
			if created {
				t.Fatalf("repeat %d: expected created=false", i)
			}
			for j := range first {
				if again[j].WebhookID != first[j].WebhookID {
					t.Fatalf("repeat %d: webhook_id changed for %s", i, first[j].Event)
				}
			}
		}

		other, created, err := svc.Upsert(UpsertWebhookRequest{URL: url2, Events: events})
		if err != nil {
			t.Fatalf("second url upsert failed: %v", err)
		}
		if !created {
			t.Fatal("expected created=true for a new url")
		}
		if got := len(svc.List()); got != len(first)+len(other) {
			t.Fatalf("got %d subscriptions, want %d", got, len(first)+len(other))
		}
	})
}
