package enrollment

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/efreitasn/coursedesk/internal/store"
)

// EventDispatcher publishes batch.closed events without the enrollment
// package depending on the service layer.
type EventDispatcher interface {
	DispatchBatchEvent(event string, b *domain.Batch)
}

// trackedBatch is an active batch waiting for its enrollment deadline.
type trackedBatch struct {
	BatchID  string
	ClosesAt time.Time
}

// Closer tracks active batches sorted by enrollment deadline and
// periodically closes batches whose deadline has passed.
type Closer struct {
	interval   time.Duration
	batches    *store.BatchStore
	dispatcher EventDispatcher
	logger     *slog.Logger
	tracked    []trackedBatch // sorted by ClosesAt ASC
	mu         sync.Mutex     // protects tracked
}

// NewCloser creates a new Closer with the given dependencies.
// dispatcher may be nil.
func NewCloser(
	interval time.Duration,
	batches *store.BatchStore,
	dispatcher EventDispatcher,
	logger *slog.Logger,
) *Closer {
	return &Closer{
		interval:   interval,
		batches:    batches,
		dispatcher: dispatcher,
		logger:     logger,
		tracked:    make([]trackedBatch, 0),
	}
}

// Track starts (or restarts) following b. Batches without a deadline are
// ignored; a batch tracked before is re-positioned by its new deadline.
func (c *Closer) Track(b *domain.Batch) {
	if b.EnrollmentClosesAt == nil {
		c.Untrack(b.BatchID)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(b.BatchID)

	closesAt := *b.EnrollmentClosesAt
	// Binary search for the insertion point.
	idx := sort.Search(len(c.tracked), func(i int) bool {
		return c.tracked[i].ClosesAt.After(closesAt)
	})
	c.tracked = append(c.tracked, trackedBatch{})
	copy(c.tracked[idx+1:], c.tracked[idx:])
	c.tracked[idx] = trackedBatch{BatchID: b.BatchID, ClosesAt: closesAt}
}

// Untrack stops following a batch.
func (c *Closer) Untrack(batchID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(batchID)
}

func (c *Closer) removeLocked(batchID string) {
	for i, tb := range c.tracked {
		if tb.BatchID == batchID {
			c.tracked = append(c.tracked[:i], c.tracked[i+1:]...)
			return
		}
	}
}

// Start launches a background goroutine that ticks at the configured
// interval and closes due batches. It stops when ctx is cancelled.
func (c *Closer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				c.tick(t)
			}
		}
	}()
}

// tick pops every tracked batch with ClosesAt <= now and closes it.
func (c *Closer) tick(now time.Time) {
	c.mu.Lock()
	cutoff := 0
	for cutoff < len(c.tracked) && !c.tracked[cutoff].ClosesAt.After(now) {
		cutoff++
	}
	due := make([]trackedBatch, cutoff)
	copy(due, c.tracked[:cutoff])
	c.tracked = c.tracked[cutoff:]
	c.mu.Unlock()

	for _, tb := range due {
		c.close(tb.BatchID, now)
	}
}

// close re-checks the batch under the store lock, since it may have been
// deleted, closed by hand or given a later deadline since it was tracked.
// The event is dispatched outside any lock.
func (c *Closer) close(batchID string, now time.Time) {
	batch, ok := c.batches.CloseIfDue(batchID, now)
	if !ok {
		return
	}

	c.logger.Info("batch enrollment closed",
		slog.String("batch_id", batch.BatchID),
		slog.String("slug", batch.Slug),
	)
	if c.dispatcher != nil {
		c.dispatcher.DispatchBatchEvent(domain.EventBatchClosed, batch)
	}
}

// TrackedCount returns the number of batches waiting for their deadline.
func (c *Closer) TrackedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tracked)
}
