package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/efreitasn/coursedesk/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchEventDispatcher publishes batch lifecycle events.
type BatchEventDispatcher interface {
	DispatchBatchEvent(event string, b *domain.Batch)
}

// EnrollmentTracker follows batches that have an enrollment deadline.
type EnrollmentTracker interface {
	Track(b *domain.Batch)
	Untrack(batchID string)
}

// BatchRequest is the input for creating or updating a batch.
type BatchRequest struct {
	Title       string `label:"title" validate:"required,max=200"`
	Slug        string `label:"slug" validate:"max=80"`
	Description string `label:"description" validate:"max=5000"`
	Program     string `label:"program" validate:"max=100"`
	Status      string `label:"status" validate:"omitempty,oneof=active closed"`

	Price         decimal.Decimal
	DiscountPrice decimal.Decimal

	// IsEMI enables installment billing. The installment count is
	// EMIMonths, or the length of EMISchedule when EMIMonths is 0.
	IsEMI       bool
	EMIMonths   int
	EMITotal    *decimal.Decimal     // optional, checked against the plan
	EMISchedule []domain.Installment // optional, checked against the plan

	EnrollmentClosesAt *time.Time
}

// ListBatchesRequest holds listing filters and pagination.
type ListBatchesRequest struct {
	Search  string
	Status  *domain.BatchStatus
	Program string
	EMI     *bool
	Page    int
	Limit   int
}

// maxSlugAttempts bounds the numeric suffixes tried for a generated slug.
const maxSlugAttempts = 1000

// BatchService handles batch CRUD and keeps installment plans in sync with
// batch prices.
type BatchService struct {
	store        *store.BatchStore
	installments *InstallmentService
	events       BatchEventDispatcher
	tracker      EnrollmentTracker
}

// NewBatchService creates a new BatchService. events and tracker may be nil.
func NewBatchService(
	batchStore *store.BatchStore,
	installments *InstallmentService,
	events BatchEventDispatcher,
	tracker EnrollmentTracker,
) *BatchService {
	return &BatchService{
		store:        batchStore,
		installments: installments,
		events:       events,
		tracker:      tracker,
	}
}

// Create validates the request, derives the installment plan, assigns a
// unique slug and stores the batch.
func (s *BatchService) Create(req BatchRequest) (*domain.Batch, error) {
	req.normalize()
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	plan, err := s.planFor(req)
	if err != nil {
		return nil, err
	}

	status := domain.BatchStatusActive
	if req.Status != "" {
		status = domain.BatchStatus(req.Status)
	}

	now := time.Now().UTC()
	batch := &domain.Batch{
		BatchID:            uuid.New().String(),
		Title:              req.Title,
		Description:        req.Description,
		Program:            req.Program,
		Price:              req.Price,
		DiscountPrice:      req.DiscountPrice,
		IsEMI:              req.IsEMI,
		EMI:                plan,
		Status:             status,
		EnrollmentClosesAt: req.EnrollmentClosesAt,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if req.Slug != "" {
		if !domain.ValidSlug(req.Slug) {
			return nil, invalidSlugError()
		}
		batch.Slug = req.Slug
		if err := s.store.Create(batch); err != nil {
			return nil, err
		}
	} else if err := s.createWithGeneratedSlug(batch); err != nil {
		return nil, err
	}

	s.afterWrite(domain.EventBatchCreated, batch)
	return batch, nil
}

// createWithGeneratedSlug derives the slug from the title, appending -2,
// -3, ... until the store accepts it.
func (s *BatchService) createWithGeneratedSlug(batch *domain.Batch) error {
	base := domain.Slugify(batch.Title)
	if base == "" {
		base = "batch"
	}
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		batch.Slug = slugCandidate(base, attempt)
		if _, taken := s.store.SlugOwner(batch.Slug); taken {
			continue
		}
		// A concurrent create can still claim the slug; retry then.
		err := s.store.Create(batch)
		if !errors.Is(err, domain.ErrSlugTaken) {
			return err
		}
	}
	return domain.ErrSlugTaken
}

func slugCandidate(base string, attempt int) string {
	if attempt == 1 {
		return base
	}
	suffix := fmt.Sprintf("-%d", attempt)
	if len(base)+len(suffix) > domain.MaxSlugLength {
		base = strings.TrimRight(base[:domain.MaxSlugLength-len(suffix)], "-")
	}
	return base + suffix
}

// Update replaces the editable fields of a batch and recomputes its
// installment plan. An empty slug or status keeps the current value.
func (s *BatchService) Update(id string, req BatchRequest) (*domain.Batch, error) {
	req.normalize()
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.Slug != "" && !domain.ValidSlug(req.Slug) {
		return nil, invalidSlugError()
	}

	plan, err := s.planFor(req)
	if err != nil {
		return nil, err
	}

	batch, err := s.store.Modify(id, func(b *domain.Batch) error {
		if req.Slug != "" {
			b.Slug = req.Slug
		}
		if req.Status != "" {
			b.Status = domain.BatchStatus(req.Status)
		}
		b.Title = req.Title
		b.Description = req.Description
		b.Program = req.Program
		b.Price = req.Price
		b.DiscountPrice = req.DiscountPrice
		b.IsEMI = req.IsEMI
		b.EMI = plan
		b.EnrollmentClosesAt = req.EnrollmentClosesAt
		b.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(domain.EventBatchUpdated, batch)
	return batch, nil
}

// Get retrieves a batch by ID.
func (s *BatchService) Get(id string) (*domain.Batch, error) {
	return s.store.Get(id)
}

// GetBySlug retrieves a batch by slug.
func (s *BatchService) GetBySlug(slug string) (*domain.Batch, error) {
	return s.store.GetBySlug(slug)
}

// List returns a page of batches, newest first, and the total number of
// batches matching the filters.
func (s *BatchService) List(req ListBatchesRequest) ([]*domain.Batch, int, error) {
	if req.Status != nil && *req.Status != domain.BatchStatusActive && *req.Status != domain.BatchStatusClosed {
		return nil, 0, &domain.ValidationError{
			Message: fmt.Sprintf("Invalid status filter: '%s'. Must be one of: active, closed", *req.Status),
		}
	}
	if err := validatePage(req.Page, req.Limit); err != nil {
		return nil, 0, err
	}

	batches, total := s.store.List(store.BatchFilter{
		Search:  strings.TrimSpace(req.Search),
		Status:  req.Status,
		Program: req.Program,
		EMI:     req.EMI,
	}, req.Page, req.Limit)
	return batches, total, nil
}

// Delete removes a batch.
func (s *BatchService) Delete(id string) error {
	batch, err := s.store.Delete(id)
	if err != nil {
		return err
	}
	if s.tracker != nil {
		s.tracker.Untrack(id)
	}
	if s.events != nil {
		s.events.DispatchBatchEvent(domain.EventBatchDeleted, batch)
	}
	return nil
}

// Close ends enrollment for an active batch immediately. The status check
// and the transition happen under the store lock, so concurrent closes
// yield exactly one success and one batch.closed event.
func (s *BatchService) Close(id string) (*domain.Batch, error) {
	batch, err := s.store.Modify(id, func(b *domain.Batch) error {
		if b.Status == domain.BatchStatusClosed {
			return domain.ErrBatchClosed
		}
		b.Status = domain.BatchStatusClosed
		b.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.tracker != nil {
		s.tracker.Untrack(id)
	}
	if s.events != nil {
		s.events.DispatchBatchEvent(domain.EventBatchClosed, batch)
	}
	return batch, nil
}

// planFor derives the installment plan for req, or nil when installment
// billing is off. A schedule or total submitted by the client must equal
// the derived plan exactly.
func (s *BatchService) planFor(req BatchRequest) (*domain.InstallmentPlan, error) {
	if !req.IsEMI {
		return nil, nil
	}

	if req.EMIMonths > domain.MaxInstallmentCount {
		return nil, installmentCountError("emi_months")
	}
	if len(req.EMISchedule) > domain.MaxInstallmentCount {
		return nil, installmentCountError("emi_schedule length")
	}

	count := req.EMIMonths
	if count == 0 {
		count = len(req.EMISchedule)
	}
	if count < 1 {
		return nil, &domain.ValidationError{Message: "emi_months must be >= 1 when is_emi is true"}
	}

	plan := s.installments.Plan(req.Price, req.DiscountPrice, count)
	if plan.IsEmpty() {
		return nil, &domain.ValidationError{Message: "price must be > 0 when is_emi is true"}
	}

	if req.EMISchedule != nil && !plan.Matches(req.EMISchedule) {
		return nil, domain.ErrInstallmentMismatch
	}
	if req.EMITotal != nil && !req.EMITotal.Equal(plan.TotalAmount) {
		return nil, domain.ErrInstallmentMismatch
	}
	return &plan, nil
}

func (s *BatchService) afterWrite(event string, batch *domain.Batch) {
	if s.tracker != nil {
		if batch.Status == domain.BatchStatusActive && batch.EnrollmentClosesAt != nil {
			s.tracker.Track(batch)
		} else {
			s.tracker.Untrack(batch.BatchID)
		}
	}
	if s.events != nil {
		s.events.DispatchBatchEvent(event, batch)
	}
}

// normalize trims text fields and clamps negative prices to zero.
func (r *BatchRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Slug = strings.TrimSpace(r.Slug)
	r.Description = strings.TrimSpace(r.Description)
	r.Program = strings.TrimSpace(r.Program)
	r.Status = strings.TrimSpace(r.Status)
	r.Price = domain.ClampAmount(r.Price)
	r.DiscountPrice = domain.ClampAmount(r.DiscountPrice)
	if r.EMIMonths < 0 {
		r.EMIMonths = 0
	}
}

func invalidSlugError() error {
	return &domain.ValidationError{
		Message: fmt.Sprintf("slug must match ^[a-z0-9]+(-[a-z0-9]+)*$ and be at most %d characters", domain.MaxSlugLength),
	}
}
