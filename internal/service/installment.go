package service

import (
	"fmt"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/shopspring/decimal"
)

// PreviewRequest is the input of an installment preview: the numbers an
// operator has typed into a batch form so far.
type PreviewRequest struct {
	Price            decimal.Decimal
	DiscountPrice    decimal.Decimal
	InstallmentCount int
}

// InstallmentService computes installment plans at the configured
// currency precision and advertises the tenor menu.
type InstallmentService struct {
	places int32
	tenors []int
}

// NewInstallmentService creates a new InstallmentService.
func NewInstallmentService(places int32, tenors []int) *InstallmentService {
	return &InstallmentService{
		places: places,
		tenors: append([]int(nil), tenors...),
	}
}

// Preview derives the plan for an in-progress form. Incomplete or negative
// input yields an empty plan rather than an error; only a count above
// domain.MaxInstallmentCount is rejected.
func (s *InstallmentService) Preview(req PreviewRequest) (domain.InstallmentPlan, error) {
	if req.InstallmentCount > domain.MaxInstallmentCount {
		return domain.InstallmentPlan{}, installmentCountError("installment_count")
	}
	return domain.NewInstallmentPlan(req.Price, req.DiscountPrice, req.InstallmentCount, s.places), nil
}

// Plan derives the plan stored on a batch. The caller bounds count.
func (s *InstallmentService) Plan(price, discountPrice decimal.Decimal, count int) domain.InstallmentPlan {
	return domain.NewInstallmentPlan(price, discountPrice, count, s.places)
}

// Tenors returns the advertised installment counts. Other positive counts
// are still accepted everywhere.
func (s *InstallmentService) Tenors() []int {
	return append([]int(nil), s.tenors...)
}

func installmentCountError(field string) error {
	return &domain.ValidationError{
		Message: fmt.Sprintf("%s must be at most %d", field, domain.MaxInstallmentCount),
	}
}
