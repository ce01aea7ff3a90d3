package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/efreitasn/coursedesk/internal/service"
	"github.com/shopspring/decimal"
)

// InstallmentHandler handles HTTP requests for installment endpoints.
type InstallmentHandler struct {
	installmentSvc *service.InstallmentService
}

// NewInstallmentHandler creates a new InstallmentHandler.
func NewInstallmentHandler(installmentSvc *service.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{installmentSvc: installmentSvc}
}

// previewRequest is the JSON request body for POST /installments/preview.
type previewRequest struct {
	Price            decimal.Decimal `json:"price"`
	DiscountPrice    decimal.Decimal `json:"discount_price"`
	InstallmentCount decimal.Decimal `json:"installment_count"`
}

// previewResponse is the JSON response for installment previews.
type previewResponse struct {
	EffectivePrice   float64                 `json:"effective_price"`
	TotalAmount      float64                 `json:"total_amount"`
	InstallmentCount int                     `json:"installment_count"`
	PerMonth         float64                 `json:"per_month"`
	Schedule         []scheduleEntryResponse `json:"schedule"`
}

// tenorsResponse is the JSON response for GET /installments/tenors.
type tenorsResponse struct {
	Tenors []int `json:"tenors"`
}

// Preview handles POST /installments/preview.
func (h *InstallmentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	h.writePreview(w, service.PreviewRequest{
		Price:            req.Price,
		DiscountPrice:    req.DiscountPrice,
		InstallmentCount: domain.ParseInstallmentCount(req.InstallmentCount.String()),
	})
}

// PreviewQuery handles GET /installments/preview?price=&discount_price=&installment_count=.
// Values that are missing, non-numeric or negative count as zero.
func (h *InstallmentHandler) PreviewQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.writePreview(w, service.PreviewRequest{
		Price:            domain.ParseAmount(q.Get("price")),
		DiscountPrice:    domain.ParseAmount(q.Get("discount_price")),
		InstallmentCount: domain.ParseInstallmentCount(q.Get("installment_count")),
	})
}

func (h *InstallmentHandler) writePreview(w http.ResponseWriter, req service.PreviewRequest) {
	plan, err := h.installmentSvc.Preview(req)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
			return
		}
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	WriteJSON(w, http.StatusOK, previewResponse{
		EffectivePrice:   domain.AmountToFloat(plan.TotalAmount),
		TotalAmount:      domain.AmountToFloat(plan.TotalAmount),
		InstallmentCount: plan.InstallmentCount,
		PerMonth:         domain.AmountToFloat(plan.PerMonth),
		Schedule:         buildSchedule(plan.Schedule),
	})
}

// Tenors handles GET /installments/tenors.
func (h *InstallmentHandler) Tenors(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, tenorsResponse{Tenors: h.installmentSvc.Tenors()})
}
