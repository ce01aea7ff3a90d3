package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/efreitasn/coursedesk/internal/domain"
	"github.com/efreitasn/coursedesk/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// maxFormMemory is the part of a multipart batch form kept in memory.
const maxFormMemory = 10 << 20

// BatchHandler handles HTTP requests for batch endpoints.
type BatchHandler struct {
	batchSvc *service.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchSvc *service.BatchService) *BatchHandler {
	return &BatchHandler{batchSvc: batchSvc}
}

// installmentJSON is one schedule entry on the wire.
type installmentJSON struct {
	Month  int             `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// batchRequest is the JSON request body for POST /batches and
// PUT /batches/{batch_id}.
type batchRequest struct {
	Title              string            `json:"title"`
	Slug               string            `json:"slug"`
	Description        string            `json:"description"`
	Program            string            `json:"program"`
	Price              decimal.Decimal   `json:"price"`
	DiscountPrice      decimal.Decimal   `json:"discount_price"`
	IsEMI              bool              `json:"is_emi"`
	EMIMonths          int               `json:"emi_months"`
	EMITotal           *decimal.Decimal  `json:"emi_total"`
	EMISchedule        []installmentJSON `json:"emi_schedule"`
	Status             string            `json:"status"`
	EnrollmentClosesAt *time.Time        `json:"enrollment_closes_at"`
}

func (req batchRequest) toService() service.BatchRequest {
	return service.BatchRequest{
		Title:              req.Title,
		Slug:               req.Slug,
		Description:        req.Description,
		Program:            req.Program,
		Status:             req.Status,
		Price:              req.Price,
		DiscountPrice:      req.DiscountPrice,
		IsEMI:              req.IsEMI,
		EMIMonths:          req.EMIMonths,
		EMITotal:           req.EMITotal,
		EMISchedule:        toInstallments(req.EMISchedule),
		EnrollmentClosesAt: req.EnrollmentClosesAt,
	}
}

func toInstallments(entries []installmentJSON) []domain.Installment {
	if entries == nil {
		return nil
	}
	out := make([]domain.Installment, len(entries))
	for i, e := range entries {
		out[i] = domain.Installment{Month: e.Month, Amount: e.Amount}
	}
	return out
}

// scheduleEntryResponse is one schedule entry in a response.
type scheduleEntryResponse struct {
	Month  int     `json:"month"`
	Amount float64 `json:"amount"`
}

func buildSchedule(schedule []domain.Installment) []scheduleEntryResponse {
	out := make([]scheduleEntryResponse, len(schedule))
	for i, inst := range schedule {
		out[i] = scheduleEntryResponse{Month: inst.Month, Amount: domain.AmountToFloat(inst.Amount)}
	}
	return out
}

// batchResponse is the JSON response for a single batch. The emi_* fields
// are null unless installment billing is on.
type batchResponse struct {
	BatchID            string                  `json:"batch_id"`
	Title              string                  `json:"title"`
	Slug               string                  `json:"slug"`
	Description        string                  `json:"description"`
	Program            string                  `json:"program"`
	Status             string                  `json:"status"`
	Price              float64                 `json:"price"`
	DiscountPrice      float64                 `json:"discount_price"`
	EffectivePrice     float64                 `json:"effective_price"`
	IsEMI              bool                    `json:"is_emi"`
	EMIMonths          *int                    `json:"emi_months"`
	EMIPerMonth        *float64                `json:"emi_per_month"`
	EMITotal           *float64                `json:"emi_total"`
	EMISchedule        []scheduleEntryResponse `json:"emi_schedule"`
	EnrollmentClosesAt *string                 `json:"enrollment_closes_at"`
	CreatedAt          string                  `json:"created_at"`
	UpdatedAt          string                  `json:"updated_at"`
}

// batchListResponse is the JSON response for GET /batches.
type batchListResponse struct {
	Batches []batchResponse `json:"batches"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Limit   int             `json:"limit"`
}

func buildBatchResponse(b *domain.Batch) batchResponse {
	resp := batchResponse{
		BatchID:            b.BatchID,
		Title:              b.Title,
		Slug:               b.Slug,
		Description:        b.Description,
		Program:            b.Program,
		Status:             string(b.Status),
		Price:              domain.AmountToFloat(b.Price),
		DiscountPrice:      domain.AmountToFloat(b.DiscountPrice),
		EffectivePrice:     domain.AmountToFloat(b.EffectivePrice()),
		IsEMI:              b.IsEMI,
		EnrollmentClosesAt: formatTimePtr(b.EnrollmentClosesAt),
		CreatedAt:          formatTime(b.CreatedAt),
		UpdatedAt:          formatTime(b.UpdatedAt),
	}

	if b.IsEMI && b.EMI != nil {
		months := b.EMI.InstallmentCount
		perMonth := domain.AmountToFloat(b.EMI.PerMonth)
		total := domain.AmountToFloat(b.EMI.TotalAmount)
		resp.EMIMonths = &months
		resp.EMIPerMonth = &perMonth
		resp.EMITotal = &total
		resp.EMISchedule = buildSchedule(b.EMI.Schedule)
	}
	return resp
}

// Create handles POST /batches.
func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := parseBatchRequest(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	batch, err := h.batchSvc.Create(req)
	if err != nil {
		mapBatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildBatchResponse(batch))
}

// Update handles PUT /batches/{batch_id}.
func (h *BatchHandler) Update(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batch_id")

	req, err := parseBatchRequest(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	batch, err := h.batchSvc.Update(batchID, req)
	if err != nil {
		mapBatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBatchResponse(batch))
}

// Get handles GET /batches/{batch_id}.
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	batch, err := h.batchSvc.Get(chi.URLParam(r, "batch_id"))
	if err != nil {
		mapBatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBatchResponse(batch))
}

// GetBySlug handles GET /batches/slug/{slug}.
func (h *BatchHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	batch, err := h.batchSvc.GetBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		mapBatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBatchResponse(batch))
}

// List handles GET /batches.
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, limit, err := parsePagination(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	req := service.ListBatchesRequest{
		Search:  q.Get("search"),
		Program: q.Get("program"),
		Page:    page,
		Limit:   limit,
	}
	if s := q.Get("status"); s != "" {
		status := domain.BatchStatus(s)
		req.Status = &status
	}
	if e := q.Get("emi"); e != "" {
		emi, err := strconv.ParseBool(e)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "emi must be true or false")
			return
		}
		req.EMI = &emi
	}

	batches, total, err := h.batchSvc.List(req)
	if err != nil {
		mapBatchError(w, err)
		return
	}

	items := make([]batchResponse, len(batches))
	for i, b := range batches {
		items[i] = buildBatchResponse(b)
	}

	WriteJSON(w, http.StatusOK, batchListResponse{
		Batches: items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

// Delete handles DELETE /batches/{batch_id}.
func (h *BatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.batchSvc.Delete(chi.URLParam(r, "batch_id")); err != nil {
		mapBatchError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Close handles POST /batches/{batch_id}/close.
func (h *BatchHandler) Close(w http.ResponseWriter, r *http.Request) {
	batch, err := h.batchSvc.Close(chi.URLParam(r, "batch_id"))
	if err != nil {
		mapBatchError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, buildBatchResponse(batch))
}

// requestError is a malformed request body, reported as 400 with code.
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

func writeParseError(w http.ResponseWriter, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		WriteError(w, http.StatusBadRequest, reqErr.code, reqErr.message)
		return
	}
	WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
}

// parseBatchRequest reads a batch from a JSON body or from form fields.
func parseBatchRequest(r *http.Request) (service.BatchRequest, error) {
	if isForm(r) {
		return parseBatchForm(r)
	}

	var req batchRequest
	if err := ParseJSON(r, &req); err != nil {
		return service.BatchRequest{}, &requestError{code: "invalid_request", message: err.Error()}
	}
	return req.toService(), nil
}

// parseBatchForm reads the camelCase fields of the admin batch form.
// Numeric fields never fail: bad or negative input counts as zero.
func parseBatchForm(r *http.Request) (service.BatchRequest, error) {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return service.BatchRequest{}, &requestError{code: "invalid_request", message: "Request body must be a valid form"}
	}

	req := service.BatchRequest{
		Title:         r.FormValue("title"),
		Slug:          r.FormValue("slug"),
		Description:   r.FormValue("description"),
		Program:       r.FormValue("program"),
		Status:        r.FormValue("status"),
		Price:         domain.ParseAmount(r.FormValue("price")),
		DiscountPrice: domain.ParseAmount(r.FormValue("discountPrice")),
		IsEMI:         parseFormBool(r.FormValue("isEmi")),
		EMIMonths:     domain.ParseInstallmentCount(r.FormValue("emiMonths")),
	}

	if v := strings.TrimSpace(r.FormValue("emiTotal")); v != "" {
		total := domain.ParseAmount(v)
		req.EMITotal = &total
	}

	if v := strings.TrimSpace(r.FormValue("emiSchedule")); v != "" {
		var entries []installmentJSON
		if err := json.Unmarshal([]byte(v), &entries); err != nil {
			return service.BatchRequest{}, &requestError{
				code:    "validation_error",
				message: "emiSchedule must be a JSON array of {month, amount}",
			}
		}
		req.EMISchedule = toInstallments(entries)
	}

	if v := strings.TrimSpace(r.FormValue("enrollmentClosesAt")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return service.BatchRequest{}, &requestError{
				code:    "validation_error",
				message: "enrollmentClosesAt must be an RFC 3339 timestamp",
			}
		}
		req.EnrollmentClosesAt = &t
	}

	return req, nil
}

// parseFormBool accepts the values checkboxes and toggles submit.
func parseFormBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// mapBatchError maps domain errors to HTTP responses for batch endpoints.
func mapBatchError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrBatchNotFound):
		WriteError(w, http.StatusNotFound, "batch_not_found", "Batch not found")
	case errors.Is(err, domain.ErrSlugTaken):
		WriteError(w, http.StatusConflict, "slug_taken", "Slug is already used by another batch")
	case errors.Is(err, domain.ErrBatchClosed):
		WriteError(w, http.StatusConflict, "batch_closed", "Batch enrollment is already closed")
	case errors.Is(err, domain.ErrInstallmentMismatch):
		WriteError(w, http.StatusUnprocessableEntity, "installment_mismatch",
			"Submitted installment schedule does not match the computed plan")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
