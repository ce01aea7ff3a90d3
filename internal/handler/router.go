package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/efreitasn/coursedesk/internal/service"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all routes registered, request logging,
// and Content-Type validation middleware.
func NewRouter(
	batchSvc *service.BatchService,
	installmentSvc *service.InstallmentService,
	webhookSvc *service.WebhookService,
	notificationSvc *service.NotificationService,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	r.Use(contentTypeCheck)

	// Create handlers.
	batchH := NewBatchHandler(batchSvc)
	installmentH := NewInstallmentHandler(installmentSvc)
	webhookH := NewWebhookHandler(webhookSvc)
	notificationH := NewNotificationHandler(notificationSvc)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Batch routes.
	r.Post("/batches", batchH.Create)
	r.Get("/batches", batchH.List)
	r.Get("/batches/slug/{slug}", batchH.GetBySlug)
	r.Get("/batches/{batch_id}", batchH.Get)
	r.Put("/batches/{batch_id}", batchH.Update)
	r.Delete("/batches/{batch_id}", batchH.Delete)
	r.Post("/batches/{batch_id}/close", batchH.Close)

	// Installment routes.
	r.Get("/installments/preview", installmentH.PreviewQuery)
	r.Post("/installments/preview", installmentH.Preview)
	r.Get("/installments/tenors", installmentH.Tenors)

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Get("/webhooks/events", webhookH.Events)
	r.Get("/webhooks/{webhook_id}", webhookH.Get)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	// Notification routes.
	r.Post("/notifications", notificationH.Send)
	r.Get("/notifications", notificationH.List)
	r.Get("/notifications/{notification_id}", notificationH.Get)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// acceptedContentTypes are the request body encodings the API understands.
// Batch forms arrive as multipart or urlencoded; everything else is JSON.
var acceptedContentTypes = []string{
	"application/json",
	"multipart/form-data",
	"application/x-www-form-urlencoded",
}

// contentTypeCheck is middleware that validates Content-Type for POST, PUT,
// and PATCH requests that carry a body. Unsupported types are rejected with
// 400 Bad Request before the handler runs. Bodyless commands such as
// POST /batches/{id}/close pass through.
func contentTypeCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) && r.ContentLength != 0 {
			if !hasAcceptedContentType(r.Header.Get("Content-Type")) {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json or multipart/form-data")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func hasAcceptedContentType(ct string) bool {
	for _, accepted := range acceptedContentTypes {
		if strings.HasPrefix(ct, accepted) {
			return true
		}
	}
	return false
}
