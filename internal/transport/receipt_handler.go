package transport

import (
	"net/http"

	"stockdesk/internal/middleware"
	"stockdesk/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReceiptHandler renders receipts and customer email previews.
type ReceiptHandler struct {
	receipts service.ReceiptService
	logger   *zap.Logger
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(receipts service.ReceiptService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts, logger: logger}
}

// RegisterRoutes mounts the receipt and notification routes
func (h *ReceiptHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/receipts", h.GenerateReceipt)
	r.Post("/api/notifications/order-status/preview", h.PreviewOrderStatus)
}

// GenerateReceipt returns the sale receipt as a base64 PDF attachment
func (h *ReceiptHandler) GenerateReceipt(w http.ResponseWriter, r *http.Request) {
	var req service.ReceiptRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithBodyError(w, err)
		return
	}

	att, err := h.receipts.GenerateReceiptPDF(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to generate receipt")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, att)
}

// PreviewOrderStatus renders the order status email without sending it
func (h *ReceiptHandler) PreviewOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req service.OrderStatusRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithBodyError(w, err)
		return
	}

	email, err := h.receipts.OrderStatusEmail(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to render email")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, email)
}
