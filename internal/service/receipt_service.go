package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"

	"stockdesk/internal/notify"

	"go.uber.org/zap"
)

// Attachment is a base64 encoded file ready to attach to an email.
type Attachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	Encoding    string `json:"encoding"`
	ContentType string `json:"contentType"`
}

// ReceiptRequest describes one sale receipt. Empty store fields fall back to the configured store.
type ReceiptRequest struct {
	Order        notify.Order     `json:"order" validate:"required"`
	Sale         notify.Sale      `json:"sale" validate:"required"`
	StoreName    string           `json:"storeName,omitempty"`
	StoreLogoURL string           `json:"storeLogoUrl,omitempty" validate:"omitempty,url"`
	Branding     *notify.Branding `json:"branding,omitempty"`
}

// OrderStatusRequest previews the order status email.
type OrderStatusRequest struct {
	Order    notify.Order     `json:"order" validate:"required"`
	Branding *notify.Branding `json:"branding,omitempty"`
}

// ReceiptService renders receipts and customer emails.
type ReceiptService interface {
	GenerateReceiptPDF(ctx context.Context, req ReceiptRequest) (*Attachment, error)
	OrderStatusEmail(ctx context.Context, req OrderStatusRequest) (*notify.Email, error)
}

type receiptService struct {
	renderer *notify.Renderer
	pdf      notify.PDFRenderer
	store    notify.Store
	branding notify.Branding
	logger   *zap.Logger
}

// NewReceiptService creates a new instance of ReceiptService
func NewReceiptService(renderer *notify.Renderer, pdf notify.PDFRenderer, store notify.Store, branding notify.Branding, logger *zap.Logger) ReceiptService {
	return &receiptService{renderer: renderer, pdf: pdf, store: store, branding: branding, logger: logger}
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func (s *receiptService) GenerateReceiptPDF(ctx context.Context, req ReceiptRequest) (*Attachment, error) {
	store := s.store
	if req.StoreName != "" {
		store.Name = req.StoreName
	}
	if req.StoreLogoURL != "" {
		store.LogoURL = req.StoreLogoURL
	}
	branding := s.branding
	if req.Branding != nil {
		branding = *req.Branding
	}

	html, err := s.renderer.ReceiptHTML(req.Order, req.Sale, store, branding)
	if err != nil {
		return nil, err
	}
	pdf, err := s.pdf.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt pdf: %w", err)
	}

	name := unsafeFilename.ReplaceAllString(req.Sale.ReceiptNumber, "-")
	s.logger.Info("Receipt generated",
		zap.String("receipt_number", req.Sale.ReceiptNumber),
		zap.String("order_number", req.Order.Number),
		zap.Int("bytes", len(pdf)),
	)
	return &Attachment{
		Filename:    "receipt-" + name + ".pdf",
		Content:     base64.StdEncoding.EncodeToString(pdf),
		Encoding:    "base64",
		ContentType: "application/pdf",
	}, nil
}

func (s *receiptService) OrderStatusEmail(ctx context.Context, req OrderStatusRequest) (*notify.Email, error) {
	branding := s.branding
	if req.Branding != nil {
		branding = *req.Branding
	}
	email, err := s.renderer.OrderStatusEmail(req.Order, s.store, branding)
	if err != nil {
		return nil, err
	}
	return &email, nil
}
