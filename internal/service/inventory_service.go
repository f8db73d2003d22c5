package service

import (
	"context"
	"fmt"
	"time"

	"stockdesk/internal/domain"
	"stockdesk/internal/notify"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPageSize = 100

// ItemPage is one page of an inventory listing.
type ItemPage struct {
	Items    []*domain.Item `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// InventoryService defines the interface for stored inventory items
type InventoryService interface {
	Create(ctx context.Context, p domain.Payload) (*domain.Item, error)
	Update(ctx context.Context, id uuid.UUID, p domain.Payload) (*domain.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context, filter repository.ItemFilter) (*ItemPage, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ExportXLSX renders every item matching filter into a workbook.
	ExportXLSX(ctx context.Context, filter repository.ItemFilter) ([]byte, error)
}

// LowStockNotifier is told about items that were saved at or below their reorder level.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, item *domain.Item, lines []domain.StockLine) error
}

type inventoryService struct {
	items    repository.ItemRepository
	notifier LowStockNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewInventoryService creates a new instance of InventoryService. notifier may be nil.
func NewInventoryService(items repository.ItemRepository, notifier LowStockNotifier, logger *zap.Logger) InventoryService {
	return &inventoryService{
		items:    items,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *inventoryService) Create(ctx context.Context, p domain.Payload) (*domain.Item, error) {
	item := &domain.Item{ID: uuid.New()}
	item.ApplyPayload(p, s.now().UTC())

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("Inventory item created",
		zap.String("item_id", item.ID.String()),
		zap.String("category", string(item.Category)),
		zap.Int("variants", len(item.Variants)),
		zap.Int("quantity_in_stock", item.QuantityInStock),
	)
	s.checkLowStock(ctx, item)
	return item, nil
}

func (s *inventoryService) Update(ctx context.Context, id uuid.UUID, p domain.Payload) (*domain.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	item.ApplyPayload(p, s.now().UTC())
	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.Info("Inventory item updated",
		zap.String("item_id", item.ID.String()),
		zap.Int("variants", len(item.Variants)),
		zap.Int("quantity_in_stock", item.QuantityInStock),
	)
	s.checkLowStock(ctx, item)
	return item, nil
}

func (s *inventoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	return s.items.FindByID(ctx, id)
}

func (s *inventoryService) List(ctx context.Context, filter repository.ItemFilter) (*ItemPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	items, total, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return &ItemPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (s *inventoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Inventory item deleted", zap.String("item_id", id.String()))
	return nil
}

func (s *inventoryService) ExportXLSX(ctx context.Context, filter repository.ItemFilter) ([]byte, error) {
	var all []*domain.Item
	filter.Page, filter.PageSize = 1, maxPageSize
	for {
		items, total, err := s.items.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list items for export: %w", err)
		}
		all = append(all, items...)
		if len(items) == 0 || len(all) >= total {
			break
		}
		filter.Page++
	}

	data, err := buildWorkbook(all, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.logger.Info("Inventory exported", zap.Int("items", len(all)), zap.Int("bytes", len(data)))
	return data, nil
}

func (s *inventoryService) checkLowStock(ctx context.Context, item *domain.Item) {
	lines := item.LowStock()
	if len(lines) == 0 || s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyLowStock(ctx, item, lines); err != nil {
		s.logger.Warn("Failed to send low stock notification",
			zap.String("item_id", item.ID.String()),
			zap.Error(err),
		)
	}
}

// MailLowStockNotifier renders the low stock email and hands it to a Mailer.
type MailLowStockNotifier struct {
	renderer  *notify.Renderer
	mailer    notify.Mailer
	recipient string
	store     notify.Store
	branding  notify.Branding
}

func NewMailLowStockNotifier(renderer *notify.Renderer, mailer notify.Mailer, recipient string, store notify.Store, branding notify.Branding) *MailLowStockNotifier {
	return &MailLowStockNotifier{renderer: renderer, mailer: mailer, recipient: recipient, store: store, branding: branding}
}

func (n *MailLowStockNotifier) NotifyLowStock(ctx context.Context, item *domain.Item, lines []domain.StockLine) error {
	email, err := n.renderer.LowStockEmail(item, lines, n.store, n.branding)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, n.recipient, email)
}
