package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"stockdesk/internal/domain"
	"stockdesk/internal/notify"
	"stockdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func plainPayload(name string, qty, reorder int) domain.Payload {
	return domain.Payload{
		ProductName:          name,
		Category:             domain.CategoryElectronics,
		QuantityInStock:      qty,
		TotalStockedQuantity: qty,
		ReorderLevel:         reorder,
		CostPrice:            decimal.RequireFromString("4.00"),
		SellingPrice:         decimal.RequireFromString("9.50"),
		Image:                "https://cdn.example.com/a.jpg",
		Images:               []string{"https://cdn.example.com/a.jpg"},
		Variants:             []domain.VariantPayload{},
	}
}

func TestCreateStampsIDAndTimestamps(t *testing.T) {
	repo := newMockItemRepository()
	svc := newTestInventory(repo, nil)

	item, err := svc.Create(context.Background(), plainPayload("Headphones", 30, 5))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, testNow, item.CreatedAt)
	assert.Equal(t, testNow, item.UpdatedAt)
	assert.Contains(t, repo.items, item.ID)
}

func TestLowStockNotifierCalledOnlyForLowItems(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestInventory(newMockItemRepository(), notifier)

	_, err := svc.Create(context.Background(), plainPayload("Cable", 50, 5))
	require.NoError(t, err)
	assert.Empty(t, notifier.calls)

	_, err = svc.Create(context.Background(), plainPayload("Charger", 3, 5))
	require.NoError(t, err)
	require.Equal(t, []string{"Charger"}, notifier.calls)
	require.Len(t, notifier.lines[0], 1)
	assert.Equal(t, 3, notifier.lines[0][0].Quantity)
}

func TestNotifierFailureDoesNotFailSave(t *testing.T) {
	repo := newMockItemRepository()
	svc := newTestInventory(repo, &recordingNotifier{err: errBoom})

	item, err := svc.Create(context.Background(), plainPayload("Charger", 1, 5))
	require.NoError(t, err)
	assert.Contains(t, repo.items, item.ID)
}

func TestUpdateMissingItem(t *testing.T) {
	svc := newTestInventory(newMockItemRepository(), nil)
	_, err := svc.Update(context.Background(), uuid.New(), plainPayload("Ghost", 1, 0))
	assert.ErrorIs(t, err, repository.ErrItemNotFound)
}

func TestListClampsPaging(t *testing.T) {
	repo := newMockItemRepository()
	svc := newTestInventory(repo, nil)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), plainPayload(fmt.Sprintf("Item %d", i), 10, 1))
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), repository.ItemFilter{Page: -2, PageSize: 5000})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, maxPageSize, page.PageSize)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 3)

	page, err = svc.List(context.Background(), repository.ItemFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "Item 2", page.Items[0].ProductName)
}

func TestExportXLSXWritesItemsAndVariants(t *testing.T) {
	repo := newMockItemRepository()
	svc := newTestInventory(repo, nil)

	_, err := svc.Create(context.Background(), plainPayload("Adapter", 2, 5))
	require.NoError(t, err)

	shirt := plainPayload("Shirt", 9, 5)
	shirt.Category = domain.CategoryClothing
	shirt.HasVariants = true
	shirt.Variants = []domain.VariantPayload{
		{Color: "Red", Size: "M", QuantityInStock: 4, ReorderLevel: 5, SKU: "CLO-RED-M", IsActive: true},
		{Color: "Blue", Size: "M", QuantityInStock: 5, ReorderLevel: 5, SKU: "CLO-BLU-M", IsActive: true},
	}
	_, err = svc.Create(context.Background(), shirt)
	require.NoError(t, err)

	data, err := svc.ExportXLSX(context.Background(), repository.ItemFilter{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(itemsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, itemHeaders[0], rows[0][0])
	assert.Equal(t, "Adapter", rows[1][1])
	assert.Equal(t, "Shirt", rows[2][1])

	variantRows, err := f.GetRows(variantsSheet)
	require.NoError(t, err)
	require.Len(t, variantRows, 3)
	assert.Equal(t, "CLO-RED-M", variantRows[1][2])
	assert.Equal(t, "CLO-BLU-M", variantRows[2][2])
}

func TestMailLowStockNotifierSendsRenderedEmail(t *testing.T) {
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)
	mailer := &recordingMailer{}
	n := NewMailLowStockNotifier(renderer, mailer, "buyer@example.com", notify.Store{Name: "Corner Shop"}, notify.Branding{})

	item := &domain.Item{ProductName: "Charger", QuantityInStock: 2, ReorderLevel: 5}
	require.NoError(t, n.NotifyLowStock(context.Background(), item, item.LowStock()))

	require.Equal(t, []string{"buyer@example.com"}, mailer.to)
	assert.Contains(t, mailer.emails[0].Subject, "Charger")
	assert.Contains(t, mailer.emails[0].HTML, "Corner Shop")
}

func TestDeleteRemovesItem(t *testing.T) {
	repo := newMockItemRepository()
	svc := newTestInventory(repo, nil)
	item, err := svc.Create(context.Background(), plainPayload("Cable", 10, 1))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), item.ID))
	assert.Empty(t, repo.items)
	assert.ErrorIs(t, svc.Delete(context.Background(), item.ID), repository.ErrItemNotFound)
}
