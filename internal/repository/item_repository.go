package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"stockdesk/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound = errors.New("inventory item not found")
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ItemFilter narrows an inventory listing.
type ItemFilter struct {
	Category  domain.Category
	Search    string
	LowStock  bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder SortOrder
}

// ItemRepository defines the interface for inventory item data access
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]*domain.Item, int, error)
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new instance of ItemRepository
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, product_name, category, description, supplier, quantity_in_stock,
		total_stocked_quantity, sold_quantity, reorder_level, cost_price, selling_price,
		image, images, image_colors, category_attributes, has_variants, created_at, updated_at`

var validSortFields = map[string]string{
	"productName":     "product_name",
	"category":        "category",
	"quantityInStock": "quantity_in_stock",
	"sellingPrice":    "selling_price",
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
}

// Create inserts an item and its variants in one transaction
func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	images, imageColors, attrs, err := marshalItemJSON(item)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = tx.ExecContext(
		ctx,
		query,
		item.ID,
		item.ProductName,
		string(item.Category),
		item.Description,
		item.Supplier,
		item.QuantityInStock,
		item.TotalStockedQuantity,
		item.SoldQuantity,
		item.ReorderLevel,
		item.CostPrice,
		item.SellingPrice,
		item.Image,
		images,
		imageColors,
		attrs,
		item.HasVariants,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	if err := insertVariants(ctx, tx, item); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory item: %w", err)
	}
	return nil
}

// Update rewrites an item and replaces its variant rows
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	images, imageColors, attrs, err := marshalItemJSON(item)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE inventory_items
		SET product_name = $2, category = $3, description = $4, supplier = $5,
		    quantity_in_stock = $6, total_stocked_quantity = $7, sold_quantity = $8,
		    reorder_level = $9, cost_price = $10, selling_price = $11, image = $12,
		    images = $13, image_colors = $14, category_attributes = $15,
		    has_variants = $16, updated_at = $17
		WHERE id = $1
	`
	result, err := tx.ExecContext(
		ctx,
		query,
		item.ID,
		item.ProductName,
		string(item.Category),
		item.Description,
		item.Supplier,
		item.QuantityInStock,
		item.TotalStockedQuantity,
		item.SoldQuantity,
		item.ReorderLevel,
		item.CostPrice,
		item.SellingPrice,
		item.Image,
		images,
		imageColors,
		attrs,
		item.HasVariants,
		item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrItemNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM item_variants WHERE item_id = $1`, item.ID); err != nil {
		return fmt.Errorf("failed to clear item variants: %w", err)
	}
	if err := insertVariants(ctx, tx, item); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inventory item: %w", err)
	}
	return nil
}

func insertVariants(ctx context.Context, tx *sql.Tx, item *domain.Item) error {
	query := `
		INSERT INTO item_variants (id, item_id, color, size, sku, quantity_in_stock, reorder_level, sold_quantity, images, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, v := range item.Variants {
		images, err := json.Marshal(nonNilStrings(v.Images))
		if err != nil {
			return fmt.Errorf("failed to encode variant images: %w", err)
		}
		_, err = tx.ExecContext(ctx, query,
			v.ID, item.ID, v.Color, v.Size, v.SKU,
			v.QuantityInStock, v.ReorderLevel, v.SoldQuantity, string(images), v.IsActive,
		)
		if err != nil {
			return fmt.Errorf("failed to create variant %s/%s: %w", v.Color, v.Size, err)
		}
	}
	return nil
}

// Delete removes an item; its variants cascade
func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// FindByID retrieves an item with its variants
func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find inventory item by ID: %w", err)
	}

	variants, err := r.variantsFor(ctx, []uuid.UUID{item.ID})
	if err != nil {
		return nil, err
	}
	item.Variants = variants[item.ID]
	return item, nil
}

// List retrieves items with filtering, pagination, and sorting
func (r *itemRepository) List(ctx context.Context, filter ItemFilter) ([]*domain.Item, int, error) {
	sortBy, ok := validSortFields[filter.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	sortOrder := filter.SortOrder
	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	var conditions []string
	args := []interface{}{}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conditions = append(conditions, fmt.Sprintf("(product_name ILIKE $%d OR supplier ILIKE $%d)", len(args), len(args)))
	}
	if filter.LowStock {
		conditions = append(conditions, `(quantity_in_stock <= reorder_level OR EXISTS (
			SELECT 1 FROM item_variants v
			WHERE v.item_id = inventory_items.id AND v.is_active AND v.quantity_in_stock <= v.reorder_level))`)
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM inventory_items %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory items: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := fmt.Sprintf(`
		SELECT %s
		FROM inventory_items
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, itemColumns, whereClause, sortBy, sortOrder, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory items: %w", err)
	}
	defer rows.Close()

	items := []*domain.Item{}
	ids := []uuid.UUID{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
		ids = append(ids, item.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating inventory items: %w", err)
	}

	variants, err := r.variantsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for _, item := range items {
		item.Variants = variants[item.ID]
	}

	return items, total, nil
}

func (r *itemRepository) variantsFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.ItemVariant, error) {
	out := make(map[uuid.UUID][]domain.ItemVariant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
		out[id] = []domain.ItemVariant{}
	}

	query := `
		SELECT id, item_id, color, size, sku, quantity_in_stock, reorder_level, sold_quantity, images, is_active
		FROM item_variants
		WHERE item_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY item_id, color, size
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load item variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.ItemVariant
		var images []byte
		if err := rows.Scan(&v.ID, &v.ItemID, &v.Color, &v.Size, &v.SKU,
			&v.QuantityInStock, &v.ReorderLevel, &v.SoldQuantity, &images, &v.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan item variant: %w", err)
		}
		if err := json.Unmarshal(images, &v.Images); err != nil {
			return nil, fmt.Errorf("failed to decode variant images: %w", err)
		}
		out[v.ItemID] = append(out[v.ItemID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item variants: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	item := &domain.Item{}
	var category string
	var images, imageColors, attrs []byte
	err := row.Scan(
		&item.ID,
		&item.ProductName,
		&category,
		&item.Description,
		&item.Supplier,
		&item.QuantityInStock,
		&item.TotalStockedQuantity,
		&item.SoldQuantity,
		&item.ReorderLevel,
		&item.CostPrice,
		&item.SellingPrice,
		&item.Image,
		&images,
		&imageColors,
		&attrs,
		&item.HasVariants,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Category = domain.Category(category)

	if err := json.Unmarshal(images, &item.Images); err != nil {
		return nil, fmt.Errorf("failed to decode images: %w", err)
	}
	if err := json.Unmarshal(imageColors, &item.ImageColors); err != nil {
		return nil, fmt.Errorf("failed to decode image colors: %w", err)
	}
	if err := json.Unmarshal(attrs, &item.CategoryAttributes); err != nil {
		return nil, fmt.Errorf("failed to decode category attributes: %w", err)
	}
	return item, nil
}

func marshalItemJSON(item *domain.Item) (images, imageColors, attrs string, err error) {
	b, err := json.Marshal(nonNilStrings(item.Images))
	if err != nil {
		return "", "", "", fmt.Errorf("failed to encode images: %w", err)
	}
	images = string(b)

	colors := item.ImageColors
	if colors == nil {
		colors = map[string]string{}
	}
	if b, err = json.Marshal(colors); err != nil {
		return "", "", "", fmt.Errorf("failed to encode image colors: %w", err)
	}
	imageColors = string(b)

	attributes := item.CategoryAttributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	if b, err = json.Marshal(attributes); err != nil {
		return "", "", "", fmt.Errorf("failed to encode category attributes: %w", err)
	}
	attrs = string(b)
	return images, imageColors, attrs, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
