package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a stored inventory item.
type Item struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	ProductName          string          `json:"productName" db:"product_name"`
	Category             Category        `json:"category" db:"category"`
	Description          string          `json:"description" db:"description"`
	Supplier             string          `json:"supplier" db:"supplier"`
	QuantityInStock      int             `json:"quantityInStock" db:"quantity_in_stock"`
	TotalStockedQuantity int             `json:"totalStockedQuantity" db:"total_stocked_quantity"`
	SoldQuantity         int             `json:"soldQuantity" db:"sold_quantity"`
	ReorderLevel         int             `json:"reorderLevel" db:"reorder_level"`
	CostPrice            decimal.Decimal `json:"costPrice" db:"cost_price"`
	SellingPrice         decimal.Decimal `json:"sellingPrice" db:"selling_price"`
	Image                string          `json:"image" db:"image"`
	Images               []string        `json:"images" db:"images"`
	// ImageColors maps image URL to its color tag.
	ImageColors        map[string]string `json:"imageColors,omitempty" db:"image_colors"`
	CategoryAttributes map[string]any    `json:"categoryAttributes,omitempty" db:"category_attributes"`
	HasVariants        bool              `json:"hasVariants" db:"has_variants"`
	Variants           []ItemVariant     `json:"variants"`
	CreatedAt          time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time         `json:"updatedAt" db:"updated_at"`
}

// ItemVariant is one stored (color, size) variant of an item.
type ItemVariant struct {
	ID              uuid.UUID `json:"id" db:"id"`
	ItemID          uuid.UUID `json:"itemId" db:"item_id"`
	Color           string    `json:"color" db:"color"`
	Size            string    `json:"size" db:"size"`
	SKU             string    `json:"sku" db:"sku"`
	QuantityInStock int       `json:"quantityInStock" db:"quantity_in_stock"`
	ReorderLevel    int       `json:"reorderLevel" db:"reorder_level"`
	SoldQuantity    int       `json:"soldQuantity" db:"sold_quantity"`
	Images          []string  `json:"images" db:"images"`
	IsActive        bool      `json:"isActive" db:"is_active"`
}

// ApplyPayload copies a submit payload onto the item, replacing its variants.
// Sold quantities of variants that survive the edit are carried over.
func (it *Item) ApplyPayload(p Payload, now time.Time) {
	sold := make(map[string]int, len(it.Variants))
	for _, v := range it.Variants {
		sold[v.Color+"\x00"+v.Size] = v.SoldQuantity
	}

	it.ProductName = p.ProductName
	it.Category = p.Category
	it.Description = p.Description
	it.Supplier = p.Supplier
	it.CategoryAttributes = p.CategoryAttributes
	it.QuantityInStock = p.QuantityInStock
	it.TotalStockedQuantity = p.TotalStockedQuantity
	it.ReorderLevel = p.ReorderLevel
	it.CostPrice = p.CostPrice
	it.SellingPrice = p.SellingPrice
	it.Image = p.Image
	it.Images = append([]string{}, p.Images...)
	it.ImageColors = p.ImageColors
	it.HasVariants = p.HasVariants
	it.UpdatedAt = now
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
		it.SoldQuantity = p.SoldQuantity
	}

	it.Variants = make([]ItemVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		it.Variants = append(it.Variants, ItemVariant{
			ID:              uuid.New(),
			ItemID:          it.ID,
			Color:           v.Color,
			Size:            v.Size,
			SKU:             v.SKU,
			QuantityInStock: v.QuantityInStock,
			ReorderLevel:    v.ReorderLevel,
			SoldQuantity:    sold[v.Color+"\x00"+v.Size],
			Images:          append([]string{}, v.Images...),
			IsActive:        v.IsActive,
		})
	}
}

// LowStock lists the stock lines at or below their reorder level.
func (it *Item) LowStock() []StockLine {
	var out []StockLine
	if it.HasVariants {
		for _, v := range it.Variants {
			if v.IsActive && v.QuantityInStock <= v.ReorderLevel {
				out = append(out, StockLine{Label: v.Color + " / " + v.Size, SKU: v.SKU, Quantity: v.QuantityInStock, ReorderLevel: v.ReorderLevel})
			}
		}
		return out
	}
	if it.QuantityInStock <= it.ReorderLevel {
		out = append(out, StockLine{Label: it.ProductName, Quantity: it.QuantityInStock, ReorderLevel: it.ReorderLevel})
	}
	return out
}

// StockLine is one row of a low stock report.
type StockLine struct {
	Label        string
	SKU          string
	Quantity     int
	ReorderLevel int
}

// DraftFromItem opens an edit draft pre-populated from a stored item.
// The stored category attributes are kept as-is, including fields unknown to the current schema.
func DraftFromItem(it *Item, defaultStock int, now time.Time) *Draft {
	itemID := it.ID
	d := &Draft{
		ID:           uuid.New(),
		ItemID:       &itemID,
		ProductName:  it.ProductName,
		Category:     it.Category,
		Description:  it.Description,
		Supplier:     it.Supplier,
		BaseStock:    it.QuantityInStock,
		ReorderLevel: it.ReorderLevel,
		CostPrice:    it.CostPrice,
		SellingPrice: it.SellingPrice,
		Attributes:   map[Category]*CategoryAttributes{},
		HasVariants:  it.HasVariants,
		Matrix:       VariantMatrix{DefaultStock: defaultStock},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if it.Category != "" {
		d.Attributes[it.Category] = AttributesFromMap(it.Category, it.CategoryAttributes)
	}

	colorOf := make(map[string]string, len(it.ImageColors))
	for url, c := range it.ImageColors {
		colorOf[url] = c
	}
	for _, v := range it.Variants {
		for _, url := range v.Images {
			if _, ok := colorOf[url]; !ok {
				colorOf[url] = v.Color
			}
		}
	}
	for _, url := range it.Images {
		d.Images = append(d.Images, TaggedImage{
			ID:        uuid.NewString(),
			URL:       url,
			ColorTag:  colorOf[url],
			IsPrimary: url == it.Image,
		})
	}

	d.Matrix.Variants, d.Matrix.Mode, d.Matrix.SharedSizes = matrixFromVariants(it.Variants)

	Normalize(d)
	Recompute(d)
	return d
}

// matrixFromVariants groups stored variants by color and infers the size mode that produced them.
func matrixFromVariants(variants []ItemVariant) ([]VariantRecord, SizeMode, []string) {
	records := []VariantRecord{}
	index := map[string]int{}
	for _, v := range variants {
		i, ok := index[v.Color]
		if !ok {
			i = len(records)
			index[v.Color] = i
			records = append(records, VariantRecord{Color: v.Color, Sizes: []SizeStock{}})
		}
		records[i].Sizes = append(records[i].Sizes, SizeStock{
			Size:            v.Size,
			QuantityInStock: v.QuantityInStock,
			ReorderLevel:    v.ReorderLevel,
		})
	}
	if len(records) == 0 {
		return records, SizeModeUnset, []string{}
	}

	oneSize, same := true, true
	first := records[0].Sizes
	for _, r := range records {
		if len(r.Sizes) != 1 || r.Sizes[0].Size != OneSizeLabel {
			oneSize = false
		}
		if !sameSizes(first, r.Sizes) {
			same = false
		}
	}
	switch {
	case oneSize:
		return records, SizeModeOneSize, []string{}
	case same:
		shared := make([]string, 0, len(first))
		for _, s := range first {
			shared = append(shared, s.Size)
		}
		return records, SizeModeSame, shared
	default:
		return records, SizeModeDifferent, []string{}
	}
}

func sameSizes(a, b []SizeStock) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Size != b[i].Size {
			return false
		}
	}
	return true
}
