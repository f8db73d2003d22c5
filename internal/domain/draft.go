package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNoImages             = errors.New("at least one product image is required")
	ErrSizeModeDiscardsData = errors.New("changing the size mode discards the sizes already entered")
)

// Draft is the in-progress state of an add or edit inventory form.
type Draft struct {
	ID uuid.UUID `json:"id"`
	// ItemID is set when the draft edits an existing item.
	ItemID  *uuid.UUID `json:"itemId,omitempty"`
	Version int64      `json:"version"`

	ProductName  string          `json:"productName"`
	Category     Category        `json:"category"`
	Description  string          `json:"description"`
	Supplier     string          `json:"supplier"`
	BaseStock    int             `json:"baseStock"`
	ReorderLevel int             `json:"reorderLevel"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`

	// Attributes holds one attribute object per category selected during the draft's life.
	// The active one is Attributes[Category].
	Attributes map[Category]*CategoryAttributes `json:"attributes"`

	HasVariants bool          `json:"hasVariants"`
	Matrix      VariantMatrix `json:"matrix"`
	Images      []TaggedImage `json:"images"`

	// Errors is the validation result shown next to the form fields.
	Errors map[string]string `json:"errors"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDraft returns an empty add-item draft.
func NewDraft(defaultStock, reorderLevel int, now time.Time) *Draft {
	d := &Draft{
		ID:           uuid.New(),
		ReorderLevel: reorderLevel,
		CostPrice:    decimal.Zero,
		SellingPrice: decimal.Zero,
		Matrix:       VariantMatrix{DefaultStock: defaultStock},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	Normalize(d)
	return d
}

// ActiveAttributes returns the attribute object of the selected category, if any.
func (d *Draft) ActiveAttributes() *CategoryAttributes {
	if d.Category == "" {
		return nil
	}
	return d.Attributes[d.Category]
}

// SetCategory selects a category, creating its attribute object the first time only.
// Other draft fields and previously created attribute objects are left untouched.
func (d *Draft) SetCategory(c Category) error {
	if c == "" {
		d.Category = ""
		return nil
	}
	if _, ok := d.Attributes[c]; !ok {
		attrs, err := InitializeAttributes(c)
		if err != nil {
			return err
		}
		d.Attributes[c] = attrs
	}
	d.Category = c
	return nil
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	out := *d
	if d.ItemID != nil {
		id := *d.ItemID
		out.ItemID = &id
	}
	out.Attributes = make(map[Category]*CategoryAttributes, len(d.Attributes))
	for c, a := range d.Attributes {
		out.Attributes[c] = a.Clone()
	}
	out.Matrix = d.Matrix.Clone()
	out.Images = append([]TaggedImage{}, d.Images...)
	out.Errors = make(map[string]string, len(d.Errors))
	for k, v := range d.Errors {
		out.Errors[k] = v
	}
	return &out
}

// Normalize fills missing collections and repairs invariants so later code can
// assume well-formed shapes. It runs when a draft is created, loaded or rebuilt from an item.
func Normalize(d *Draft) {
	if d.Attributes == nil {
		d.Attributes = map[Category]*CategoryAttributes{}
	}
	for c, a := range d.Attributes {
		if a == nil {
			delete(d.Attributes, c)
			continue
		}
		a.Category = c
		if a.Fields == nil {
			a.Fields = map[string]string{}
		}
		if a.Lists == nil {
			a.Lists = map[string][]string{}
		}
	}
	if d.Errors == nil {
		d.Errors = map[string]string{}
	}
	if d.Matrix.DefaultStock < 0 {
		d.Matrix.DefaultStock = 0
	}
	d.Matrix.normalize()
	d.Images = normalizeImages(d.Images)
}

// Recompute derives state after a mutation: distinct image colors switch the variant matrix
// on or off, category colors and sizes are synced from it, and the stock total is resummed.
func Recompute(d *Draft) {
	colors := DistinctColors(d.Images)

	if len(colors) >= MinVariantColors {
		d.HasVariants = true
		d.Matrix.SyncColors(colors)
	} else if d.HasVariants || len(d.Matrix.Variants) > 0 {
		d.HasVariants = false
		d.Matrix.Reset()
	}

	if attrs := d.ActiveAttributes(); attrs != nil && SupportsVariantColors(d.Category) {
		for _, c := range colors {
			if !attrs.Contains(AttrColors, c) {
				_ = attrs.AppendToList(AttrColors, c)
			}
		}
		if d.HasVariants {
			attrs.Lists[AttrSizes] = d.Matrix.Sizes()
		}
	}

	SyncStock(d)
}

// Validate returns a field to message map. An empty map means the draft can be submitted,
// apart from the image precondition checked by CheckSubmittable.
func Validate(d *Draft) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(d.ProductName) == "" {
		errs[FieldProductName] = "Product name is required"
	}
	if d.Category == "" {
		errs[FieldCategory] = "Category is required"
	} else if _, ok := SchemaFor(d.Category); !ok {
		errs[FieldCategory] = fmt.Sprintf("Unknown category %q", d.Category)
	}

	if !d.HasVariants && d.BaseStock <= 0 {
		errs[FieldQuantity] = "Quantity must be greater than 0"
	}
	if d.ReorderLevel < 0 {
		errs[FieldReorderLevel] = "Reorder level cannot be negative"
	}

	if !d.CostPrice.IsPositive() {
		errs[FieldCostPrice] = "Cost price must be greater than 0"
	}
	if !d.SellingPrice.IsPositive() {
		errs[FieldSellingPrice] = "Selling price must be greater than 0"
	} else if d.CostPrice.IsPositive() && d.SellingPrice.LessThan(d.CostPrice) {
		errs[FieldSellingPrice] = "Selling price should not be lower than cost price"
	}

	if d.HasVariants {
		if ComputeTotal(&d.Matrix) <= 0 {
			errs[FieldQuantity] = "Total variant stock must be greater than 0"
		}
		var missing []string
		for _, v := range d.Matrix.Variants {
			if len(v.Sizes) == 0 {
				missing = append(missing, v.Color)
			}
		}
		if len(missing) > 0 {
			errs[FieldVariants] = "Every color needs at least one size (missing: " + strings.Join(missing, ", ") + ")"
		}
		if dups := DuplicateSkus(d); len(dups) > 0 {
			errs[FieldSkus] = "Variants produce duplicate SKUs: " + strings.Join(dups, ", ")
		}
	}

	return errs
}

// CheckSubmittable enforces the submit-time image precondition.
func CheckSubmittable(d *Draft) error {
	if len(d.Images) == 0 {
		return ErrNoImages
	}
	return nil
}

// DeriveSku builds "<CAT>-<COL>-<size>" from the first three letters of category and color.
func DeriveSku(category Category, color, size string) string {
	return prefix3(string(category)) + "-" + prefix3(color) + "-" + size
}

func prefix3(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToUpper(string(r))
}

// DuplicateSkus lists SKUs derived more than once from the matrix, e.g. "Green" and "Grey" in the same size.
func DuplicateSkus(d *Draft) []string {
	counts := map[string]int{}
	for _, v := range d.Matrix.Variants {
		for _, s := range v.Sizes {
			counts[DeriveSku(d.Category, v.Color, s.Size)]++
		}
	}
	var dups []string
	for sku, n := range counts {
		if n > 1 {
			dups = append(dups, sku)
		}
	}
	sort.Strings(dups)
	return dups
}

// Payload is the submit shape sent to item create and update.
type Payload struct {
	ProductName          string            `json:"productName"`
	Category             Category          `json:"category"`
	Description          string            `json:"description"`
	Supplier             string            `json:"supplier"`
	CategoryAttributes   map[string]any    `json:"categoryAttributes,omitempty"`
	QuantityInStock      int               `json:"quantityInStock"`
	TotalStockedQuantity int               `json:"totalStockedQuantity"`
	SoldQuantity         int               `json:"soldQuantity"`
	ReorderLevel         int               `json:"reorderLevel"`
	CostPrice            decimal.Decimal   `json:"costPrice"`
	SellingPrice         decimal.Decimal   `json:"sellingPrice"`
	Image                string            `json:"image"`
	Images               []string          `json:"images"`
	ImageColors          map[string]string `json:"imageColors,omitempty"`
	HasVariants          bool              `json:"hasVariants"`
	Variants             []VariantPayload  `json:"variants"`
}

// VariantPayload is one flattened (color, size) product variant.
type VariantPayload struct {
	Size            string   `json:"size"`
	Color           string   `json:"color"`
	QuantityInStock int      `json:"quantityInStock"`
	ReorderLevel    int      `json:"reorderLevel"`
	SoldQuantity    int      `json:"soldQuantity"`
	Images          []string `json:"images"`
	SKU             string   `json:"sku"`
	IsActive        bool     `json:"isActive"`
}

// ToSubmitPayload flattens the draft into the item payload.
func ToSubmitPayload(d *Draft) Payload {
	hasVariants := len(DistinctColors(d.Images)) >= MinVariantColors
	total := d.BaseStock
	if hasVariants {
		total = ComputeTotal(&d.Matrix)
	}

	p := Payload{
		ProductName:          strings.TrimSpace(d.ProductName),
		Category:             d.Category,
		Description:          d.Description,
		Supplier:             d.Supplier,
		CategoryAttributes:   d.ActiveAttributes().Flatten(),
		QuantityInStock:      total,
		TotalStockedQuantity: total,
		SoldQuantity:         0,
		ReorderLevel:         d.ReorderLevel,
		CostPrice:            d.CostPrice,
		SellingPrice:         d.SellingPrice,
		Image:                d.PrimaryImage(),
		Images:               make([]string, 0, len(d.Images)),
		HasVariants:          hasVariants,
		Variants:             []VariantPayload{},
	}
	for _, img := range d.Images {
		p.Images = append(p.Images, img.URL)
		if img.ColorTag != "" {
			if p.ImageColors == nil {
				p.ImageColors = map[string]string{}
			}
			p.ImageColors[img.URL] = img.ColorTag
		}
	}

	if !hasVariants {
		return p
	}
	for _, v := range d.Matrix.Variants {
		images := ImagesForColor(d.Images, v.Color)
		for _, s := range v.Sizes {
			p.Variants = append(p.Variants, VariantPayload{
				Size:            s.Size,
				Color:           v.Color,
				QuantityInStock: s.QuantityInStock,
				ReorderLevel:    s.ReorderLevel,
				SoldQuantity:    0,
				Images:          images,
				SKU:             DeriveSku(d.Category, v.Color, s.Size),
				IsActive:        true,
			})
		}
	}
	return p
}
