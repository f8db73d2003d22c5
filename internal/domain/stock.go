package domain

// Validation field keys.
const (
	FieldProductName  = "productName"
	FieldCategory     = "category"
	FieldQuantity     = "quantityInStock"
	FieldReorderLevel = "reorderLevel"
	FieldCostPrice    = "costPrice"
	FieldSellingPrice = "sellingPrice"
	FieldVariants     = "variants"
	FieldSkus         = "skus"
	FieldImages       = "images"
	FieldSubmit       = "submit"
)

// ComputeTotal sums the stock of every size of every color. A nil matrix totals 0.
func ComputeTotal(m *VariantMatrix) int {
	if m == nil {
		return 0
	}
	total := 0
	for _, v := range m.Variants {
		for _, s := range v.Sizes {
			if s.QuantityInStock > 0 {
				total += s.QuantityInStock
			}
		}
	}
	return total
}

// SyncStock is the only writer of the draft stock while variants are active:
// it resums the matrix into BaseStock and clears a stale quantity error.
func SyncStock(d *Draft) {
	if d == nil || !d.HasVariants {
		return
	}
	d.BaseStock = ComputeTotal(&d.Matrix)
	delete(d.Errors, FieldQuantity)
}

// TotalStock is the derived total: the matrix sum in variant mode, the manual stock otherwise.
func TotalStock(d *Draft) int {
	if d.HasVariants {
		return ComputeTotal(&d.Matrix)
	}
	return d.BaseStock
}
