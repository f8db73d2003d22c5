package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// Category names a product category. Each category carries its own attribute schema.
type Category string

const (
	CategoryClothing     Category = "Clothing"
	CategoryShoes        Category = "Shoes"
	CategoryAccessories  Category = "Accessories"
	CategoryPerfumes     Category = "Perfumes"
	CategoryFood         Category = "Food"
	CategoryBeverages    Category = "Beverages"
	CategoryElectronics  Category = "Electronics"
	CategoryBooks        Category = "Books"
	CategoryHomeGarden   Category = "Home & Garden"
	CategorySports       Category = "Sports"
	CategoryAutomotive   Category = "Automotive"
	CategoryHealthBeauty Category = "Health & Beauty"
)

// Attribute names shared by the variant-capable categories.
const (
	AttrColors = "colors"
	AttrSizes  = "sizes"
)

// AttributeSchema describes the structured attributes of one category.
type AttributeSchema struct {
	Category Category
	// Scalars maps each scalar field to its default value.
	Scalars map[string]string
	// Lists names the array-valued fields.
	Lists []string
	// VariantColors marks categories whose colors feed the variant matrix.
	VariantColors bool
}

var schemas = map[Category]AttributeSchema{
	CategoryClothing: {
		Scalars:       map[string]string{"gender": "Unisex", "productType": "", "material": ""},
		Lists:         []string{AttrSizes, AttrColors, "style", "occasion"},
		VariantColors: true,
	},
	CategoryShoes: {
		Scalars:       map[string]string{"gender": "Unisex", "shoeType": "", "material": "", "closure": ""},
		Lists:         []string{AttrSizes, AttrColors, "occasion"},
		VariantColors: true,
	},
	CategoryAccessories: {
		Scalars:       map[string]string{"gender": "Unisex", "accessoryType": "", "material": ""},
		Lists:         []string{AttrSizes, AttrColors, "style"},
		VariantColors: true,
	},
	CategoryPerfumes: {
		Scalars: map[string]string{"gender": "Unisex", "concentration": "", "volume": "", "fragranceFamily": ""},
		Lists:   []string{"notes", "occasion"},
	},
	CategoryFood: {
		Scalars: map[string]string{"expiryDate": "", "weight": "", "storage": "", "deliveryHours": ""},
		Lists:   []string{"ingredients", "allergens", "dietary"},
	},
	CategoryBeverages: {
		Scalars: map[string]string{"volume": "", "packaging": "", "alcoholContent": "", "expiryDate": ""},
		Lists:   []string{"flavors", "ingredients"},
	},
	CategoryElectronics: {
		Scalars: map[string]string{"brand": "", "model": "", "warranty": "", "powerSource": ""},
		Lists:   []string{"specifications", "compatibility"},
	},
	CategoryBooks: {
		Scalars: map[string]string{"author": "", "publisher": "", "isbn": "", "format": "Paperback", "language": "English"},
		Lists:   []string{"genres"},
	},
	CategoryHomeGarden: {
		Scalars: map[string]string{"material": "", "dimensions": "", "careInstructions": ""},
		Lists:   []string{"rooms", "features"},
	},
	CategorySports: {
		Scalars: map[string]string{"sport": "", "skillLevel": "", "material": ""},
		Lists:   []string{AttrSizes, "features"},
	},
	CategoryAutomotive: {
		Scalars: map[string]string{"vehicleMake": "", "vehicleModel": "", "partNumber": "", "warranty": ""},
		Lists:   []string{"compatibility"},
	},
	CategoryHealthBeauty: {
		Scalars: map[string]string{"volume": "", "expiryDate": "", "usage": ""},
		Lists:   []string{"skinTypes", "ingredients", "tags"},
	},
}

func init() {
	for c, s := range schemas {
		s.Category = c
		schemas[c] = s
	}
}

// Categories returns every known category in name order.
func Categories() []Category {
	out := make([]Category, 0, len(schemas))
	for c := range schemas {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SchemaFor returns the attribute schema of a category.
func SchemaFor(c Category) (AttributeSchema, bool) {
	s, ok := schemas[c]
	return s, ok
}

// SupportsVariantColors reports whether tagged image colors of this category drive variants.
func SupportsVariantColors(c Category) bool {
	return schemas[c].VariantColors
}

func (s AttributeSchema) hasScalar(field string) bool {
	_, ok := s.Scalars[field]
	return ok
}

func (s AttributeSchema) hasList(field string) bool {
	for _, l := range s.Lists {
		if l == field {
			return true
		}
	}
	return false
}

// CategoryAttributes is the attribute object of one category inside a draft.
// Fields and Lists may hold keys outside the schema when loaded from a stored item.
type CategoryAttributes struct {
	Category Category            `json:"category"`
	Fields   map[string]string   `json:"fields"`
	Lists    map[string][]string `json:"lists"`
}

// InitializeAttributes returns the default attribute object for a category.
func InitializeAttributes(c Category) (*CategoryAttributes, error) {
	schema, ok := SchemaFor(c)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}

	attrs := &CategoryAttributes{
		Category: c,
		Fields:   make(map[string]string, len(schema.Scalars)),
		Lists:    make(map[string][]string, len(schema.Lists)),
	}
	for field, def := range schema.Scalars {
		attrs.Fields[field] = def
	}
	for _, field := range schema.Lists {
		attrs.Lists[field] = []string{}
	}
	return attrs, nil
}

// SetField replaces a scalar field.
func (a *CategoryAttributes) SetField(field, value string) error {
	schema, _ := SchemaFor(a.Category)
	if _, known := a.Fields[field]; !known && !schema.hasScalar(field) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, a.Category, field)
	}
	a.Fields[field] = value
	return nil
}

// AppendToList appends value to an array-valued field. Callers check Contains first.
func (a *CategoryAttributes) AppendToList(field, value string) error {
	schema, _ := SchemaFor(a.Category)
	if _, known := a.Lists[field]; !known && !schema.hasList(field) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, a.Category, field)
	}
	a.Lists[field] = append(a.Lists[field], value)
	return nil
}

// RemoveFromList deletes the entry at index. Out-of-range indices are ignored.
func (a *CategoryAttributes) RemoveFromList(field string, index int) error {
	schema, _ := SchemaFor(a.Category)
	list, known := a.Lists[field]
	if !known && !schema.hasList(field) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, a.Category, field)
	}
	if index < 0 || index >= len(list) {
		return nil
	}
	a.Lists[field] = append(list[:index:index], list[index+1:]...)
	return nil
}

// Contains reports whether a list field already holds value, ignoring case.
func (a *CategoryAttributes) Contains(field, value string) bool {
	for _, v := range a.Lists[field] {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (a *CategoryAttributes) Clone() *CategoryAttributes {
	if a == nil {
		return nil
	}
	out := &CategoryAttributes{
		Category: a.Category,
		Fields:   make(map[string]string, len(a.Fields)),
		Lists:    make(map[string][]string, len(a.Lists)),
	}
	for k, v := range a.Fields {
		out.Fields[k] = v
	}
	for k, v := range a.Lists {
		out.Lists[k] = append([]string{}, v...)
	}
	return out
}

// Flatten merges scalars and lists into a single map for the submit payload.
func (a *CategoryAttributes) Flatten() map[string]any {
	if a == nil {
		return nil
	}
	out := make(map[string]any, len(a.Fields)+len(a.Lists))
	for k, v := range a.Fields {
		out[k] = v
	}
	for k, v := range a.Lists {
		out[k] = append([]string{}, v...)
	}
	return out
}

// AttributesFromMap rebuilds an attribute object from a stored flat map.
// Keys unknown to the schema are kept so edits never drop historical data.
func AttributesFromMap(c Category, m map[string]any) *CategoryAttributes {
	attrs, err := InitializeAttributes(c)
	if err != nil {
		attrs = &CategoryAttributes{Category: c, Fields: map[string]string{}, Lists: map[string][]string{}}
	}
	for k, v := range m {
		switch val := v.(type) {
		case nil:
		case string:
			attrs.Fields[k] = val
		case []string:
			attrs.Lists[k] = append([]string{}, val...)
		case []any:
			list := make([]string, 0, len(val))
			for _, item := range val {
				if item != nil {
					list = append(list, fmt.Sprint(item))
				}
			}
			attrs.Lists[k] = list
		default:
			attrs.Fields[k] = fmt.Sprint(val)
		}
	}
	return attrs
}
