package domain

import (
	"errors"
	"testing"
)

func TestInitializeAttributesDefaults(t *testing.T) {
	attrs, err := InitializeAttributes(CategoryClothing)
	if err != nil {
		t.Fatal(err)
	}
	if attrs.Fields["gender"] != "Unisex" || attrs.Fields["productType"] != "" || attrs.Fields["material"] != "" {
		t.Errorf("unexpected clothing scalars: %v", attrs.Fields)
	}
	for _, list := range []string{AttrSizes, AttrColors, "style", "occasion"} {
		if got, ok := attrs.Lists[list]; !ok || len(got) != 0 {
			t.Errorf("expected empty list %s, got %v", list, got)
		}
	}

	if _, err := InitializeAttributes("Spaceships"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestEveryCategoryHasASchema(t *testing.T) {
	if got := len(Categories()); got != 12 {
		t.Fatalf("expected 12 categories, got %d", got)
	}
	for _, c := range Categories() {
		if _, err := InitializeAttributes(c); err != nil {
			t.Errorf("category %s: %v", c, err)
		}
	}
	for _, c := range []Category{CategoryClothing, CategoryShoes, CategoryAccessories} {
		if !SupportsVariantColors(c) {
			t.Errorf("expected %s to support variant colors", c)
		}
	}
	if SupportsVariantColors(CategoryFood) {
		t.Error("food must not drive variant colors")
	}
}

func TestAttributeListMutators(t *testing.T) {
	attrs, _ := InitializeAttributes(CategoryFood)

	if err := attrs.AppendToList("allergens", "Nuts"); err != nil {
		t.Fatal(err)
	}
	_ = attrs.AppendToList("allergens", "Milk")
	if err := attrs.RemoveFromList("allergens", 0); err != nil {
		t.Fatal(err)
	}
	if got := attrs.Lists["allergens"]; len(got) != 1 || got[0] != "Milk" {
		t.Errorf("expected [Milk], got %v", got)
	}
	if err := attrs.RemoveFromList("allergens", 8); err != nil {
		t.Errorf("out of range removal must be a no-op, got %v", err)
	}
	if err := attrs.AppendToList("warpDrive", "x"); !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("expected ErrUnknownAttribute, got %v", err)
	}
	if err := attrs.SetField("deliveryHours", "09:00-17:00"); err != nil {
		t.Errorf("expected deliveryHours to be settable, got %v", err)
	}
}

func TestAttributesFromMapKeepsUnknownKeys(t *testing.T) {
	attrs := AttributesFromMap(CategoryBooks, map[string]any{
		"author":  "Le Guin",
		"pages":   float64(320),
		"genres":  []any{"Fantasy", "SF"},
		"signed":  true,
		"missing": nil,
	})
	if attrs.Fields["author"] != "Le Guin" || attrs.Fields["pages"] != "320" || attrs.Fields["signed"] != "true" {
		t.Errorf("unexpected fields: %v", attrs.Fields)
	}
	if got := attrs.Lists["genres"]; len(got) != 2 {
		t.Errorf("unexpected genres: %v", got)
	}
	if attrs.Fields["format"] != "Paperback" {
		t.Errorf("expected schema defaults to remain, got %q", attrs.Fields["format"])
	}
	if err := attrs.SetField("pages", "400"); err != nil {
		t.Errorf("historical fields stay editable, got %v", err)
	}
}
