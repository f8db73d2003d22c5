package domain

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func mustReduce(t *testing.T, d *Draft, a Action) *Draft {
	t.Helper()
	next, err := Reduce(d, a, testNow)
	if err != nil {
		t.Fatalf("Reduce(%s) failed: %v", a.Type, err)
	}
	return next
}

// taggedDraft builds a clothing draft with one image per color tag.
func taggedDraft(t *testing.T, colors ...string) *Draft {
	t.Helper()
	d := NewDraft(0, 10, testNow)
	d = mustReduce(t, d, Action{Type: ActionSetCategory, Value: "Clothing"})
	for i, c := range colors {
		id := "img-" + strconv.Itoa(i)
		d = mustReduce(t, d, Action{Type: ActionAddImage, Image: &TaggedImage{ID: id, URL: "https://cdn.example.com/" + id + ".jpg"}})
		d = mustReduce(t, d, Action{Type: ActionTagImage, ImageID: id, Color: c})
	}
	return d
}

func validDraft(t *testing.T) *Draft {
	t.Helper()
	d := taggedDraft(t)
	d = mustReduce(t, d, Action{Type: ActionAddImage, Image: &TaggedImage{URL: "https://cdn.example.com/a.jpg"}})
	for field, value := range map[string]InputValue{
		FieldProductName:  "Linen Shirt",
		FieldQuantity:     "12",
		FieldCostPrice:    "10.50",
		FieldSellingPrice: "19.99",
	} {
		d = mustReduce(t, d, Action{Type: ActionSetField, Field: field, Value: value})
	}
	return d
}

func TestScenarioA_NoColorsKeepsManualStock(t *testing.T) {
	d := taggedDraft(t)
	if d.HasVariants {
		t.Fatal("expected variant mode to be inactive without colors")
	}
	d = mustReduce(t, d, Action{Type: ActionSetField, Field: FieldQuantity, Value: "7"})
	if d.BaseStock != 7 || TotalStock(d) != 7 {
		t.Errorf("expected manually entered stock 7, got %d", d.BaseStock)
	}
}

func TestScenarioB_TwoColorsOneSize(t *testing.T) {
	d := taggedDraft(t, "Red", "Blue")
	if !d.HasVariants || len(d.Matrix.Variants) != 2 {
		t.Fatalf("expected 2 color records, got %+v", d.Matrix.Variants)
	}
	for _, v := range d.Matrix.Variants {
		if len(v.Sizes) != 0 {
			t.Fatalf("expected empty size list for %s", v.Color)
		}
	}

	d = mustReduce(t, d, Action{Type: ActionSetDefaultStock, Value: "5"})
	d = mustReduce(t, d, Action{Type: ActionSetSizeMode, Mode: SizeModeOneSize})

	if d.BaseStock != 10 {
		t.Errorf("expected total stock 10, got %d", d.BaseStock)
	}
}

func TestScenarioC_SameModeSharedSizes(t *testing.T) {
	d := taggedDraft(t, "Red", "Blue")
	d = mustReduce(t, d, Action{Type: ActionSetDefaultStock, Value: "3"})
	d = mustReduce(t, d, Action{Type: ActionSetSizeMode, Mode: SizeModeSame})
	d = mustReduce(t, d, Action{Type: ActionToggleSharedSize, Size: "S"})
	d = mustReduce(t, d, Action{Type: ActionToggleSharedSize, Size: "M"})

	if d.BaseStock != 12 {
		t.Errorf("expected total stock 12, got %d", d.BaseStock)
	}
	if got := d.ActiveAttributes().Lists[AttrSizes]; strings.Join(got, ",") != "S,M" {
		t.Errorf("expected category sizes S,M, got %v", got)
	}
}

func TestScenarioD_DifferentModePerColorSizes(t *testing.T) {
	d := taggedDraft(t, "Red", "Blue")
	d = mustReduce(t, d, Action{Type: ActionSetSizeMode, Mode: SizeModeDifferent})
	d = mustReduce(t, d, Action{Type: ActionToggleSizeForColor, ColorIndex: 0, Size: "S"})
	d = mustReduce(t, d, Action{Type: ActionToggleSizeForColor, ColorIndex: 0, Size: "M"})
	d = mustReduce(t, d, Action{Type: ActionToggleSizeForColor, ColorIndex: 1, Size: "L"})
	d = mustReduce(t, d, Action{Type: ActionUpdateQuantity, ColorIndex: 0, SizeIndex: 0, Value: "5"})
	d = mustReduce(t, d, Action{Type: ActionUpdateQuantity, ColorIndex: 0, SizeIndex: 1, Value: "3"})
	d = mustReduce(t, d, Action{Type: ActionUpdateQuantity, ColorIndex: 1, SizeIndex: 0, Value: "2"})

	if d.BaseStock != 10 {
		t.Errorf("expected total stock 10, got %d", d.BaseStock)
	}
}

func TestScenarioE_SellingPriceBelowCost(t *testing.T) {
	d := validDraft(t)
	d.CostPrice = decimal.NewFromInt(100)

	d.SellingPrice = decimal.NewFromInt(80)
	if _, ok := Validate(d)[FieldSellingPrice]; !ok {
		t.Error("expected a sellingPrice error when selling below cost")
	}

	d.SellingPrice = decimal.NewFromInt(150)
	if msg, ok := Validate(d)[FieldSellingPrice]; ok {
		t.Errorf("expected no sellingPrice error, got %q", msg)
	}
}

// Feature: inventory-draft, Property 4: Validation rejects bad names, categories and prices
func TestProperty_ValidateRejectsInvalidInput(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validate flags every invalid base field", prop.ForAll(
		func(name string, useCategory bool, cost int, selling int) bool {
			d := NewDraft(0, 5, testNow)
			d.ProductName = name
			if useCategory {
				d.Category = CategoryBooks
			}
			d.BaseStock = 3
			d.CostPrice = decimal.NewFromInt(int64(cost))
			d.SellingPrice = decimal.NewFromInt(int64(selling))

			errs := Validate(d)

			if strings.TrimSpace(name) == "" {
				if _, ok := errs[FieldProductName]; !ok {
					t.Logf("FAIL: empty name %q accepted", name)
					return false
				}
			}
			if !useCategory {
				if _, ok := errs[FieldCategory]; !ok {
					t.Log("FAIL: empty category accepted")
					return false
				}
			}
			if cost <= 0 {
				if _, ok := errs[FieldCostPrice]; !ok {
					t.Logf("FAIL: cost price %d accepted", cost)
					return false
				}
			}
			if selling <= 0 || (cost > 0 && selling < cost) {
				if _, ok := errs[FieldSellingPrice]; !ok {
					t.Logf("FAIL: selling price %d accepted with cost %d", selling, cost)
					return false
				}
			}
			if cost > 0 && selling >= cost {
				if _, ok := errs[FieldSellingPrice]; ok {
					t.Logf("FAIL: selling price %d rejected with cost %d", selling, cost)
					return false
				}
			}
			return true
		},
		gen.OneConstOf("", "  ", "Mug", "Trail Shoe"),
		gen.Bool(),
		gen.IntRange(-50, 200),
		gen.IntRange(-50, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidateVariantRules(t *testing.T) {
	d := taggedDraft(t, "Red", "Blue")
	d = mustReduce(t, d, Action{Type: ActionSetSizeMode, Mode: SizeModeDifferent})
	d = mustReduce(t, d, Action{Type: ActionToggleSizeForColor, ColorIndex: 0, Size: "S"})

	errs := Validate(d)
	if _, ok := errs[FieldQuantity]; !ok {
		t.Error("expected a quantity error for a zero variant total")
	}
	if msg := errs[FieldVariants]; !strings.Contains(msg, "Blue") {
		t.Errorf("expected Blue to be reported without sizes, got %q", msg)
	}

	d = mustReduce(t, d, Action{Type: ActionUpdateQuantity, ColorIndex: 0, SizeIndex: 0, Value: "4"})
	d = mustReduce(t, d, Action{Type: ActionToggleSizeForColor, ColorIndex: 1, Size: "S"})
	errs = Validate(d)
	if _, ok := errs[FieldQuantity]; ok {
		t.Errorf("unexpected quantity error: %v", errs)
	}
	if _, ok := errs[FieldVariants]; ok {
		t.Errorf("unexpected variants error: %v", errs)
	}
}

func TestValidateReportsSkuCollisions(t *testing.T) {
	d := taggedDraft(t, "Green", "Grey")
	d = mustReduce(t, d, Action{Type: ActionSetDefaultStock, Value: "1"})
	d = mustReduce(t, d, Action{Type: ActionSetSizeMode, Mode: SizeModeOneSize})

	msg, ok := Validate(d)[FieldSkus]
	if !ok || !strings.Contains(msg, "CLO-GRE-One Size") {
		t.Errorf("expected a collision on CLO-GRE-One Size, got %q", msg)
	}
}

func TestDeriveSku(t *testing.T) {
	cases := []struct {
		category Category
		color    string
		size     string
		want     string
	}{
		{CategoryClothing, "Red", "M", "CLO-RED-M"},
		{CategoryHomeGarden, "navy blue", "L", "HOM-NAV-L"},
		{CategoryShoes, "Or", "42", "SHO-OR-42"},
	}
	for _, c := range cases {
		if got := DeriveSku(c.category, c.color, c.size); got != c.want {
			t.Errorf("DeriveSku(%s, %s, %s) = %s, expected %s", c.category, c.color, c.size, got, c.want)
		}
	}
}

func TestCheckSubmittableRequiresImages(t *testing.T) {
	d := NewDraft(0, 5, testNow)
	if err := CheckSubmittable(d); !errors.Is(err, ErrNoImages) {
		t.Errorf("expected ErrNoImages, got %v", err)
	}
	if err := CheckSubmittable(validDraft(t)); err != nil {
		t.Errorf("expected a draft with images to be submittable, got %v", err)
	}
}

func TestToSubmitPayloadFlattensVariants(t *testing.T) {
	d := taggedDraft(t, "Red", "Blue")
	d = mustReduce(t, d, Action{Type: ActionAddImage, Image: &TaggedImage{ID: "extra", URL: "https://cdn.example.com/red-2.jpg"}})
	d = mustReduce(t, d, Action{Type: ActionTagImage, ImageID: "extra", Color: "Red"})
	d = mustReduce(t, d, Action{Type: ActionSetSizeMode, Mode: SizeModeSame})
	d = mustReduce(t, d, Action{Type: ActionToggleSharedSize, Size: "S"})
	d = mustReduce(t, d, Action{Type: ActionUpdateQuantity, ColorIndex: 0, SizeIndex: 0, Value: "4"})
	d = mustReduce(t, d, Action{Type: ActionUpdateQuantity, ColorIndex: 1, SizeIndex: 0, Value: "6"})

	p := ToSubmitPayload(d)

	if !p.HasVariants || len(p.Variants) != 2 {
		t.Fatalf("expected 2 flattened variants, got %+v", p.Variants)
	}
	if p.QuantityInStock != 10 || p.TotalStockedQuantity != 10 || p.SoldQuantity != 0 {
		t.Errorf("unexpected stock totals: %+v", p)
	}
	red := p.Variants[0]
	if red.Color != "Red" || red.SKU != "CLO-RED-S" || !red.IsActive || red.SoldQuantity != 0 {
		t.Errorf("unexpected red variant: %+v", red)
	}
	if len(red.Images) != 2 {
		t.Errorf("expected the 2 red images on the red variant, got %v", red.Images)
	}
	if p.Image != "https://cdn.example.com/img-0.jpg" || len(p.Images) != 3 {
		t.Errorf("unexpected image fields: %s %v", p.Image, p.Images)
	}
	if colors := p.CategoryAttributes[AttrColors].([]string); strings.Join(colors, ",") != "Red,Blue" {
		t.Errorf("expected category colors Red,Blue, got %v", colors)
	}
}

func TestToSubmitPayloadWithoutVariants(t *testing.T) {
	d := validDraft(t)
	p := ToSubmitPayload(d)
	if p.HasVariants || len(p.Variants) != 0 {
		t.Errorf("expected no variants, got %+v", p.Variants)
	}
	if p.QuantityInStock != 12 || p.ProductName != "Linen Shirt" {
		t.Errorf("unexpected payload: %+v", p)
	}
	if !p.CostPrice.Equal(decimal.RequireFromString("10.50")) {
		t.Errorf("unexpected cost price %s", p.CostPrice)
	}
}
