package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownField  = errors.New("unknown draft field")
)

// ActionType names one user event on the inventory form.
type ActionType string

const (
	ActionSetField           ActionType = "set_field"
	ActionSetCategory        ActionType = "set_category"
	ActionSetAttribute       ActionType = "set_attribute"
	ActionAppendAttribute    ActionType = "append_attribute"
	ActionRemoveAttribute    ActionType = "remove_attribute"
	ActionAddImage           ActionType = "add_image"
	ActionRemoveImage        ActionType = "remove_image"
	ActionSetPrimaryImage    ActionType = "set_primary_image"
	ActionTagImage           ActionType = "tag_image"
	ActionSetSizeMode        ActionType = "set_size_mode"
	ActionToggleSharedSize   ActionType = "toggle_shared_size"
	ActionToggleSizeForColor ActionType = "toggle_size_for_color"
	ActionUpdateQuantity     ActionType = "update_quantity"
	ActionUpdateReorderLevel ActionType = "update_reorder_level"
	ActionRemoveSize         ActionType = "remove_size"
	ActionSetDefaultStock    ActionType = "set_default_stock"
)

// InputValue is raw form input. It decodes from JSON strings, numbers and booleans alike.
type InputValue string

func (v *InputValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = InputValue(s)
		return nil
	}
	*v = InputValue(data)
	return nil
}

// Action is one form event applied to a draft.
type Action struct {
	Type       ActionType   `json:"type" validate:"required"`
	Field      string       `json:"field,omitempty"`
	Value      InputValue   `json:"value,omitempty"`
	Index      int          `json:"index,omitempty"`
	ColorIndex int          `json:"colorIndex,omitempty"`
	SizeIndex  int          `json:"sizeIndex,omitempty"`
	Size       string       `json:"size,omitempty"`
	Mode       SizeMode     `json:"mode,omitempty"`
	ImageID    string       `json:"imageId,omitempty"`
	Color      string       `json:"color,omitempty"`
	Image      *TaggedImage `json:"image,omitempty"`
	// Confirm acknowledges that a size mode switch discards entered sizes.
	Confirm bool `json:"confirm,omitempty"`
}

// Reduce applies an action to a copy of the draft, recomputes derived state and returns the copy.
// The input draft is never modified. Errors are returned only for malformed actions.
func Reduce(d *Draft, a Action, now time.Time) (*Draft, error) {
	next := d.Clone()
	if err := apply(next, a); err != nil {
		return nil, err
	}
	Recompute(next)
	next.UpdatedAt = now
	return next, nil
}

func apply(d *Draft, a Action) error {
	switch a.Type {
	case ActionSetField:
		return setField(d, a.Field, string(a.Value))

	case ActionSetCategory:
		return d.SetCategory(Category(strings.TrimSpace(string(a.Value))))

	case ActionSetAttribute, ActionAppendAttribute, ActionRemoveAttribute:
		attrs := d.ActiveAttributes()
		if attrs == nil {
			return fmt.Errorf("%w: select a category first", ErrUnknownAttribute)
		}
		switch a.Type {
		case ActionSetAttribute:
			return attrs.SetField(a.Field, string(a.Value))
		case ActionAppendAttribute:
			value := strings.TrimSpace(string(a.Value))
			if value == "" || attrs.Contains(a.Field, value) {
				return nil
			}
			return attrs.AppendToList(a.Field, value)
		default:
			return attrs.RemoveFromList(a.Field, a.Index)
		}

	case ActionAddImage:
		if a.Image == nil || strings.TrimSpace(a.Image.URL) == "" {
			return fmt.Errorf("%w: add_image requires an image url", ErrUnknownAction)
		}
		d.AddImage(*a.Image)
		return nil

	case ActionRemoveImage:
		d.RemoveImage(a.ImageID)
		return nil

	case ActionSetPrimaryImage:
		d.SetPrimaryImage(a.ImageID)
		return nil

	case ActionTagImage:
		d.TagImage(a.ImageID, a.Color)
		return nil

	case ActionSetSizeMode:
		if !a.Mode.Valid() {
			return fmt.Errorf("%w: size mode %q", ErrUnknownAction, a.Mode)
		}
		if d.Matrix.HasSizes() && !a.Confirm {
			return ErrSizeModeDiscardsData
		}
		d.Matrix.SetSizeMode(a.Mode)
		return nil

	case ActionToggleSharedSize:
		d.Matrix.ToggleSharedSize(a.Size)
		return nil

	case ActionToggleSizeForColor:
		d.Matrix.ToggleSizeForColor(a.ColorIndex, a.Size)
		return nil

	case ActionUpdateQuantity:
		d.Matrix.UpdateQuantity(a.ColorIndex, a.SizeIndex, string(a.Value))
		return nil

	case ActionUpdateReorderLevel:
		d.Matrix.UpdateReorderLevel(a.ColorIndex, a.SizeIndex, string(a.Value))
		return nil

	case ActionRemoveSize:
		d.Matrix.RemoveSize(a.ColorIndex, a.SizeIndex)
		return nil

	case ActionSetDefaultStock:
		d.Matrix.DefaultStock = ParseQuantity(string(a.Value))
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
}

func setField(d *Draft, field, raw string) error {
	switch field {
	case FieldProductName:
		d.ProductName = raw
	case "description":
		d.Description = raw
	case "supplier":
		d.Supplier = raw
	case FieldCategory:
		return d.SetCategory(Category(strings.TrimSpace(raw)))
	case FieldQuantity, "baseStock":
		// Variant mode makes the stock field read-only.
		if d.HasVariants {
			return nil
		}
		d.BaseStock = ParseInt(raw)
		field = FieldQuantity
	case FieldReorderLevel:
		d.ReorderLevel = ParseInt(raw)
	case FieldCostPrice:
		d.CostPrice = parsePrice(raw)
	case FieldSellingPrice:
		d.SellingPrice = parsePrice(raw)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	delete(d.Errors, field)
	return nil
}

// parsePrice reads a price leniently; invalid input becomes zero and fails validation later.
func parsePrice(raw string) decimal.Decimal {
	p, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return p
}
