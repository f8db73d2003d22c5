package domain

import (
	"math"
	"strconv"
	"strings"
)

// SizeMode selects how sizes are assigned across the colors of a variant matrix.
type SizeMode string

const (
	SizeModeUnset     SizeMode = ""
	SizeModeOneSize   SizeMode = "one-size"
	SizeModeSame      SizeMode = "same"
	SizeModeDifferent SizeMode = "different"
)

const (
	// OneSizeLabel is the size given to every color in one-size mode.
	OneSizeLabel = "One Size"
	// DefaultVariantReorderLevel is the reorder level of newly created size entries.
	DefaultVariantReorderLevel = 5
)

// Valid reports whether m is one of the assignable modes.
func (m SizeMode) Valid() bool {
	return m == SizeModeOneSize || m == SizeModeSame || m == SizeModeDifferent
}

// SizeStock is the stock record of one (color, size) pair.
type SizeStock struct {
	Size            string `json:"size"`
	QuantityInStock int    `json:"quantityInStock"`
	ReorderLevel    int    `json:"reorderLevel"`
}

// VariantRecord holds the sizes stocked for one color.
type VariantRecord struct {
	Color string      `json:"color"`
	Sizes []SizeStock `json:"sizes"`
}

func (v *VariantRecord) sizeIndex(size string) int {
	for i, s := range v.Sizes {
		if s.Size == size {
			return i
		}
	}
	return -1
}

// VariantMatrix is the color by size stock grid of a draft.
// Operations never fail: unknown indices and mode mismatches are no-ops.
type VariantMatrix struct {
	Mode         SizeMode        `json:"mode"`
	DefaultStock int             `json:"defaultStock"`
	SharedSizes  []string        `json:"sharedSizes"`
	Variants     []VariantRecord `json:"variants"`
}

// SetColors creates one empty record per color, only when the matrix is empty.
func (m *VariantMatrix) SetColors(colors []string) {
	if len(m.Variants) > 0 {
		return
	}
	m.Variants = make([]VariantRecord, 0, len(colors))
	for _, c := range colors {
		m.Variants = append(m.Variants, m.newRecord(c))
	}
}

// SyncColors reconciles an already populated matrix with the detected colors:
// records of vanished colors are dropped, new colors get a record shaped by the current mode,
// and surviving colors keep their sizes and quantities.
func (m *VariantMatrix) SyncColors(colors []string) {
	if len(m.Variants) == 0 {
		m.SetColors(colors)
		return
	}
	existing := make(map[string]VariantRecord, len(m.Variants))
	for _, v := range m.Variants {
		existing[v.Color] = v
	}
	next := make([]VariantRecord, 0, len(colors))
	for _, c := range colors {
		if v, ok := existing[c]; ok {
			next = append(next, v)
			continue
		}
		next = append(next, m.newRecord(c))
	}
	m.Variants = next
}

// newRecord builds the record a color joining the matrix receives under the current mode.
func (m *VariantMatrix) newRecord(color string) VariantRecord {
	rec := VariantRecord{Color: color, Sizes: []SizeStock{}}
	switch m.Mode {
	case SizeModeOneSize:
		rec.Sizes = append(rec.Sizes, m.newSize(OneSizeLabel))
	case SizeModeSame:
		for _, s := range m.SharedSizes {
			rec.Sizes = append(rec.Sizes, m.newSize(s))
		}
	}
	return rec
}

func (m *VariantMatrix) newSize(size string) SizeStock {
	stock := m.DefaultStock
	if stock < 0 {
		stock = 0
	}
	return SizeStock{Size: size, QuantityInStock: stock, ReorderLevel: DefaultVariantReorderLevel}
}

// SetSizeMode switches the size assignment mode. Existing size assignments are always cleared;
// one-size then gives every color a single "One Size" entry.
func (m *VariantMatrix) SetSizeMode(mode SizeMode) {
	m.Mode = mode
	m.SharedSizes = []string{}
	for i := range m.Variants {
		m.Variants[i].Sizes = []SizeStock{}
		if mode == SizeModeOneSize {
			m.Variants[i].Sizes = append(m.Variants[i].Sizes, m.newSize(OneSizeLabel))
		}
	}
}

// ToggleSharedSize adds or removes size from every color. Only valid in same mode.
func (m *VariantMatrix) ToggleSharedSize(size string) {
	size = strings.TrimSpace(size)
	if m.Mode != SizeModeSame || size == "" {
		return
	}

	for i, s := range m.SharedSizes {
		if s == size {
			m.SharedSizes = append(m.SharedSizes[:i:i], m.SharedSizes[i+1:]...)
			for c := range m.Variants {
				if idx := m.Variants[c].sizeIndex(size); idx >= 0 {
					m.removeAt(c, idx)
				}
			}
			return
		}
	}

	m.SharedSizes = append(m.SharedSizes, size)
	for c := range m.Variants {
		if m.Variants[c].sizeIndex(size) < 0 {
			m.Variants[c].Sizes = append(m.Variants[c].Sizes, m.newSize(size))
		}
	}
}

// ToggleSizeForColor adds or removes size for exactly one color. Only valid in different mode.
func (m *VariantMatrix) ToggleSizeForColor(colorIndex int, size string) {
	size = strings.TrimSpace(size)
	if m.Mode != SizeModeDifferent || size == "" || !m.validColor(colorIndex) {
		return
	}
	if idx := m.Variants[colorIndex].sizeIndex(size); idx >= 0 {
		m.removeAt(colorIndex, idx)
		return
	}
	m.Variants[colorIndex].Sizes = append(m.Variants[colorIndex].Sizes, m.newSize(size))
}

// UpdateQuantity sets the stock of one entry from raw user input.
func (m *VariantMatrix) UpdateQuantity(colorIndex, sizeIndex int, raw string) {
	if !m.validSize(colorIndex, sizeIndex) {
		return
	}
	m.Variants[colorIndex].Sizes[sizeIndex].QuantityInStock = ParseQuantity(raw)
}

// UpdateReorderLevel sets the reorder level of one entry from raw user input.
func (m *VariantMatrix) UpdateReorderLevel(colorIndex, sizeIndex int, raw string) {
	if !m.validSize(colorIndex, sizeIndex) {
		return
	}
	m.Variants[colorIndex].Sizes[sizeIndex].ReorderLevel = ParseQuantity(raw)
}

// RemoveSize deletes one entry regardless of mode.
func (m *VariantMatrix) RemoveSize(colorIndex, sizeIndex int) {
	if !m.validSize(colorIndex, sizeIndex) {
		return
	}
	m.removeAt(colorIndex, sizeIndex)
}

func (m *VariantMatrix) removeAt(colorIndex, sizeIndex int) {
	sizes := m.Variants[colorIndex].Sizes
	m.Variants[colorIndex].Sizes = append(sizes[:sizeIndex:sizeIndex], sizes[sizeIndex+1:]...)
}

func (m *VariantMatrix) validColor(colorIndex int) bool {
	return colorIndex >= 0 && colorIndex < len(m.Variants)
}

func (m *VariantMatrix) validSize(colorIndex, sizeIndex int) bool {
	return m.validColor(colorIndex) && sizeIndex >= 0 && sizeIndex < len(m.Variants[colorIndex].Sizes)
}

// HasSizes reports whether any color holds at least one size entry.
func (m *VariantMatrix) HasSizes() bool {
	for _, v := range m.Variants {
		if len(v.Sizes) > 0 {
			return true
		}
	}
	return false
}

// Sizes returns the distinct sizes across all colors in first-seen order.
func (m *VariantMatrix) Sizes() []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, v := range m.Variants {
		for _, s := range v.Sizes {
			if _, ok := seen[s.Size]; ok {
				continue
			}
			seen[s.Size] = struct{}{}
			out = append(out, s.Size)
		}
	}
	return out
}

// Reset tears the matrix down.
func (m *VariantMatrix) Reset() {
	m.Mode = SizeModeUnset
	m.SharedSizes = []string{}
	m.Variants = []VariantRecord{}
}

// Clone returns a deep copy.
func (m VariantMatrix) Clone() VariantMatrix {
	out := VariantMatrix{
		Mode:         m.Mode,
		DefaultStock: m.DefaultStock,
		SharedSizes:  append([]string{}, m.SharedSizes...),
		Variants:     make([]VariantRecord, len(m.Variants)),
	}
	for i, v := range m.Variants {
		out.Variants[i] = VariantRecord{Color: v.Color, Sizes: append([]SizeStock{}, v.Sizes...)}
	}
	return out
}

// normalize removes duplicate sizes per color and fills nil slices.
func (m *VariantMatrix) normalize() {
	if m.SharedSizes == nil {
		m.SharedSizes = []string{}
	}
	if m.Variants == nil {
		m.Variants = []VariantRecord{}
	}
	for i := range m.Variants {
		seen := make(map[string]struct{}, len(m.Variants[i].Sizes))
		sizes := make([]SizeStock, 0, len(m.Variants[i].Sizes))
		for _, s := range m.Variants[i].Sizes {
			if _, dup := seen[s.Size]; dup {
				continue
			}
			seen[s.Size] = struct{}{}
			if s.QuantityInStock < 0 {
				s.QuantityInStock = 0
			}
			if s.ReorderLevel < 0 {
				s.ReorderLevel = 0
			}
			sizes = append(sizes, s)
		}
		m.Variants[i].Sizes = sizes
	}
}

// ParseQuantity parses user input as a non-negative integer. Invalid or empty input yields 0
// and fractional input is truncated.
func ParseQuantity(raw string) int {
	n := ParseInt(raw)
	if n < 0 {
		return 0
	}
	return n
}

// ParseInt parses a signed integer leniently, truncating decimals. Invalid input yields 0.
func ParseInt(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(f)
}
