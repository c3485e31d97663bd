package migration

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// InputKind
// ---------------------------------------------------------------------------

// InputKind represents the frontend input type of a Magento attribute
type InputKind string

const (
	// InputKindText is a single-line free-text attribute
	InputKindText InputKind = "text"
	// InputKindTextarea is a multi-line free-text attribute
	InputKindTextarea InputKind = "textarea"
	// InputKindSelect is a single-choice enumerated attribute
	InputKindSelect InputKind = "select"
	// InputKindMultiselect is a multi-choice enumerated attribute
	InputKindMultiselect InputKind = "multiselect"
)

// IsValid returns true if the input kind is valid
func (k InputKind) IsValid() bool {
	switch k {
	case InputKindText, InputKindTextarea, InputKindSelect, InputKindMultiselect:
		return true
	default:
		return false
	}
}

// String returns the string representation of InputKind
func (k InputKind) String() string {
	return string(k)
}

// IsEnumerated returns true if the attribute carries an option list
func (k InputKind) IsEnumerated() bool {
	return k == InputKindSelect || k == InputKindMultiselect
}

// IsMulti returns true if the attribute holds a list of values
func (k InputKind) IsMulti() bool {
	return k == InputKindMultiselect
}

// ---------------------------------------------------------------------------
// Attribute definitions
// ---------------------------------------------------------------------------

// AttributeOption is one enumerated value allowed for a select or multiselect
// attribute.
type AttributeOption struct {
	// Label is the admin-facing option label
	Label string
	// Value is the stable option value stored on products
	Value string
}

// AttributeDef describes one attribute in the target attribute set.
type AttributeDef struct {
	// Code is the stable attribute code, unique within the attribute set
	Code string
	// Label is the admin-facing attribute label
	Label string
	// InputKind is the frontend input type
	InputKind InputKind
	// Required indicates the attribute must be populated before saving
	Required bool
	// Options holds the enumerated values for select/multiselect attributes.
	// The list is append-only during a session: new options may be created on
	// the platform and appended, existing entries never change or move.
	Options []AttributeOption
}

// HasOptions returns true if the definition carries enumerated options
func (d *AttributeDef) HasOptions() bool {
	return len(d.Options) > 0
}

// FindOption looks up an option by exact value or case-insensitive label
func (d *AttributeDef) FindOption(value string) (AttributeOption, bool) {
	for _, opt := range d.Options {
		if opt.Value == value || strings.EqualFold(opt.Label, value) {
			return opt, true
		}
	}
	return AttributeOption{}, false
}

// ---------------------------------------------------------------------------
// Category tree
// ---------------------------------------------------------------------------

// CategoryNode is one node of the target category tree, flattened for
// matching. Built once per session from the platform's category list and not
// mutated afterwards.
type CategoryNode struct {
	// ID is the platform category ID
	ID string
	// Label is the leaf name of this category
	Label string
	// Level is the depth of this node, 1 for top-level categories
	Level int
	// ParentID is the platform ID of the parent node
	ParentID string
	// PathLabels holds the labels from root to this node, excluding the
	// universal root category
	PathLabels []string
}

// FullPathLabel returns the path labels joined for display and matching,
// e.g. "Vaping / Kits".
func (n *CategoryNode) FullPathLabel() string {
	return strings.Join(n.PathLabels, " / ")
}

// ---------------------------------------------------------------------------
// Source product model
// ---------------------------------------------------------------------------

// SourceField is one product- or variant-level attribute read from the source
// catalog entry. Immutable once read.
type SourceField struct {
	// Name is the source field name, e.g. "vendor" or "color"
	Name string
	// Value is the raw source value
	Value string
}

// SourceProduct is the domain view of one Shopify product selected for
// migration.
type SourceProduct struct {
	// ID is the Shopify product ID
	ID int64
	// Title is the product title
	Title string
	// BodyHTML is the product description markup
	BodyHTML string
	// Vendor is the product vendor
	Vendor string
	// ProductType is the free-text product type, e.g. "Vape / E-liquid"
	ProductType string
	// Tags is the comma-separated tag list
	Tags string
	// OptionNames holds the variant option dimensions in position order,
	// e.g. ["Color", "Size"]
	OptionNames []string
	// Variants holds the product variants
	Variants []SourceVariant
}

// SourceVariant is one variant of a source product.
type SourceVariant struct {
	// ID is the Shopify variant ID
	ID int64
	// SKU is the variant SKU
	SKU string
	// Title is the variant title, usually the option values joined
	Title string
	// Price is the variant price
	Price decimal.Decimal
	// Barcode is the variant barcode (EAN/UPC), may be empty
	Barcode string
	// WeightGrams is the variant weight in grams
	WeightGrams decimal.Decimal
	// OptionValues holds the option values positionally aligned with the
	// product's OptionNames
	OptionValues []string
}

// Fields returns the variant-level source fields: one per option dimension
// plus sku and barcode. optionNames comes from the owning product.
func (v *SourceVariant) Fields(optionNames []string) []SourceField {
	fields := make([]SourceField, 0, len(optionNames)+2)
	for i, name := range optionNames {
		if i >= len(v.OptionValues) {
			break
		}
		fields = append(fields, SourceField{Name: strings.ToLower(name), Value: v.OptionValues[i]})
	}
	fields = append(fields, SourceField{Name: "sku", Value: v.SKU})
	if v.Barcode != "" {
		fields = append(fields, SourceField{Name: "barcode", Value: v.Barcode})
	}
	return fields
}
