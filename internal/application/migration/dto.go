package migration

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopbridge/backend/internal/domain/migration"
)

// ---------------------------------------------------------------------------
// Views
// ---------------------------------------------------------------------------

// MappingView is one mapping with its derived validation state
type MappingView struct {
	SourceValue string   `json:"source_value"`
	TargetCode  string   `json:"target_code"`
	TargetValue string   `json:"target_value,omitempty"`
	TargetMulti []string `json:"target_multi,omitempty"`
	Validation  string   `json:"validation"`
}

// VariantView is one variant with its mappings
type VariantView struct {
	SKU      string                 `json:"sku"`
	Title    string                 `json:"title"`
	Price    string                 `json:"price"`
	Mappings map[string]MappingView `json:"mappings"`
}

// SessionView is the full session state returned to the interface layer
type SessionView struct {
	ID              uuid.UUID              `json:"id"`
	Stage           string                 `json:"stage"`
	TargetSKU       string                 `json:"target_sku,omitempty"`
	TargetIsNew     bool                   `json:"target_is_new"`
	Blocked         bool                   `json:"blocked"`
	ProductID       int64                  `json:"product_id"`
	ProductTitle    string                 `json:"product_title"`
	ProductMappings map[string]MappingView `json:"product_mappings"`
	Variants        []VariantView          `json:"variants"`
	CreatedAt       time.Time              `json:"created_at"`
}

// newSessionView projects a session into its view
func newSessionView(s *migration.ImportSession) *SessionView {
	product := s.Product()
	view := &SessionView{
		ID:              s.ID,
		Stage:           s.Stage().String(),
		TargetSKU:       s.TargetSKU(),
		TargetIsNew:     s.TargetIsNew(),
		Blocked:         s.Blocked(),
		ProductID:       product.ID,
		ProductTitle:    product.Title,
		ProductMappings: mappingViews(s.ProductMappings(), s.ProductValidation()),
		CreatedAt:       s.CreatedAt,
	}

	for _, v := range s.VisibleVariants() {
		set, _ := s.VariantMappings(v.SKU)
		states, _ := s.VariantValidation(v.SKU)
		view.Variants = append(view.Variants, VariantView{
			SKU:      v.SKU,
			Title:    v.Title,
			Price:    v.Price.StringFixed(2),
			Mappings: mappingViews(set, states),
		})
	}
	return view
}

func mappingViews(set migration.MappingSet, states map[string]migration.ValidationState) map[string]MappingView {
	views := make(map[string]MappingView, len(set))
	for field, m := range set {
		mv := MappingView{
			SourceValue: m.SourceValue,
			TargetCode:  m.TargetCode,
			Validation:  states[field].String(),
		}
		if m.Value.Kind() == migration.ValueKindMulti {
			mv.TargetMulti = m.Value.Values()
		} else {
			mv.TargetValue = m.Value.String()
		}
		views[field] = mv
	}
	return views
}

// ---------------------------------------------------------------------------
// Edits
// ---------------------------------------------------------------------------

// ProductEdit is one product-level edit. Exactly one of AttributeCode, Value
// or CategoryIDs is applied, in that precedence.
type ProductEdit struct {
	Field         string
	AttributeCode string
	Value         *string
	CategoryIDs   []string
}

// VariantEdit is one variant-level edit
type VariantEdit struct {
	SKU           string
	Field         string
	AttributeCode string
	Value         *string
}

// ---------------------------------------------------------------------------
// Outcomes
// ---------------------------------------------------------------------------

// SubmitOutcome reports the result of a sequential submission. Variants
// imported before a mid-sequence failure stay imported; there is no rollback
// across the platform boundary.
type SubmitOutcome struct {
	// ConfigurableCreated is true when the parent product was created
	ConfigurableCreated bool `json:"configurable_created"`
	// ImportedSKUs lists the variants imported, in submission order
	ImportedSKUs []string `json:"imported_skus"`
	// FailedSKU names the variant whose import failed, empty on success
	FailedSKU string `json:"failed_sku,omitempty"`
	// FailedMessage is the platform error for the failed unit
	FailedMessage string `json:"failed_message,omitempty"`
	// Completed is true when every visible variant was imported
	Completed bool `json:"completed"`
}

// StoreOutcome is the result of publishing to one additional store
type StoreOutcome struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id,omitempty"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
}

// PublishOutcome aggregates the concurrent store fan-out
type PublishOutcome struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Stores     []StoreOutcome `json:"stores"`
}
