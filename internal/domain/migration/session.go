package migration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Stage
// ---------------------------------------------------------------------------

// Stage represents the lifecycle stage of an import session
type Stage string

const (
	// StageSelectingTarget means no target SKU has been chosen yet
	StageSelectingTarget Stage = "selecting_target"
	// StageMapping means the target is chosen and mappings are editable
	StageMapping Stage = "mapping"
	// StageReady means the session can be submitted
	StageReady Stage = "ready"
	// StageSubmitted is the terminal success stage
	StageSubmitted Stage = "submitted"
	// StageCancelled is the terminal cancel stage
	StageCancelled Stage = "cancelled"
)

// String returns the string representation of Stage
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true for submitted and cancelled sessions
func (s Stage) IsTerminal() bool {
	return s == StageSubmitted || s == StageCancelled
}

// ---------------------------------------------------------------------------
// Field vocabulary
// ---------------------------------------------------------------------------

// Product-level field names. These are the keys of the product MappingSet;
// the special fields among them are fanned out into every variant MappingSet
// on each product-level edit.
const (
	FieldName            = "name"
	FieldManufacturer    = "manufacturer"
	FieldBrand           = "brand"
	FieldDescription     = "description"
	FieldCategoryIDs     = "category_ids"
	FieldMetaTitle       = "meta_title"
	FieldMetaKeyword     = "meta_keyword"
	FieldMetaDescription = "meta_description"
)

// specialProductFields are the product-level keys replicated into every
// variant MappingSet. Variant-specific keys are never touched by the fan-out.
var specialProductFields = []string{
	FieldManufacturer,
	FieldBrand,
	FieldDescription,
	FieldCategoryIDs,
	FieldMetaTitle,
	FieldMetaKeyword,
	FieldMetaDescription,
}

// linkedFields declares field pairs where editing the key silently updates
// the value field as well. The mirror is skipped once the linked field has
// been edited by hand.
var linkedFields = map[string]string{
	FieldManufacturer: FieldBrand,
}

// ---------------------------------------------------------------------------
// ImportSession
// ---------------------------------------------------------------------------

// ImportSession holds the mapping state for one product being migrated. It is
// owned by a single operator session; all durable state lives on the target
// platform, the session itself is discarded at the end.
type ImportSession struct {
	// ID is the session identifier
	ID uuid.UUID
	// CreatedAt is when the session was opened
	CreatedAt time.Time

	product SourceProduct
	catalog *AttributeCatalog
	forest  []CategoryNode

	stage       Stage
	targetSKU   string
	targetIsNew bool
	blocked     bool

	// configurableCreated records that the parent product call succeeded,
	// so a retry after a partial failure never re-creates it
	configurableCreated bool

	productMappings MappingSet
	variantMappings map[string]MappingSet

	// excludedSKUs holds variants already present downstream plus variants
	// imported by a partially failed submit, so a retry continues where the
	// failure happened
	excludedSKUs map[string]struct{}

	// manualEdits tracks product-level fields the operator set by hand;
	// linked-field mirroring never overwrites these
	manualEdits map[string]struct{}
}

// NewImportSession opens a session for one source product and seeds the
// product-level and per-variant mappings through the matchers.
func NewImportSession(product SourceProduct, catalog *AttributeCatalog, forest []CategoryNode) (*ImportSession, error) {
	if len(product.Variants) == 0 {
		return nil, ErrSessionInvalidProduct
	}

	s := &ImportSession{
		ID:              uuid.New(),
		CreatedAt:       time.Now(),
		product:         product,
		catalog:         catalog,
		forest:          forest,
		stage:           StageSelectingTarget,
		productMappings: make(MappingSet),
		variantMappings: make(map[string]MappingSet, len(product.Variants)),
		excludedSKUs:    make(map[string]struct{}),
		manualEdits:     make(map[string]struct{}),
	}

	s.seedProductMappings()
	s.seedVariantMappings()
	s.fanOut()
	return s, nil
}

// seedProductMappings runs the matchers over the product-level source fields
func (s *ImportSession) seedProductMappings() {
	defs := s.catalog.Defs()
	p := s.product

	seed := func(field, sourceName, sourceValue string) {
		match := MatchAttribute(sourceName, sourceValue, defs)
		s.productMappings[field] = Mapping{
			SourceValue: sourceValue,
			TargetCode:  match.TargetCode,
			Value:       Scalar(match.TargetValue),
		}
	}

	seed(FieldName, "title", p.Title)
	seed(FieldDescription, "body_html", p.BodyHTML)
	seed(FieldManufacturer, "vendor", p.Vendor)
	// Brand starts out mirrored from the vendor
	seed(FieldBrand, "brand", p.Vendor)
	seed(FieldMetaTitle, "meta_title", p.Title)
	seed(FieldMetaKeyword, "tags", p.Tags)
	seed(FieldMetaDescription, "meta_description", p.BodyHTML)

	s.productMappings[FieldCategoryIDs] = Mapping{
		SourceValue: p.ProductType,
		TargetCode:  FieldCategoryIDs,
		Value:       Multi(MatchCategories(p.ProductType, s.forest)...),
	}
}

// seedVariantMappings runs the matchers over each variant's own fields
func (s *ImportSession) seedVariantMappings() {
	defs := s.catalog.Defs()
	for _, v := range s.product.Variants {
		set := make(MappingSet)
		for _, f := range v.Fields(s.product.OptionNames) {
			match := MatchAttribute(f.Name, f.Value, defs)
			set[f.Name] = Mapping{
				SourceValue: f.Value,
				TargetCode:  match.TargetCode,
				Value:       Scalar(match.TargetValue),
			}
		}
		s.variantMappings[v.SKU] = set
	}
}

// fanOut replicates the special product-level fields into every variant
// MappingSet, overwriting those keys and leaving variant-specific keys alone.
func (s *ImportSession) fanOut() {
	for sku, set := range s.variantMappings {
		for _, field := range specialProductFields {
			if m, ok := s.productMappings[field]; ok {
				set[field] = m
			}
		}
		s.variantMappings[sku] = set
	}
}

// ---------------------------------------------------------------------------
// Target selection
// ---------------------------------------------------------------------------

// AdvanceTarget moves the session into the mapping stage. For an existing
// configurable the caller passes the child SKUs fetched from the platform;
// those variants are excluded from the import. For a new target the exclusion
// set is empty.
//
// When every variant is already present downstream the session becomes
// blocked: it stays non-terminal, can never reach ready, and only Cancel
// exits it.
func (s *ImportSession) AdvanceTarget(sku string, isNew bool, existingChildren []string) error {
	if s.stage.IsTerminal() {
		return ErrSessionTerminal
	}
	if sku == "" {
		return ErrSessionInvalidTargetSKU
	}

	s.targetSKU = sku
	s.targetIsNew = isNew
	s.configurableCreated = false
	s.excludedSKUs = make(map[string]struct{}, len(existingChildren))
	if !isNew {
		for _, child := range existingChildren {
			s.excludedSKUs[child] = struct{}{}
		}
	}
	s.stage = StageMapping

	s.blocked = len(s.VisibleVariants()) == 0
	s.recomputeReady()
	if s.blocked {
		return ErrAllVariantsImported
	}
	return nil
}

// TargetSKU returns the chosen target SKU, empty before AdvanceTarget
func (s *ImportSession) TargetSKU() string {
	return s.targetSKU
}

// TargetIsNew returns true when the target was declared as a new configurable
func (s *ImportSession) TargetIsNew() bool {
	return s.targetIsNew
}

// Blocked returns true when every variant already exists downstream
func (s *ImportSession) Blocked() bool {
	return s.blocked
}

// ---------------------------------------------------------------------------
// Edits
// ---------------------------------------------------------------------------

// SetProductAttribute re-targets a product-level mapping at a different
// attribute and re-resolves the value guess against the new attribute's
// options.
func (s *ImportSession) SetProductAttribute(field, attributeCode string) error {
	if err := s.editable(); err != nil {
		return err
	}
	m, ok := s.productMappings[field]
	if !ok {
		m = Mapping{}
	}

	m.TargetCode = attributeCode
	if def, found := s.catalog.Find(attributeCode); found && def.HasOptions() {
		m.Value = Scalar(MatchOptionValue(m.SourceValue, def.Options))
	} else {
		m.Value = Scalar(m.SourceValue)
	}
	s.productMappings[field] = m

	s.fanOut()
	s.recomputeReady()
	return nil
}

// SetProductValue sets the value of a product-level mapping. The edit is
// recorded as manual, mirrored into the linked field unless that field was
// itself edited by hand, and fanned out into every variant MappingSet.
func (s *ImportSession) SetProductValue(field, value string) error {
	if err := s.editable(); err != nil {
		return err
	}

	s.setProductScalar(field, value)
	s.manualEdits[field] = struct{}{}

	if linked, ok := linkedFields[field]; ok {
		if _, manual := s.manualEdits[linked]; !manual {
			s.setProductScalar(linked, value)
		}
	}

	s.fanOut()
	s.recomputeReady()
	return nil
}

// SetCategoryIDs replaces the product-level category selection
func (s *ImportSession) SetCategoryIDs(ids []string) error {
	if err := s.editable(); err != nil {
		return err
	}
	m := s.productMappings[FieldCategoryIDs]
	m.TargetCode = FieldCategoryIDs
	m.Value = Multi(ids...)
	s.productMappings[FieldCategoryIDs] = m
	s.manualEdits[FieldCategoryIDs] = struct{}{}

	s.fanOut()
	s.recomputeReady()
	return nil
}

// SetVariantAttribute re-targets one variant-level mapping
func (s *ImportSession) SetVariantAttribute(sku, field, attributeCode string) error {
	if err := s.editable(); err != nil {
		return err
	}
	set, ok := s.variantMappings[sku]
	if !ok {
		return ErrUnknownVariant
	}
	m := set[field]
	m.TargetCode = attributeCode
	if def, found := s.catalog.Find(attributeCode); found && def.HasOptions() {
		m.Value = Scalar(MatchOptionValue(m.SourceValue, def.Options))
	} else {
		m.Value = Scalar(m.SourceValue)
	}
	set[field] = m

	s.recomputeReady()
	return nil
}

// SetVariantValue sets the value of one variant-level mapping
func (s *ImportSession) SetVariantValue(sku, field, value string) error {
	if err := s.editable(); err != nil {
		return err
	}
	set, ok := s.variantMappings[sku]
	if !ok {
		return ErrUnknownVariant
	}
	m := set[field]
	m.Value = Scalar(value)
	set[field] = m

	s.recomputeReady()
	return nil
}

// setProductScalar updates one scalar product mapping without side effects
func (s *ImportSession) setProductScalar(field, value string) {
	m := s.productMappings[field]
	m.Value = Scalar(value)
	s.productMappings[field] = m
}

// editable rejects edits outside the mapping and ready stages
func (s *ImportSession) editable() error {
	if s.stage != StageMapping && s.stage != StageReady {
		return ErrSessionNotMapping
	}
	return nil
}

// ---------------------------------------------------------------------------
// Derived state
// ---------------------------------------------------------------------------

// recomputeReady flips between the mapping and ready stages after every
// mutation: ready iff a target SKU is chosen and at least one variant
// survives filtering.
func (s *ImportSession) recomputeReady() {
	if s.stage != StageMapping && s.stage != StageReady {
		return
	}
	if s.targetSKU != "" && len(s.VisibleVariants()) > 0 {
		s.stage = StageReady
	} else {
		s.stage = StageMapping
	}
}

// Stage returns the current lifecycle stage
func (s *ImportSession) Stage() Stage {
	return s.stage
}

// Product returns the source product
func (s *ImportSession) Product() SourceProduct {
	return s.product
}

// Catalog returns the session-owned attribute catalog
func (s *ImportSession) Catalog() *AttributeCatalog {
	return s.catalog
}

// VisibleVariants returns the variants that remain after removing SKUs
// already present downstream, in source order.
func (s *ImportSession) VisibleVariants() []SourceVariant {
	visible := make([]SourceVariant, 0, len(s.product.Variants))
	for _, v := range s.product.Variants {
		if _, excluded := s.excludedSKUs[v.SKU]; excluded {
			continue
		}
		visible = append(visible, v)
	}
	return visible
}

// ProductMappings returns a copy of the product-level MappingSet
func (s *ImportSession) ProductMappings() MappingSet {
	return s.productMappings.Clone()
}

// VariantMappings returns a copy of one variant's MappingSet
func (s *ImportSession) VariantMappings(sku string) (MappingSet, bool) {
	set, ok := s.variantMappings[sku]
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

// ProductValidation classifies every product-level mapping
func (s *ImportSession) ProductValidation() map[string]ValidationState {
	return s.classify(s.productMappings)
}

// VariantValidation classifies every mapping of one variant
func (s *ImportSession) VariantValidation(sku string) (map[string]ValidationState, bool) {
	set, ok := s.variantMappings[sku]
	if !ok {
		return nil, false
	}
	return s.classify(set), true
}

func (s *ImportSession) classify(set MappingSet) map[string]ValidationState {
	states := make(map[string]ValidationState, len(set))
	for field, m := range set {
		var def *AttributeDef
		if d, ok := s.catalog.Find(m.TargetCode); ok {
			def = d
		}
		states[field] = Classify(m, def)
	}
	return states
}

// ---------------------------------------------------------------------------
// Submission bookkeeping
// ---------------------------------------------------------------------------

// BeginSubmit checks the session can be submitted. Submission is gated only
// by readiness, never by validation states.
func (s *ImportSession) BeginSubmit() error {
	if s.stage.IsTerminal() {
		return ErrSessionTerminal
	}
	if s.stage != StageReady {
		return ErrSessionNotReady
	}
	return nil
}

// MarkVariantImported records one successfully imported variant. The SKU
// joins the exclusion set so a retry after a partial failure continues from
// the point of failure instead of resubmitting.
func (s *ImportSession) MarkVariantImported(sku string) {
	s.excludedSKUs[sku] = struct{}{}
}

// MarkConfigurableCreated records that the parent configurable exists on the
// platform. A retry after a partially failed submit skips re-creating it.
func (s *ImportSession) MarkConfigurableCreated() {
	s.configurableCreated = true
}

// ConfigurableCreated returns true once the parent product call succeeded
func (s *ImportSession) ConfigurableCreated() bool {
	return s.configurableCreated
}

// CompleteSubmit moves the session to the terminal submitted stage
func (s *ImportSession) CompleteSubmit() {
	s.stage = StageSubmitted
}

// Cancel discards all in-memory mappings and terminates the session. Allowed
// from any non-terminal stage.
func (s *ImportSession) Cancel() error {
	if s.stage.IsTerminal() {
		return ErrSessionTerminal
	}
	s.stage = StageCancelled
	s.productMappings = make(MappingSet)
	s.variantMappings = make(map[string]MappingSet)
	s.manualEdits = make(map[string]struct{})
	return nil
}
