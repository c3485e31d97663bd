package migration

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopbridge/backend/internal/domain/migration"
	"github.com/shopbridge/backend/internal/domain/shared"
)

// CatalogSource supplies the attribute set and category tree. The Magento
// gateway satisfies it directly; the cache layer wraps it with a TTL.
type CatalogSource interface {
	FetchAttributeCatalog(ctx context.Context) ([]migration.AttributeDef, error)
	FetchCategoryForest(ctx context.Context) ([]migration.CategoryNode, error)
}

// CatalogInvalidator is implemented by catalog sources that cache upstream
// reads. Invalidation after an option creation keeps new option values
// visible to sessions opened before the TTL expires.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ImportService orchestrates import sessions: opening them from a source
// product, applying operator edits, and driving submission and store
// publication through the gateways.
type ImportService struct {
	magento  migration.MagentoGateway
	shopify  migration.ShopifyGateway
	catalogs CatalogSource
	history  *ImportHistoryService
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*migration.ImportSession
}

// NewImportService creates a new ImportService. history may be nil when no
// recording is wanted (tests).
func NewImportService(
	magento migration.MagentoGateway,
	shopify migration.ShopifyGateway,
	catalogs CatalogSource,
	history *ImportHistoryService,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		magento:  magento,
		shopify:  shopify,
		catalogs: catalogs,
		history:  history,
		logger:   logger,
		sessions: make(map[uuid.UUID]*migration.ImportSession),
	}
}

// ---------------------------------------------------------------------------
// Session lifecycle
// ---------------------------------------------------------------------------

// StartSession fetches a product from the source platform and opens an import
// session seeded by the matchers.
func (s *ImportService) StartSession(ctx context.Context, productID int64) (*SessionView, error) {
	product, err := s.shopify.FetchProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.StartSessionFromProduct(ctx, *product)
}

// StartSessionFromProduct opens a session for an already-fetched product
func (s *ImportService) StartSessionFromProduct(ctx context.Context, product migration.SourceProduct) (*SessionView, error) {
	defs, err := s.catalogs.FetchAttributeCatalog(ctx)
	if err != nil {
		return nil, err
	}
	flat, err := s.catalogs.FetchCategoryForest(ctx)
	if err != nil {
		return nil, err
	}

	session, err := migration.NewImportSession(product, migration.NewAttributeCatalog(defs), migration.BuildCategoryForest(flat))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("import session opened",
		zap.String("session_id", session.ID.String()),
		zap.Int64("product_id", product.ID),
		zap.Int("variants", len(product.Variants)),
	)
	return newSessionView(session), nil
}

// ListSourceProducts returns a page of source products for selection
func (s *ImportService) ListSourceProducts(ctx context.Context, page, pageSize int) ([]migration.SourceProduct, error) {
	return s.shopify.ListProducts(ctx, page, pageSize)
}

// GetSession returns the current view of a session
func (s *ImportService) GetSession(id uuid.UUID) (*SessionView, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return newSessionView(session), nil
}

// Cancel terminates a session and discards its state
func (s *ImportService) Cancel(id uuid.UUID) error {
	session, err := s.find(id)
	if err != nil {
		return err
	}
	if err := session.Cancel(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()

	s.logger.Info("import session cancelled", zap.String("session_id", id.String()))
	return nil
}

func (s *ImportService) find(id uuid.UUID) (*migration.ImportSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, shared.ErrNotFound
	}
	return session, nil
}

// ---------------------------------------------------------------------------
// Target selection
// ---------------------------------------------------------------------------

// SearchCandidates searches existing configurable products on the target
func (s *ImportService) SearchCandidates(ctx context.Context, hint string) ([]migration.ConfigurableCandidate, error) {
	if strings.TrimSpace(hint) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Search term must not be empty")
	}
	return s.magento.SearchConfigurableCandidates(ctx, hint)
}

// AdvanceTarget chooses the target configurable SKU. For an existing target
// the child SKUs are fetched so already-migrated variants drop out of the
// session.
func (s *ImportService) AdvanceTarget(ctx context.Context, id uuid.UUID, sku string, isNew bool) (*SessionView, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Target SKU must not be empty")
	}

	var children []string
	if !isNew {
		children, err = s.magento.FetchExistingChildSKUs(ctx, sku)
		if err != nil {
			return nil, err
		}
	}

	if err := session.AdvanceTarget(sku, isNew, children); err != nil {
		// Blocked sessions still return their view so the caller can show
		// the "already imported" condition alongside the error.
		if err == migration.ErrAllVariantsImported {
			return newSessionView(session), err
		}
		return nil, err
	}
	return newSessionView(session), nil
}

// ---------------------------------------------------------------------------
// Edits
// ---------------------------------------------------------------------------

// ApplyProductEdit applies one product-level edit and returns the recomputed
// session view.
func (s *ImportService) ApplyProductEdit(ctx context.Context, id uuid.UUID, edit ProductEdit) (*SessionView, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}

	switch {
	case edit.AttributeCode != "":
		err = session.SetProductAttribute(edit.Field, edit.AttributeCode)
	case edit.CategoryIDs != nil:
		err = session.SetCategoryIDs(edit.CategoryIDs)
	case edit.Value != nil:
		err = session.SetProductValue(edit.Field, *edit.Value)
	default:
		err = shared.NewDomainError("INVALID_INPUT", "Edit carries neither attribute, value nor categories")
	}
	if err != nil {
		return nil, err
	}
	return newSessionView(session), nil
}

// ApplyVariantEdit applies one variant-level edit
func (s *ImportService) ApplyVariantEdit(ctx context.Context, id uuid.UUID, edit VariantEdit) (*SessionView, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}

	switch {
	case edit.AttributeCode != "":
		err = session.SetVariantAttribute(edit.SKU, edit.Field, edit.AttributeCode)
	case edit.Value != nil:
		err = session.SetVariantValue(edit.SKU, edit.Field, *edit.Value)
	default:
		err = shared.NewDomainError("INVALID_INPUT", "Edit carries neither attribute nor value")
	}
	if err != nil {
		return nil, err
	}
	return newSessionView(session), nil
}

// CreateAttributeOption creates a new option on the platform and appends it
// to the session's catalog copy.
func (s *ImportService) CreateAttributeOption(ctx context.Context, id uuid.UUID, attributeCode, label string) (migration.AttributeOption, error) {
	session, err := s.find(id)
	if err != nil {
		return migration.AttributeOption{}, err
	}
	if strings.TrimSpace(label) == "" {
		return migration.AttributeOption{}, shared.NewDomainError("INVALID_INPUT", "Option label must not be empty")
	}

	opt, err := s.magento.CreateOptionValue(ctx, attributeCode, label)
	if err != nil {
		return migration.AttributeOption{}, err
	}
	if err := session.Catalog().AppendOption(attributeCode, opt); err != nil {
		return migration.AttributeOption{}, err
	}

	// The cached catalog no longer matches the platform; drop it so new
	// sessions see the option without waiting out the TTL.
	if invalidator, ok := s.catalogs.(CatalogInvalidator); ok {
		if err := invalidator.Invalidate(ctx); err != nil {
			s.logger.Warn("catalog cache invalidation failed",
				zap.String("attribute_code", attributeCode),
				zap.Error(err),
			)
		}
	}
	return opt, nil
}

// ---------------------------------------------------------------------------
// Submission
// ---------------------------------------------------------------------------

// Submit drives the submission sequence: the configurable parent first (only
// for a new target; a failure there aborts everything), then one variant at a
// time in list order. A failed variant halts the sequence and is named in the
// outcome; variants already imported are not rolled back.
func (s *ImportService) Submit(ctx context.Context, id uuid.UUID) (*SubmitOutcome, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := session.BeginSubmit(); err != nil {
		return nil, err
	}

	outcome := &SubmitOutcome{ImportedSKUs: make([]string, 0)}

	if session.TargetIsNew() && !session.ConfigurableCreated() {
		payload := buildConfigurablePayload(session)
		if err := s.magento.SubmitConfigurableProduct(ctx, payload); err != nil {
			s.logger.Error("configurable creation failed",
				zap.String("session_id", id.String()),
				zap.String("target_sku", session.TargetSKU()),
				zap.Error(err),
			)
			outcome.FailedSKU = session.TargetSKU()
			outcome.FailedMessage = err.Error()
			s.record(ctx, session, recordKindSubmit, outcome)
			return outcome, nil
		}
		session.MarkConfigurableCreated()
		outcome.ConfigurableCreated = true
	}

	// Strictly sequential: the platform's variant linkage needs the parent
	// in place, and one-at-a-time keeps failures attributable.
	for _, variant := range session.VisibleVariants() {
		payload := buildVariantPayload(session, variant)
		if err := s.magento.SubmitVariant(ctx, payload); err != nil {
			s.logger.Error("variant import failed",
				zap.String("session_id", id.String()),
				zap.String("variant_sku", variant.SKU),
				zap.Error(err),
			)
			outcome.FailedSKU = variant.SKU
			outcome.FailedMessage = err.Error()
			s.record(ctx, session, recordKindSubmit, outcome)
			return outcome, nil
		}
		session.MarkVariantImported(variant.SKU)
		outcome.ImportedSKUs = append(outcome.ImportedSKUs, variant.SKU)
	}

	outcome.Completed = true
	session.CompleteSubmit()
	s.record(ctx, session, recordKindSubmit, outcome)

	s.logger.Info("import session submitted",
		zap.String("session_id", id.String()),
		zap.String("target_sku", session.TargetSKU()),
		zap.Int("variants", len(outcome.ImportedSKUs)),
	)
	return outcome, nil
}

// ListStores returns the additional stores available for publication
func (s *ImportService) ListStores(ctx context.Context) ([]migration.Store, error) {
	return s.magento.ListStores(ctx)
}

// PublishToStores publishes the product to the selected additional stores
// concurrently. The stores are mutually independent: each outcome is
// collected on its own and a failure never affects the siblings.
func (s *ImportService) PublishToStores(ctx context.Context, id uuid.UUID, storeIDs []string) (*PublishOutcome, error) {
	session, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if session.Stage() != migration.StageSubmitted {
		return nil, migration.ErrSessionNotSubmitted
	}
	if len(storeIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one store must be selected")
	}

	payload := migration.StorePayload{
		SKU:         session.TargetSKU(),
		Name:        session.Product().Title,
		CategoryIDs: session.ProductMappings()[migration.FieldCategoryIDs].Value.Values(),
	}

	outcomes := make([]StoreOutcome, len(storeIDs))
	var wg sync.WaitGroup
	for i, storeID := range storeIDs {
		wg.Add(1)
		go func(i int, storeID string) {
			defer wg.Done()
			productID, err := s.magento.SubmitToStore(ctx, storeID, payload)
			if err != nil {
				outcomes[i] = StoreOutcome{StoreID: storeID, Success: false, Message: err.Error()}
				return
			}
			outcomes[i] = StoreOutcome{StoreID: storeID, Success: true, ProductID: productID}
		}(i, storeID)
	}
	wg.Wait()

	result := &PublishOutcome{Total: len(storeIDs), Stores: outcomes}
	for _, o := range outcomes {
		if o.Success {
			result.Successful++
		} else {
			result.Failed++
		}
	}

	s.recordPublish(ctx, session, result)
	s.logger.Info("store publication finished",
		zap.String("session_id", id.String()),
		zap.Int("total", result.Total),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// ---------------------------------------------------------------------------
// Payload building
// ---------------------------------------------------------------------------

// buildConfigurablePayload projects the product-level mappings into the
// parent-product request.
func buildConfigurablePayload(session *migration.ImportSession) migration.ConfigurablePayload {
	product := session.Product()
	payload := migration.ConfigurablePayload{
		SKU:        session.TargetSKU(),
		Name:       product.Title,
		UrlKey:     urlKey(product.Title),
		Attributes: make(map[string]string),
	}

	for _, m := range session.ProductMappings() {
		if m.TargetCode == "" || m.Value.IsEmpty() {
			continue
		}
		if m.TargetCode == migration.FieldCategoryIDs {
			payload.CategoryIDs = m.Value.Values()
			continue
		}
		if m.Value.Kind() == migration.ValueKindScalar {
			payload.Attributes[m.TargetCode] = m.Value.String()
		}
	}

	// The variants vary by the product's option dimensions; the matched
	// attribute codes of those fields become the configurable axes.
	seen := make(map[string]struct{})
	for _, v := range session.VisibleVariants() {
		set, ok := session.VariantMappings(v.SKU)
		if !ok {
			continue
		}
		for _, name := range product.OptionNames {
			if m, found := set[strings.ToLower(name)]; found && m.TargetCode != "" {
				if _, dup := seen[m.TargetCode]; !dup {
					seen[m.TargetCode] = struct{}{}
					payload.ConfigurableCodes = append(payload.ConfigurableCodes, m.TargetCode)
				}
			}
		}
	}
	return payload
}

// buildVariantPayload projects one variant's mappings into its import request
func buildVariantPayload(session *migration.ImportSession, variant migration.SourceVariant) migration.VariantPayload {
	product := session.Product()
	payload := migration.VariantPayload{
		ParentSKU:       session.TargetSKU(),
		SKU:             variant.SKU,
		Name:            product.Title + " - " + variant.Title,
		Price:           variant.Price,
		WeightGrams:     variant.WeightGrams,
		Attributes:      make(map[string]string),
		MultiAttributes: make(map[string][]string),
	}

	set, ok := session.VariantMappings(variant.SKU)
	if !ok {
		return payload
	}
	for _, m := range set {
		if m.TargetCode == "" || m.Value.IsEmpty() {
			continue
		}
		if m.Value.Kind() == migration.ValueKindMulti {
			payload.MultiAttributes[m.TargetCode] = m.Value.Values()
			continue
		}
		payload.Attributes[m.TargetCode] = m.Value.String()
	}
	return payload
}

// urlKey derives a URL key from a product name
func urlKey(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ---------------------------------------------------------------------------
// History recording
// ---------------------------------------------------------------------------

func (s *ImportService) record(ctx context.Context, session *migration.ImportSession, kind RecordKind, outcome *SubmitOutcome) {
	if s.history == nil {
		return
	}
	status := RecordStatusFailed
	if outcome.Completed {
		status = RecordStatusCompleted
	} else if len(outcome.ImportedSKUs) > 0 {
		status = RecordStatusPartial
	}
	rec := ImportRecord{
		SessionID:    session.ID,
		TargetSKU:    session.TargetSKU(),
		Kind:         kind,
		Status:       status,
		Message:      outcome.FailedMessage,
		TotalCount:   len(session.VisibleVariants()) + len(outcome.ImportedSKUs),
		SuccessCount: len(outcome.ImportedSKUs),
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.logger.Warn("failed to record import history", zap.Error(err))
	}
}

func (s *ImportService) recordPublish(ctx context.Context, session *migration.ImportSession, outcome *PublishOutcome) {
	if s.history == nil {
		return
	}
	status := RecordStatusCompleted
	if outcome.Failed > 0 && outcome.Successful > 0 {
		status = RecordStatusPartial
	} else if outcome.Failed > 0 {
		status = RecordStatusFailed
	}
	rec := ImportRecord{
		SessionID:    session.ID,
		TargetSKU:    session.TargetSKU(),
		Kind:         recordKindPublish,
		Status:       status,
		TotalCount:   outcome.Total,
		SuccessCount: outcome.Successful,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.logger.Warn("failed to record publish history", zap.Error(err))
	}
}
