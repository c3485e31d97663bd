package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopbridge/backend/internal/domain/migration"
	"github.com/shopbridge/backend/internal/domain/shared"
)

// MockMagentoGateway is a mock implementation of migration.MagentoGateway.
// It also satisfies CatalogSource.
type MockMagentoGateway struct {
	mock.Mock
}

func (m *MockMagentoGateway) FetchAttributeCatalog(ctx context.Context) ([]migration.AttributeDef, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]migration.AttributeDef), args.Error(1)
}

func (m *MockMagentoGateway) FetchCategoryForest(ctx context.Context) ([]migration.CategoryNode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]migration.CategoryNode), args.Error(1)
}

func (m *MockMagentoGateway) FetchExistingChildSKUs(ctx context.Context, configurableSKU string) ([]string, error) {
	args := m.Called(ctx, configurableSKU)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMagentoGateway) SearchConfigurableCandidates(ctx context.Context, hint string) ([]migration.ConfigurableCandidate, error) {
	args := m.Called(ctx, hint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]migration.ConfigurableCandidate), args.Error(1)
}

func (m *MockMagentoGateway) CreateOptionValue(ctx context.Context, attributeCode, label string) (migration.AttributeOption, error) {
	args := m.Called(ctx, attributeCode, label)
	return args.Get(0).(migration.AttributeOption), args.Error(1)
}

func (m *MockMagentoGateway) SubmitConfigurableProduct(ctx context.Context, payload migration.ConfigurablePayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockMagentoGateway) SubmitVariant(ctx context.Context, payload migration.VariantPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockMagentoGateway) SubmitToStore(ctx context.Context, storeID string, payload migration.StorePayload) (string, error) {
	args := m.Called(ctx, storeID, payload)
	return args.String(0), args.Error(1)
}

func (m *MockMagentoGateway) ListStores(ctx context.Context) ([]migration.Store, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]migration.Store), args.Error(1)
}

var _ migration.MagentoGateway = (*MockMagentoGateway)(nil)
var _ CatalogSource = (*MockMagentoGateway)(nil)

// MockShopifyGateway is a mock implementation of migration.ShopifyGateway
type MockShopifyGateway struct {
	mock.Mock
}

func (m *MockShopifyGateway) FetchProduct(ctx context.Context, productID int64) (*migration.SourceProduct, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*migration.SourceProduct), args.Error(1)
}

func (m *MockShopifyGateway) ListProducts(ctx context.Context, page, pageSize int) ([]migration.SourceProduct, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]migration.SourceProduct), args.Error(1)
}

var _ migration.ShopifyGateway = (*MockShopifyGateway)(nil)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func fixtureCatalog() []migration.AttributeDef {
	return []migration.AttributeDef{
		{Code: "name", Label: "Product Name", InputKind: migration.InputKindText, Required: true},
		{Code: "description", Label: "Description", InputKind: migration.InputKindTextarea},
		{Code: "manufacturer", Label: "Manufacturer", InputKind: migration.InputKindSelect, Options: []migration.AttributeOption{
			{Label: "Acme", Value: "101"},
		}},
		{Code: "brand", Label: "Brand", InputKind: migration.InputKindSelect, Options: []migration.AttributeOption{
			{Label: "Acme", Value: "201"},
		}},
		{Code: "color", Label: "Color", InputKind: migration.InputKindSelect, Options: []migration.AttributeOption{
			{Label: "Black", Value: "301"},
			{Label: "Silver", Value: "302"},
			{Label: "Red", Value: "303"},
		}},
	}
}

func fixtureForest() []migration.CategoryNode {
	return []migration.CategoryNode{
		{ID: "10", Label: "Vaping", Level: 1},
		{ID: "11", Label: "Kits", Level: 2, ParentID: "10"},
	}
}

func fixtureProduct() migration.SourceProduct {
	return migration.SourceProduct{
		ID:          8800,
		Title:       "Nova Starter Kit",
		Vendor:      "Acme",
		ProductType: "Vape Kits",
		OptionNames: []string{"Color"},
		Variants: []migration.SourceVariant{
			{ID: 1, SKU: "NOVA-1", Title: "Black", Price: decimal.NewFromInt(25), OptionValues: []string{"Black"}},
			{ID: 2, SKU: "NOVA-2", Title: "Silver", Price: decimal.NewFromInt(25), OptionValues: []string{"Silver"}},
			{ID: 3, SKU: "NOVA-3", Title: "Red", Price: decimal.NewFromInt(25), OptionValues: []string{"Red"}},
		},
	}
}

func newTestService(t *testing.T) (*ImportService, *MockMagentoGateway) {
	t.Helper()
	gateway := new(MockMagentoGateway)
	gateway.On("FetchAttributeCatalog", mock.Anything).Return(fixtureCatalog(), nil)
	gateway.On("FetchCategoryForest", mock.Anything).Return(fixtureForest(), nil)
	return NewImportService(gateway, new(MockShopifyGateway), gateway, nil, nil), gateway
}

func startReadySession(t *testing.T, service *ImportService, gateway *MockMagentoGateway, isNew bool) uuid.UUID {
	t.Helper()
	view, err := service.StartSessionFromProduct(context.Background(), fixtureProduct())
	require.NoError(t, err)

	if !isNew {
		gateway.On("FetchExistingChildSKUs", mock.Anything, "NOVA").Return([]string{}, nil)
	}
	_, err = service.AdvanceTarget(context.Background(), view.ID, "NOVA", isNew)
	require.NoError(t, err)
	return view.ID
}

func startSubmittedSession(t *testing.T, service *ImportService, gateway *MockMagentoGateway) uuid.UUID {
	t.Helper()
	id := startReadySession(t, service, gateway, true)

	gateway.On("SubmitConfigurableProduct", mock.Anything, mock.Anything).Return(nil).Once()
	gateway.On("SubmitVariant", mock.Anything, mock.Anything).Return(nil).Times(3)

	outcome, err := service.Submit(context.Background(), id)
	require.NoError(t, err)
	require.True(t, outcome.Completed)
	return id
}

// ---------------------------------------------------------------------------
// Session tests
// ---------------------------------------------------------------------------

func TestStartSessionFromProduct(t *testing.T) {
	service, _ := newTestService(t)

	view, err := service.StartSessionFromProduct(context.Background(), fixtureProduct())
	require.NoError(t, err)

	assert.Equal(t, "selecting_target", view.Stage)
	assert.Len(t, view.Variants, 3)
	assert.Equal(t, "manufacturer", view.ProductMappings["manufacturer"].TargetCode)
	assert.Contains(t, view.ProductMappings["category_ids"].TargetMulti, "11")
}

func TestStartSession_FetchesFromShopify(t *testing.T) {
	gateway := new(MockMagentoGateway)
	gateway.On("FetchAttributeCatalog", mock.Anything).Return(fixtureCatalog(), nil)
	gateway.On("FetchCategoryForest", mock.Anything).Return(fixtureForest(), nil)
	shopify := new(MockShopifyGateway)
	product := fixtureProduct()
	shopify.On("FetchProduct", mock.Anything, int64(8800)).Return(&product, nil)

	service := NewImportService(gateway, shopify, gateway, nil, nil)

	view, err := service.StartSession(context.Background(), 8800)
	require.NoError(t, err)
	assert.Equal(t, int64(8800), view.ProductID)
	shopify.AssertExpectations(t)
}

func TestGetSession_NotFound(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.GetSession(uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAdvanceTarget_ExistingChildrenAreExcluded(t *testing.T) {
	service, gateway := newTestService(t)
	view, err := service.StartSessionFromProduct(context.Background(), fixtureProduct())
	require.NoError(t, err)

	gateway.On("FetchExistingChildSKUs", mock.Anything, "NOVA").Return([]string{"NOVA-1"}, nil)

	view, err = service.AdvanceTarget(context.Background(), view.ID, "NOVA", false)
	require.NoError(t, err)

	require.Len(t, view.Variants, 2)
	assert.Equal(t, "NOVA-2", view.Variants[0].SKU)
	assert.Equal(t, "NOVA-3", view.Variants[1].SKU)
	assert.Equal(t, "ready", view.Stage)
}

func TestAdvanceTarget_AllImportedReturnsBlockedView(t *testing.T) {
	service, gateway := newTestService(t)
	view, err := service.StartSessionFromProduct(context.Background(), fixtureProduct())
	require.NoError(t, err)

	gateway.On("FetchExistingChildSKUs", mock.Anything, "NOVA").
		Return([]string{"NOVA-1", "NOVA-2", "NOVA-3"}, nil)

	blockedView, err := service.AdvanceTarget(context.Background(), view.ID, "NOVA", false)
	assert.ErrorIs(t, err, migration.ErrAllVariantsImported)
	require.NotNil(t, blockedView)
	assert.True(t, blockedView.Blocked)
	assert.Empty(t, blockedView.Variants)
}

func TestSearchCandidates_EmptyHint(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.SearchCandidates(context.Background(), "   ")
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestCreateAttributeOption_AppendsToSessionCatalog(t *testing.T) {
	service, gateway := newTestService(t)
	id := startReadySession(t, service, gateway, true)

	gateway.On("CreateOptionValue", mock.Anything, "color", "Gunmetal").
		Return(migration.AttributeOption{Label: "Gunmetal", Value: "304"}, nil)

	opt, err := service.CreateAttributeOption(context.Background(), id, "color", "Gunmetal")
	require.NoError(t, err)
	assert.Equal(t, "304", opt.Value)

	// The new option is immediately resolvable in a variant edit; it only
	// warns because the source value is far from the new label.
	value := "304"
	view, err := service.ApplyVariantEdit(context.Background(), id, VariantEdit{SKU: "NOVA-1", Field: "color", Value: &value})
	require.NoError(t, err)
	assert.Equal(t, "warning", view.Variants[0].Mappings["color"].Validation)
}

func TestCreateAttributeOption_InvalidatesCatalogCache(t *testing.T) {
	gateway := new(MockMagentoGateway)
	gateway.On("FetchAttributeCatalog", mock.Anything).Return(fixtureCatalog(), nil)
	gateway.On("FetchCategoryForest", mock.Anything).Return(fixtureForest(), nil)
	cache := &invalidatingCatalogSource{MockMagentoGateway: gateway}

	service := NewImportService(gateway, new(MockShopifyGateway), cache, nil, nil)
	view, err := service.StartSessionFromProduct(context.Background(), fixtureProduct())
	require.NoError(t, err)
	_, err = service.AdvanceTarget(context.Background(), view.ID, "NOVA", true)
	require.NoError(t, err)

	gateway.On("CreateOptionValue", mock.Anything, "color", "Gunmetal").
		Return(migration.AttributeOption{Label: "Gunmetal", Value: "304"}, nil)

	_, err = service.CreateAttributeOption(context.Background(), view.ID, "color", "Gunmetal")
	require.NoError(t, err)

	// The shared cache is stale the moment the platform gains an option
	assert.Equal(t, 1, cache.invalidations)
}

// invalidatingCatalogSource is a CatalogSource that records invalidations
type invalidatingCatalogSource struct {
	*MockMagentoGateway
	invalidations int
}

func (s *invalidatingCatalogSource) Invalidate(_ context.Context) error {
	s.invalidations++
	return nil
}

// ---------------------------------------------------------------------------
// Submission tests
// ---------------------------------------------------------------------------

func TestSubmit_SequentialHaltsOnFailure(t *testing.T) {
	service, gateway := newTestService(t)
	id := startReadySession(t, service, gateway, false)

	gateway.On("SubmitVariant", mock.Anything, mock.MatchedBy(func(p migration.VariantPayload) bool {
		return p.SKU == "NOVA-1"
	})).Return(nil).Once()
	gateway.On("SubmitVariant", mock.Anything, mock.MatchedBy(func(p migration.VariantPayload) bool {
		return p.SKU == "NOVA-2"
	})).Return(errors.New("magento: duplicate SKU")).Once()

	outcome, err := service.Submit(context.Background(), id)
	require.NoError(t, err)

	assert.False(t, outcome.Completed)
	assert.Equal(t, []string{"NOVA-1"}, outcome.ImportedSKUs)
	assert.Equal(t, "NOVA-2", outcome.FailedSKU)
	assert.Contains(t, outcome.FailedMessage, "duplicate SKU")

	// NOVA-3 was never attempted
	gateway.AssertNumberOfCalls(t, "SubmitVariant", 2)

	// A retry resumes at the failed variant; NOVA-1 stays excluded
	view, err := service.GetSession(id)
	require.NoError(t, err)
	require.Len(t, view.Variants, 2)
	assert.Equal(t, "NOVA-2", view.Variants[0].SKU)
}

func TestSubmit_ConfigurableFailureAbortsVariants(t *testing.T) {
	service, gateway := newTestService(t)
	id := startReadySession(t, service, gateway, true)

	gateway.On("SubmitConfigurableProduct", mock.Anything, mock.Anything).
		Return(errors.New("magento: attribute set not found")).Once()

	outcome, err := service.Submit(context.Background(), id)
	require.NoError(t, err)

	assert.False(t, outcome.ConfigurableCreated)
	assert.Empty(t, outcome.ImportedSKUs)
	assert.Equal(t, "NOVA", outcome.FailedSKU)
	gateway.AssertNotCalled(t, "SubmitVariant", mock.Anything, mock.Anything)
}

func TestSubmit_NewTargetCreatesConfigurableFirst(t *testing.T) {
	service, gateway := newTestService(t)
	id := startReadySession(t, service, gateway, true)

	gateway.On("SubmitConfigurableProduct", mock.Anything, mock.MatchedBy(func(p migration.ConfigurablePayload) bool {
		return p.SKU == "NOVA" && p.UrlKey == "nova-starter-kit" && len(p.ConfigurableCodes) == 1 && p.ConfigurableCodes[0] == "color"
	})).Return(nil).Once()
	gateway.On("SubmitVariant", mock.Anything, mock.Anything).Return(nil).Times(3)

	outcome, err := service.Submit(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, outcome.ConfigurableCreated)
	assert.True(t, outcome.Completed)
	assert.Equal(t, []string{"NOVA-1", "NOVA-2", "NOVA-3"}, outcome.ImportedSKUs)

	view, err := service.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, "submitted", view.Stage)
}

func TestSubmit_RetryAfterPartialFailureSkipsConfigurable(t *testing.T) {
	service, gateway := newTestService(t)
	id := startReadySession(t, service, gateway, true)

	gateway.On("SubmitConfigurableProduct", mock.Anything, mock.Anything).Return(nil).Once()
	gateway.On("SubmitVariant", mock.Anything, mock.MatchedBy(func(p migration.VariantPayload) bool {
		return p.SKU == "NOVA-1"
	})).Return(nil).Once()
	gateway.On("SubmitVariant", mock.Anything, mock.MatchedBy(func(p migration.VariantPayload) bool {
		return p.SKU == "NOVA-2"
	})).Return(errors.New("magento: service temporarily unavailable")).Once()

	outcome, err := service.Submit(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, outcome.ConfigurableCreated)
	assert.Equal(t, "NOVA-2", outcome.FailedSKU)

	// The parent exists now; a retry resumes at the failed variant without
	// re-issuing the configurable creation.
	gateway.On("SubmitVariant", mock.Anything, mock.MatchedBy(func(p migration.VariantPayload) bool {
		return p.SKU == "NOVA-2" || p.SKU == "NOVA-3"
	})).Return(nil).Times(2)

	retry, err := service.Submit(context.Background(), id)
	require.NoError(t, err)

	assert.True(t, retry.Completed)
	assert.False(t, retry.ConfigurableCreated)
	assert.Equal(t, []string{"NOVA-2", "NOVA-3"}, retry.ImportedSKUs)
	gateway.AssertNumberOfCalls(t, "SubmitConfigurableProduct", 1)
}

func TestSubmit_NotReady(t *testing.T) {
	service, _ := newTestService(t)
	view, err := service.StartSessionFromProduct(context.Background(), fixtureProduct())
	require.NoError(t, err)

	_, err = service.Submit(context.Background(), view.ID)
	assert.ErrorIs(t, err, migration.ErrSessionNotReady)
}

// ---------------------------------------------------------------------------
// Store fan-out tests
// ---------------------------------------------------------------------------

func TestPublishToStores_ConcurrentIsolatedOutcomes(t *testing.T) {
	service, gateway := newTestService(t)
	id := startSubmittedSession(t, service, gateway)

	gateway.On("SubmitToStore", mock.Anything, "store-1", mock.Anything).Return("p-1", nil)
	gateway.On("SubmitToStore", mock.Anything, "store-2", mock.Anything).Return("", errors.New("store offline"))
	gateway.On("SubmitToStore", mock.Anything, "store-3", mock.Anything).Return("p-3", nil)

	outcome, err := service.PublishToStores(context.Background(), id, []string{"store-1", "store-2", "store-3"})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Total)
	assert.Equal(t, 2, outcome.Successful)
	assert.Equal(t, 1, outcome.Failed)

	require.Len(t, outcome.Stores, 3)
	assert.True(t, outcome.Stores[0].Success)
	assert.Equal(t, "p-1", outcome.Stores[0].ProductID)
	assert.False(t, outcome.Stores[1].Success)
	assert.Contains(t, outcome.Stores[1].Message, "store offline")
	assert.True(t, outcome.Stores[2].Success)
}

func TestPublishToStores_NoStores(t *testing.T) {
	service, gateway := newTestService(t)
	id := startSubmittedSession(t, service, gateway)

	_, err := service.PublishToStores(context.Background(), id, nil)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_INPUT", domainErr.Code)
}

func TestPublishToStores_RequiresSubmittedSession(t *testing.T) {
	service, gateway := newTestService(t)
	id := startReadySession(t, service, gateway, true)

	_, err := service.PublishToStores(context.Background(), id, []string{"store-1"})
	assert.ErrorIs(t, err, migration.ErrSessionNotSubmitted)
	gateway.AssertNotCalled(t, "SubmitToStore", mock.Anything, mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// Cancel tests
// ---------------------------------------------------------------------------

func TestCancel_RemovesSession(t *testing.T) {
	service, _ := newTestService(t)
	view, err := service.StartSessionFromProduct(context.Background(), fixtureProduct())
	require.NoError(t, err)

	require.NoError(t, service.Cancel(view.ID))

	_, err = service.GetSession(view.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
