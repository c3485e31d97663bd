package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appmigration "github.com/shopbridge/backend/internal/application/migration"
	"github.com/shopbridge/backend/internal/domain/migration"
	"github.com/shopbridge/backend/internal/interfaces/http/dto"
	"github.com/shopbridge/backend/internal/interfaces/http/router"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockMagentoGateway implements migration.MagentoGateway for testing. It also
// satisfies appmigration.CatalogSource.
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
var _ appmigration.CatalogSource = (*MockMagentoGateway)(nil)

// MockShopifyGateway implements migration.ShopifyGateway for testing
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

func testCatalog() []migration.AttributeDef {
	return []migration.AttributeDef{
		{Code: "name", Label: "Product Name", InputKind: migration.InputKindText, Required: true},
		{Code: "manufacturer", Label: "Manufacturer", InputKind: migration.InputKindSelect, Options: []migration.AttributeOption{
			{Label: "Acme", Value: "101"},
		}},
		{Code: "brand", Label: "Brand", InputKind: migration.InputKindSelect, Options: []migration.AttributeOption{
			{Label: "Acme", Value: "201"},
		}},
		{Code: "color", Label: "Color", InputKind: migration.InputKindSelect, Options: []migration.AttributeOption{
			{Label: "Black", Value: "301"},
			{Label: "Silver", Value: "302"},
		}},
	}
}

func testForest() []migration.CategoryNode {
	return []migration.CategoryNode{
		{ID: "10", Label: "Vaping", Level: 1},
		{ID: "11", Label: "Kits", Level: 2, ParentID: "10"},
	}
}

func testProduct() migration.SourceProduct {
	return migration.SourceProduct{
		ID:          8800,
		Title:       "Nova Starter Kit",
		Vendor:      "Acme",
		ProductType: "Vape Kits",
		OptionNames: []string{"Color"},
		Variants: []migration.SourceVariant{
			{ID: 1, SKU: "NOVA-1", Title: "Black", Price: decimal.NewFromInt(25), OptionValues: []string{"Black"}},
			{ID: 2, SKU: "NOVA-2", Title: "Silver", Price: decimal.NewFromInt(25), OptionValues: []string{"Silver"}},
		},
	}
}

// setupSessionTest builds a test engine with session routes backed by a real
// import service over mocked gateways.
func setupSessionTest(t *testing.T) (*gin.Engine, *appmigration.ImportService, *MockMagentoGateway, *MockShopifyGateway) {
	t.Helper()

	gateway := new(MockMagentoGateway)
	gateway.On("FetchAttributeCatalog", mock.Anything).Return(testCatalog(), nil)
	gateway.On("FetchCategoryForest", mock.Anything).Return(testForest(), nil)
	shopify := new(MockShopifyGateway)

	service := appmigration.NewImportService(gateway, shopify, gateway, nil, nil)

	engine := gin.New()
	r := router.NewRouter(engine)
	r.Register(NewSessionHandler(service))
	r.Setup()

	return engine, service, gateway, shopify
}

func performJSON(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSessionHandler_Start(t *testing.T) {
	engine, _, _, shopify := setupSessionTest(t)
	product := testProduct()
	shopify.On("FetchProduct", mock.Anything, int64(8800)).Return(&product, nil)

	w := performJSON(engine, http.MethodPost, "/api/v1/sessions", gin.H{"product_id": 8800})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "selecting_target", data["stage"])
	assert.Len(t, data["variants"], 2)
	shopify.AssertExpectations(t)
}

func TestSessionHandler_Start_InvalidBody(t *testing.T) {
	engine, _, _, _ := setupSessionTest(t)

	w := performJSON(engine, http.MethodPost, "/api/v1/sessions", gin.H{"product_id": 0})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestSessionHandler_Get(t *testing.T) {
	engine, service, _, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)

	w := performJSON(engine, http.MethodGet, "/api/v1/sessions/"+view.ID.String(), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestSessionHandler_Get_NotFound(t *testing.T) {
	engine, _, _, _ := setupSessionTest(t)

	w := performJSON(engine, http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
}

func TestSessionHandler_Get_InvalidID(t *testing.T) {
	engine, _, _, _ := setupSessionTest(t)

	w := performJSON(engine, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_AdvanceTarget(t *testing.T) {
	engine, service, gateway, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)
	gateway.On("FetchExistingChildSKUs", mock.Anything, "NOVA").Return([]string{}, nil)

	w := performJSON(engine, http.MethodPut, "/api/v1/sessions/"+view.ID.String()+"/target",
		gin.H{"sku": "NOVA", "is_new": false})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "NOVA", data["target_sku"])
}

func TestSessionHandler_AdvanceTarget_AllVariantsImported(t *testing.T) {
	engine, service, gateway, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)
	gateway.On("FetchExistingChildSKUs", mock.Anything, "NOVA").
		Return([]string{"NOVA-1", "NOVA-2"}, nil)

	w := performJSON(engine, http.MethodPut, "/api/v1/sessions/"+view.ID.String()+"/target",
		gin.H{"sku": "NOVA", "is_new": false})

	// The blocked view is still returned so the client can render it
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)

	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["blocked"])
}

func TestSessionHandler_EditProduct(t *testing.T) {
	engine, service, _, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)
	_, err = service.AdvanceTarget(context.Background(), view.ID, "NOVA", true)
	require.NoError(t, err)

	w := performJSON(engine, http.MethodPatch, "/api/v1/sessions/"+view.ID.String()+"/product",
		gin.H{"field": "name", "value": "Nova Kit Pro"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestSessionHandler_EditVariant_UnknownSKU(t *testing.T) {
	engine, service, _, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)
	_, err = service.AdvanceTarget(context.Background(), view.ID, "NOVA", true)
	require.NoError(t, err)

	w := performJSON(engine, http.MethodPatch, "/api/v1/sessions/"+view.ID.String()+"/variants/NOPE",
		gin.H{"field": "color", "value": "301"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_Submit(t *testing.T) {
	engine, service, gateway, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)
	_, err = service.AdvanceTarget(context.Background(), view.ID, "NOVA", true)
	require.NoError(t, err)

	gateway.On("SubmitConfigurableProduct", mock.Anything, mock.Anything).Return(nil).Once()
	gateway.On("SubmitVariant", mock.Anything, mock.Anything).Return(nil).Times(2)

	w := performJSON(engine, http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/submit", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["completed"])
	gateway.AssertExpectations(t)
}

func TestSessionHandler_Submit_NotReady(t *testing.T) {
	engine, service, _, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)

	w := performJSON(engine, http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/submit", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
}

func TestSessionHandler_Publish(t *testing.T) {
	engine, service, gateway, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)
	_, err = service.AdvanceTarget(context.Background(), view.ID, "NOVA", true)
	require.NoError(t, err)

	gateway.On("SubmitConfigurableProduct", mock.Anything, mock.Anything).Return(nil).Once()
	gateway.On("SubmitVariant", mock.Anything, mock.Anything).Return(nil).Times(2)
	outcome, err := service.Submit(context.Background(), view.ID)
	require.NoError(t, err)
	require.True(t, outcome.Completed)

	gateway.On("SubmitToStore", mock.Anything, "uk", mock.Anything).Return("p-1", nil)

	w := performJSON(engine, http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/publish",
		gin.H{"store_ids": []string{"uk"}})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	gateway.AssertExpectations(t)
}

func TestSessionHandler_Publish_BeforeSubmit(t *testing.T) {
	engine, service, _, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)
	_, err = service.AdvanceTarget(context.Background(), view.ID, "NOVA", true)
	require.NoError(t, err)

	w := performJSON(engine, http.MethodPost, "/api/v1/sessions/"+view.ID.String()+"/publish",
		gin.H{"store_ids": []string{"uk"}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
}

func TestSessionHandler_Cancel(t *testing.T) {
	engine, service, _, _ := setupSessionTest(t)
	view, err := service.StartSessionFromProduct(context.Background(), testProduct())
	require.NoError(t, err)

	w := performJSON(engine, http.MethodDelete, "/api/v1/sessions/"+view.ID.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)

	// The session is gone afterwards
	w = performJSON(engine, http.MethodGet, "/api/v1/sessions/"+view.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
