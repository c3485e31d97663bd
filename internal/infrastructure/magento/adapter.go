package magento

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopbridge/backend/internal/domain/migration"
)

// maxResponseSize is the maximum allowed response size from the Magento API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Adapter implements the MagentoGateway port over the Magento Admin REST API.
type Adapter struct {
	config     *Config
	httpClient *http.Client
}

// NewAdapter creates a new Magento adapter with the given configuration
func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Catalog Operations
// ---------------------------------------------------------------------------

// FetchAttributeCatalog returns the attribute definitions of the configured
// attribute set.
func (a *Adapter) FetchAttributeCatalog(ctx context.Context) ([]migration.AttributeDef, error) {
	path := fmt.Sprintf("/rest/V1/products/attribute-sets/%d/attributes", a.config.AttributeSetID)

	body, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var items []attributeItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("magento: failed to parse attribute list: %w", err)
	}

	defs := make([]migration.AttributeDef, 0, len(items))
	for _, item := range items {
		kind := migration.InputKind(item.FrontendInput)
		if !kind.IsValid() {
			// System attributes with exotic inputs (media, boolean, price)
			// cannot be mapped and are skipped.
			continue
		}

		def := migration.AttributeDef{
			Code:      item.AttributeCode,
			Label:     item.DefaultFrontendLabel,
			InputKind: kind,
			Required:  item.IsRequired,
		}
		for _, opt := range item.Options {
			if opt.Value == "" {
				// Magento prepends an empty placeholder option.
				continue
			}
			def.Options = append(def.Options, migration.AttributeOption{
				Label: opt.Label,
				Value: opt.Value,
			})
		}
		defs = append(defs, def)
	}

	return defs, nil
}

// FetchCategoryForest returns the flattened category tree. PathLabels are
// reconstructed from each node's ID path so matching can see the full
// ancestry, e.g. "Vaping / Kits".
func (a *Adapter) FetchCategoryForest(ctx context.Context) ([]migration.CategoryNode, error) {
	query := url.Values{}
	query.Set("searchCriteria[pageSize]", "1000")
	query.Set("searchCriteria[currentPage]", "1")

	body, err := a.doRequest(ctx, http.MethodGet, "/rest/V1/categories/list?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var list categoryList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("magento: failed to parse category list: %w", err)
	}

	names := make(map[int]string, len(list.Items))
	for _, item := range list.Items {
		names[item.ID] = item.Name
	}

	nodes := make([]migration.CategoryNode, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Level < 2 {
			// Level 0 is the global root, level 1 the store root. Neither is
			// assignable to products.
			continue
		}
		nodes = append(nodes, migration.CategoryNode{
			ID:         strconv.Itoa(item.ID),
			Label:      item.Name,
			Level:      item.Level - 1,
			ParentID:   strconv.Itoa(item.ParentID),
			PathLabels: pathLabels(item.Path, names),
		})
	}

	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Level < nodes[j].Level })
	return nodes, nil
}

// pathLabels resolves a Magento ID path like "1/2/10/11" to the labels of the
// assignable ancestors. The first two segments are the roots and are dropped.
func pathLabels(path string, names map[int]string) []string {
	segments := strings.Split(path, "/")
	labels := make([]string, 0, len(segments))
	for i, seg := range segments {
		if i < 2 {
			continue
		}
		id, err := strconv.Atoi(seg)
		if err != nil {
			continue
		}
		if name, ok := names[id]; ok {
			labels = append(labels, name)
		}
	}
	return labels
}

// FetchExistingChildSKUs returns the child SKUs already linked to a
// configurable product. A missing SKU yields an empty slice, not an error.
func (a *Adapter) FetchExistingChildSKUs(ctx context.Context, configurableSKU string) ([]string, error) {
	path := "/rest/V1/configurable-products/" + url.PathEscape(configurableSKU) + "/children"

	body, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		if isNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var children []productItem
	if err := json.Unmarshal(body, &children); err != nil {
		return nil, fmt.Errorf("magento: failed to parse children list: %w", err)
	}

	skus := make([]string, 0, len(children))
	for _, child := range children {
		skus = append(skus, child.SKU)
	}
	return skus, nil
}

// SearchConfigurableCandidates searches existing configurable products whose
// name contains the hint.
func (a *Adapter) SearchConfigurableCandidates(ctx context.Context, hint string) ([]migration.ConfigurableCandidate, error) {
	query := url.Values{}
	query.Set("searchCriteria[filter_groups][0][filters][0][field]", "type_id")
	query.Set("searchCriteria[filter_groups][0][filters][0][value]", "configurable")
	query.Set("searchCriteria[filter_groups][0][filters][0][condition_type]", "eq")
	query.Set("searchCriteria[filter_groups][1][filters][0][field]", "name")
	query.Set("searchCriteria[filter_groups][1][filters][0][value]", "%"+hint+"%")
	query.Set("searchCriteria[filter_groups][1][filters][0][condition_type]", "like")
	query.Set("searchCriteria[pageSize]", "50")

	body, err := a.doRequest(ctx, http.MethodGet, "/rest/V1/products?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var list productList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("magento: failed to parse product search: %w", err)
	}

	candidates := make([]migration.ConfigurableCandidate, 0, len(list.Items))
	for _, item := range list.Items {
		candidates = append(candidates, migration.ConfigurableCandidate{
			SKU:    item.SKU,
			Name:   item.Name,
			UrlKey: stringAttribute(item.CustomAttributes, "url_key"),
		})
	}
	return candidates, nil
}

// CreateOptionValue creates a new option for a select attribute and returns
// the created option with its platform-assigned value.
func (a *Adapter) CreateOptionValue(ctx context.Context, attributeCode, label string) (migration.AttributeOption, error) {
	path := "/rest/V1/products/attributes/" + url.PathEscape(attributeCode) + "/options"

	body, err := a.doRequest(ctx, http.MethodPost, path, optionRequest{Option: optionPayload{Label: label}})
	if err != nil {
		return migration.AttributeOption{}, err
	}

	// Magento returns the new option ID as a quoted string, historically
	// prefixed with "id_".
	var raw string
	if err := json.Unmarshal(body, &raw); err != nil {
		return migration.AttributeOption{}, fmt.Errorf("magento: failed to parse option response: %w", err)
	}
	value := strings.TrimPrefix(raw, "id_")

	return migration.AttributeOption{Label: label, Value: value}, nil
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// productStatusEnabled and productVisibilityBoth are Magento's stock values
// for a sellable, browsable product.
const (
	productStatusEnabled  = 1
	productVisibilityBoth = 4
)

// SubmitConfigurableProduct creates the parent configurable product. The
// attributes the variants vary by are declared as configurable options so
// child products can be linked afterwards.
func (a *Adapter) SubmitConfigurableProduct(ctx context.Context, payload migration.ConfigurablePayload) error {
	attrs := make([]customAttribute, 0, len(payload.Attributes)+1)
	if payload.UrlKey != "" {
		attrs = append(attrs, customAttribute{AttributeCode: "url_key", Value: payload.UrlKey})
	}
	for _, code := range sortedKeys(payload.Attributes) {
		attrs = append(attrs, customAttribute{AttributeCode: code, Value: payload.Attributes[code]})
	}

	options, err := a.configurableOptions(ctx, payload.ConfigurableCodes)
	if err != nil {
		return err
	}

	ext := categoryLinks(payload.CategoryIDs)
	if len(options) > 0 {
		if ext == nil {
			ext = &extensionAttributes{}
		}
		ext.ConfigurableProductOptions = options
	}

	req := productRequest{Product: productPayload{
		SKU:              payload.SKU,
		Name:             payload.Name,
		AttributeSetID:   a.config.AttributeSetID,
		TypeID:           "configurable",
		Status:           productStatusEnabled,
		Visibility:       productVisibilityBoth,
		CustomAttributes: attrs,
		ExtensionAttrs:   ext,
	}}

	_, err = a.doRequest(ctx, http.MethodPost, "/rest/V1/products", req)
	return err
}

// configurableOptions resolves each configurable attribute code to its
// platform ID and declares all of its option values as allowed, so any
// variant value can be linked later.
func (a *Adapter) configurableOptions(ctx context.Context, codes []string) ([]configurableOption, error) {
	options := make([]configurableOption, 0, len(codes))
	for i, code := range codes {
		body, err := a.doRequest(ctx, http.MethodGet, "/rest/V1/products/attributes/"+url.PathEscape(code), nil)
		if err != nil {
			return nil, err
		}

		var info attributeInfo
		if err := json.Unmarshal(body, &info); err != nil {
			return nil, fmt.Errorf("magento: failed to parse attribute %s: %w", code, err)
		}

		values := make([]optionValueRef, 0, len(info.Options))
		for _, opt := range info.Options {
			idx, err := strconv.Atoi(opt.Value)
			if err != nil {
				continue
			}
			values = append(values, optionValueRef{ValueIndex: idx})
		}

		options = append(options, configurableOption{
			AttributeID: strconv.Itoa(info.AttributeID),
			Label:       info.DefaultFrontendLabel,
			Position:    i,
			Values:      values,
		})
	}
	return options, nil
}

// SubmitVariant creates one simple product and links it under its
// configurable parent.
func (a *Adapter) SubmitVariant(ctx context.Context, payload migration.VariantPayload) error {
	attrs := make([]customAttribute, 0, len(payload.Attributes)+len(payload.MultiAttributes))
	for _, code := range sortedKeys(payload.Attributes) {
		attrs = append(attrs, customAttribute{AttributeCode: code, Value: payload.Attributes[code]})
	}
	for _, code := range sortedKeys(payload.MultiAttributes) {
		attrs = append(attrs, customAttribute{AttributeCode: code, Value: strings.Join(payload.MultiAttributes[code], ",")})
	}

	req := productRequest{Product: productPayload{
		SKU:              payload.SKU,
		Name:             payload.Name,
		AttributeSetID:   a.config.AttributeSetID,
		Price:            payload.Price.StringFixed(2),
		Weight:           payload.WeightGrams.String(),
		TypeID:           "simple",
		Status:           productStatusEnabled,
		Visibility:       productVisibilityBoth,
		CustomAttributes: attrs,
	}}

	if _, err := a.doRequest(ctx, http.MethodPost, "/rest/V1/products", req); err != nil {
		return err
	}

	linkPath := "/rest/V1/configurable-products/" + url.PathEscape(payload.ParentSKU) + "/child"
	_, err := a.doRequest(ctx, http.MethodPost, linkPath, childRequest{ChildSKU: payload.SKU})
	return err
}

// ---------------------------------------------------------------------------
// Store Operations
// ---------------------------------------------------------------------------

// ListStores returns the additional store views available for publication.
// The default and admin views are excluded.
func (a *Adapter) ListStores(ctx context.Context) ([]migration.Store, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/rest/V1/store/storeViews", nil)
	if err != nil {
		return nil, err
	}

	var views []storeView
	if err := json.Unmarshal(body, &views); err != nil {
		return nil, fmt.Errorf("magento: failed to parse store views: %w", err)
	}

	urls := a.storeBaseURLs(ctx)

	stores := make([]migration.Store, 0, len(views))
	for _, view := range views {
		if view.Code == "admin" || view.Code == "default" || view.Active == 0 {
			continue
		}
		stores = append(stores, migration.Store{
			ID:   view.Code,
			Name: view.Name,
			URL:  urls[view.Code],
		})
	}
	return stores, nil
}

// storeBaseURLs returns the base URL per store code. Failures here only cost
// display URLs, so they are swallowed.
func (a *Adapter) storeBaseURLs(ctx context.Context) map[string]string {
	body, err := a.doRequest(ctx, http.MethodGet, "/rest/V1/store/storeConfigs", nil)
	if err != nil {
		return map[string]string{}
	}

	var configs []storeConfig
	if err := json.Unmarshal(body, &configs); err != nil {
		return map[string]string{}
	}

	urls := make(map[string]string, len(configs))
	for _, cfg := range configs {
		urls[cfg.Code] = cfg.BaseURL
	}
	return urls
}

// SubmitToStore publishes an already created product to one additional store
// view and returns the store-side product ID.
func (a *Adapter) SubmitToStore(ctx context.Context, storeID string, payload migration.StorePayload) (string, error) {
	req := productRequest{Product: productPayload{
		SKU:            payload.SKU,
		Name:           payload.Name,
		AttributeSetID: a.config.AttributeSetID,
		TypeID:         "configurable",
		Status:         productStatusEnabled,
		Visibility:     productVisibilityBoth,
		ExtensionAttrs: categoryLinks(payload.CategoryIDs),
	}}

	path := "/rest/" + url.PathEscape(storeID) + "/V1/products"
	body, err := a.doRequest(ctx, http.MethodPut, path+"/"+url.PathEscape(payload.SKU), req)
	if err != nil {
		return "", err
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("magento: failed to parse store publish response: %w", err)
	}
	return strconv.FormatInt(created.ID, 10), nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// httpError carries the status code so callers can distinguish missing
// resources from real failures.
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("magento: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("magento: HTTP %d", e.StatusCode)
}

func isNotFound(err error) bool {
	if he, ok := err.(*httpError); ok {
		return he.StatusCode == http.StatusNotFound
	}
	return false
}

// doRequest performs an HTTP request against the Magento Admin REST API
func (a *Adapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("magento: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("magento: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+a.config.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", migration.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("magento: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)
		return nil, &httpError{StatusCode: resp.StatusCode, Message: errResp.Message}
	}

	return body, nil
}

// stringAttribute returns the scalar value of a custom attribute, or "".
func stringAttribute(attrs []customAttribute, code string) string {
	for _, attr := range attrs {
		if attr.AttributeCode == code {
			if s, ok := attr.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// categoryLinks builds the extension attribute block for category assignment
func categoryLinks(categoryIDs []string) *extensionAttributes {
	if len(categoryIDs) == 0 {
		return nil
	}
	links := make([]categoryLink, 0, len(categoryIDs))
	for i, id := range categoryIDs {
		links = append(links, categoryLink{CategoryID: id, Position: i})
	}
	return &extensionAttributes{CategoryLinks: links}
}

// sortedKeys returns map keys in deterministic order for stable payloads
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ensure Adapter implements the MagentoGateway port
var _ migration.MagentoGateway = (*Adapter)(nil)
