package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopbridge/backend/internal/domain/migration"
)

// maxResponseSize is the maximum allowed response size from the Shopify API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client implements the ShopifyGateway port over the Shopify Admin REST API.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Shopify client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

// productEnvelope wraps a single product response
type productEnvelope struct {
	Product shopifyProduct `json:"product"`
}

// productsEnvelope wraps a product listing response
type productsEnvelope struct {
	Products []shopifyProduct `json:"products"`
}

// shopifyProduct is the Admin API product shape
type shopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        string           `json:"tags"`
	Options     []shopifyOption  `json:"options"`
	Variants    []shopifyVariant `json:"variants"`
}

// shopifyOption is one variant option dimension
type shopifyOption struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// shopifyVariant is the Admin API variant shape
type shopifyVariant struct {
	ID      int64  `json:"id"`
	SKU     string `json:"sku"`
	Title   string `json:"title"`
	Price   string `json:"price"`
	Barcode string `json:"barcode"`
	Grams   int64  `json:"grams"`
	Option1 string `json:"option1"`
	Option2 string `json:"option2"`
	Option3 string `json:"option3"`
}

// errorEnvelope is the Shopify error response
type errorEnvelope struct {
	Errors any `json:"errors"`
}

// ---------------------------------------------------------------------------
// Gateway Operations
// ---------------------------------------------------------------------------

// FetchProduct returns one product with its variants
func (c *Client) FetchProduct(ctx context.Context, productID int64) (*migration.SourceProduct, error) {
	path := fmt.Sprintf("/products/%d.json", productID)

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var env productEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse product: %w", err)
	}

	product := toSourceProduct(env.Product)
	return &product, nil
}

// ListProducts returns a page of products for selection
func (c *Client) ListProducts(ctx context.Context, page, pageSize int) ([]migration.SourceProduct, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 250 {
		pageSize = 50
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("page", strconv.Itoa(page))

	body, err := c.doRequest(ctx, "/products.json?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var env productsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("shopify: failed to parse product list: %w", err)
	}

	products := make([]migration.SourceProduct, 0, len(env.Products))
	for _, p := range env.Products {
		products = append(products, toSourceProduct(p))
	}
	return products, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs a GET against the Shopify Admin API
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.baseURL()+path, nil)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}

	req.Header.Set("X-Shopify-Access-Token", c.config.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", migration.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var env errorEnvelope
		_ = json.Unmarshal(body, &env)
		return nil, fmt.Errorf("shopify: HTTP %d: %v", resp.StatusCode, env.Errors)
	}

	return body, nil
}

// toSourceProduct converts the wire product to the domain model. Options are
// ordered by position because the variant option values are positional.
func toSourceProduct(p shopifyProduct) migration.SourceProduct {
	names := make([]string, len(p.Options))
	for _, opt := range p.Options {
		if opt.Position >= 1 && opt.Position <= len(names) {
			names[opt.Position-1] = opt.Name
		}
	}

	variants := make([]migration.SourceVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, toSourceVariant(v, len(names)))
	}

	return migration.SourceProduct{
		ID:          p.ID,
		Title:       p.Title,
		BodyHTML:    p.BodyHTML,
		Vendor:      p.Vendor,
		ProductType: p.ProductType,
		Tags:        p.Tags,
		OptionNames: names,
		Variants:    variants,
	}
}

// toSourceVariant converts the wire variant to the domain model
func toSourceVariant(v shopifyVariant, optionCount int) migration.SourceVariant {
	price, err := decimal.NewFromString(v.Price)
	if err != nil {
		price = decimal.Zero
	}

	values := make([]string, 0, optionCount)
	for i, val := range []string{v.Option1, v.Option2, v.Option3} {
		if i >= optionCount {
			break
		}
		values = append(values, val)
	}

	return migration.SourceVariant{
		ID:           v.ID,
		SKU:          v.SKU,
		Title:        v.Title,
		Price:        price,
		Barcode:      v.Barcode,
		WeightGrams:  decimal.NewFromInt(v.Grams),
		OptionValues: values,
	}
}

// Ensure Client implements the ShopifyGateway port
var _ migration.ShopifyGateway = (*Client)(nil)
