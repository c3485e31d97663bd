package migration

import (
	"context"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Payloads
// ---------------------------------------------------------------------------

// ConfigurablePayload is the request to create the parent configurable
// product on the target platform.
type ConfigurablePayload struct {
	// SKU is the configurable product SKU
	SKU string
	// Name is the product name
	Name string
	// UrlKey is the URL key derived from the name
	UrlKey string
	// Attributes maps attribute codes to scalar values
	Attributes map[string]string
	// CategoryIDs holds the target category IDs
	CategoryIDs []string
	// ConfigurableCodes lists the attribute codes the variants vary by
	ConfigurableCodes []string
}

// VariantPayload is the request to import one variant under a configurable
// parent.
type VariantPayload struct {
	// ParentSKU is the configurable product SKU
	ParentSKU string
	// SKU is the variant SKU
	SKU string
	// Name is the variant display name
	Name string
	// Price is the variant price
	Price decimal.Decimal
	// WeightGrams is the variant weight in grams
	WeightGrams decimal.Decimal
	// Attributes maps attribute codes to scalar values
	Attributes map[string]string
	// MultiAttributes maps attribute codes to multi-values
	MultiAttributes map[string][]string
}

// ConfigurableCandidate is one existing configurable product returned by a
// target-side search.
type ConfigurableCandidate struct {
	// SKU is the configurable product SKU
	SKU string
	// Name is the product name
	Name string
	// UrlKey is the product URL key
	UrlKey string
}

// Store is one additional target store the product can be published to.
type Store struct {
	// ID is the store identifier
	ID string
	// Name is the store display name
	Name string
	// URL is the storefront base URL
	URL string
}

// StorePayload is the request to publish a finished product to an additional
// store.
type StorePayload struct {
	// SKU is the configurable product SKU
	SKU string
	// Name is the product name
	Name string
	// CategoryIDs holds the target category IDs
	CategoryIDs []string
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// MagentoGateway is the port to the target platform. Concrete transports live
// in the infrastructure layer. Retry policy, if any, belongs to the
// implementation; the domain never retries.
type MagentoGateway interface {
	// FetchAttributeCatalog returns the attribute set definitions
	FetchAttributeCatalog(ctx context.Context) ([]AttributeDef, error)

	// FetchCategoryForest returns the flattened category tree
	FetchCategoryForest(ctx context.Context) ([]CategoryNode, error)

	// FetchExistingChildSKUs returns the child SKUs already attached to a
	// configurable product. Returns an empty slice when the SKU does not
	// exist on the platform.
	FetchExistingChildSKUs(ctx context.Context, configurableSKU string) ([]string, error)

	// SearchConfigurableCandidates searches existing configurable products
	SearchConfigurableCandidates(ctx context.Context, hint string) ([]ConfigurableCandidate, error)

	// CreateOptionValue creates a new option for a select attribute and
	// returns the created option
	CreateOptionValue(ctx context.Context, attributeCode, label string) (AttributeOption, error)

	// SubmitConfigurableProduct creates the parent configurable product
	SubmitConfigurableProduct(ctx context.Context, payload ConfigurablePayload) error

	// SubmitVariant imports one variant and links it to its parent
	SubmitVariant(ctx context.Context, payload VariantPayload) error

	// SubmitToStore publishes the product to one additional store and
	// returns the store-side product ID
	SubmitToStore(ctx context.Context, storeID string, payload StorePayload) (string, error)

	// ListStores returns the additional stores available for publication
	ListStores(ctx context.Context) ([]Store, error)
}

// ShopifyGateway is the port to the source platform.
type ShopifyGateway interface {
	// FetchProduct returns one product with its variants
	FetchProduct(ctx context.Context, productID int64) (*SourceProduct, error)

	// ListProducts returns a page of products for selection
	ListProducts(ctx context.Context, page, pageSize int) ([]SourceProduct, error)
}
