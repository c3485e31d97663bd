package magento

// errorResponse is the Magento REST error envelope
type errorResponse struct {
	Message string `json:"message"`
}

// attributeItem is one attribute in the attribute-set listing
type attributeItem struct {
	AttributeCode        string         `json:"attribute_code"`
	DefaultFrontendLabel string         `json:"default_frontend_label"`
	FrontendInput        string         `json:"frontend_input"`
	IsRequired           bool           `json:"is_required"`
	Options              []attributeOpt `json:"options"`
}

// attributeOpt is one option of a select/multiselect attribute
type attributeOpt struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// categoryList is the response of the category list endpoint
type categoryList struct {
	Items []categoryItem `json:"items"`
}

// categoryItem is one flattened category node
type categoryItem struct {
	ID       int    `json:"id"`
	ParentID int    `json:"parent_id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	Path     string `json:"path"`
}

// productList is the response of the product search endpoint
type productList struct {
	Items []productItem `json:"items"`
}

// productItem is one product returned by search or the children endpoint
type productItem struct {
	SKU              string            `json:"sku"`
	Name             string            `json:"name"`
	CustomAttributes []customAttribute `json:"custom_attributes"`
}

// customAttribute is one entry of a product's custom attribute list. Value is
// a string for scalar attributes and a []any for multiselects; it is decoded
// lazily by the caller.
type customAttribute struct {
	AttributeCode string `json:"attribute_code"`
	Value         any    `json:"value"`
}

// productRequest is the envelope for product create calls
type productRequest struct {
	Product productPayload `json:"product"`
}

// productPayload is the Magento product body
type productPayload struct {
	SKU              string               `json:"sku"`
	Name             string               `json:"name"`
	AttributeSetID   int                  `json:"attribute_set_id"`
	Price            string               `json:"price,omitempty"`
	Weight           string               `json:"weight,omitempty"`
	TypeID           string               `json:"type_id"`
	Status           int                  `json:"status"`
	Visibility       int                  `json:"visibility"`
	CustomAttributes []customAttribute    `json:"custom_attributes,omitempty"`
	ExtensionAttrs   *extensionAttributes `json:"extension_attributes,omitempty"`
}

// extensionAttributes carries category assignments and configurable options
type extensionAttributes struct {
	CategoryLinks              []categoryLink       `json:"category_links,omitempty"`
	ConfigurableProductOptions []configurableOption `json:"configurable_product_options,omitempty"`
}

// configurableOption declares one attribute the variants vary by
type configurableOption struct {
	AttributeID string           `json:"attribute_id"`
	Label       string           `json:"label"`
	Position    int              `json:"position"`
	Values      []optionValueRef `json:"values"`
}

// optionValueRef is one allowed option value index
type optionValueRef struct {
	ValueIndex int `json:"value_index"`
}

// attributeInfo is the single-attribute lookup response
type attributeInfo struct {
	AttributeID          int            `json:"attribute_id"`
	AttributeCode        string         `json:"attribute_code"`
	DefaultFrontendLabel string         `json:"default_frontend_label"`
	Options              []attributeOpt `json:"options"`
}

// categoryLink assigns a product to one category
type categoryLink struct {
	CategoryID string `json:"category_id"`
	Position   int    `json:"position"`
}

// optionRequest is the envelope for option create calls
type optionRequest struct {
	Option optionPayload `json:"option"`
}

// optionPayload is the new option body
type optionPayload struct {
	Label string `json:"label"`
}

// childRequest links a simple product under a configurable parent
type childRequest struct {
	ChildSKU string `json:"childSku"`
}

// storeView is one entry of the store view listing
type storeView struct {
	ID     int    `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active int    `json:"is_active"`
}

// storeConfig is one entry of the store config listing
type storeConfig struct {
	ID      int    `json:"id"`
	Code    string `json:"code"`
	BaseURL string `json:"base_url"`
}
