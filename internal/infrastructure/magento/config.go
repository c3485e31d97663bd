package magento

import "errors"

// Config holds configuration for the Magento Admin REST API
type Config struct {
	// BaseURL is the Magento base URL, e.g. "https://shop.example.com"
	BaseURL string
	// AccessToken is the admin integration access token
	AccessToken string
	// AttributeSetID is the attribute set products are created under
	AttributeSetID int
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for Magento configuration
var (
	ErrConfigMissingBaseURL     = errors.New("magento: base URL is required")
	ErrConfigMissingAccessToken = errors.New("magento: access token is required")
)

// defaultAttributeSetID is Magento's built-in "Default" attribute set
const defaultAttributeSetID = 4

// NewConfig creates a new Magento configuration with defaults
func NewConfig(baseURL, accessToken string) *Config {
	return &Config{
		BaseURL:        baseURL,
		AccessToken:    accessToken,
		AttributeSetID: defaultAttributeSetID,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Magento configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.AccessToken == "" {
		return ErrConfigMissingAccessToken
	}
	if c.AttributeSetID <= 0 {
		c.AttributeSetID = defaultAttributeSetID
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
