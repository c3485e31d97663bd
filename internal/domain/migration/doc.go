// Package migration contains the domain model for migrating Shopify product
// catalog data onto Magento's configurable-product model.
//
// The package is built around three pieces:
//
//   - the matchers (AttributeMatcher, CategoryMatcher), which propose mappings
//     between Shopify's free-form product and variant fields and Magento's
//     fixed attribute-set vocabulary,
//   - the ImportSession, a state machine that keeps product-level and
//     per-variant mappings consistent while the operator edits them, and
//   - the validation rules that classify each mapping as valid, warning or
//     error to steer operator attention.
//
// Concrete Magento and Shopify transports live in the infrastructure layer and
// implement the port interfaces defined here.
package migration
