package migration

import "errors"

var (
	// Session errors
	ErrSessionInvalidProduct   = errors.New("migration: product has no variants")
	ErrSessionInvalidTargetSKU = errors.New("migration: target SKU must not be empty")
	ErrSessionNotMapping       = errors.New("migration: session is not in the mapping stage")
	ErrSessionNotReady         = errors.New("migration: session is not ready for submission")
	ErrSessionNotSubmitted     = errors.New("migration: session has not been submitted")
	ErrSessionTerminal         = errors.New("migration: session already submitted or cancelled")
	ErrAllVariantsImported     = errors.New("migration: all variants already exist on the target")
	ErrUnknownVariant          = errors.New("migration: unknown variant SKU")

	// Catalog errors
	ErrAttributeNotFound = errors.New("migration: attribute not found in catalog")
	ErrOptionExists      = errors.New("migration: option already exists for attribute")
	ErrAttributeNotEnum  = errors.New("migration: attribute has no enumerated options")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("migration: target platform unavailable")
)
