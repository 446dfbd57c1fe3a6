package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken           = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials     = errors.New("INVALID_CREDENTIALS")
	ErrAccountInactive        = errors.New("ACCOUNT_INACTIVE")
	ErrCatalogProductNotFound = errors.New("CATALOG_PRODUCT_NOT_FOUND")
	ErrInvalidImportFile      = errors.New("INVALID_IMPORT_FILE")
)
