package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrPrecondition        = errors.New("precondition failed")
	ErrMissingAPIKey       = errors.New("missing api key")
	ErrProviderFailure     = errors.New("provider failure")
)
