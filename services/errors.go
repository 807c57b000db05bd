package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeSearch         ErrorType = "search"
	ErrorTypeSemanticSearch ErrorType = "semantic_search"
	ErrorTypeEmbedding      ErrorType = "embedding"
	ErrorTypeNoResults      ErrorType = "no_results"
	ErrorTypeTransform      ErrorType = "transform"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeExternal       ErrorType = "external"
	ErrorTypeInternal       ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is. Types must match; a target that carries a message
// must match it too, so sentinels of the same type stay distinguishable.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if e.Type != t.Type {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// WithDetail returns a copy of the error carrying an additional detail
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Type: e.Type, Message: e.Message, Err: e.Err, Details: details}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Kind matchers: errors.Is(err, ErrNoResults) is true for every no-results error
	ErrValidation = &DomainError{Type: ErrorTypeValidation}
	ErrNoResults  = &DomainError{Type: ErrorTypeNoResults}
	ErrNotFound   = &DomainError{Type: ErrorTypeNotFound}

	// Validation Errors
	ErrRegulationIDRequired = NewDomainError(ErrorTypeValidation, "Regulation ID is required", nil)
	ErrSearchQueryRequired  = NewDomainError(ErrorTypeValidation, "Search query is required", nil)
	ErrInvalidArticleNumber = NewDomainError(ErrorTypeValidation, "Article numbers must be integers of 1 or greater", nil)
	ErrInvalidArticleRange  = NewDomainError(ErrorTypeValidation, "Start article must not be greater than end article", nil)
	ErrNoContentSelected    = NewDomainError(ErrorTypeValidation, "No content selected", nil)
	ErrEmptyContext         = NewDomainError(ErrorTypeValidation, "Generated context is empty", nil)
	ErrEmptyEmbeddingText   = NewDomainError(ErrorTypeValidation, "Text must be a non-empty string", nil)
	ErrInvalidArticleID     = NewDomainError(ErrorTypeValidation, "Invalid article ID", nil)
	ErrInvalidRegulationID  = NewDomainError(ErrorTypeValidation, "Invalid regulation ID", nil)

	// No Results Errors
	ErrNoRelevantContent       = NewDomainError(ErrorTypeNoResults, "No relevant content found", nil)
	ErrNoContentAboveThreshold = NewDomainError(ErrorTypeNoResults, "No content above similarity threshold", nil)

	// Not Found Errors
	ErrArticleNotFound = NewDomainError(ErrorTypeNotFound, "Article not found", nil)

	// Rate Limit Errors
	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "Rate limit exceeded", nil)

	// External Provider Errors
	ErrProviderUnavailable = NewDomainError(ErrorTypeExternal, "LLM provider unavailable", nil)
	ErrEmbeddingFailed     = NewDomainError(ErrorTypeEmbedding, "Failed to generate embedding", nil)
)

func hasType(err error, types ...ErrorType) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	for _, t := range types {
		if domainErr.Type == t {
			return true
		}
	}
	return false
}

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsSearchError checks if an error is a keyword or semantic search provider error
func IsSearchError(err error) bool {
	return hasType(err, ErrorTypeSearch, ErrorTypeSemanticSearch)
}

// IsEmbeddingError checks if an error is an embedding error
func IsEmbeddingError(err error) bool {
	return hasType(err, ErrorTypeEmbedding)
}

// IsNoResultsError checks if an error is a no-results error
func IsNoResultsError(err error) bool {
	return hasType(err, ErrorTypeNoResults)
}

// IsTransformError checks if an error is a transform error
func IsTransformError(err error) bool {
	return hasType(err, ErrorTypeTransform)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	return hasType(err, ErrorTypeRateLimit)
}

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool {
	return hasType(err, ErrorTypeExternal)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return hasType(err, ErrorTypeInternal)
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorMessage returns the message of a domain error, or err.Error() otherwise
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// NewValidationError creates a validation error with the given message
func NewValidationError(message string) error {
	return NewDomainError(ErrorTypeValidation, message, nil)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}
