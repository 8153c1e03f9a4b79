package errors

import "fmt"

// Error codes
const (
	CodeAPIError           = "API_ERROR"
	CodeIncompleteResponse = "INCOMPLETE_RESPONSE"
	CodeValidation         = "VALIDATION_ERROR"
	CodeCache              = "CACHE_ERROR"
	CodeService            = "SERVICE_ERROR"
)

type HeroError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *HeroError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *HeroError) Unwrap() error {
	return e.Cause
}

// APIError covers transport failures, non-2xx responses and bodies that are not JSON.
type APIError struct {
	*HeroError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		HeroError: &HeroError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

func (e *APIError) WithCause(cause error) *APIError {
	e.Cause = cause
	return e
}

// IncompleteResponseError is returned when the body parses but lacks a field
// a hero record cannot be built without.
type IncompleteResponseError struct {
	*HeroError
	HeroID int
	Field  string
}

func NewIncompleteResponseError(heroID int, field string) *IncompleteResponseError {
	return &IncompleteResponseError{
		HeroError: &HeroError{
			Message:    fmt.Sprintf("incomplete hero data: missing %s", field),
			Code:       CodeIncompleteResponse,
			StatusCode: 502,
			Context: map[string]any{
				"hero_id": heroID,
				"field":   field,
			},
		},
		HeroID: heroID,
		Field:  field,
	}
}

type ValidationError struct {
	*HeroError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		HeroError: &HeroError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*HeroError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		HeroError: &HeroError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*HeroError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		HeroError: &HeroError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}
