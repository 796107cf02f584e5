package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransactionNotFound is returned when a payment record is not found.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrGatewayNotFound is returned when no gateway is configured for the tenant.
	ErrGatewayNotFound = errors.New("gateway configuration not found")
	// ErrGatewayExists is returned when the tenant already has a gateway with that name.
	ErrGatewayExists = errors.New("gateway already configured for this application")
	// ErrGatewayInactive is returned when the resolved gateway is disabled.
	ErrGatewayInactive = errors.New("gateway is not active")
	// ErrInvalidAmount is returned when amount is invalid.
	ErrInvalidAmount = errors.New("invalid amount")
)

// UnknownProviderError is returned by the factory for unrecognized provider names.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown payment provider: %s", e.Name)
}

// MissingConfigError is returned by the factory when a provider that requires
// credentials is requested without them.
type MissingConfigError struct {
	Provider string
	Field    string
}

func (e *MissingConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("missing configuration for provider %s", e.Provider)
	}
	return fmt.Sprintf("missing configuration for provider %s: %s", e.Provider, e.Field)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var unknown *UnknownProviderError
	var missing *MissingConfigError
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "TRANSACTION_NOT_FOUND")
	case errors.Is(err, ErrGatewayNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "GATEWAY_NOT_FOUND")
	case errors.Is(err, ErrGatewayExists):
		return NewHTTPError(http.StatusConflict, err.Error(), "GATEWAY_EXISTS")
	case errors.Is(err, ErrGatewayInactive):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "GATEWAY_INACTIVE")
	case errors.Is(err, ErrInvalidAmount):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_AMOUNT")
	case errors.As(err, &unknown):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "UNKNOWN_PROVIDER")
	case errors.As(err, &missing):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "MISSING_CONFIG")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
