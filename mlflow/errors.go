package mlflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for MLflow client operations.
// Callers should use errors.Is to check.
var (
	// ErrRequestFailed indicates the request could not be sent or its response could not be read.
	ErrRequestFailed = errors.New("mlflow: request failed")
	// ErrHTTPStatus indicates a non-2xx response; the concrete error is *APIError.
	ErrHTTPStatus = errors.New("mlflow: unexpected HTTP status")
	// ErrResourceAlreadyExists matches an *APIError with code RESOURCE_ALREADY_EXISTS.
	ErrResourceAlreadyExists = errors.New("mlflow: resource already exists")
	// ErrResourceNotFound matches an *APIError with code RESOURCE_DOES_NOT_EXIST or HTTP 404.
	ErrResourceNotFound = errors.New("mlflow: resource does not exist")
	// ErrUnsupportedArtifactStore indicates a run artifact URI that is not served by the mlflow-artifacts proxy.
	ErrUnsupportedArtifactStore = errors.New("mlflow: artifact store is not proxied by the tracking server")
	// ErrNilDescriptor indicates LogModel was called with a nil descriptor.
	ErrNilDescriptor = errors.New("mlflow: descriptor must not be nil")
)

// MLflow REST error codes the client interprets.
const (
	codeAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	codeDoesNotExist  = "RESOURCE_DOES_NOT_EXIST"
)

// APIError is a non-2xx response from the tracking server.
// Use errors.Is with ErrHTTPStatus, ErrResourceAlreadyExists or ErrResourceNotFound.
type APIError struct {
	StatusCode int
	Code       string // MLflow error_code, e.g. RESOURCE_ALREADY_EXISTS
	Message    string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("mlflow: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("mlflow: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// Unwrap returns ErrHTTPStatus.
func (e *APIError) Unwrap() error { return ErrHTTPStatus }

// Is maps MLflow error codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrResourceAlreadyExists:
		return e.Code == codeAlreadyExists
	case ErrResourceNotFound:
		return e.Code == codeDoesNotExist || (e.Code == "" && e.StatusCode == 404)
	default:
		return false
	}
}

var _ error = (*APIError)(nil)
