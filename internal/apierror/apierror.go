// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}

// PartialWriteError reports a multi-step write that stopped partway through.
// Applied carries the records persisted before the failure so the client can
// reconcile instead of blindly retrying the whole operation.
type PartialWriteError struct {
	Detail  string      `json:"detail"`
	Applied interface{} `json:"applied"`
}

func NewPartialWrite(msg string, applied interface{}) *PartialWriteError {
	return &PartialWriteError{Detail: msg, Applied: applied}
}
