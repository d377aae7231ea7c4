package errors

// Error type tags carried in API error responses.
const (
	HttpInternalError         = "internal_error"
	HttpInvalidJsonError      = "invalid_json"
	HttpValidationError       = "validation_failed"
	HttpInvalidTimestampError = "invalid_timestamp"
	HttpNotFoundError         = "not_found"
	HttpStoreError            = "store_error"
)

// ErrorResponse is the error response body for all API endpoints.
// Success is always false; Details carries per-field violations when
// the error is user-correctable.
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error"`
	ErrorType string      `json:"errorType,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// New builds an ErrorResponse without details.
func New(errorType, message string) ErrorResponse {
	return ErrorResponse{Error: message, ErrorType: errorType}
}

// WithDetails builds an ErrorResponse carrying structured detail.
func WithDetails(errorType, message string, details interface{}) ErrorResponse {
	return ErrorResponse{Error: message, ErrorType: errorType, Details: details}
}
