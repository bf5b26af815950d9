package models

// Error codes returned in ErrorResponse.Error
const (
	ErrorAuthenticationFailed = "authentication_failed"
	ErrorBankingAPIFailed     = "banking_api_failed"
	ErrorInternalServer       = "internal_server_error"
	ErrorInvalidRequest       = "invalid_request"
	ErrorInvalidState         = "invalid_state"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
