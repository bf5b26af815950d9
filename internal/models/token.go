package models

// TokenResponse represents the bank's OAuth2 token response.
// It lives for a single callback and is never persisted.
type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in,omitempty"`
}

// CallbackParams represents the query parameters of the provider redirect
type CallbackParams struct {
	Code  string
	State string

	// Set instead of Code when the user denied consent or the provider failed
	Error            string
	ErrorDescription string
}

// HasProviderError reports whether the provider redirected with an error
func (p CallbackParams) HasProviderError() bool {
	return p.Error != ""
}

// AccountsResponse is the accounts endpoint payload, kept as raw bytes
type AccountsResponse struct {
	Body        []byte
	ContentType string
}
