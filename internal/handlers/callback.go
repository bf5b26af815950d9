package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"oauth2-relay/internal/banking"
	"oauth2-relay/internal/metrics"
	"oauth2-relay/internal/middleware"
	"oauth2-relay/internal/models"
	"oauth2-relay/internal/oauth"
	"oauth2-relay/internal/utils"
)

// TokenExchanger trades an authorization code for tokens
type TokenExchanger interface {
	ExchangeCodeForToken(ctx context.Context, code, state string) (*models.TokenResponse, error)
}

// AccountsFetcher reads the account list with an access token
type AccountsFetcher interface {
	GetAccounts(ctx context.Context, accessToken string) (*models.AccountsResponse, error)
}

// CallbackHandler receives the bank's redirect, exchanges the code and
// relays the accounts payload to the caller
type CallbackHandler struct {
	Tokens   TokenExchanger
	Accounts AccountsFetcher
	// States verifies the state against the login cookie; nil passes state through
	States  *oauth.StateIssuer
	Log     *logrus.Logger
	Metrics *metrics.MetricsCollector
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(tokens TokenExchanger, accounts AccountsFetcher, states *oauth.StateIssuer, log *logrus.Logger, mc *metrics.MetricsCollector) *CallbackHandler {
	return &CallbackHandler{
		Tokens:   tokens,
		Accounts: accounts,
		States:   states,
		Log:      log,
		Metrics:  mc,
	}
}

// ServeHTTP handles GET /callback
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Log.WithField("request_id", middleware.RequestIDFromContext(r.Context()))

	q := r.URL.Query()
	params := models.CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	if params.HasProviderError() {
		log.Warnf("❌ [CALLBACK] Provider returned error: %s (%s)", params.Error, params.ErrorDescription)
		h.Metrics.RecordCallback(metrics.ResultProviderError)
		h.writeError(w, http.StatusUnauthorized, models.ErrorAuthenticationFailed,
			"Failed to authenticate with Sparebank", providerErrorDetails(params))
		return
	}

	if params.Code == "" || params.State == "" {
		log.Warn("❌ [CALLBACK] Missing code or state")
		h.Metrics.RecordCallback(metrics.ResultInvalidRequest)
		h.writeError(w, http.StatusBadRequest, models.ErrorInvalidRequest,
			"Missing code or state parameter", "")
		return
	}

	if h.States != nil {
		if err := h.verifyState(r, params.State); err != nil {
			log.Warnf("❌ [CALLBACK] State rejected: %v", err)
			h.Metrics.RecordCallback(metrics.ResultInvalidState)
			h.writeError(w, http.StatusBadRequest, models.ErrorInvalidState,
				"State parameter could not be verified", "")
			return
		}
		clearStateCookie(w)
	}

	log.Info("🔄 [CALLBACK] Exchanging authorization code")
	start := time.Now()
	token, err := h.Tokens.ExchangeCodeForToken(r.Context(), params.Code, params.State)
	h.Metrics.RecordUpstreamRequest(metrics.UpstreamToken, err, time.Since(start))
	if err == nil && token == nil {
		err = errors.New("token exchange returned no token")
	}
	if err != nil {
		h.fail(w, log, err)
		return
	}

	log.Info("🔄 [CALLBACK] Fetching accounts")
	start = time.Now()
	accounts, err := h.Accounts.GetAccounts(r.Context(), token.AccessToken)
	h.Metrics.RecordUpstreamRequest(metrics.UpstreamAccounts, err, time.Since(start))
	if err == nil && accounts == nil {
		err = errors.New("accounts fetch returned no response")
	}
	if err != nil {
		h.fail(w, log, err)
		return
	}

	contentType := accounts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	log.Info("✅ [CALLBACK] Accounts relayed")
	h.Metrics.RecordCallback(metrics.ResultSuccess)
	utils.WriteRawResponse(w, http.StatusOK, contentType, accounts.Body, h.Log)
}

func (h *CallbackHandler) verifyState(r *http.Request, state string) error {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return fmt.Errorf("%w: no state cookie", oauth.ErrInvalidState)
	}
	return h.States.Verify(state, cookie.Value)
}

// fail maps err onto the response: token failures are 401, accounts
// failures 502, anything else 500
func (h *CallbackHandler) fail(w http.ResponseWriter, log *logrus.Entry, err error) {
	var oauthFailure *oauth.Failure
	var bankingFailure *banking.Failure

	switch {
	case errors.As(err, &oauthFailure):
		log.Errorf("❌ [CALLBACK] Token exchange failed: %v", err)
		h.Metrics.RecordCallback(metrics.ResultTokenFailed)
		h.Metrics.RecordError("authentication_failed", "callback")
		h.writeError(w, http.StatusUnauthorized, models.ErrorAuthenticationFailed,
			"Failed to authenticate with Sparebank", err.Error())
	case errors.As(err, &bankingFailure):
		log.Errorf("❌ [CALLBACK] Accounts fetch failed: %v", err)
		h.Metrics.RecordCallback(metrics.ResultBankingFailed)
		h.Metrics.RecordError("banking_api_failed", "callback")
		h.writeError(w, http.StatusBadGateway, models.ErrorBankingAPIFailed,
			"Failed to fetch banking data", err.Error())
	default:
		log.Errorf("❌ [CALLBACK] Unexpected error: %v", err)
		h.Metrics.RecordCallback(metrics.ResultInternalError)
		h.Metrics.RecordError("internal_server_error", "callback")
		h.writeError(w, http.StatusInternalServerError, models.ErrorInternalServer,
			"An unexpected error occurred", "")
	}
}

func (h *CallbackHandler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	utils.WriteJSONResponse(w, status, models.ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	}, h.Log)
}

func providerErrorDetails(p models.CallbackParams) string {
	if p.ErrorDescription == "" {
		return p.Error
	}
	return p.Error + ": " + p.ErrorDescription
}
