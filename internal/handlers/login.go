package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"oauth2-relay/internal/metrics"
	"oauth2-relay/internal/middleware"
	"oauth2-relay/internal/models"
	"oauth2-relay/internal/oauth"
	"oauth2-relay/internal/utils"
)

const stateCookieName = "oauth2_relay_state"

// AuthURLBuilder builds the bank authorize URL for a state value
type AuthURLBuilder interface {
	AuthCodeURL(state string) string
}

// LoginHandler starts the authorization code flow by redirecting the
// browser to the bank
type LoginHandler struct {
	Auth   AuthURLBuilder
	States *oauth.StateIssuer
	// SecureCookie marks the state cookie Secure; set when the redirect URI is https
	SecureCookie bool
	Log          *logrus.Logger
	Metrics      *metrics.MetricsCollector
}

// NewLoginHandler creates a new login handler
func NewLoginHandler(auth AuthURLBuilder, states *oauth.StateIssuer, redirectURI string, log *logrus.Logger, mc *metrics.MetricsCollector) *LoginHandler {
	return &LoginHandler{
		Auth:         auth,
		States:       states,
		SecureCookie: strings.HasPrefix(redirectURI, "https://"),
		Log:          log,
		Metrics:      mc,
	}
}

// ServeHTTP handles GET /login
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.Log.WithField("request_id", middleware.RequestIDFromContext(r.Context()))

	var state string
	if h.States != nil {
		signed, nonce, err := h.States.Issue()
		if err != nil {
			log.Errorf("❌ [LOGIN] Failed to issue state: %v", err)
			h.writeInternalError(w)
			return
		}
		state = signed
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName,
			Value:    nonce,
			Path:     "/",
			MaxAge:   int(h.States.TTL().Seconds()),
			HttpOnly: true,
			Secure:   h.SecureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	} else {
		random, err := utils.GenerateRandomString(32)
		if err != nil {
			log.Errorf("❌ [LOGIN] Failed to generate state: %v", err)
			h.writeInternalError(w)
			return
		}
		state = random
	}

	log.Info("🔄 [LOGIN] Redirecting to bank authorize endpoint")
	h.Metrics.RecordLoginRedirect()
	http.Redirect(w, r, h.Auth.AuthCodeURL(state), http.StatusFound)
}

func (h *LoginHandler) writeInternalError(w http.ResponseWriter) {
	h.Metrics.RecordError("internal_server_error", "login")
	utils.WriteJSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{
		Error:   models.ErrorInternalServer,
		Message: "An unexpected error occurred",
	}, h.Log)
}

// clearStateCookie expires the state cookie once a callback has used it
func clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
