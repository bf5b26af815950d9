package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"oauth2-relay/internal/models"
	"oauth2-relay/pkg/config"
)

// Client exchanges authorization codes at the bank's token endpoint
type Client struct {
	config          *oauth2.Config
	authorizeParams map[string]string
	httpClient      *http.Client
	log             *logrus.Logger
}

// NewClient creates a token exchange client. The configuration is copied and
// never modified, so one Client can serve concurrent callbacks.
func NewClient(cfg config.OAuthClientConfig, httpClient *http.Client, log *logrus.Logger) *Client {
	params := make(map[string]string, len(cfg.AuthorizeParams))
	for k, v := range cfg.AuthorizeParams {
		params[k] = v
	}

	return &Client{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURI,
				TokenURL: cfg.TokenURI,
				// client_id and client_secret go in the form body
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		authorizeParams: params,
		httpClient:      tokenHTTPClient(httpClient),
		log:             log,
	}
}

// ExchangeCodeForToken posts the authorization code and state to the token
// endpoint and decodes the token payload. All errors are *Failure.
func (c *Client) ExchangeCodeForToken(ctx context.Context, code, state string) (*models.TokenResponse, error) {
	c.log.Infof("🔄 [TOKEN] Exchanging authorization code for access token at %s", c.config.Endpoint.TokenURL)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.config.Exchange(ctx, code, oauth2.SetAuthURLParam("state", state))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			c.log.Errorf("❌ [TOKEN] Token endpoint returned status %d", retrieveErr.Response.StatusCode)
		} else {
			c.log.Errorf("❌ [TOKEN] Failed to exchange code for token: %v", err)
		}
		return nil, NewFailure("token exchange failed", err)
	}

	resp := tokenResponseFromToken(tok)
	c.log.Infof("✅ [TOKEN] Successfully obtained access token (type: %s, expires_in: %d)", resp.TokenType, resp.ExpiresIn)
	return resp, nil
}

// AuthCodeURL builds the authorization redirect for the given state
func (c *Client) AuthCodeURL(state string) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(c.authorizeParams))
	for k, v := range c.authorizeParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return c.config.AuthCodeURL(state, opts...)
}

func tokenResponseFromToken(tok *oauth2.Token) *models.TokenResponse {
	return &models.TokenResponse{
		AccessToken:           tok.AccessToken,
		TokenType:             tok.TokenType,
		ExpiresIn:             extraInt(tok, "expires_in"),
		RefreshToken:          tok.RefreshToken,
		RefreshTokenExpiresIn: extraInt(tok, "refresh_token_expires_in"),
	}
}

// extraInt reads a numeric field from the raw token payload. JSON numbers
// decode as float64; form-encoded payloads carry strings.
func extraInt(tok *oauth2.Token, key string) int {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int(v)
	case json.Number:
		i, _ := v.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(v)
		return i
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
