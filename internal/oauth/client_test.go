package oauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"oauth2-relay/pkg/config"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(tokenURI string) *Client {
	cfg := config.OAuthClientConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURI:  "http://localhost:8080/callback",
		TokenURI:     tokenURI,
		AuthorizeURI: "https://auth.example.test/oauth/authorize",
		AuthorizeParams: map[string]string{
			"finInst": "fid-test",
		},
	}
	return NewClient(cfg, &http.Client{Timeout: 5 * time.Second}, newTestLogger())
}

func TestExchangeCodeForToken(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","expires_in":3600,"refresh_token":"rt","refresh_token_expires_in":7200}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL + "/oauth/token")
	resp, err := client.ExchangeCodeForToken(context.Background(), "test-code", "test-state")
	if err != nil {
		t.Fatalf("ExchangeCodeForToken failed: %v", err)
	}

	expectedForm := map[string]string{
		"client_id":     "test-client-id",
		"client_secret": "test-client-secret",
		"code":          "test-code",
		"grant_type":    "authorization_code",
		"state":         "test-state",
		"redirect_uri":  "http://localhost:8080/callback",
	}
	for k, v := range expectedForm {
		if got := form.Get(k); got != v {
			t.Fatalf("form field %s: expected %q, got %q", k, v, got)
		}
	}

	if resp.AccessToken != "abc" {
		t.Fatalf("unexpected access token: %s", resp.AccessToken)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("unexpected token type: %s", resp.TokenType)
	}
	if resp.ExpiresIn != 3600 {
		t.Fatalf("unexpected expires_in: %d", resp.ExpiresIn)
	}
	if resp.RefreshToken != "rt" {
		t.Fatalf("unexpected refresh token: %s", resp.RefreshToken)
	}
	if resp.RefreshTokenExpiresIn != 7200 {
		t.Fatalf("unexpected refresh_token_expires_in: %d", resp.RefreshTokenExpiresIn)
	}
}

func TestExchangeCodeForToken_OptionalFieldsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).ExchangeCodeForToken(context.Background(), "code", "state")
	if err != nil {
		t.Fatalf("ExchangeCodeForToken failed: %v", err)
	}
	if resp.RefreshToken != "" || resp.RefreshTokenExpiresIn != 0 {
		t.Fatalf("expected empty refresh token fields, got %+v", resp)
	}
}

func TestExchangeCodeForToken_JSONWithTextPlain(t *testing.T) {
	for _, contentType := range []string{
		"text/plain",
		"text/plain; charset=utf-8",
		"application/x-www-form-urlencoded",
	} {
		t.Run(contentType, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", contentType)
				w.Write([]byte(`{"access_token":"abc","token_type":"Bearer","expires_in":3600}`))
			}))
			defer srv.Close()

			resp, err := newTestClient(srv.URL).ExchangeCodeForToken(context.Background(), "code", "state")
			if err != nil {
				t.Fatalf("ExchangeCodeForToken failed: %v", err)
			}
			if resp.AccessToken != "abc" || resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 {
				t.Fatalf("unexpected token response: %+v", resp)
			}
		})
	}
}

func TestExchangeCodeForToken_FormEncodedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		w.Write([]byte("access_token=abc&token_type=Bearer&expires_in=3600"))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).ExchangeCodeForToken(context.Background(), "code", "state")
	if err != nil {
		t.Fatalf("ExchangeCodeForToken failed: %v", err)
	}
	if resp.AccessToken != "abc" || resp.ExpiresIn != 3600 {
		t.Fatalf("unexpected token response: %+v", resp)
	}
}

func TestExchangeCodeForToken_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "code already used",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"authorization code already used"}`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"access_token":`))
			},
		},
		{
			name: "missing access token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"token_type":"Bearer","expires_in":3600}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			resp, err := newTestClient(srv.URL).ExchangeCodeForToken(context.Background(), "code", "state")
			if err == nil {
				t.Fatalf("expected failure, got %+v", resp)
			}
			var failure *Failure
			if !errors.As(err, &failure) {
				t.Fatalf("expected *Failure, got %T: %v", err, err)
			}
		})
	}
}

func TestExchangeCodeForToken_UpstreamStatusIsPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized_client", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ExchangeCodeForToken(context.Background(), "code", "state")
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		t.Fatalf("expected wrapped RetrieveError, got %v", err)
	}
	if retrieveErr.Response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected upstream status: %d", retrieveErr.Response.StatusCode)
	}
}

func TestExchangeCodeForToken_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	tokenURI := srv.URL
	srv.Close()

	_, err := newTestClient(tokenURI).ExchangeCodeForToken(context.Background(), "code", "state")
	var failure *Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *Failure for unreachable endpoint, got %v", err)
	}
}

func TestAuthCodeURL(t *testing.T) {
	client := newTestClient("https://example.test/oauth/token")

	raw := client.AuthCodeURL("test-state")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid authorize URL %q: %v", raw, err)
	}

	if u.Host != "auth.example.test" || u.Path != "/oauth/authorize" {
		t.Fatalf("unexpected authorize endpoint: %s", raw)
	}
	q := u.Query()
	expected := map[string]string{
		"client_id":     "test-client-id",
		"redirect_uri":  "http://localhost:8080/callback",
		"response_type": "code",
		"state":         "test-state",
		"finInst":       "fid-test",
	}
	for k, v := range expected {
		if got := q.Get(k); got != v {
			t.Fatalf("query %s: expected %q, got %q", k, v, got)
		}
	}
}
