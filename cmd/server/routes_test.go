package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oauth2-relay/pkg/config"
)

func newTestBank(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-access-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /personal/banking/accounts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"accounts":[{"id":"123"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRelay(t *testing.T, bankURL string) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.OAuth.ClientID = "test-client-id"
	cfg.OAuth.ClientSecret = "test-client-secret"
	cfg.OAuth.RedirectURI = "http://localhost:8080/callback"
	cfg.OAuth.TokenURI = bankURL + "/oauth/token"
	cfg.Banking.AccountsURI = bankURL + "/personal/banking/accounts"
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	relay := httptest.NewServer(newHandler(cfg, logger, prometheus.NewRegistry(), &http.Client{Timeout: 5 * time.Second}))
	t.Cleanup(relay.Close)
	return relay
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestRoutes(t *testing.T) {
	bank := newTestBank(t)
	relay := newTestRelay(t, bank.URL)

	resp, body := get(t, relay.URL+"/callback?code=test-code&state=test-state")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"accounts":[{"id":"123"}]}`, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, body = get(t, relay.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sparebank 1 API call")

	resp, _ = get(t, relay.URL+"/login")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), config.DefaultAuthorizeURI)

	resp, _ = get(t, relay.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, relay.URL+"/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, relay.URL+"/no-such-page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, relay.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `oauth2_relay_callbacks_total{result="success"} 1`)
	assert.Contains(t, body, "oauth2_relay_upstream_requests_total")
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	relay := newTestRelay(t, newTestBank(t).URL)

	resp, err := http.Post(relay.URL+"/callback?code=c&state=s", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestConfigureLogger(t *testing.T) {
	logger := logrus.New()

	configureLogger(logger, config.LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	configureLogger(logger, config.LoggingConfig{Level: "bogus", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
