package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"oauth2-relay/internal/banking"
	"oauth2-relay/internal/handlers"
	"oauth2-relay/internal/metrics"
	"oauth2-relay/internal/middleware"
	"oauth2-relay/internal/oauth"
	"oauth2-relay/pkg/config"
)

// newHandler wires the clients and handlers and returns the fully wrapped
// root handler
func newHandler(cfg *config.Config, log *logrus.Logger, reg *prometheus.Registry, httpClient *http.Client) http.Handler {
	mc := metrics.NewMetricsCollector(reg, log)

	tokens := oauth.NewClient(cfg.OAuth, httpClient, log)
	accounts := banking.NewClient(cfg.Banking.AccountsURI, httpClient, log)

	var states *oauth.StateIssuer
	if cfg.Security.ValidateState {
		states = oauth.NewStateIssuer(cfg.Security.StateSigningKey, time.Duration(cfg.Security.StateTTLSeconds)*time.Second)
	}

	router := mux.NewRouter()
	router.Handle("/", handlers.NewHomeHandler(log)).Methods(http.MethodGet)
	router.Handle("/login", handlers.NewLoginHandler(tokens, states, cfg.OAuth.RedirectURI, log, mc)).Methods(http.MethodGet)
	router.Handle("/callback", handlers.NewCallbackHandler(tokens, accounts, states, log, mc)).Methods(http.MethodGet)
	router.Handle("/health", handlers.NewHealthHandler(cfg, log)).Methods(http.MethodGet)
	router.Handle("/version", handlers.NewVersionHandler(log)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})).Methods(http.MethodGet)

	chain := middleware.Chain(router,
		middleware.RequestID,
		middleware.Logger(log),
		mc.Middleware,
		middleware.Recover(log),
	)

	return otelhttp.NewHandler(chain, cfg.Tracing.ServiceName)
}
