package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns the client shared by all upstream calls. Requests are
// traced through the global OpenTelemetry provider (a no-op unless tracing is on).
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// WriteJSONResponse writes a JSON response with the given status code and data
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}, logger *logrus.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("❌ Error encoding JSON response: %v", err)
	}
}

// WriteRawResponse writes body unmodified with the given content type
func WriteRawResponse(w http.ResponseWriter, statusCode int, contentType string, body []byte, logger *logrus.Logger) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		logger.Errorf("❌ Error writing response body: %v", err)
	}
}
