package handlers

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"oauth2-relay/internal/utils"
	"oauth2-relay/pkg/config"
)

// HealthHandler manages health check requests
type HealthHandler struct {
	Configuration *config.Config
	Log           *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(configuration *config.Config, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		Configuration: configuration,
		Log:           log,
	}
}

// ServeHTTP handles health check requests. The bank is not probed: a
// healthy relay with an unreachable bank still answers 200.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":         "healthy",
		"timestamp":      time.Now().Unix(),
		"version":        Version,
		"git_commit":     GitCommit,
		"build_time":     BuildTime,
		"service":        h.Configuration.Tracing.ServiceName,
		"validate_state": h.Configuration.Security.ValidateState,
	}

	utils.WriteJSONResponse(w, http.StatusOK, response, h.Log)
}
