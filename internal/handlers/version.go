package handlers

import (
	"net/http"
	"runtime"

	"github.com/sirupsen/logrus"

	"oauth2-relay/internal/utils"
)

// Build metadata, overridden with -ldflags "-X oauth2-relay/internal/handlers.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// VersionInfo is the body of GET /version
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Service   string `json:"service"`
}

// CurrentVersion returns the running build's metadata
func CurrentVersion() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Service:   "Sparebank 1 OAuth2 Relay",
	}
}

// SetVersionInfo sets the version information (called from main)
func SetVersionInfo(version, gitCommit, buildTime string) {
	Version = version
	GitCommit = gitCommit
	BuildTime = buildTime
}

// VersionHandler reports build metadata
type VersionHandler struct {
	Log *logrus.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(log *logrus.Logger) *VersionHandler {
	return &VersionHandler{Log: log}
}

func (h *VersionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, CurrentVersion(), h.Log)
}
