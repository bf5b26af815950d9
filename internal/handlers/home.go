package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"
)

//go:embed templates/home.html
var templateFS embed.FS

var homeTemplate = template.Must(template.ParseFS(templateFS, "templates/home.html"))

type homePage struct {
	Title     string
	LoginPath string
	Version   string
}

// HomeHandler serves the landing page
type HomeHandler struct {
	Log *logrus.Logger
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(log *logrus.Logger) *HomeHandler {
	return &HomeHandler{Log: log}
}

// ServeHTTP handles GET /
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := homeTemplate.Execute(w, homePage{
		Title:     "Sparebank 1 API call",
		LoginPath: "/login",
		Version:   Version,
	})
	if err != nil {
		h.Log.Errorf("❌ Error rendering home page: %v", err)
	}
}
