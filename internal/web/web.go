// Package web serves the token backend's static landing page.
//
// The page documents the endpoints browser clients use to complete the
// PKCE authorization flow without holding the client secret. The assets
// are embedded so the binary stays self-contained.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// LandingHandler serves the embedded landing page at the site root.
// Implements the server Handler interface.
type LandingHandler struct {
	fileServer http.Handler
}

// NewLandingHandler creates a handler over the embedded assets.
func NewLandingHandler() (*LandingHandler, error) {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	return &LandingHandler{fileServer: http.FileServer(http.FS(sub))}, nil
}

// Routes returns the HTTP routes this handler serves.
func (h *LandingHandler) Routes() []string {
	return []string{"/"}
}

func (h *LandingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.fileServer.ServeHTTP(w, r)
}
