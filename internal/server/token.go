package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/zayatsoff/spm/internal/shared"
)

const defaultTokenEndpoint = "https://accounts.spotify.com/api/token"

// TokenHandler exchanges authorization codes on behalf of clients that
// cannot hold the client secret. Browser clients complete the PKCE flow
// and post the code here; the handler attaches the secret and forwards
// the exchange to the account service's token endpoint.
//
// The upstream status code and body are propagated so clients see the
// real failure, not a generic 500.
type TokenHandler struct {
	creds         shared.SpotifyConfig
	tokenEndpoint string
	httpClient    *http.Client
	logger        *log.Logger
}

// NewTokenHandler creates a token exchange handler backed by the given
// credentials. tokenEndpoint overrides the account service URL and is
// meant for tests; pass "" for the real endpoint.
func NewTokenHandler(creds shared.SpotifyConfig, tokenEndpoint string, logger *log.Logger) *TokenHandler {
	if tokenEndpoint == "" {
		tokenEndpoint = defaultTokenEndpoint
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &TokenHandler{
		creds:         creds,
		tokenEndpoint: tokenEndpoint,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *TokenHandler) Routes() []string {
	return []string{"/token", "/config"}
}

type tokenRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"codeVerifier"`
	RedirectURI  string `json:"redirectUri"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/config"):
		h.serveConfig(w, r)
	default:
		h.serveToken(w, r)
	}
}

// serveConfig exposes the public client configuration so a browser
// client can start the authorization flow without its own config file.
func (h *TokenHandler) serveConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"clientId":    h.creds.ClientID,
		"redirectUri": h.creds.RedirectURI,
	})
}

// serveToken validates the request and forwards the code exchange
// upstream. Missing parameters are rejected before any remote call.
func (h *TokenHandler) serveToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.Code == "" || req.CodeVerifier == "" || req.RedirectURI == "" {
		writeError(w, http.StatusBadRequest, "missing required parameters",
			"code, codeVerifier and redirectUri are required")
		return
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {req.Code},
		"redirect_uri":  {req.RedirectURI},
		"code_verifier": {req.CodeVerifier},
		"client_id":     {h.creds.ClientID},
		"client_secret": {h.creds.ClientSecret},
	}

	upstream, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.tokenEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build upstream request", err.Error())
		return
	}
	upstream.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := h.httpClient.Do(upstream)
	if err != nil {
		h.logger.Error("token exchange upstream failed", "error", err)
		writeError(w, http.StatusBadGateway, "token exchange failed", err.Error())
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to read upstream response", err.Error())
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("token exchange rejected upstream", "status", resp.StatusCode)
		writeError(w, resp.StatusCode, "token exchange failed", string(body))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// ListenAddr formats the configured host and port for http.ListenAndServe.
func ListenAddr(cfg shared.ServerConfig) string {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 8080
	}

	return fmt.Sprintf("%s:%d", host, port)
}
