package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zayatsoff/spm/internal/shared"
)

func TestBasicRouter(t *testing.T) {
	t.Run("routes requests by method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle("GET", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for wrong method, got %d", rec.Code)
		}
	})

	t.Run("applies middleware in registration order", func(t *testing.T) {
		var order []string
		mk := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mk("first"), mk("second"))
		router.Handle("GET", "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

		if len(order) != 2 || order[0] != "first" || order[1] != "second" {
			t.Errorf("expected [first second], got %v", order)
		}
	})

	t.Run("CORS middleware answers preflight directly", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(CORS("http://127.0.0.1:5173"))
		router.Handle("POST", "/token", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("preflight should not reach the handler")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/token", nil))

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204 for preflight, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://127.0.0.1:5173" {
			t.Errorf("expected origin header, got %q", got)
		}
	})
}

func TestTokenHandler(t *testing.T) {
	creds := shared.SpotifyConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://127.0.0.1:8080/callback",
	}

	newRequest := func(body any) *http.Request {
		data, _ := json.Marshal(body)
		req := httptest.NewRequest("POST", "/token", bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("rejects missing parameters without calling upstream", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("upstream should not be called for an invalid request")
		}))
		defer upstream.Close()

		handler := NewTokenHandler(creds, upstream.URL, shared.NewLogger(io.Discard))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(tokenRequest{Code: "abc"}))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("error response is not JSON: %v", err)
		}
		if resp.Error == "" {
			t.Error("expected an error message")
		}
	})

	t.Run("forwards the exchange with the secret attached", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse upstream form: %v", err)
			}
			if r.Form.Get("client_secret") != "client-secret" {
				t.Error("expected server-side secret in the upstream form")
			}
			if r.Form.Get("code_verifier") != "verifier-123" {
				t.Errorf("expected verifier forwarded, got %q", r.Form.Get("code_verifier"))
			}
			if r.Form.Get("grant_type") != "authorization_code" {
				t.Errorf("unexpected grant type %q", r.Form.Get("grant_type"))
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok","token_type":"Bearer"}`))
		}))
		defer upstream.Close()

		handler := NewTokenHandler(creds, upstream.URL, shared.NewLogger(io.Discard))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(tokenRequest{
			Code:         "abc",
			CodeVerifier: "verifier-123",
			RedirectURI:  creds.RedirectURI,
		}))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "access_token") {
			t.Error("expected upstream token body passed through")
		}
	})

	t.Run("propagates an upstream rejection status", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant"}`))
		}))
		defer upstream.Close()

		handler := NewTokenHandler(creds, upstream.URL, shared.NewLogger(io.Discard))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newRequest(tokenRequest{
			Code:         "expired",
			CodeVerifier: "verifier-123",
			RedirectURI:  creds.RedirectURI,
		}))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected upstream 400 propagated, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid_grant") {
			t.Error("expected upstream error details in the response")
		}
	})

	t.Run("config endpoint exposes only public fields", func(t *testing.T) {
		handler := NewTokenHandler(creds, "", shared.NewLogger(io.Discard))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/config", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		var cfg map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
			t.Fatalf("config response is not JSON: %v", err)
		}
		if cfg["clientId"] != "client-id" {
			t.Errorf("expected client id, got %q", cfg["clientId"])
		}
		if cfg["redirectUri"] != creds.RedirectURI {
			t.Errorf("expected redirect uri, got %q", cfg["redirectUri"])
		}
		if strings.Contains(rec.Body.String(), "client-secret") {
			t.Error("secret must never appear in the config response")
		}
	})
}

func TestListenAddr(t *testing.T) {
	if got := ListenAddr(shared.ServerConfig{Host: "0.0.0.0", Port: 9000}); got != "0.0.0.0:9000" {
		t.Errorf("expected explicit addr, got %q", got)
	}
	if got := ListenAddr(shared.ServerConfig{}); got != "127.0.0.1:8080" {
		t.Errorf("expected loopback default, got %q", got)
	}
}
