package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/zayatsoff/spm/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// NewAuthConfig builds the oauth2 config for the PKCE login flow.
func NewAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// ValidateRedirectURI checks a redirect URI against the provider's
// rules: the literal hostname "localhost" is rejected; loopback must use
// 127.0.0.1, and any other host must use https.
func ValidateRedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid redirect URI: %w", err)
	}

	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("redirect URI must use 127.0.0.1 instead of localhost: %w", shared.ErrInvalidConfig)
	}
	if host != "127.0.0.1" && u.Scheme != "https" {
		return fmt.Errorf("redirect URI must be loopback or https: %w", shared.ErrInvalidConfig)
	}

	return nil
}

// FileTokenStore implements [TokenSource] over a JSON token file. Tokens
// are refreshed through the oauth2 config when expired and the refreshed
// token is written back, so long-lived CLI sessions keep working.
type FileTokenStore struct {
	mu     sync.Mutex
	path   string
	config *oauth2.Config
	token  *oauth2.Token
}

// NewFileTokenStore creates a store persisting tokens at path.
func NewFileTokenStore(path string, config *oauth2.Config) *FileTokenStore {
	return &FileTokenStore{path: path, config: config}
}

// Token returns a valid bearer token, refreshing and persisting when the
// stored token has expired. Returns [shared.ErrNotAuthenticated] when no
// token has been saved.
func (s *FileTokenStore) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		tok, err := s.load()
		if err != nil {
			return "", err
		}
		s.token = tok
	}

	if s.token.Valid() {
		return s.token.AccessToken, nil
	}

	if s.token.RefreshToken == "" {
		return "", fmt.Errorf("token expired: %w", shared.ErrNoRefreshToken)
	}

	refreshed, err := s.config.TokenSource(ctx, s.token).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	s.token = refreshed
	if err := s.persist(refreshed); err != nil {
		return "", err
	}

	return refreshed.AccessToken, nil
}

// Save persists a freshly exchanged token.
func (s *FileTokenStore) Save(token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token

	return s.persist(token)
}

// Invalidate discards the stored token. Called after the API reports 401.
func (s *FileTokenStore) Invalidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}

	return nil
}

// Authenticated reports whether a token file exists.
func (s *FileTokenStore) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil {
		return true
	}

	_, err := os.Stat(s.path)

	return err == nil
}

func (s *FileTokenStore) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

func (s *FileTokenStore) persist(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// StaticTokenSource returns a TokenSource that always yields the given
// token and ignores invalidation. Useful in tests and demo mode.
func StaticTokenSource(token string) TokenSource {
	return staticTokenSource{token: token}
}

type staticTokenSource struct {
	token string
}

func (s staticTokenSource) Token(ctx context.Context) (string, error) {
	return s.token, nil
}

func (s staticTokenSource) Invalidate() error {
	return nil
}
