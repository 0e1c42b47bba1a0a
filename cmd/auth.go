package main

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/zayatsoff/spm/internal/server"
	"github.com/zayatsoff/spm/internal/services"
	"github.com/zayatsoff/spm/internal/shared"
)

// AuthLogin performs the OAuth2 authorization code flow with PKCE.
//
// Starts a local HTTP server on the redirect address, opens the browser
// for user authorization, exchanges the code for tokens, and persists
// them for later commands.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if creds.ClientID == "" {
		return fmt.Errorf("%w: Spotify client_id must be set in config.toml", shared.ErrInvalidConfig)
	}
	if err := services.ValidateRedirectURI(creds.RedirectURI); err != nil {
		return err
	}

	token, err := r.doOAuth(creds)
	if err != nil {
		return err
	}

	store, ok := r.ensureTokens().(*services.FileTokenStore)
	if !ok {
		return fmt.Errorf("token store does not support saving")
	}
	if err := store.Save(token); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", filepath.Join(r.dataDir(), "token.json"))
	r.writePlain("You can now use: spm playlists\n")

	return nil
}

// doOAuth executes the OAuth2 + PKCE authorization flow with a local HTTP server
func (r *Runner) doOAuth(creds shared.SpotifyConfig) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	authConfig := services.NewAuthConfig(creds)
	authURL := authConfig.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))

	oauthHandler := server.NewOAuthHandler(authConfig, state, verifier)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := server.ListenAddr(r.config.Server)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}

// AuthStatus reports whether a usable token is stored.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	store, ok := r.ensureTokens().(*services.FileTokenStore)
	if !ok {
		return fmt.Errorf("token store does not support inspection")
	}

	if !store.Authenticated() {
		r.writePlain("✗ Not authenticated. Run 'spm auth login'.\n")
		return nil
	}

	if _, err := store.Token(ctx); err != nil {
		r.writePlain("⚠ Stored token is unusable: %v\n", err)
		r.writePlain("Run 'spm auth login' to reauthenticate.\n")
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	return nil
}

// AuthLogout discards the stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureTokens().Invalidate(); err != nil {
		return fmt.Errorf("failed to discard tokens: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}
