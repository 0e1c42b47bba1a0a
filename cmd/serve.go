package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/zayatsoff/spm/internal/server"
	"github.com/zayatsoff/spm/internal/shared"
	"github.com/zayatsoff/spm/internal/web"
)

// Serve runs the token exchange backend for browser clients. Credentials
// come from the config file with environment overrides; a .env file is
// loaded first when present so the secret never has to live in config.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := godotenv.Load(cmd.String("env")); err == nil {
		r.logger.Info("loaded environment overrides", "file", cmd.String("env"))
	}

	creds := r.config.Credentials.Spotify
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		creds.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		creds.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		creds.RedirectURI = v
	}

	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: client_id and client_secret are required to serve token exchange", shared.ErrMissingCredentials)
	}

	landing, err := web.NewLandingHandler()
	if err != nil {
		return fmt.Errorf("failed to load landing page: %w", err)
	}

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Use(server.CORS(cmd.String("origin")))
	router.Handler(landing)
	router.Handler(server.NewTokenHandler(creds, "", r.logger))

	addr := server.ListenAddr(r.config.Server)
	r.logger.Info("starting token exchange backend", "addr", addr)
	r.writePlain("Token exchange backend listening at http://%s\n", addr)
	r.writePlain("  POST /token   exchange an authorization code\n")
	r.writePlain("  GET  /config  public client configuration\n")

	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
