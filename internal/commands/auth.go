package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkey/internal/server"
	"github.com/desertthunder/spotkey/internal/services"
	"github.com/desertthunder/spotkey/internal/shared"
	"github.com/desertthunder/spotkey/internal/store"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultAuthTimeout = 2 * time.Minute

// Auth performs the OAuth2 flow for Spotify and saves the token to the config file.
//
// Starts a local HTTP server on the redirect URI, opens the browser for consent and waits for the callback.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	st, config, err := r.openStore(cmd.String("config"))
	if err != nil {
		return err
	}

	svc, err := r.newSpotifyService(config, st)
	if err != nil {
		return err
	}

	tok, err := r.authorize(ctx, config, svc, cmd.Duration("timeout"), true)
	if err != nil {
		return err
	}
	if err := persistToken(st, tok); err != nil {
		return err
	}
	svc.Connect(ctx, tok)

	user, err := svc.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Signed in as %s\n", user)
	r.writePlain("✓ Token saved to %s\n\n", st.Path())
	r.writePlain("You can now use: spotkey run\n")
	return nil
}

// newSpotifyService builds the remote from the stored credentials. Every refreshed token is
// written back to the store.
func (r *Runner) newSpotifyService(config *shared.Config, st *store.File) (*services.SpotifyService, error) {
	if config.Credentials.ClientID == "" || config.Credentials.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret must be set in %s or SPOTIFY_ID/SPOTIFY_SECRET", shared.ErrMissingCredentials, st.Path())
	}

	svc, err := services.NewSpotifyService(config.Credentials.Map(), services.WithRateLimit(config.Server.RequestsPerSecond))
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	logger := r.logger
	svc.SetTokenRefreshCallback(func(tok *oauth2.Token) {
		if err := persistToken(st, tok); err != nil {
			logger.Error("failed to save refreshed token", "error", err)
			return
		}
		logger.Debug("token refreshed", "expiry", tok.Expiry)
	})
	return svc, nil
}

func persistToken(st *store.File, tok *oauth2.Token) error {
	if err := st.SetValues("credentials", shared.TokenValues(tok)); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}
	return nil
}

// authorize serves the callback on the redirect URI's address until a token arrives or timeout elapses.
func (r *Runner) authorize(ctx context.Context, config *shared.Config, svc *services.SpotifyService, timeout time.Duration, spin bool) (*oauth2.Token, error) {
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}

	oauthConfig := svc.GetOAuthConfig()
	handler := server.NewOAuthHandler(oauthConfig, server.NewState())
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(handler)

	srv := server.NewServer(callbackAddr(oauthConfig.RedirectURL, config.Server), router, shared.WithLogger(r.logger, "component", "oauth"))
	if err := srv.Listen(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	serveCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- srv.Run(serveCtx) }()
	defer func() {
		stop()
		if err := <-done; err != nil {
			r.logger.Warn("oauth server stopped", "error", err)
		}
	}()

	authURL := handler.AuthURL()
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	var tok *oauth2.Token
	wait := func(ctx context.Context) error {
		var err error
		tok, err = handler.Wait(ctx)
		return err
	}

	var err error
	if spin {
		err = spinner.New().
			Title(fmt.Sprintf("Waiting for authorization (%s timeout)...", timeout)).
			Context(ctx).
			ActionWithErr(wait).
			Run()
	} else {
		err = wait(ctx)
	}
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return tok, nil
}

// callbackAddr is the host:port of the redirect URI, falling back to the server config.
func callbackAddr(redirectURI string, fallback shared.ServerConfig) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Port() == "" {
		return fallback.Addr()
	}
	return u.Host
}

// connect uses the stored token or runs the browser flow when there is none.
func (r *Runner) connect(ctx context.Context, config *shared.Config, st *store.File, svc *services.SpotifyService, logger *log.Logger) error {
	if tok := config.Credentials.Token(); tok != nil {
		svc.Connect(ctx, tok)
		return nil
	}

	logger.Info("no stored token, starting authorization")
	tok, err := r.authorize(ctx, config, svc, defaultAuthTimeout, false)
	if err != nil {
		return err
	}
	if err := persistToken(st, tok); err != nil {
		logger.Error("failed to save token", "error", err)
	}
	svc.Connect(ctx, tok)
	return nil
}
