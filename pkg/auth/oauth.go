// Package auth builds the authenticated HTTP clients: a bearer token client
// for the Record Store and the Google OAuth client used by the agenda export.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/sonrisas/pkg/config"
)

const (
	// ClientSecretsFile is the Google API credentials.json downloaded from the
	// Cloud Console, expected in the config directory.
	ClientSecretsFile = "credentials.json"

	// TokenFile holds the user's access and refresh token.
	TokenFile = "token.json"

	// LocalhostAuthPort receives the OAuth redirect.
	LocalhostAuthPort = "6789"

	authTimeout = 5 * time.Minute
)

// CalendarScopes are requested for the agenda export.
var CalendarScopes = []string{
	calendar.CalendarEventsScope,
	calendar.CalendarReadonlyScope,
}

// RecordStoreClient returns the HTTP client for the Record Store. When a
// token is configured every request carries it as a bearer token.
func RecordStoreClient(ctx context.Context, api config.API) *http.Client {
	if api.Token == "" {
		return &http.Client{Timeout: api.Timeout}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: api.Token, TokenType: "Bearer"})
	c := oauth2.NewClient(ctx, ts)
	c.Timeout = api.Timeout
	return c
}

// Google runs the OAuth flow against the credentials stored in Dir.
type Google struct {
	Dir string
	Log logrus.FieldLogger
	// Out receives the authorization URL the user has to open.
	Out io.Writer
}

func (g *Google) tokenPath() string { return filepath.Join(g.Dir, TokenFile) }

// Config reads the client secrets and pins the redirect to the local
// callback server.
func (g *Google) Config(scopes []string) (*oauth2.Config, error) {
	path := filepath.Join(g.Dir, ClientSecretsFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", path, err)
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	redirect, changed := localRedirect(cfg.RedirectURL)
	if changed {
		g.Log.WithFields(logrus.Fields{"from": cfg.RedirectURL, "to": redirect}).Debug("rewrote OAuth redirect URL")
	}
	cfg.RedirectURL = redirect
	return cfg, nil
}

// localRedirect forces localhost and out-of-band redirect URLs onto
// LocalhostAuthPort. Other URLs are returned unchanged.
func localRedirect(raw string) (string, bool) {
	if raw == "" || raw == "urn:ietf:wg:oauth:2.0:oob" {
		return fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort), true
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw, false
	}
	host := u.Hostname()
	if host != "localhost" && host != "127.0.0.1" {
		return raw, false
	}
	if u.Port() == LocalhostAuthPort {
		return raw, false
	}
	u.Host = net.JoinHostPort(host, LocalhostAuthPort)
	return u.String(), true
}

// Client returns an HTTP client that refreshes its token automatically. A
// missing token starts the browser authorization flow.
func (g *Google) Client(ctx context.Context, scopes []string) (*http.Client, error) {
	cfg, err := g.Config(scopes)
	if err != nil {
		return nil, err
	}

	tok, err := loadToken(g.tokenPath())
	if err != nil {
		g.Log.WithField("path", g.tokenPath()).Info("no stored token, starting web authorization")
		tok, err = g.tokenFromWeb(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to get token from web: %w", err)
		}
		if err := saveToken(g.tokenPath(), tok); err != nil {
			return nil, err
		}
	}

	// persist refreshed tokens so the next run starts from them
	ts := cfg.TokenSource(ctx, tok)
	current, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("unable to refresh token: %w", err)
	}
	if current.AccessToken != tok.AccessToken || current.RefreshToken != tok.RefreshToken {
		if err := saveToken(g.tokenPath(), current); err != nil {
			g.Log.WithError(err).Warn("could not store refreshed token")
		}
	}
	return oauth2.NewClient(ctx, ts), nil
}

// Login discards any stored token and authorizes again.
func (g *Google) Login(ctx context.Context) error {
	if err := os.Remove(g.tokenPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not delete token file %s: %w", g.tokenPath(), err)
	}
	_, err := g.CalendarService(ctx)
	return err
}

// CalendarService creates an authenticated Google Calendar service.
func (g *Google) CalendarService(ctx context.Context) (*calendar.Service, error) {
	client, err := g.Client(ctx, CalendarScopes)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client for Calendar API: %w", err)
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Google Calendar service: %w", err)
	}
	return srv, nil
}

// tokenFromWeb runs the authorization code flow with a local server
// capturing the redirect.
func (g *Google) tokenFromWeb(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", ":"+LocalhostAuthPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on port %s: %w", LocalhostAuthPort, err)
	}

	server := &http.Server{
		Handler:      callbackHandler(codeCh, errCh),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("HTTP server error: %w", err):
			default:
			}
		}
	}()
	defer server.Close()

	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(g.Out, "Abra la siguiente URL en su navegador para autorizar Sonrisas:\n%s\n", authURL)
	g.Log.WithField("redirect", cfg.RedirectURL).Info("waiting for authorization code")

	select {
	case code := <-codeCh:
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		return nil, errors.New("authorization timed out, please try again")
	}
}

func callbackHandler(codeCh chan<- string, errCh chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Authorization code not found", http.StatusBadRequest)
			select {
			case errCh <- errors.New("authorization code not found in redirect URL"):
			default:
			}
			return
		}
		fmt.Fprint(w, "Autenticación exitosa. Puede cerrar esta ventana.")
		select {
		case codeCh <- code:
		default:
		}
	})
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("could not create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", path, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
