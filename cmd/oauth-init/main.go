// Command oauth-init runs the installed-app OAuth flow once and stores the
// token used by finanse-worker to write the spreadsheet.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"finanse/internal/cli"
)

const authTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	clientJSON, err := loadClientJSON()
	if err != nil {
		logger.Error("Failed to load OAuth client", "error", err)
		os.Exit(1)
	}
	cfg, err := google.ConfigFromJSON(clientJSON, sheets.SpreadsheetsScope)
	if err != nil {
		logger.Error("Invalid OAuth client", "error", err)
		os.Exit(1)
	}

	// The redirect URI must be listed in the OAuth client's authorized URIs.
	port := envOr("OAUTH_REDIRECT_PORT", "8085")
	cfg.RedirectURL = "http://localhost:" + port + "/callback"
	state := uuid.NewString()

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", callbackHandler(state, codeCh))
	srv := &http.Server{Addr: "localhost:" + port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Callback server failed", "error", err)
		}
	}()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		logger.Error("Authorization aborted", "error", ctx.Err())
		os.Exit(1)
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		logger.Error("Token exchange failed", "error", err)
		os.Exit(1)
	}
	out := envOr("GOOGLE_TOKEN_FILE", "token.json")
	if err := saveToken(out, tok); err != nil {
		logger.Error("Failed to save token", "error", err, "path", out)
		os.Exit(1)
	}
	logger.Info("Saved OAuth token", "path", out)
}

// loadClientJSON reads the OAuth client from GOOGLE_OAUTH_CLIENT_JSON or the
// file named by GOOGLE_OAUTH_CLIENT_FILE.
func loadClientJSON() ([]byte, error) {
	if raw := os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"); raw != "" {
		return []byte(raw), nil
	}
	path := os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")
	if path == "" {
		return nil, errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client file: %w", err)
	}
	return b, nil
}

func callbackHandler(state string, codeCh chan<- string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			http.Error(w, "OAuth error: "+e, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		select {
		case codeCh <- code:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
		default:
			http.Error(w, "authorization already received", http.StatusConflict)
		}
	}
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
