package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/harrisonrobin/sonrisas/pkg/config"
)

func TestRecordStoreClientBearerToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := RecordStoreClient(context.Background(), config.API{Token: "secreto", Timeout: 5 * time.Second})
	if c.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", c.Timeout)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got != "Bearer secreto" {
		t.Errorf("Expected bearer header, got %q", got)
	}

	got = ""
	plain := RecordStoreClient(context.Background(), config.API{Timeout: time.Second})
	resp, err = plain.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got != "" {
		t.Errorf("Expected no Authorization header, got %q", got)
	}
}

func TestLocalRedirect(t *testing.T) {
	tests := []struct {
		in       string
		expected string
		changed  bool
	}{
		{"urn:ietf:wg:oauth:2.0:oob", "http://localhost:6789/oauth2callback", true},
		{"", "http://localhost:6789/oauth2callback", true},
		{"http://localhost", "http://localhost:6789", true},
		{"http://127.0.0.1:9999/cb", "http://127.0.0.1:6789/cb", true},
		{"http://localhost:6789/cb", "http://localhost:6789/cb", false},
		{"https://example.com/cb", "https://example.com/cb", false},
	}
	for _, tt := range tests {
		got, changed := localRedirect(tt.in)
		if got != tt.expected || changed != tt.changed {
			t.Errorf("localRedirect(%q): Expected (%q, %v), got (%q, %v)", tt.in, tt.expected, tt.changed, got, changed)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", TokenFile)
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}
	if err := saveToken(path, tok); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}
	loaded, err := loadToken(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.AccessToken != "a" || loaded.RefreshToken != "r" {
		t.Errorf("Expected stored token, got %+v", loaded)
	}
}

func TestCallbackHandler(t *testing.T) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	h := callbackHandler(codeCh, errCh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback?"+url.Values{"code": {"xyz"}}.Encode(), nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if code := <-codeCh; code != "xyz" {
		t.Errorf("Expected code xyz, got %q", code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2callback", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if err := <-errCh; err == nil {
		t.Error("Expected error for missing code")
	}
}

func TestConfigMissingSecrets(t *testing.T) {
	g := &Google{Dir: t.TempDir()}
	if _, err := g.Config(CalendarScopes); err == nil {
		t.Error("Expected error without credentials.json")
	}
}
