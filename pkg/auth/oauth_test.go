package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/harrisonrobin/tugas/pkg/logging"
)

func TestNormalizeRedirectURL(t *testing.T) {
	tests := []struct {
		in       string
		want     string
		wantNote bool
	}{
		{"http://localhost", "http://localhost:6789", false},
		{"http://localhost:6789/cb", "http://localhost:6789/cb", false},
		{"http://127.0.0.1:8080/cb", "http://127.0.0.1:6789/cb", true},
		{"urn:ietf:wg:oauth:2.0:oob", "http://localhost:6789/oauth2callback", true},
		{"https://example.com/cb", "https://example.com/cb", true},
	}
	for _, tt := range tests {
		got, note := NormalizeRedirectURL(tt.in)
		if got != tt.want {
			t.Errorf("NormalizeRedirectURL(%q): got %q, want %q", tt.in, got, tt.want)
		}
		if (note != "") != tt.wantNote {
			t.Errorf("NormalizeRedirectURL(%q): note %q", tt.in, note)
		}
	}
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", TokenFile)
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := saveToken(path, tok); err != nil {
		t.Fatalf("saveToken failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions: got %o", info.Mode().Perm())
	}
	got, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("tokenFromFile failed: %v", err)
	}
	if got.AccessToken != "a" || got.RefreshToken != "r" || !got.Expiry.Equal(tok.Expiry) {
		t.Errorf("round trip: got %+v", got)
	}
}

func TestGetConfigMissingSecrets(t *testing.T) {
	_, err := GetConfig(t.TempDir(), []string{"scope"}, logging.Discard())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("GetConfig: expected a not-exist error, got %v", err)
	}
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestSavingSourceWritesRefreshedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokenFile)
	old := &oauth2.Token{AccessToken: "old"}
	fresh := &oauth2.Token{AccessToken: "new", RefreshToken: "r"}
	src := &savingSource{base: staticSource{fresh}, path: path, last: old, logger: logging.Discard()}

	if _, err := src.Token(); err != nil {
		t.Fatal(err)
	}
	got, err := tokenFromFile(path)
	if err != nil {
		t.Fatalf("refreshed token was not saved: %v", err)
	}
	if got.AccessToken != "new" {
		t.Errorf("saved token: got %+v", got)
	}
}
