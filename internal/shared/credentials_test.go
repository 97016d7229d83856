package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func TestCredentials(t *testing.T) {
	t.Run("Empty Store", func(t *testing.T) {
		creds := NewCredentials("")

		_, err := creds.Token()
		if !errors.Is(err, ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}

		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Errorf("expected *AuthenticationError, got %T", err)
		}

		if creds.Authenticated() {
			t.Error("empty store should not be authenticated")
		}
	})

	t.Run("Set Reads JWT Claims", func(t *testing.T) {
		creds := NewCredentials("")
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		access := signedToken(t, jwt.MapClaims{"sub": 42, "exp": exp.Unix()})

		if err := creds.Set(access, "refresh"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		tok, err := creds.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok.AccessToken != access || tok.RefreshToken != "refresh" {
			t.Error("token pair not stored")
		}
		if !tok.Expiry.Equal(exp) {
			t.Errorf("expected expiry %v, got %v", exp, tok.Expiry)
		}

		id, ok := creds.UserID()
		if !ok || id != 42 {
			t.Errorf("expected user id 42, got %d (%v)", id, ok)
		}
	})

	t.Run("String Subject", func(t *testing.T) {
		creds := NewCredentials("")
		if err := creds.Set(signedToken(t, jwt.MapClaims{"sub": "7"}), ""); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if id, _ := creds.UserID(); id != 7 {
			t.Errorf("expected user id 7, got %d", id)
		}
	})

	t.Run("Opaque Token", func(t *testing.T) {
		creds := NewCredentials("")
		if err := creds.Set("opaque-token", ""); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if !creds.Authenticated() {
			t.Error("opaque token should be usable")
		}
		if _, ok := creds.UserID(); ok {
			t.Error("opaque token carries no user id")
		}
	})

	t.Run("Expired Token", func(t *testing.T) {
		creds := NewCredentials("")
		access := signedToken(t, jwt.MapClaims{"sub": 1, "exp": time.Now().Add(-time.Hour).Unix()})
		if err := creds.Set(access, ""); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		_, err := creds.Token()
		if !errors.Is(err, ErrNotAuthenticated) || !errors.Is(err, ErrTokenExpired) {
			t.Errorf("expected expired authentication error, got %v", err)
		}
	})

	t.Run("Empty Access Token", func(t *testing.T) {
		if err := NewCredentials("").Set("", "x"); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Persist Load Clear", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "credentials.json")
		creds := NewCredentials(path)
		if err := creds.Set("opaque-token", "refresh"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if err := creds.SetUserID(9); err != nil {
			t.Fatalf("SetUserID() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("credentials file should exist: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
		}

		restored := NewCredentials(path)
		if err := restored.Load(); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		tok, err := restored.Token()
		if err != nil || tok.AccessToken != "opaque-token" {
			t.Fatalf("restored token mismatch: %v %v", tok, err)
		}
		if id, _ := restored.UserID(); id != 9 {
			t.Errorf("expected restored user id 9, got %d", id)
		}

		if err := restored.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("credentials file should be removed on clear")
		}
		if restored.Authenticated() {
			t.Error("cleared store should not be authenticated")
		}
	})

	t.Run("Load Missing File", func(t *testing.T) {
		creds := NewCredentials(filepath.Join(t.TempDir(), "none.json"))
		if err := creds.Load(); err != nil {
			t.Errorf("missing file should not be an error, got %v", err)
		}
	})
}

func TestErrors(t *testing.T) {
	t.Run("RemoteError", func(t *testing.T) {
		err := error(&RemoteError{Op: "create recipe", Status: 500, Message: "boom"})
		if !errors.Is(err, ErrAPIRequest) {
			t.Error("RemoteError should match ErrAPIRequest")
		}
		if err.Error() != "create recipe: status 500: boom" {
			t.Errorf("unexpected message %q", err.Error())
		}

		bare := &RemoteError{Status: 404}
		if bare.Error() != "API request failed: status 404: Not Found" {
			t.Errorf("unexpected message %q", bare.Error())
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		err := Invalid("name", "is required")
		if !errors.Is(err, ErrInvalidInput) {
			t.Error("ValidationError should match ErrInvalidInput")
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "name" {
			t.Errorf("expected field name, got %v", err)
		}
	})
}
