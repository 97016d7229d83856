package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Credentials is the process-wide bearer credential: set on login, read by every outgoing call, cleared on logout.
//
// It is passed explicitly to the API clients and implements [oauth2.TokenSource] so they can read it per request.
// When path is non-empty the credential is mirrored to disk so it survives between CLI invocations.
type Credentials struct {
	mu     sync.RWMutex
	token  *oauth2.Token
	userID int
	path   string
}

type storedCredentials struct {
	Token  *oauth2.Token `json:"token"`
	UserID int           `json:"user_id,omitempty"`
}

var _ oauth2.TokenSource = (*Credentials)(nil)

// NewCredentials returns an empty credential store persisted at path ("" keeps it in memory only).
func NewCredentials(path string) *Credentials {
	return &Credentials{path: path}
}

// Set installs a freshly issued token pair.
//
// The access token's claims are read without verification (the backend is the authority) to learn its expiry and
// the subject's user id; opaque tokens are accepted as-is.
func (c *Credentials) Set(accessToken, refreshToken string) error {
	if accessToken == "" {
		return &AuthenticationError{Reason: "empty access token"}
	}

	token := &oauth2.Token{AccessToken: accessToken, RefreshToken: refreshToken, TokenType: "Bearer"}
	userID := 0

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			token.Expiry = exp.Time
		}
		userID = subjectID(claims)
	}

	c.mu.Lock()
	c.token = token
	c.userID = userID
	c.mu.Unlock()

	return c.save()
}

// subjectID reads a numeric user id from the "sub" or "id" claim, which backends encode as either number or string.
func subjectID(claims jwt.MapClaims) int {
	for _, key := range []string{"sub", "id", "userId"} {
		switch v := claims[key].(type) {
		case float64:
			return int(v)
		case string:
			if id, err := strconv.Atoi(v); err == nil {
				return id
			}
		}
	}
	return 0
}

// Token implements [oauth2.TokenSource]. It fails with an [AuthenticationError] when no usable credential is held.
func (c *Credentials) Token() (*oauth2.Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == nil || c.token.AccessToken == "" {
		return nil, &AuthenticationError{Reason: "no credential, log in first"}
	}
	if !c.token.Valid() {
		return nil, &AuthenticationError{Err: ErrTokenExpired}
	}

	tok := *c.token
	return &tok, nil
}

// UserID reports the id of the logged-in user when it is known.
func (c *Credentials) UserID() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.userID != 0
}

// SetUserID records the current user's id, e.g. after resolving it through the current-user endpoint.
func (c *Credentials) SetUserID(id int) error {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
	return c.save()
}

// Authenticated reports whether a call made now would carry a credential.
func (c *Credentials) Authenticated() bool {
	_, err := c.Token()
	return err == nil
}

// Clear drops the credential and removes its file.
func (c *Credentials) Clear() error {
	c.mu.Lock()
	c.token = nil
	c.userID = 0
	c.mu.Unlock()

	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// Load restores a previously saved credential. A missing file leaves the store empty and is not an error.
func (c *Credentials) Load() error {
	if c.path == "" {
		return nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	var stored storedCredentials
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse credentials: %w", err)
	}

	c.mu.Lock()
	c.token = stored.Token
	c.userID = stored.UserID
	c.mu.Unlock()
	return nil
}

func (c *Credentials) save() error {
	if c.path == "" {
		return nil
	}

	c.mu.RLock()
	data, err := json.MarshalIndent(storedCredentials{Token: c.token, UserID: c.userID}, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}
