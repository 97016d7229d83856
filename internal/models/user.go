package models

import (
	"net/mail"
	"strings"

	"github.com/desertthunder/flavor/internal/shared"
)

// User is the account behind the current credential.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// DisplayName returns the user's name, falling back to the email address.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Email
}

// TokenPair is what sign-in returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Credentials is the body of a sign-in or sign-up request. Name is only sent on sign-up.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Validate checks the fields needed to sign in.
func (c Credentials) Validate() error {
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return shared.Invalid("email", "a valid email address is required")
	}
	if c.Password == "" {
		return shared.Invalid("password", "password is required")
	}
	return nil
}

// ValidateSignUp additionally requires a name and a matching confirmation.
func (c Credentials) ValidateSignUp(confirm string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		return shared.Invalid("name", "name is required")
	}
	if c.Password != confirm {
		return shared.Invalid("password", "passwords do not match")
	}
	return nil
}
