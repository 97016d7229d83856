package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/flavor/internal/models"
)

// AuthClient talks to the /auth endpoints.
type AuthClient struct {
	api *APIService
}

// NewAuthClient creates an [AuthClient] over api.
func NewAuthClient(api *APIService) *AuthClient {
	return &AuthClient{api: api}
}

// SignIn exchanges an email and password for a token pair. It is the one call made without a credential.
func (c *AuthClient) SignIn(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	var pair models.TokenPair
	body := models.Credentials{Email: creds.Email, Password: creds.Password}
	err := c.api.sendJSON(ctx, "sign in", http.MethodPost, "/auth/signin", body, &pair, false)
	return pair, err
}

// SignUp registers a new account. The user signs in separately afterwards.
func (c *AuthClient) SignUp(ctx context.Context, creds models.Credentials) error {
	return c.api.sendJSON(ctx, "sign up", http.MethodPost, "/auth/signup", creds, nil, false)
}

// CurrentUser returns the account behind the held credential.
func (c *AuthClient) CurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.api.doJSON(ctx, "current user", http.MethodGet, "/auth/currentUser", nil, &user)
	return user, err
}
