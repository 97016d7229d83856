package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// readPassword reads a password without echo when stdin is a terminal, falling back to a plain line otherwise.
func (r *Runner) readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !r.interactive || !term.IsTerminal(fd) {
		return r.readLine(prompt)
	}

	r.writePlain("%s", prompt)
	pw, err := term.ReadPassword(fd)
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// credentialsFrom collects email and password from flags, prompting for whatever is missing.
func (r *Runner) credentialsFrom(cmd *cli.Command) (models.Credentials, error) {
	creds := models.Credentials{Email: cmd.String("email"), Password: cmd.String("password")}

	var err error
	if creds.Email == "" {
		if creds.Email, err = r.readLine("Email: "); err != nil {
			return creds, err
		}
	}
	if creds.Password == "" {
		if creds.Password, err = r.readPassword("Password: "); err != nil {
			return creds, err
		}
	}
	return creds, nil
}

// AuthLogin signs in and stores the issued token pair.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentialsFrom(cmd)
	if err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	r.logger.Info("signing in", "email", creds.Email)

	pair, err := r.auth.SignIn(ctx, creds)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if err := r.credentials.Set(pair.AccessToken, pair.RefreshToken); err != nil {
		return err
	}

	if _, ok := r.credentials.UserID(); !ok {
		if user, err := r.auth.CurrentUser(ctx); err != nil {
			r.logger.Warn("failed to resolve current user", "error", err)
		} else if err := r.credentials.SetUserID(user.ID); err != nil {
			r.logger.Warn("failed to save user id", "error", err)
		}
	}

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Logged in as %s\n", creds.Email)
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	creds, err := r.credentialsFrom(cmd)
	if err != nil {
		return err
	}

	creds.Name = cmd.String("name")
	if creds.Name == "" {
		if creds.Name, err = r.readLine("Name: "); err != nil {
			return err
		}
	}

	confirm := cmd.String("password")
	if confirm == "" {
		if confirm, err = r.readPassword("Confirm password: "); err != nil {
			return err
		}
	}
	if err := creds.ValidateSignUp(confirm); err != nil {
		return err
	}

	if err := r.auth.SignUp(ctx, creds); err != nil {
		return err
	}

	r.logger.Info("account created", "email", creds.Email)
	return r.writePlain("✓ Account created, run 'flavor auth login' to sign in\n")
}

// AuthLogout clears the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.credentials.Clear(); err != nil {
		return err
	}
	r.logger.Info("credential cleared")
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports whether a credential is held and who it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if !r.credentials.Authenticated() {
		return r.writePlain("Authentication: ✗ Not authenticated\n")
	}

	user, err := r.auth.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	r.writePlain("User: %s (id %d)\n", user.DisplayName(), user.ID)
	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	return nil
}
