package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/flavor/internal/shared"
	"github.com/desertthunder/flavor/internal/ui"
	"github.com/urfave/cli/v3"
)

// useFileLogger redirects logs to a file so they don't interfere with TUI rendering.
func (r *Runner) useFileLogger() error {
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)
	r.api.SetLogger(fileLogger)
	return nil
}

func (r *Runner) runProgram(model tea.Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// TUIRecipes launches the interactive recipe list.
func (r *Runner) TUIRecipes(ctx context.Context, cmd *cli.Command) error {
	if !r.credentials.Authenticated() {
		return &shared.AuthenticationError{Reason: "no credential, log in first"}
	}
	if err := r.useFileLogger(); err != nil {
		return err
	}

	c := r.recipeController(ctx)
	defer c.Close()
	return r.runProgram(ui.NewRecipeModel(ctx, c))
}

// TUITrains launches the interactive train list.
func (r *Runner) TUITrains(ctx context.Context, cmd *cli.Command) error {
	uid, err := r.userID(ctx)
	if err != nil {
		return err
	}
	if err := r.useFileLogger(); err != nil {
		return err
	}

	c := r.trainController(ctx)
	defer c.Close()
	return r.runProgram(ui.NewTrainModel(ctx, c, uid))
}
