package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/flavor/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct authenticated GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	useJSON := cmd.Bool("json")

	if path == "" {
		return fmt.Errorf("%w: path is required", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !useJSON)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct authenticated POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIDump fetches the current user's account, recipes and trips in one document.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	r.logger.Info("dumping API state")

	type DumpData struct {
		User    any   `json:"user"`
		Recipes any   `json:"recipes,omitempty"`
		Mine    any   `json:"my_recipes,omitempty"`
		Trains  any   `json:"trains,omitempty"`
		Errors  []any `json:"errors,omitempty"`
	}

	dump := DumpData{Errors: []any{}}

	fetch := func(path string) any {
		resp, err := r.api.Get(ctx, path)
		if err == nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
			err = fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
		}
		if err != nil {
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": path, "error": err.Error()})
			r.logger.Warn("failed to fetch", "endpoint", path, "error", err)
			return nil
		}
		return resp.JSONData
	}

	dump.User = fetch("/auth/currentUser")
	dump.Recipes = fetch("/recipes")
	if uid, err := r.userID(ctx); err == nil {
		dump.Mine = fetch(fmt.Sprintf("/recipes/user/%d", uid))
		dump.Trains = fetch(fmt.Sprintf("/train/user/%d", uid))
	} else {
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": "user id", "error": err.Error()})
	}

	if save {
		saveFile := "api_dump.json"
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
		}
	}

	return r.writeJSON(dump, pretty)
}
