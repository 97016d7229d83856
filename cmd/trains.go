package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/flavor/internal/formatter"
	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/repositories"
	"github.com/desertthunder/flavor/internal/shared"
	"github.com/desertthunder/flavor/internal/tasks"
	"github.com/urfave/cli/v3"
)

// loadTrains fills c with the logged-in user's trips.
func (r *Runner) loadTrains(ctx context.Context, c *tasks.TrainController) (int, error) {
	uid, err := r.userID(ctx)
	if err != nil {
		return 0, err
	}
	return uid, c.Load(ctx, uid)
}

// TrainsList prints the user's trips.
func (r *Runner) TrainsList(ctx context.Context, cmd *cli.Command) error {
	c := r.trainController(ctx)
	defer c.Close()

	if _, err := r.loadTrains(ctx, c); err != nil {
		return err
	}
	if err := applySort(c.ListController, cmd); err != nil {
		return err
	}
	return writeList(r, cmd, c.View(), formatter.Trains)
}

// TrainsSearch runs a backend search and prints the results.
func (r *Runner) TrainsSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	c := r.trainController(ctx)
	defer c.Close()

	r.logger.Info("searching trains", "query", query)
	if _, err := c.Search(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", c.SearchState().Error, err)
	}
	if err := applySort(c.ListController, cmd); err != nil {
		return err
	}
	return writeList(r, cmd, c.View(), formatter.Trains)
}

// TrainsCreate submits a new trip.
func (r *Runner) TrainsCreate(ctx context.Context, cmd *cli.Command) error {
	input := models.TrainInput{
		Name:        cmd.String("name"),
		Origin:      cmd.String("origin"),
		Destination: cmd.String("destination"),
	}

	var err error
	if raw := cmd.String("departure"); raw != "" {
		if input.Departure, err = parseTime("departure", raw); err != nil {
			return err
		}
	}
	if raw := cmd.String("arrival"); raw != "" {
		if input.Arrival, err = parseTime("arrival", raw); err != nil {
			return err
		}
	}

	c := r.trainController(ctx)
	defer c.Close()

	train, err := c.Create(ctx, input)
	if err != nil {
		return err
	}

	r.logger.Info("train created", "id", train.ID)
	if cmd.Bool("json") {
		return r.writeJSON(train, true)
	}
	return r.writePlain("✓ Created trip %d: %s (%s → %s)\n", train.ID, train.Name, train.Origin, train.Destination)
}

// TrainsUpdate changes the fields given as flags.
func (r *Runner) TrainsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	var patch models.TrainPatch
	optional := func(name string) *string {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.String(name)
		return &v
	}
	patch.Name = optional("name")
	patch.Origin = optional("origin")
	patch.Destination = optional("destination")
	if raw := optional("departure"); raw != nil {
		t, err := parseTime("departure", *raw)
		if err != nil {
			return err
		}
		patch.Departure = &t
	}
	if raw := optional("arrival"); raw != nil {
		t, err := parseTime("arrival", *raw)
		if err != nil {
			return err
		}
		patch.Arrival = &t
	}
	if patch.Empty() {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}

	c := r.trainController(ctx)
	defer c.Close()
	if _, err := r.loadTrains(ctx, c); err != nil {
		return err
	}

	train, err := c.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(train, true)
	}
	return r.writePlain("✓ Updated trip %d: %s\n", train.ID, train.Name)
}

// TrainsDelete removes one trip.
func (r *Runner) TrainsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	c := r.trainController(ctx)
	defer c.Close()
	if _, err := r.loadTrains(ctx, c); err != nil {
		return err
	}

	if err := c.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted trip %d\n", id)
}

// TrainsBulkDelete removes several trips.
func (r *Runner) TrainsBulkDelete(ctx context.Context, cmd *cli.Command) error {
	ids, err := idList(cmd)
	if err != nil {
		return err
	}

	c := r.trainController(ctx)
	defer c.Close()
	if _, err := r.loadTrains(ctx, c); err != nil {
		return err
	}
	return r.bulkDelete(ctx, cmd, c, ids)
}

// TrainsOffline prints the user's trips from the last cached snapshot without touching the network.
func (r *Runner) TrainsOffline(ctx context.Context, cmd *cli.Command) error {
	uid, err := r.api.CurrentUserID()
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	when, ok, err := repositories.NewTrainSnapshots(db).CachedAt(uid)
	if err != nil {
		return err
	}
	if cmd.String("format") == "txt" && cmd.String("output") == "" {
		r.printCached(when, ok)
	}

	c := r.trainController(ctx)
	defer c.Close()
	if err := c.LoadCached(uid); err != nil {
		return err
	}
	if err := applySort(c.ListController, cmd); err != nil {
		return err
	}
	return writeList(r, cmd, c.View(), formatter.Trains)
}

// TrainsHistory prints recent train searches.
func (r *Runner) TrainsHistory(ctx context.Context, cmd *cli.Command) error {
	return r.searchHistory(cmd, repositories.KindTrains)
}
