package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/flavor/internal/formatter"
	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/shared"
	"github.com/desertthunder/flavor/internal/tasks"
	"github.com/urfave/cli/v3"
)

// listFlags are shared by every command that prints a list.
func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "Column to sort by",
		},
		&cli.BoolFlag{
			Name:  "desc",
			Usage: "Sort descending",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: txt, csv, md or json",
			Value:   "txt",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to a file instead of stdout",
		},
	}
}

// applySort installs the --sort/--desc selection on a list.
func applySort[T models.Entity[T], C any, U any](c *tasks.ListController[T, C, U], cmd *cli.Command) error {
	col := cmd.String("sort")
	if col == "" {
		return nil
	}
	dir := tasks.Ascending
	if cmd.Bool("desc") {
		dir = tasks.Descending
	}
	return c.SetSortState(tasks.SortState{Column: models.Column(col), Direction: dir})
}

// writeList renders items with render in the --format format to --output or stdout.
func writeList[T any](r *Runner, cmd *cli.Command, items []T, render func([]T, formatter.Format) ([]byte, error)) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	data, err := render(items, format)
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}

	path := cmd.String("output")
	if err := formatter.WriteFile(r.output, path, data); err != nil {
		return err
	}
	if path != "" && path != "-" {
		r.logger.Info("export written", "path", path, "count", len(items))
	}
	return nil
}

// idArg reads the id positional argument.
func idArg(cmd *cli.Command, name string) (int, error) {
	id := cmd.IntArg(name)
	if id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive id", shared.ErrMissingArgument, name)
	}
	return id, nil
}

// idList parses every positional argument as an id.
func idList(cmd *cli.Command) ([]int, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: at least one id is required", shared.ErrMissingArgument)
	}

	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %q is not an id", shared.ErrInvalidArgument, a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseTime accepts RFC 3339 or "2006-01-02 15:04" in local time.
func parseTime(field, raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, shared.Invalid(field, fmt.Sprintf("%q is not a date and time (use RFC 3339 or YYYY-MM-DD HH:MM)", raw))
}

// progressPrinter logs bulk progress until the channel closes, then signals done.
func (r *Runner) progressPrinter(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	for update := range progress {
		r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
	}
	close(done)
}

// printCached notes when an offline listing was last refreshed.
func (r *Runner) printCached(when time.Time, ok bool) {
	if !ok {
		r.writePlain("No cached snapshot, run a list command while online first.\n")
		return
	}
	r.writePlain("Offline snapshot from %s\n\n", when.Local().Format("2006-01-02 15:04"))
}
