package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/repositories"
	"github.com/desertthunder/flavor/internal/services"
	"github.com/desertthunder/flavor/internal/shared"
	"github.com/desertthunder/flavor/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	credentials *shared.Credentials
	api         *services.APIService
	auth        *services.AuthClient
	recipes     services.RecipeCollection
	trains      services.TrainCollection
	notes       *services.NoteClient
	scheduler   tasks.Scheduler
	logger      *log.Logger
	output      io.Writer
	input       *bufio.Reader
	interactive bool
	db          *sql.DB
	dbErr       error
	dbOpened    bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	Credentials *shared.Credentials
	API         *services.APIService
	Recipes     services.RecipeCollection
	Trains      services.TrainCollection
	HTTPClient  *http.Client
	Scheduler   tasks.Scheduler
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
	DB          *sql.DB // DB replaces the configured cache database, mostly for tests
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Timeout()}
	}
	if opts.Credentials == nil {
		opts.Credentials = shared.NewCredentials("")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = tasks.TimerScheduler{}
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(
			opts.Config.API.BaseURL,
			opts.HTTPClient,
			opts.Credentials,
			services.WithRateLimit(opts.Config.API.RateLimit),
			services.WithLogger(opts.Logger),
		)
	}
	if opts.Recipes == nil {
		opts.Recipes = services.NewRecipeClient(opts.API)
	}
	if opts.Trains == nil {
		opts.Trains = services.NewTrainClient(opts.API)
	}

	return &Runner{
		config:      opts.Config,
		credentials: opts.Credentials,
		api:         opts.API,
		auth:        services.NewAuthClient(opts.API),
		recipes:     opts.Recipes,
		trains:      opts.Trains,
		notes:       services.NewNoteClient(opts.API),
		scheduler:   opts.Scheduler,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       bufio.NewReader(opts.Input),
		interactive: opts.Input == io.Reader(os.Stdin),
		db:          opts.DB,
		dbOpened:    opts.DB != nil,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, recipesCommand, trainsCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger, e.g. for a file logger while the TUI owns the screen.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the cache database if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// database opens the snapshot cache on first use. A cache that cannot be opened is logged once and
// the command carries on without it.
func (r *Runner) database() (*sql.DB, error) {
	if r.dbOpened {
		return r.db, r.dbErr
	}
	r.dbOpened = true
	r.db, r.dbErr = shared.OpenCache(r.config.Database)
	if r.dbErr != nil {
		r.logger.Warn("snapshot cache unavailable", "path", r.config.Database.Path, "error", r.dbErr)
	}
	return r.db, r.dbErr
}

// recipeController builds a recipe list wired to the snapshot cache and search history when available.
func (r *Runner) recipeController(ctx context.Context) *tasks.RecipeController {
	opts := tasks.Options[models.Recipe]{
		Debounce:     r.config.DebounceInterval(),
		Scheduler:    r.scheduler,
		DiscardStale: r.config.Search.DiscardStaleSearches,
		Logger:       r.logger,
		Context:      ctx,
	}
	if db, err := r.database(); err == nil {
		opts.Cache = repositories.NewRecipeSnapshots(db)
		opts.History = repositories.NewSearchRepository(db, repositories.KindRecipes)
	}
	return tasks.NewRecipeController(r.recipes, r.credentials, opts)
}

// trainController builds a train list wired to the snapshot cache and search history when available.
func (r *Runner) trainController(ctx context.Context) *tasks.TrainController {
	opts := tasks.Options[models.Train]{
		Debounce:     r.config.DebounceInterval(),
		Scheduler:    r.scheduler,
		DiscardStale: r.config.Search.DiscardStaleSearches,
		Logger:       r.logger,
		Context:      ctx,
	}
	if db, err := r.database(); err == nil {
		opts.Cache = repositories.NewTrainSnapshots(db)
		opts.History = repositories.NewSearchRepository(db, repositories.KindTrains)
	}
	return tasks.NewTrainController(r.trains, opts)
}

// userID returns the logged-in user's id, resolving it through the current-user endpoint when the token
// did not carry one.
func (r *Runner) userID(ctx context.Context) (int, error) {
	if id, err := r.api.CurrentUserID(); err == nil {
		return id, nil
	}

	user, err := r.auth.CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.credentials.SetUserID(user.ID); err != nil {
		r.logger.Warn("failed to save user id", "error", err)
	}
	return user.ID, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// readLine prompts for one line of input.
func (r *Runner) readLine(prompt string) (string, error) {
	r.writePlain("%s", prompt)
	line, err := r.input.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
