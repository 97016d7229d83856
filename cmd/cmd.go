// submodule cmd contains command definitions
package main

import (
	"slices"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output JSON",
	}
}

func workersFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "workers",
		Usage: "Concurrent workers (max 10)",
		Value: 4,
	}
}

func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Number of searches to show",
			Value: 10,
		},
		&cli.BoolFlag{
			Name:  "clear",
			Usage: "Forget all searches",
		},
		jsonFlag(),
	}
}

func recipeFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Recipe name"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Short description"},
		&cli.StringSliceFlag{Name: "ingredient", Aliases: []string{"i"}, Usage: "Ingredient (repeatable)"},
		&cli.StringFlag{Name: "instructions", Usage: "Preparation steps"},
		&cli.StringFlag{Name: "image-url", Usage: "Link to a cover image"},
		&cli.StringFlag{Name: "image", Usage: "Image file to upload"},
		jsonFlag(),
	}
}

func trainFieldFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Trip name"},
		&cli.StringFlag{Name: "origin", Usage: "Departure station"},
		&cli.StringFlag{Name: "destination", Usage: "Arrival station"},
		&cli.StringFlag{Name: "departure", Usage: "Departure time (RFC 3339 or YYYY-MM-DD HH:MM)"},
		&cli.StringFlag{Name: "arrival", Usage: "Arrival time (RFC 3339 or YYYY-MM-DD HH:MM)"},
		jsonFlag(),
	}
}

// setupCommand handles setup operations for configuration and the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the offline cache database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the latest cache migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	credentialFlags := []cli.Flag{
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
		&cli.StringFlag{Name: "password", Usage: "Account password (prompted when omitted)"},
	}
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Sign in and store the access token",
				Flags:  credentialFlags,
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: append(slices.Clone(credentialFlags),
					&cli.StringFlag{Name: "name", Usage: "Display name"},
				),
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored access token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show who is logged in",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthStatus,
			},
		},
	}
}

// recipesCommand handles recipe operations
func recipesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recipes",
		Aliases: []string{"recipe", "r"},
		Usage:   "Browse and manage recipes",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recipes (sort by name, description, avgRating or createdAt)",
				Flags: append(listFlags(), &cli.BoolFlag{
					Name:  "mine",
					Usage: "Only your own recipes",
				}),
				Action: r.RecipesList,
			},
			{
				Name:      "search",
				Usage:     "Search recipes on the server",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     listFlags(),
				Action:    r.RecipesSearch,
			},
			{
				Name:      "show",
				Usage:     "Show one recipe with your notes",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.RecipesShow,
			},
			{
				Name:   "create",
				Usage:  "Create a recipe",
				Flags:  recipeFieldFlags(),
				Action: r.RecipesCreate,
			},
			{
				Name:      "update",
				Usage:     "Update one of your recipes",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Flags:     recipeFieldFlags(),
				Action:    r.RecipesUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your recipes",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Action:    r.RecipesDelete,
			},
			{
				Name:      "bulk-delete",
				Usage:     "Delete several of your recipes by id",
				ArgsUsage: "<id>...",
				Flags:     []cli.Flag{workersFlag()},
				Action:    r.RecipesBulkDelete,
			},
			{
				Name:  "rate",
				Usage: "Rate someone else's recipe from 1 to 5",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "id"},
					&cli.IntArg{Name: "rating"},
				},
				Action: r.RecipesRate,
			},
			{
				Name:      "rating",
				Usage:     "Show a recipe's average rating",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.RecipesRating,
			},
			{
				Name:      "open",
				Usage:     "Open a recipe's image in the browser",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Action:    r.RecipesOpen,
			},
			{
				Name:      "cards",
				Usage:     "Export recipe cards with images and notes",
				ArgsUsage: "[id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory (default: recipe_cards_{timestamp})",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include every visible recipe, not only yours",
					},
					workersFlag(),
				},
				Action: r.RecipesCards,
			},
			{
				Name:   "offline",
				Usage:  "List your recipes from the local cache",
				Flags:  listFlags(),
				Action: r.RecipesOffline,
			},
			{
				Name:   "history",
				Usage:  "Show recent recipe searches",
				Flags:  historyFlags(),
				Action: r.RecipesHistory,
			},
			notesCommand(r),
		},
	}
}

// notesCommand handles notes on recipes
func notesCommand(r *Runner) *cli.Command {
	noteFlags := []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title"},
		&cli.StringFlag{Name: "content", Aliases: []string{"m"}, Usage: "Note text"},
	}
	return &cli.Command{
		Name:  "notes",
		Usage: "Your private notes on recipes",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List your notes on a recipe",
				Arguments: []cli.Argument{&cli.IntArg{Name: "recipe-id"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.NotesList,
			},
			{
				Name:      "add",
				Usage:     "Add a note to a recipe",
				Arguments: []cli.Argument{&cli.IntArg{Name: "recipe-id"}},
				Flags:     noteFlags,
				Action:    r.NotesAdd,
			},
			{
				Name:      "edit",
				Usage:     "Change a note",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Flags:     noteFlags,
				Action:    r.NotesEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a note",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Action:    r.NotesDelete,
			},
		},
	}
}

// trainsCommand handles train trip operations
func trainsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "trains",
		Aliases: []string{"train", "t"},
		Usage:   "Browse and manage your train trips",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your trips (sort by name, departure, arrival, origin or destination)",
				Flags:  listFlags(),
				Action: r.TrainsList,
			},
			{
				Name:      "search",
				Usage:     "Search trips on the server",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     listFlags(),
				Action:    r.TrainsSearch,
			},
			{
				Name:   "create",
				Usage:  "Plan a trip",
				Flags:  trainFieldFlags(),
				Action: r.TrainsCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a trip",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Flags:     trainFieldFlags(),
				Action:    r.TrainsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a trip",
				Arguments: []cli.Argument{&cli.IntArg{Name: "id"}},
				Action:    r.TrainsDelete,
			},
			{
				Name:      "bulk-delete",
				Usage:     "Delete several trips by id",
				ArgsUsage: "<id>...",
				Flags:     []cli.Flag{workersFlag()},
				Action:    r.TrainsBulkDelete,
			},
			{
				Name:   "offline",
				Usage:  "List your trips from the local cache",
				Flags:  listFlags(),
				Action: r.TrainsOffline,
			},
			{
				Name:   "history",
				Usage:  "Show recent train searches",
				Flags:  historyFlags(),
				Action: r.TrainsHistory,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the JSON response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Dump your account, recipes and trips",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
						Value: false,
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// tuiCommand returns the interactive list views.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch an interactive list",
		Commands: []*cli.Command{
			{
				Name:   "recipes",
				Usage:  "Browse, search, sort and rate recipes",
				Action: r.TUIRecipes,
			},
			{
				Name:   "trains",
				Usage:  "Browse, search and sort your trips",
				Action: r.TUITrains,
			},
		},
		Action: r.TUIRecipes,
	}
}
