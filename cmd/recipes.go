package main

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/flavor/internal/formatter"
	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/repositories"
	"github.com/desertthunder/flavor/internal/shared"
	"github.com/desertthunder/flavor/internal/tasks"
	"github.com/urfave/cli/v3"
)

// loadRecipes fills c with the user's own recipes when mine is set, otherwise with every visible recipe.
func (r *Runner) loadRecipes(ctx context.Context, c *tasks.RecipeController, mine bool) error {
	if !mine {
		return c.LoadAll(ctx)
	}
	uid, err := r.userID(ctx)
	if err != nil {
		return err
	}
	return c.Load(ctx, uid)
}

// RecipesList prints recipes.
func (r *Runner) RecipesList(ctx context.Context, cmd *cli.Command) error {
	c := r.recipeController(ctx)
	defer c.Close()

	if err := r.loadRecipes(ctx, c, cmd.Bool("mine")); err != nil {
		return err
	}
	if err := applySort(c.ListController, cmd); err != nil {
		return err
	}
	return writeList(r, cmd, c.View(), formatter.Recipes)
}

// RecipesSearch runs a backend search and prints the results.
func (r *Runner) RecipesSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	c := r.recipeController(ctx)
	defer c.Close()

	r.logger.Info("searching recipes", "query", query)
	if _, err := c.Search(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", c.SearchState().Error, err)
	}
	if err := applySort(c.ListController, cmd); err != nil {
		return err
	}
	return writeList(r, cmd, c.View(), formatter.Recipes)
}

// RecipesShow prints one recipe as a card, including the user's notes when logged in.
func (r *Runner) RecipesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	c := r.recipeController(ctx)
	defer c.Close()
	if err := c.LoadAll(ctx); err != nil {
		return err
	}

	recipe, ok := c.Get(id)
	if !ok {
		return fmt.Errorf("%w: recipe %d", shared.ErrEntityNotFound, id)
	}
	if cmd.Bool("json") {
		return r.writeJSON(recipe, true)
	}

	var notes []models.Note
	if uid, err := r.api.CurrentUserID(); err == nil {
		if notes, err = r.notes.ListForRecipe(ctx, id, uid); err != nil {
			r.logger.Warn("failed to fetch notes", "recipe", id, "error", err)
		}
	}

	_, err = r.output.Write(formatter.RecipeCard(recipe, notes, ""))
	return err
}

// readImage loads an image file to attach to a recipe.
func readImage(path string) (*models.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, shared.Invalid("image", fmt.Sprintf("%s is not an image (%s)", path, contentType))
	}
	return &models.Attachment{Filename: filepath.Base(path), ContentType: contentType, Data: data}, nil
}

// RecipesCreate submits a new recipe.
func (r *Runner) RecipesCreate(ctx context.Context, cmd *cli.Command) error {
	input := models.RecipeInput{
		Name:         cmd.String("name"),
		Description:  cmd.String("description"),
		Ingredients:  cmd.StringSlice("ingredient"),
		Instructions: cmd.String("instructions"),
		ImageURL:     cmd.String("image-url"),
	}
	if path := cmd.String("image"); path != "" {
		img, err := readImage(path)
		if err != nil {
			return err
		}
		input.Image = img
	}

	c := r.recipeController(ctx)
	defer c.Close()

	recipe, err := c.Create(ctx, input)
	if err != nil {
		return err
	}

	r.logger.Info("recipe created", "id", recipe.ID)
	if cmd.Bool("json") {
		return r.writeJSON(recipe, true)
	}
	return r.writePlain("✓ Created recipe %d: %s\n", recipe.ID, recipe.Name)
}

// RecipesUpdate changes the fields given as flags.
func (r *Runner) RecipesUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	var patch models.RecipePatch
	optional := func(name string) *string {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.String(name)
		return &v
	}
	patch.Name = optional("name")
	patch.Description = optional("description")
	patch.Instructions = optional("instructions")
	patch.ImageURL = optional("image-url")
	if cmd.IsSet("ingredient") {
		patch.Ingredients = cmd.StringSlice("ingredient")
	}
	if path := cmd.String("image"); path != "" {
		if patch.Image, err = readImage(path); err != nil {
			return err
		}
	}

	c := r.recipeController(ctx)
	defer c.Close()
	if err := r.loadRecipes(ctx, c, true); err != nil {
		return err
	}

	recipe, err := c.Update(ctx, id, patch)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(recipe, true)
	}
	return r.writePlain("✓ Updated recipe %d: %s\n", recipe.ID, recipe.Name)
}

// RecipesDelete removes one recipe.
func (r *Runner) RecipesDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	c := r.recipeController(ctx)
	defer c.Close()
	if err := r.loadRecipes(ctx, c, true); err != nil {
		return err
	}

	if err := c.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted recipe %d\n", id)
}

// RecipesBulkDelete removes several recipes with a rate-limited worker pool.
func (r *Runner) RecipesBulkDelete(ctx context.Context, cmd *cli.Command) error {
	ids, err := idList(cmd)
	if err != nil {
		return err
	}

	c := r.recipeController(ctx)
	defer c.Close()
	if err := r.loadRecipes(ctx, c, true); err != nil {
		return err
	}

	return r.bulkDelete(ctx, cmd, c, ids)
}

// bulkDelete runs [tasks.BulkDelete] and prints its summary.
func (r *Runner) bulkDelete(ctx context.Context, cmd *cli.Command, d tasks.Deleter, ids []int) error {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.progressPrinter(progress, done)

	result, err := tasks.BulkDelete(ctx, progress, d, ids, tasks.BulkOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RateLimit,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Bulk delete")
	r.writePlain("Deleted: %d / %d\n", result.Deleted, result.Total)
	for _, res := range result.Results {
		if res.Error != nil {
			r.writePlain("  ✗ %d: %v\n", res.ID, res.Error)
		}
	}
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d deletes failed", shared.ErrAPIRequest, result.Failed, result.Total)
	}
	return nil
}

// RecipesRate records the user's rating of someone else's recipe.
func (r *Runner) RecipesRate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	stars := cmd.IntArg("rating")

	c := r.recipeController(ctx)
	defer c.Close()
	if _, err := r.userID(ctx); err != nil {
		return err
	}
	if err := c.LoadAll(ctx); err != nil {
		return err
	}

	recipe, err := c.RateRecipe(ctx, id, stars)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Rated %s %d/5, average now %s\n", recipe.Name, stars, formatter.FormatRating(recipe.AvgRating, nil))
}

// RecipesRating prints a recipe's rating aggregate.
func (r *Runner) RecipesRating(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	summary, err := r.recipes.AverageRating(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(summary, true)
	}
	return r.writePlain("%s\n", formatter.FormatRating(&summary.Average, &summary.Count))
}

// RecipesOpen opens a recipe's image in the browser.
func (r *Runner) RecipesOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	c := r.recipeController(ctx)
	defer c.Close()
	if err := c.LoadAll(ctx); err != nil {
		return err
	}

	recipe, ok := c.Get(id)
	if !ok {
		return fmt.Errorf("%w: recipe %d", shared.ErrEntityNotFound, id)
	}
	if recipe.ImageURL == "" {
		return fmt.Errorf("%w: recipe %d has no image", shared.ErrInvalidArgument, id)
	}
	return shared.OpenBrowser(recipe.ImageURL)
}

// RecipesCards writes a recipe card directory per recipe, with images and notes, plus a manifest.
func (r *Runner) RecipesCards(ctx context.Context, cmd *cli.Command) error {
	c := r.recipeController(ctx)
	defer c.Close()

	if err := r.loadRecipes(ctx, c, !cmd.Bool("all")); err != nil {
		return err
	}

	recipes := c.View()
	if cmd.Args().Len() > 0 {
		ids, err := idList(cmd)
		if err != nil {
			return err
		}
		recipes = recipes[:0:0]
		for _, id := range ids {
			recipe, ok := c.Get(id)
			if !ok {
				return fmt.Errorf("%w: recipe %d", shared.ErrEntityNotFound, id)
			}
			recipes = append(recipes, recipe)
		}
	}

	uid, _ := r.api.CurrentUserID()

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go r.progressPrinter(progress, done)

	result, err := tasks.BulkExportCards(ctx, progress, r.notes, recipes, tasks.BulkOpts{
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RateLimit,
		UserID:     uid,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Recipe cards")
	r.writePlain("Exported: %d / %d\n", result.Succeeded, result.Total)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	for _, res := range result.Results {
		switch {
		case res.Error != nil:
			r.writePlain("  ✗ %s: %v\n", res.Name, res.Error)
		case res.Warning != nil:
			r.writePlain("  ! %s: %v\n", res.Name, res.Warning)
		}
	}
	return nil
}

// RecipesOffline prints the user's recipes from the last cached snapshot without touching the network.
func (r *Runner) RecipesOffline(ctx context.Context, cmd *cli.Command) error {
	uid, err := r.api.CurrentUserID()
	if err != nil {
		return err
	}
	db, err := r.database()
	if err != nil {
		return err
	}

	when, ok, err := repositories.NewRecipeSnapshots(db).CachedAt(uid)
	if err != nil {
		return err
	}
	if cmd.String("format") == "txt" && cmd.String("output") == "" {
		r.printCached(when, ok)
	}

	c := r.recipeController(ctx)
	defer c.Close()
	if err := c.LoadCached(uid); err != nil {
		return err
	}
	if err := applySort(c.ListController, cmd); err != nil {
		return err
	}
	return writeList(r, cmd, c.View(), formatter.Recipes)
}

// searchHistory prints the most recent searches of one kind.
func (r *Runner) searchHistory(cmd *cli.Command, kind string) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	history := repositories.NewSearchRepository(db, kind)

	if cmd.Bool("clear") {
		if err := history.Clear(); err != nil {
			return err
		}
		return r.writePlain("✓ Cleared %s search history\n", kind)
	}

	records, err := history.Recent(cmd.Int("limit"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	if len(records) == 0 {
		return r.writePlain("No %s searches yet\n", kind)
	}
	for _, rec := range records {
		r.writePlain("%s  %-30s %d results\n", rec.SearchedAt.Local().Format("2006-01-02 15:04"), rec.Query, rec.Results)
	}
	return nil
}

// RecipesHistory prints recent recipe searches.
func (r *Runner) RecipesHistory(ctx context.Context, cmd *cli.Command) error {
	return r.searchHistory(cmd, repositories.KindRecipes)
}

// NotesList prints the user's notes on a recipe.
func (r *Runner) NotesList(ctx context.Context, cmd *cli.Command) error {
	recipeID, err := idArg(cmd, "recipe-id")
	if err != nil {
		return err
	}
	uid, err := r.userID(ctx)
	if err != nil {
		return err
	}

	notes, err := r.notes.ListForRecipe(ctx, recipeID, uid)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(notes, true)
	}
	if len(notes) == 0 {
		return r.writePlain("No notes on recipe %d\n", recipeID)
	}
	for _, n := range notes {
		r.writePlain("[%d] %s\n    %s\n", n.ID, n.Title, n.Content)
	}
	return nil
}

// NotesAdd attaches a note to a recipe.
func (r *Runner) NotesAdd(ctx context.Context, cmd *cli.Command) error {
	recipeID, err := idArg(cmd, "recipe-id")
	if err != nil {
		return err
	}
	uid, err := r.userID(ctx)
	if err != nil {
		return err
	}

	input := models.NoteInput{Title: cmd.String("title"), Content: cmd.String("content"), UserID: uid, RecipeID: recipeID}
	if err := input.Validate(); err != nil {
		return err
	}

	note, err := r.notes.Create(ctx, input)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added note %d to recipe %d\n", note.ID, recipeID)
}

// NotesEdit changes a note's title or content.
func (r *Runner) NotesEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	var patch models.NotePatch
	if cmd.IsSet("title") {
		title := cmd.String("title")
		patch.Title = &title
	}
	if cmd.IsSet("content") {
		content := cmd.String("content")
		patch.Content = &content
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	note, err := r.notes.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated note %d: %s\n", note.ID, note.Title)
}

// NotesDelete removes a note.
func (r *Runner) NotesDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.notes.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted note %d\n", id)
}
