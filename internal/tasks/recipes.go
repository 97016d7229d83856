package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/services"
	"github.com/desertthunder/flavor/internal/shared"
)

// RecipeSearchFailure is shown in place of results when a recipe search fails.
const RecipeSearchFailure = "Failed to search recipes"

// Identity reports who is logged in. [shared.Credentials] implements it.
type Identity interface {
	UserID() (int, bool)
}

// RecipeController is the recipe list: a [ListController] plus input validation and rating.
type RecipeController struct {
	*ListController[models.Recipe, models.RecipeInput, models.RecipePatch]
	remote   services.RecipeCollection
	identity Identity
}

// NewRecipeController creates a recipe list over remote. identity powers the rule that owners may not rate their own recipes.
func NewRecipeController(remote services.RecipeCollection, identity Identity, opts Options[models.Recipe]) *RecipeController {
	if opts.Name == "" {
		opts.Name = "recipes"
	}
	if opts.SearchFailure == "" {
		opts.SearchFailure = RecipeSearchFailure
	}
	if opts.Match == nil {
		opts.Match = MatchRecipe
	}
	return &RecipeController{
		ListController: NewListController[models.Recipe, models.RecipeInput, models.RecipePatch](remote, opts),
		remote:         remote,
		identity:       identity,
	}
}

// LoadAll makes every visible recipe the collection, as the dashboard does.
func (c *RecipeController) LoadAll(ctx context.Context) error {
	items, err := c.remote.List(ctx)
	if err != nil {
		c.logger.Error("load all failed", "error", err)
		c.notify(Event{Kind: Failed, Err: err})
		return err
	}
	c.Replace(items)
	return nil
}

// Create validates input before submitting it.
func (c *RecipeController) Create(ctx context.Context, input models.RecipeInput) (models.Recipe, error) {
	if err := input.Validate(); err != nil {
		return models.Recipe{}, err
	}
	return c.ListController.Create(ctx, input)
}

// Update validates patch before submitting it.
func (c *RecipeController) Update(ctx context.Context, id int, patch models.RecipePatch) (models.Recipe, error) {
	if err := patch.Validate(); err != nil {
		return models.Recipe{}, err
	}
	return c.ListController.Update(ctx, id, patch)
}

// CanRate reports whether the logged-in user may rate r. Owners may not; the backend remains the authority.
func (c *RecipeController) CanRate(r models.Recipe) bool {
	if c.identity == nil {
		return true
	}
	uid, ok := c.identity.UserID()
	return !ok || uid != r.UserID
}

// RateRecipe records a rating of 1 to 5 stars and updates only the average rating of the local entries.
//
// Rating a recipe you own is refused before any network call.
func (c *RecipeController) RateRecipe(ctx context.Context, id, rating int) (models.Recipe, error) {
	if err := models.ValidateRating(rating); err != nil {
		return models.Recipe{}, err
	}

	recipe, ok := c.Get(id)
	if !ok {
		return models.Recipe{}, fmt.Errorf("%w: recipe %d", shared.ErrEntityNotFound, id)
	}
	if !c.CanRate(recipe) {
		return models.Recipe{}, fmt.Errorf("%w: recipe %d", shared.ErrSelfRating, id)
	}

	c.begin()
	resp, err := c.remote.Rate(ctx, id, rating)
	c.end()
	if err != nil {
		c.logger.Error("rate failed", "id", id, "error", err)
		c.notify(Event{Kind: Failed, ID: id, Err: err})
		return models.Recipe{}, err
	}

	avg := resp.AvgRating
	if avg == nil {
		avg = recipe.AvgRating
	}
	c.apply(id, func(r models.Recipe) models.Recipe { return r.WithAvgRating(avg) })

	c.logger.Info("rated", "id", id, "rating", rating)
	c.notify(Event{Kind: Rated, ID: id})

	rated, _ := c.Get(id)
	return rated, nil
}
