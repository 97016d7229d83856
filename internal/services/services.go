// package services implements the remote collection clients for recipes, trains, notes and accounts
package services

import (
	"context"

	"github.com/desertthunder/flavor/internal/models"
)

// Collection is the remote half of a list view: one entity type's endpoints on the backend.
//
// C is the create input and U the update patch. Every method reads the credential store before doing I/O
// and fails with [shared.AuthenticationError] when none is held.
type Collection[T any, C any, U any] interface {
	// Create submits a new entity and returns the server's snapshot of it.
	Create(ctx context.Context, input C) (T, error)

	// Update applies patch to the entity with the given id and returns the server's snapshot.
	Update(ctx context.Context, id int, patch U) (T, error)

	// Delete removes the entity with the given id.
	Delete(ctx context.Context, id int) error

	// Search runs the backend's own search. Its matching rules need not agree with any local filter.
	Search(ctx context.Context, query string) ([]T, error)

	// ListByOwner returns every entity created by the given user, in server order.
	ListByOwner(ctx context.Context, userID int) ([]T, error)
}

// RecipeCollection is the recipe endpoint set, which adds listing, rating and notes.
type RecipeCollection interface {
	Collection[models.Recipe, models.RecipeInput, models.RecipePatch]

	// List returns every recipe visible to the user.
	List(ctx context.Context) ([]models.Recipe, error)

	// Rate records the current user's rating and returns the recipe with its new average.
	Rate(ctx context.Context, id, rating int) (models.Recipe, error)

	// AverageRating fetches the rating aggregate of a recipe.
	AverageRating(ctx context.Context, id int) (models.RatingSummary, error)
}

// TrainCollection is the train endpoint set.
type TrainCollection interface {
	Collection[models.Train, models.TrainInput, models.TrainPatch]
}

var (
	_ RecipeCollection = (*RecipeClient)(nil)
	_ TrainCollection  = (*TrainClient)(nil)
)
