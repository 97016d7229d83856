package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/flavor/internal/models"
	"github.com/desertthunder/flavor/internal/services"
)

// TrainSearchFailure is shown in place of results when a train search fails.
const TrainSearchFailure = "Failed to search trains"

// TrainController is the train list: a [ListController] plus input validation.
type TrainController struct {
	*ListController[models.Train, models.TrainInput, models.TrainPatch]
	now func() time.Time
}

// NewTrainController creates a train list over remote.
func NewTrainController(remote services.TrainCollection, opts Options[models.Train]) *TrainController {
	if opts.Name == "" {
		opts.Name = "trains"
	}
	if opts.SearchFailure == "" {
		opts.SearchFailure = TrainSearchFailure
	}
	if opts.Match == nil {
		opts.Match = MatchTrain
	}
	return &TrainController{
		ListController: NewListController[models.Train, models.TrainInput, models.TrainPatch](remote, opts),
		now:            time.Now,
	}
}

// Create validates input, including that both times are in the future, before submitting it.
func (c *TrainController) Create(ctx context.Context, input models.TrainInput) (models.Train, error) {
	if err := input.Validate(c.now()); err != nil {
		return models.Train{}, err
	}
	return c.ListController.Create(ctx, input)
}

// Update validates patch before submitting it.
func (c *TrainController) Update(ctx context.Context, id int, patch models.TrainPatch) (models.Train, error) {
	if err := patch.Validate(); err != nil {
		return models.Train{}, err
	}
	return c.ListController.Update(ctx, id, patch)
}
