package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/flavor/internal/models"
)

// TrainClient talks to the /train endpoints.
type TrainClient struct {
	api *APIService
}

// NewTrainClient creates a [TrainClient] over api.
func NewTrainClient(api *APIService) *TrainClient {
	return &TrainClient{api: api}
}

type trainBody struct {
	Name        string    `json:"name"`
	Departure   time.Time `json:"departure"`
	Arrival     time.Time `json:"arrival"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	UserID      int       `json:"userId"`
}

type trainPatchBody struct {
	Name        *string    `json:"name,omitempty"`
	Origin      *string    `json:"origin,omitempty"`
	Destination *string    `json:"destination,omitempty"`
	Departure   *time.Time `json:"departure,omitempty"`
	Arrival     *time.Time `json:"arrival,omitempty"`
}

// Create submits a new trip owned by the logged-in user.
func (c *TrainClient) Create(ctx context.Context, input models.TrainInput) (models.Train, error) {
	userID, err := c.api.CurrentUserID()
	if err != nil {
		return models.Train{}, err
	}

	body := trainBody{
		Name:        input.Name,
		Departure:   input.Departure.UTC(),
		Arrival:     input.Arrival.UTC(),
		Origin:      input.Origin,
		Destination: input.Destination,
		UserID:      userID,
	}

	var train models.Train
	err = c.api.doJSON(ctx, "create train", http.MethodPost, "/train", body, &train)
	return train, err
}

// Update sends the fields set on patch.
func (c *TrainClient) Update(ctx context.Context, id int, patch models.TrainPatch) (models.Train, error) {
	body := trainPatchBody{
		Name:        patch.Name,
		Origin:      patch.Origin,
		Destination: patch.Destination,
		Departure:   utc(patch.Departure),
		Arrival:     utc(patch.Arrival),
	}

	var train models.Train
	err := c.api.doJSON(ctx, "update train", http.MethodPatch, fmt.Sprintf("/train/%d", id), body, &train)
	return train, err
}

// Delete removes a trip.
func (c *TrainClient) Delete(ctx context.Context, id int) error {
	return c.api.doJSON(ctx, "delete train", http.MethodDelete, fmt.Sprintf("/train/%d", id), nil, nil)
}

// Search runs the backend's train search.
func (c *TrainClient) Search(ctx context.Context, query string) ([]models.Train, error) {
	var trains []models.Train
	path := "/train/search/search?query=" + url.QueryEscape(query)
	if err := c.api.doJSON(ctx, "search trains", http.MethodGet, path, nil, &trains); err != nil {
		return nil, err
	}
	if trains == nil {
		trains = []models.Train{}
	}
	return trains, nil
}

// ListByOwner returns the trips created by userID.
func (c *TrainClient) ListByOwner(ctx context.Context, userID int) ([]models.Train, error) {
	var trains []models.Train
	path := fmt.Sprintf("/train/user/%d", userID)
	if err := c.api.doJSON(ctx, "list user trains", http.MethodGet, path, nil, &trains); err != nil {
		return nil, err
	}
	return trains, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
