package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/flavor/internal/models"
)

// NoteClient talks to the recipe note endpoints.
type NoteClient struct {
	api *APIService
}

// NewNoteClient creates a [NoteClient] over api.
func NewNoteClient(api *APIService) *NoteClient {
	return &NoteClient{api: api}
}

// Create attaches a note to input.RecipeID. The owner defaults to the logged-in user.
func (c *NoteClient) Create(ctx context.Context, input models.NoteInput) (models.Note, error) {
	if input.UserID == 0 {
		id, err := c.api.CurrentUserID()
		if err != nil {
			return models.Note{}, err
		}
		input.UserID = id
	}

	var note models.Note
	path := fmt.Sprintf("/recipes/%d/notes", input.RecipeID)
	err := c.api.doJSON(ctx, "create note", http.MethodPost, path, input, &note)
	return note, err
}

// Update changes a note's title or content.
func (c *NoteClient) Update(ctx context.Context, id int, patch models.NotePatch) (models.Note, error) {
	var note models.Note
	err := c.api.doJSON(ctx, "update note", http.MethodPatch, fmt.Sprintf("/notes/%d", id), patch, &note)
	return note, err
}

// Delete removes a note.
func (c *NoteClient) Delete(ctx context.Context, id int) error {
	return c.api.doJSON(ctx, "delete note", http.MethodDelete, fmt.Sprintf("/notes/%d", id), nil, nil)
}

// ListForRecipe returns userID's notes on recipeID.
func (c *NoteClient) ListForRecipe(ctx context.Context, recipeID, userID int) ([]models.Note, error) {
	var notes []models.Note
	path := fmt.Sprintf("/recipes/%d/notes/%d", recipeID, userID)
	if err := c.api.doJSON(ctx, "list notes", http.MethodGet, path, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}
