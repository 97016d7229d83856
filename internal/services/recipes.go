package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/desertthunder/flavor/internal/models"
)

// RecipeClient talks to the /recipes endpoints.
type RecipeClient struct {
	api *APIService
}

// NewRecipeClient creates a [RecipeClient] over api.
func NewRecipeClient(api *APIService) *RecipeClient {
	return &RecipeClient{api: api}
}

// List returns every recipe, the dashboard's source.
func (c *RecipeClient) List(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := c.api.doJSON(ctx, "list recipes", http.MethodGet, "/recipes", nil, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// ListByOwner returns the recipes created by userID.
func (c *RecipeClient) ListByOwner(ctx context.Context, userID int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	path := fmt.Sprintf("/recipes/user/%d", userID)
	if err := c.api.doJSON(ctx, "list user recipes", http.MethodGet, path, nil, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// Search runs the backend's recipe search.
func (c *RecipeClient) Search(ctx context.Context, query string) ([]models.Recipe, error) {
	var recipes []models.Recipe
	path := "/recipes/search?query=" + url.QueryEscape(query)
	if err := c.api.doJSON(ctx, "search recipes", http.MethodGet, path, nil, &recipes); err != nil {
		return nil, err
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	return recipes, nil
}

// Create uploads a new recipe as multipart form data.
func (c *RecipeClient) Create(ctx context.Context, input models.RecipeInput) (models.Recipe, error) {
	fields := map[string]string{
		"name":         input.Name,
		"description":  input.Description,
		"instructions": input.Instructions,
	}
	if input.ImageURL != "" {
		fields["imageUrl"] = input.ImageURL
	}

	var recipe models.Recipe
	err := c.multipart(ctx, "create recipe", http.MethodPost, "/recipes", fields, input.Ingredients, input.Image, &recipe)
	return recipe, err
}

// Update sends only the fields set on patch, again as multipart form data.
func (c *RecipeClient) Update(ctx context.Context, id int, patch models.RecipePatch) (models.Recipe, error) {
	fields := map[string]string{}
	for key, value := range map[string]*string{
		"name":         patch.Name,
		"description":  patch.Description,
		"instructions": patch.Instructions,
		"imageUrl":     patch.ImageURL,
	} {
		if value != nil {
			fields[key] = *value
		}
	}

	var recipe models.Recipe
	path := fmt.Sprintf("/recipes/%d", id)
	err := c.multipart(ctx, "update recipe", http.MethodPatch, path, fields, patch.Ingredients, patch.Image, &recipe)
	return recipe, err
}

// Delete removes a recipe.
func (c *RecipeClient) Delete(ctx context.Context, id int) error {
	return c.api.doJSON(ctx, "delete recipe", http.MethodDelete, fmt.Sprintf("/recipes/%d", id), nil, nil)
}

// Rate records a rating and returns the recipe carrying its new average.
func (c *RecipeClient) Rate(ctx context.Context, id, rating int) (models.Recipe, error) {
	var recipe models.Recipe
	body := map[string]int{"rating": rating}
	err := c.api.doJSON(ctx, "rate recipe", http.MethodPost, fmt.Sprintf("/recipes/%d/rate", id), body, &recipe)
	return recipe, err
}

// AverageRating fetches the average rating and vote count of a recipe.
func (c *RecipeClient) AverageRating(ctx context.Context, id int) (models.RatingSummary, error) {
	var summary models.RatingSummary
	err := c.api.doJSON(ctx, "average rating", http.MethodGet, fmt.Sprintf("/recipes/%d/rating/average", id), nil, &summary)
	return summary, err
}

// multipart encodes fields, JSON-encoded ingredients and an optional image into a form and sends it.
//
// A nil ingredients slice is omitted so partial updates leave them alone.
func (c *RecipeClient) multipart(
	ctx context.Context, op, method, path string,
	fields map[string]string, ingredients []string, image *models.Attachment, result any,
) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("%s: failed to write form field %s: %w", op, key, err)
		}
	}

	if ingredients != nil {
		encoded, err := json.Marshal(ingredients)
		if err != nil {
			return fmt.Errorf("%s: failed to encode ingredients: %w", op, err)
		}
		if err := w.WriteField("ingredients", string(encoded)); err != nil {
			return fmt.Errorf("%s: failed to write ingredients: %w", op, err)
		}
	}

	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
		contentType := image.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(image.Data)
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return fmt.Errorf("%s: failed to create image part: %w", op, err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return fmt.Errorf("%s: failed to write image: %w", op, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: failed to finish form: %w", op, err)
	}

	req, err := c.api.newRequest(ctx, method, path, &buf, w.FormDataContentType(), true)
	if err != nil {
		return err
	}

	data, err := c.api.do(op, req)
	if err != nil {
		return err
	}
	return decode(op, data, result)
}
