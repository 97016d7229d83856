package models

import (
	"net/url"
	"strings"

	"github.com/desertthunder/flavor/internal/shared"
)

// Recipe sort columns.
const (
	RecipeName        Column = "name"
	RecipeDescription Column = "description"
	RecipeAvgRating   Column = "avgRating"
	RecipeCreatedAt   Column = "createdAt"
)

// Recipe is a snapshot of a recipe as the backend last described it.
type Recipe struct {
	ID           int      `json:"id"`
	UserID       int      `json:"userId"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	AvgRating    *float64 `json:"avgRating,omitempty"`
	RatingsCount *int     `json:"ratingsCount,omitempty"`
	UserRating   *int     `json:"userRating,omitempty"`
	CreatedAt    string   `json:"createdAt,omitempty"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

var _ Entity[Recipe] = Recipe{}

func (r Recipe) EntityID() int { return r.ID }
func (r Recipe) OwnerID() int  { return r.UserID }

// Merge overlays next onto r. Text fields always come from next, so an update that
// clears the description clears it here too. Ids, the creation time, the rating
// aggregates and a missing ingredient list fall back to r.
func (r Recipe) Merge(next Recipe) Recipe {
	out := next
	out.ID = pick(r.ID, next.ID)
	out.UserID = pick(r.UserID, next.UserID)
	out.CreatedAt = pick(r.CreatedAt, next.CreatedAt)
	out.UpdatedAt = pick(r.UpdatedAt, next.UpdatedAt)
	out.AvgRating = pickPtr(r.AvgRating, next.AvgRating)
	out.RatingsCount = pickPtr(r.RatingsCount, next.RatingsCount)
	out.UserRating = pickPtr(r.UserRating, next.UserRating)
	if next.Ingredients == nil {
		out.Ingredients = r.Ingredients
	}
	out.Ingredients = append([]string(nil), out.Ingredients...)
	return out
}

// WithAvgRating returns a copy of r whose only change is the average rating.
func (r Recipe) WithAvgRating(avg *float64) Recipe {
	out := r
	out.AvgRating = avg
	return out
}

func (r Recipe) SortValue(col Column) FieldValue {
	switch col {
	case RecipeDescription:
		return TextValue(r.Description)
	case RecipeAvgRating:
		return NumberValue(r.AvgRating)
	case RecipeCreatedAt:
		return TimeValue(r.CreatedAt)
	default:
		return TextValue(r.Name)
	}
}

func (r Recipe) Columns() []Column {
	return []Column{RecipeName, RecipeDescription, RecipeAvgRating, RecipeCreatedAt}
}

// Rating returns the average rating, or 0 when the recipe has none.
func (r Recipe) Rating() float64 {
	if r.AvgRating == nil {
		return 0
	}
	return *r.AvgRating
}

// Attachment is an image uploaded with a recipe.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// RecipeInput holds the fields of a new recipe.
type RecipeInput struct {
	Name         string
	Description  string
	Ingredients  []string
	Instructions string
	ImageURL     string
	Image        *Attachment
}

// Validate checks the required fields.
func (in RecipeInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return shared.Invalid("name", "name is required")
	}
	if len(nonEmpty(in.Ingredients)) == 0 {
		return shared.Invalid("ingredients", "at least one ingredient is required")
	}
	if strings.TrimSpace(in.Instructions) == "" {
		return shared.Invalid("instructions", "instructions are required")
	}
	return validImageURL(in.ImageURL)
}

// RecipePatch holds the fields to change on an existing recipe. Nil fields are left alone.
type RecipePatch struct {
	Name         *string
	Description  *string
	Ingredients  []string
	Instructions *string
	ImageURL     *string
	Image        *Attachment
}

// Validate rejects patches that would blank a required field.
func (p RecipePatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return shared.Invalid("name", "name is required")
	}
	if p.Ingredients != nil && len(nonEmpty(p.Ingredients)) == 0 {
		return shared.Invalid("ingredients", "at least one ingredient is required")
	}
	if p.Instructions != nil && strings.TrimSpace(*p.Instructions) == "" {
		return shared.Invalid("instructions", "instructions are required")
	}
	if p.ImageURL != nil {
		return validImageURL(*p.ImageURL)
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p RecipePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Ingredients == nil &&
		p.Instructions == nil && p.ImageURL == nil && p.Image == nil
}

// ValidateRating checks a rating is a whole number of stars from 1 to 5.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return shared.Invalid("rating", "rating must be between 1 and 5")
	}
	return nil
}

// RatingSummary is the aggregate returned by the average-rating endpoint.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

func validImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return shared.Invalid("imageUrl", "image URL must be a valid URL")
	}
	return nil
}

// nonEmpty trims each item and drops blanks.
func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitList splits a comma or newline separated list into trimmed, non-empty items.
func SplitList(raw string) []string {
	return nonEmpty(strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' }))
}
