package models

import (
	"strings"

	"github.com/desertthunder/flavor/internal/shared"
)

// Note is a user's private note attached to a recipe.
type Note struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	RecipeID  int    `json:"recipeId"`
	UserID    int    `json:"userId"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// NoteInput is the body of a note create.
type NoteInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	UserID   int    `json:"userId"`
	RecipeID int    `json:"recipeId"`
}

func (in NoteInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return shared.Invalid("title", "note title is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return shared.Invalid("content", "note content is required")
	}
	return nil
}

// NotePatch is the body of a note update. Nil fields are left alone.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (p NotePatch) Validate() error {
	if p.Title == nil && p.Content == nil {
		return shared.Invalid("note", "nothing to update")
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return shared.Invalid("title", "note title is required")
	}
	return nil
}
