package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/flavor/internal/formatter"
	"github.com/desertthunder/flavor/internal/models"
)

var _ list.Item = item{}

// item is one row of the list view.
type item struct {
	id    int
	title string
	desc  string
}

func (i item) FilterValue() string { return i.title }
func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }

// ColumnLabel names a sortable column in the sort menu.
type ColumnLabel struct {
	Column models.Column
	Label  string
}

// RecipeColumns is the recipe sort menu.
var RecipeColumns = []ColumnLabel{
	{models.RecipeName, "Name"},
	{models.RecipeDescription, "Description"},
	{models.RecipeAvgRating, "Rating"},
	{models.RecipeCreatedAt, "Created"},
}

// TrainColumns is the train sort menu.
var TrainColumns = []ColumnLabel{
	{models.TrainName, "Name"},
	{models.TrainDeparture, "Departure"},
	{models.TrainArrival, "Arrival"},
	{models.TrainOrigin, "Origin"},
	{models.TrainDestination, "Destination"},
}

func recipeItem(r models.Recipe) item {
	desc := formatter.FormatRating(r.AvgRating, r.RatingsCount)
	if r.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, r.Description)
	}
	return item{id: r.ID, title: r.Name, desc: desc}
}

func trainItem(t models.Train) item {
	desc := fmt.Sprintf("%s → %s", t.Origin, t.Destination)
	if t.Departure != "" {
		desc = fmt.Sprintf("%s • %s", desc, formatter.FormatTime(t.Departure))
	}
	return item{id: t.ID, title: t.Name, desc: desc}
}

// recipeClip is what copying a recipe puts on the clipboard: its ingredient list.
func recipeClip(r models.Recipe) string {
	return strings.Join(r.Ingredients, "\n")
}

func trainClip(t models.Train) string {
	return fmt.Sprintf("%s: %s → %s, %s to %s", t.Name, t.Origin, t.Destination,
		formatter.FormatTime(t.Departure), formatter.FormatTime(t.Arrival))
}
