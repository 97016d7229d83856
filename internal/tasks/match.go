package tasks

import (
	"strings"

	"github.com/desertthunder/flavor/internal/models"
)

// MatchPolicy decides locally whether an entity belongs in a filtered view for query.
//
// It is a heuristic for placing freshly created or updated entities and is deliberately independent
// of the backend's search, which stays authoritative for what a search returns.
type MatchPolicy[T any] func(item T, query string) bool

// MatchRecipe matches a case-insensitive substring of the recipe's name or description.
func MatchRecipe(r models.Recipe, query string) bool {
	q := strings.TrimSpace(query)
	return models.ContainsFold(r.Name, q) || models.ContainsFold(r.Description, q)
}

// MatchTrain matches a case-insensitive substring of the trip's name, origin or destination.
func MatchTrain(t models.Train, query string) bool {
	q := strings.TrimSpace(query)
	return models.ContainsFold(t.Name, q) || models.ContainsFold(t.Origin, q) || models.ContainsFold(t.Destination, q)
}
