package tasks

import (
	"cmp"
	"slices"

	"github.com/desertthunder/flavor/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Direction is a sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc" or "desc", defaulting to ascending.
func ParseDirection(s string) Direction {
	if s == "desc" || s == "descending" {
		return Descending
	}
	return Ascending
}

// SortState is the active sort column and direction. An empty Column means the view is unsorted.
type SortState struct {
	Column    models.Column
	Direction Direction
}

// Active reports whether a column is selected.
func (s SortState) Active() bool {
	return s.Column != ""
}

// Toggle selects col: choosing the active column again flips the direction, a new column starts ascending.
func (s SortState) Toggle(col models.Column) SortState {
	if s.Column == col {
		if s.Direction == Ascending {
			return SortState{Column: col, Direction: Descending}
		}
		return SortState{Column: col, Direction: Ascending}
	}
	return SortState{Column: col, Direction: Ascending}
}

func (s SortState) String() string {
	if !s.Active() {
		return "none"
	}
	return string(s.Column) + " " + s.Direction.String()
}

// SortEntities returns a stably sorted copy of items. The input slice is never reordered.
//
// Text compares case-insensitively. Numbers and timestamps compare by value; a missing number or unparsable
// timestamp sorts after every valid one when ascending and before every valid one when descending.
func SortEntities[T models.Entity[T]](items []T, state SortState) []T {
	out := slices.Clone(items)
	if !state.Active() || len(out) < 2 {
		return out
	}

	col := collate.New(language.Und, collate.IgnoreCase)
	slices.SortStableFunc(out, func(a, b T) int {
		return compareValues(col, a.SortValue(state.Column), b.SortValue(state.Column), state.Direction)
	})
	return out
}

func compareValues(col *collate.Collator, a, b models.FieldValue, dir Direction) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		if dir == Ascending {
			return 1
		}
		return -1
	case !b.Valid:
		if dir == Ascending {
			return -1
		}
		return 1
	}

	var c int
	switch a.Kind {
	case models.Number:
		c = cmp.Compare(a.Number, b.Number)
	case models.Time:
		c = a.Time.Compare(b.Time)
	default:
		c = col.CompareString(a.Text, b.Text)
	}

	if dir == Descending {
		return -c
	}
	return c
}
