package models

import (
	"strings"
	"time"

	"github.com/desertthunder/flavor/internal/shared"
)

// Train sort columns, in the order the sort menu lists them.
const (
	TrainName        Column = "name"
	TrainDeparture   Column = "departure"
	TrainArrival     Column = "arrival"
	TrainOrigin      Column = "origin"
	TrainDestination Column = "destination"
)

// Train is a snapshot of a planned trip. Departure and arrival are kept as the raw strings the backend sent.
type Train struct {
	ID          int    `json:"id"`
	UserID      int    `json:"userId"`
	Name        string `json:"name"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

var _ Entity[Train] = Train{}

func (t Train) EntityID() int { return t.ID }
func (t Train) OwnerID() int  { return t.UserID }

func (t Train) Merge(next Train) Train {
	out := next
	out.ID = pick(t.ID, next.ID)
	out.UserID = pick(t.UserID, next.UserID)
	out.CreatedAt = pick(t.CreatedAt, next.CreatedAt)
	out.UpdatedAt = pick(t.UpdatedAt, next.UpdatedAt)
	return out
}

func (t Train) SortValue(col Column) FieldValue {
	switch col {
	case TrainOrigin:
		return TextValue(t.Origin)
	case TrainDestination:
		return TextValue(t.Destination)
	case TrainDeparture:
		return TimeValue(t.Departure)
	case TrainArrival:
		return TimeValue(t.Arrival)
	default:
		return TextValue(t.Name)
	}
}

func (t Train) Columns() []Column {
	return []Column{TrainName, TrainDeparture, TrainArrival, TrainOrigin, TrainDestination}
}

// TrainInput holds the fields of a new trip.
type TrainInput struct {
	Name        string
	Origin      string
	Destination string
	Departure   time.Time
	Arrival     time.Time
}

// Validate checks the required fields and that both times lie after now.
func (in TrainInput) Validate(now time.Time) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return shared.Invalid("name", "name is required")
	case strings.TrimSpace(in.Origin) == "":
		return shared.Invalid("origin", "origin is required")
	case strings.TrimSpace(in.Destination) == "":
		return shared.Invalid("destination", "destination is required")
	case in.Departure.IsZero():
		return shared.Invalid("departure", "departure is required")
	case in.Arrival.IsZero():
		return shared.Invalid("arrival", "arrival is required")
	case !in.Departure.After(now):
		return shared.Invalid("departure", "departure must be in the future")
	case !in.Arrival.After(now):
		return shared.Invalid("arrival", "arrival must be in the future")
	}
	return nil
}

// TrainPatch holds the fields to change on an existing trip. Nil fields are left alone.
type TrainPatch struct {
	Name        *string
	Origin      *string
	Destination *string
	Departure   *time.Time
	Arrival     *time.Time
}

// Validate rejects patches that would blank a required field.
func (p TrainPatch) Validate() error {
	fields := []struct {
		name  string
		value *string
	}{{"name", p.Name}, {"origin", p.Origin}, {"destination", p.Destination}}
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return shared.Invalid(f.name, f.name+" is required")
		}
	}
	if p.Departure != nil && p.Departure.IsZero() {
		return shared.Invalid("departure", "departure is required")
	}
	if p.Arrival != nil && p.Arrival.IsZero() {
		return shared.Invalid("arrival", "arrival is required")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p TrainPatch) Empty() bool {
	return p.Name == nil && p.Origin == nil && p.Destination == nil && p.Departure == nil && p.Arrival == nil
}
