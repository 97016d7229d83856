// package models defines the data model for the recipe & train client
package models

import (
	"strings"
	"time"
)

// Entity is a record held by a list controller. Implementations are value types; a controller never mutates one in place.
type Entity[T any] interface {
	EntityID() int                   // EntityID returns the server-assigned id, unique within its collection
	OwnerID() int                    // OwnerID returns the id of the user who created the entity
	Merge(next T) T                  // Merge overlays next, an update response, onto the receiver and returns the result
	SortValue(col Column) FieldValue // SortValue returns the value compared when sorting by col
	Columns() []Column               // Columns lists the columns the entity can be sorted by
}

// Column names a sortable field.
type Column string

// Kind describes how a [FieldValue] is compared.
type Kind int

const (
	Text Kind = iota
	Number
	Time
)

// FieldValue is a single comparable field extracted from an entity.
//
// For [Time] values Valid reports whether the raw string parsed; invalid times sort after every valid time
// in ascending order and before them in descending order.
type FieldValue struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
	Valid  bool
}

// TextValue wraps s as a [Text] field.
func TextValue(s string) FieldValue {
	return FieldValue{Kind: Text, Text: s, Valid: true}
}

// NumberValue wraps n as a [Number] field. A nil n is treated like an unparsable date.
func NumberValue(n *float64) FieldValue {
	if n == nil {
		return FieldValue{Kind: Number}
	}
	return FieldValue{Kind: Number, Number: *n, Valid: true}
}

// TimeValue parses raw as a timestamp.
func TimeValue(raw string) FieldValue {
	t, ok := ParseTime(raw)
	return FieldValue{Kind: Time, Text: raw, Time: t, Valid: ok}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseTime parses the timestamp formats the backend and the CLI emit.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func pick[T comparable](prev, next T) T {
	var zero T
	if next == zero {
		return prev
	}
	return next
}

func pickPtr[T any](prev, next *T) *T {
	if next == nil {
		return prev
	}
	return next
}
