package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DateRange is an inclusive calendar range. End covers the whole day.
type DateRange struct {
	Start time.Time `json:"start" form:"start"`
	End   time.Time `json:"end" form:"end"`
}

// Bounds returns [start of Start's day, start of the day after End).
func (r DateRange) Bounds() (time.Time, time.Time) {
	from := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, r.Start.Location())
	to := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, r.End.Location()).AddDate(0, 0, 1)
	return from, to
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	from, to := r.Bounds()
	return !t.Before(from) && t.Before(to)
}

// Day returns a range covering the single calendar day of t.
func Day(t time.Time) DateRange {
	return DateRange{Start: t, End: t}
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}
