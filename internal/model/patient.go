package model

import (
	"time"

	"github.com/jwalitptl/cardio-api/internal/clinical"
)

// PediatricAgeLimit is the age at which a patient is expected to be adult.
const PediatricAgeLimit = 18

type Patient struct {
	Base
	Name      string        `json:"name" db:"name"`
	BirthDate time.Time     `json:"birth_date" db:"birth_date"`
	Sex       *clinical.Sex `json:"sex,omitempty" db:"sex"`
	Pediatric bool          `json:"pediatric" db:"pediatric"`
	Contact   string        `json:"contact" db:"contact"`
	Guardian  *string       `json:"guardian,omitempty" db:"guardian"`
}

// AgeAt returns the patient's completed years at t.
func (p *Patient) AgeAt(t time.Time) int {
	return clinical.AgeInYears(p.BirthDate, t)
}

type CreatePatientRequest struct {
	Name      string    `json:"name" validate:"required,max=200"`
	BirthDate time.Time `json:"birth_date" validate:"required"`
	Sex       string    `json:"sex" validate:"omitempty,oneof=M F"`
	Pediatric bool      `json:"pediatric"`
	Contact   string    `json:"contact" validate:"required"`
	Guardian  string    `json:"guardian" validate:"max=200"`
}

type UpdatePatientRequest struct {
	Name      *string    `json:"name"`
	BirthDate *time.Time `json:"birth_date"`
	Sex       *string    `json:"sex" validate:"omitempty,oneof=M F"`
	Pediatric *bool      `json:"pediatric"`
	Contact   *string    `json:"contact"`
	Guardian  *string    `json:"guardian"`
}

// PatientFilters matches Query against the name or the leading part of the ID.
type PatientFilters struct {
	Query string `form:"q"`
}
