package model

import (
	"github.com/google/uuid"
)

type Clinician struct {
	Base
	Name      string    `json:"name" db:"name"`
	Specialty string    `json:"specialty" db:"specialty"`
	Email     string    `json:"email" db:"email"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
}

type CreateClinicianRequest struct {
	Name      string `json:"name" validate:"required"`
	Specialty string `json:"specialty" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Password  string `json:"password" validate:"required,min=8"`
}
