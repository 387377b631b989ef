package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled      AppointmentStatus = "scheduled"
	AppointmentStatusArrived        AppointmentStatus = "arrived"
	AppointmentStatusInConsultation AppointmentStatus = "in_consultation"
	AppointmentStatusCompleted      AppointmentStatus = "completed"
	AppointmentStatusNoShow         AppointmentStatus = "no_show"
)

// AppointmentStatuses lists every status in lifecycle order.
var AppointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusArrived,
	AppointmentStatusInConsultation,
	AppointmentStatusCompleted,
	AppointmentStatusNoShow,
}

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled:      {AppointmentStatusArrived, AppointmentStatusNoShow},
	AppointmentStatusArrived:        {AppointmentStatusInConsultation, AppointmentStatusNoShow},
	AppointmentStatusInConsultation: {AppointmentStatusCompleted, AppointmentStatusNoShow},
}

func (s AppointmentStatus) Valid() bool {
	for _, st := range AppointmentStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusNoShow
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	Base
	PatientID   uuid.UUID         `db:"patient_id" json:"patient_id"`
	ClinicianID uuid.UUID         `db:"clinician_id" json:"clinician_id"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	Status      AppointmentStatus `db:"status" json:"status"`
	PatientName string            `db:"patient_name" json:"patient_name,omitempty"`
}

type CreateAppointmentRequest struct {
	PatientID   uuid.UUID `json:"patient_id" validate:"required"`
	ClinicianID uuid.UUID `json:"clinician_id" validate:"required"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

type TransitionRequest struct {
	Status AppointmentStatus `json:"status" binding:"required"`
}

type AppointmentFilters struct {
	ClinicianID *uuid.UUID
	Status      AppointmentStatus
	Range       DateRange
}

// AppointmentStats aggregates appointment outcomes over a date range.
type AppointmentStats struct {
	ClinicianID    *uuid.UUID                `json:"clinician_id,omitempty"`
	Range          DateRange                 `json:"range"`
	ByStatus       map[AppointmentStatus]int `json:"by_status"`
	Total          int                       `json:"total"`
	Completed      int                       `json:"completed"`
	NoShow         int                       `json:"no_show"`
	AttendanceRate float64                   `json:"attendance_rate"`
}

type ClinicianStats struct {
	ClinicianID    uuid.UUID `json:"clinician_id"`
	ClinicianName  string    `json:"clinician_name"`
	Total          int       `json:"total"`
	Completed      int       `json:"completed"`
	NoShow         int       `json:"no_show"`
	AttendanceRate float64   `json:"attendance_rate"`
}

// StatusCount is one row of a GROUP BY status aggregation.
type StatusCount struct {
	ClinicianID uuid.UUID         `db:"clinician_id"`
	Status      AppointmentStatus `db:"status"`
	Count       int               `db:"count"`
}
