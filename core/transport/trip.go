package transport

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/collab46515/accademy-assist-sub006/core"
)

// TripStatus is the lifecycle state of a TripInstance.
type TripStatus string

const (
	TripScheduled  TripStatus = "scheduled"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripDelayed    TripStatus = "delayed"
	TripCancelled  TripStatus = "cancelled"
)

// CanTransitionTo is the single source of truth for trip state legality.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	switch s {
	case TripScheduled:
		return next == TripInProgress || next == TripCancelled
	case TripInProgress:
		return next == TripCompleted || next == TripDelayed || next == TripCancelled
	case TripDelayed:
		return next == TripCompleted || next == TripCancelled
	case TripCompleted, TripCancelled:
		return false
	}
	return false
}

// Terminal reports whether no further transitions are accepted.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCancelled
}

func (s TripStatus) Valid() bool {
	switch s {
	case TripScheduled, TripInProgress, TripCompleted, TripDelayed, TripCancelled:
		return true
	}
	return false
}

// TripInstance is one scheduled occurrence of a route run by a vehicle/driver.
// Created in scheduled by the scheduling collaborator; mutated only by the
// trip service; never deleted, only terminal. Boarded/dropped counts are
// derived from the boarding ledger and are deliberately not fields here.
type TripInstance struct {
	ID                   string      `json:"id"`
	SchoolID             string      `json:"school_id"`
	RouteID              string      `json:"route_id"`
	Status               TripStatus  `json:"status"`
	ScheduledStart       time.Time   `json:"scheduled_start"` // UTC
	ActualStart          null.Time   `json:"actual_start"`
	ActualEnd            null.Time   `json:"actual_end"`
	ExpectedStudentCount int         `json:"expected_student_count"`
	DriverID             null.String `json:"driver_id"`
	VehicleID            null.String `json:"vehicle_id"`
	Reason               null.String `json:"reason"` // delay or cancellation reason
	CreatedAt            time.Time   `json:"created_at"` // UTC
	UpdatedAt            time.Time   `json:"updated_at"` // UTC
}

// TripProgress is a live, never-cached read of the ledger against the roster.
type TripProgress struct {
	Boarded  int `json:"boarded"`
	Dropped  int `json:"dropped"`
	NoShow   int `json:"no_show"`
	Expected int `json:"expected"`
}

// NewTripInstance contains information needed to plan a new TripInstance.
type NewTripInstance struct {
	RouteID              string    `json:"route_id" validate:"required"`
	ScheduledStart       time.Time `json:"scheduled_start" validate:"required"`
	ExpectedStudentCount int       `json:"expected_student_count" validate:"gte=0"`
	DriverID             string    `json:"driver_id"`
	VehicleID            string    `json:"vehicle_id"`
}

func (nt *NewTripInstance) Validate(validate *validator.Validate) error {
	nt.RouteID = core.CleanString(nt.RouteID)
	nt.DriverID = core.CleanString(nt.DriverID)
	nt.VehicleID = core.CleanString(nt.VehicleID)
	return validate.Struct(nt)
}

// TripFilter applies AND operation on available fields.
type TripFilter struct {
	RouteID       string     `json:"route_id"`
	Status        TripStatus `json:"status"`
	ScheduledFrom time.Time  `json:"scheduled_from"`
	ScheduledTo   time.Time  `json:"scheduled_to"`
}
