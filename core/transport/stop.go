package transport

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/collab46515/accademy-assist-sub006/core"
)

// StopType classifies a stop on a route.
type StopType string

const (
	StopDepot   StopType = "depot"
	StopSchool  StopType = "school"
	StopStudent StopType = "student_stop"
)

func (t StopType) Valid() bool {
	switch t {
	case StopDepot, StopSchool, StopStudent:
		return true
	}
	return false
}

// Stop belongs to exactly one route. Coordinates are optional: address-only
// stops skip the geofence check entirely. Deactivation is preferred over
// deletion so historical boarding events keep their stop references.
type Stop struct {
	ID              string       `json:"id"`
	SchoolID        string       `json:"school_id"`
	RouteID         string       `json:"route_id"`
	Name            string       `json:"name"`
	Type            StopType     `json:"type"`
	Latitude        null.Float64 `json:"latitude"`
	Longitude       null.Float64 `json:"longitude"`
	GeofenceRadiusM float64      `json:"geofence_radius_m"`
	PickupTime      string       `json:"pickup_time"` // HH:MM, local school time
	DropTime        null.String  `json:"drop_time"`   // HH:MM
	Active          bool         `json:"active"`
	CreatedAt       time.Time    `json:"created_at"` // UTC
	UpdatedAt       time.Time    `json:"updated_at"` // UTC
}

// Geofenced reports whether the stop participates in overlap checks.
func (s Stop) Geofenced() bool {
	return s.Latitude.Valid && s.Longitude.Valid
}

// NewStop contains information needed to create a Stop.
type NewStop struct {
	RouteID         string   `json:"route_id" validate:"required"`
	Name            string   `json:"name" validate:"required"`
	Type            StopType `json:"type" validate:"required"`
	Latitude        *float64 `json:"latitude" validate:"omitempty,latitude_deg,required_with=Longitude"`
	Longitude       *float64 `json:"longitude" validate:"omitempty,longitude_deg,required_with=Latitude"`
	GeofenceRadiusM float64  `json:"geofence_radius_m" validate:"georadius"`
	PickupTime      string   `json:"pickup_time" validate:"required,datetime=15:04"`
	DropTime        string   `json:"drop_time" validate:"omitempty,datetime=15:04"`
}

func (ns *NewStop) Validate(validate *validator.Validate) error {
	ns.RouteID = core.CleanString(ns.RouteID)
	ns.Name = core.CleanString(ns.Name)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if !ns.Type.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "type", Error: "unknown stop type"})
	}
	return nil
}

// UpdateStop contains information needed to edit a Stop. Nil members are
// left unchanged; coordinate and radius edits re-run the geofence check.
type UpdateStop struct {
	Name            string   `json:"name"`
	Type            StopType `json:"type"`
	Latitude        *float64 `json:"latitude" validate:"omitempty,latitude_deg"`
	Longitude       *float64 `json:"longitude" validate:"omitempty,longitude_deg"`
	GeofenceRadiusM *float64 `json:"geofence_radius_m" validate:"omitempty,georadius"`
	PickupTime      string   `json:"pickup_time" validate:"omitempty,datetime=15:04"`
	DropTime        string   `json:"drop_time" validate:"omitempty,datetime=15:04"`
	Active          *bool    `json:"active"`
}

func (us *UpdateStop) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.Type != "" && !us.Type.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "type", Error: "unknown stop type"})
	}
	return nil
}

// StopFilter applies AND operation on available fields.
type StopFilter struct {
	RouteID string   `json:"route_id"`
	Type    StopType `json:"type"`
	Active  *bool    `json:"active"`
}
