package transport

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/collab46515/accademy-assist-sub006/core"
)

type (
	// BoardingAction is what happened to a student at a stop.
	BoardingAction string

	// BoardingMethod is how the action was captured.
	BoardingMethod string
)

const (
	ActionBoard  BoardingAction = "board"
	ActionAlight BoardingAction = "alight"
	ActionNoShow BoardingAction = "no_show"

	MethodManual   BoardingMethod = "manual"
	MethodQR       BoardingMethod = "qr"
	MethodGeofence BoardingMethod = "geofence"
)

func (a BoardingAction) Valid() bool {
	switch a {
	case ActionBoard, ActionAlight, ActionNoShow:
		return true
	}
	return false
}

func (m BoardingMethod) Valid() bool {
	switch m {
	case MethodManual, MethodQR, MethodGeofence:
		return true
	}
	return false
}

// BoardingEvent is an immutable, append-only ledger entry. Never updated or
// deleted once created.
type BoardingEvent struct {
	ID             string         `json:"id"`
	SchoolID       string         `json:"school_id"`
	TripInstanceID string         `json:"trip_instance_id"`
	StudentID      string         `json:"student_id"`
	StopID         null.String    `json:"stop_id"`
	Action         BoardingAction `json:"action_type"`
	Method         BoardingMethod `json:"method"`
	RecordedBy     string         `json:"recorded_by"`
	ParentNotified bool           `json:"parent_notified"`
	Timestamp      time.Time      `json:"timestamp"` // UTC
}

// NewBoardingEvent contains information needed to record a boarding action.
type NewBoardingEvent struct {
	StudentID    string         `json:"student_id" validate:"required"`
	StopID       string         `json:"stop_id"`
	Action       BoardingAction `json:"action_type" validate:"required"`
	Method       BoardingMethod `json:"method" validate:"required"`
	RecordedBy   string         `json:"recorded_by" validate:"required"`
	NotifyParent bool           `json:"notify_parent"`
	ParentEmail  string         `json:"parent_email" validate:"omitempty,email"`
}

func (ne *NewBoardingEvent) Validate(validate *validator.Validate) error {
	ne.StudentID = core.CleanString(ne.StudentID)
	ne.StopID = core.CleanString(ne.StopID)
	ne.RecordedBy = core.CleanString(ne.RecordedBy)
	ne.ParentEmail = core.CleanString(ne.ParentEmail, true /* lower */)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if !ne.Action.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "action_type", Error: "unknown boarding action"})
	}
	if !ne.Method.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "method", Error: "unknown boarding method"})
	}
	return nil
}
