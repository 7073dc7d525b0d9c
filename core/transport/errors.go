package transport

import (
	"errors"
	"fmt"
)

var (
	// errors
	ErrTripNotFound  = errors.New("trip instance not found")
	ErrStopNotFound  = errors.New("stop not found")
	ErrAlertNotFound = errors.New("alert not found")

	// ErrConcurrentModification means a compare-and-set write lost a race.
	// Safe to retry: re-read the entity and re-apply at the application layer.
	ErrConcurrentModification = errors.New("concurrent modification detected, re-read and retry")
)

// InvalidStateTransitionError is returned when an operation is attempted
// against an entity whose current state does not permit it. The entity is
// left unchanged.
type InvalidStateTransitionError struct {
	Entity string
	From   string
	To     string
	Reason string
}

func (err *InvalidStateTransitionError) Error() string {
	if err.Reason != "" {
		return fmt.Sprintf("%s cannot move from %s to %s: %s", err.Entity, err.From, err.To, err.Reason)
	}
	return fmt.Sprintf("%s cannot move from %s to %s", err.Entity, err.From, err.To)
}

// GeofenceOverlapError reports the first active stop whose geofence circle
// overlaps the candidate's, with the measured great-circle distance for
// operator feedback.
type GeofenceOverlapError struct {
	StopID         string
	StopName       string
	DistanceMeters float64
}

func (err *GeofenceOverlapError) Error() string {
	return fmt.Sprintf("geofence overlaps stop %q (%s) at %.1fm", err.StopName, err.StopID, err.DistanceMeters)
}

// MissingAssignmentError is returned when a trip is started without a driver
// or vehicle assigned.
type MissingAssignmentError struct {
	Field string
}

func (err *MissingAssignmentError) Error() string {
	return fmt.Sprintf("a %s must be assigned before the trip can start", err.Field)
}
