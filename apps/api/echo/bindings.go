package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/collab46515/accademy-assist-sub006/core"
	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type (
	// StartTripRequest deliberately carries no `required` tags: an absent
	// driver or vehicle is a MissingAssignment business failure, not a
	// malformed request.
	StartTripRequest struct {
		DriverID  string `json:"driver_id"`
		VehicleID string `json:"vehicle_id"`
	}

	// DelayTripRequest's Escalate is tri-state: when absent, the server
	// escalates based on how far past the scheduled start the trip is running.
	DelayTripRequest struct {
		Reason   string `json:"reason" validate:"required"`
		Escalate *bool  `json:"escalate"`
	}

	CancelTripRequest struct {
		Reason string `json:"reason" validate:"required"`
	}
)

func (r *StartTripRequest) clean() {
	r.DriverID = core.CleanString(r.DriverID)
	r.VehicleID = core.CleanString(r.VehicleID)
}

func tripFilterFromQuery(ctx echo.Context) (transport.TripFilter, error) {
	filter := transport.TripFilter{
		RouteID: ctx.QueryParam("route_id"),
		Status:  transport.TripStatus(ctx.QueryParam("status")),
	}
	if raw := ctx.QueryParam("scheduled_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, core.NewValidationError(err, core.FieldError{Field: "scheduled_from", Error: "must be RFC3339"})
		}
		filter.ScheduledFrom = t
	}
	if raw := ctx.QueryParam("scheduled_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, core.NewValidationError(err, core.FieldError{Field: "scheduled_to", Error: "must be RFC3339"})
		}
		filter.ScheduledTo = t
	}
	return filter, nil
}

func stopFilterFromQuery(ctx echo.Context) (transport.StopFilter, error) {
	filter := transport.StopFilter{
		RouteID: ctx.QueryParam("route_id"),
		Type:    transport.StopType(ctx.QueryParam("type")),
	}
	if raw := ctx.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, core.NewValidationError(err, core.FieldError{Field: "active", Error: "must be a boolean"})
		}
		filter.Active = &active
	}
	return filter, nil
}

func alertFilterFromQuery(ctx echo.Context) (transport.AlertFilter, error) {
	filter := transport.AlertFilter{
		Type:     transport.AlertType(ctx.QueryParam("type")),
		Priority: transport.AlertPriority(ctx.QueryParam("priority")),
		TripID:   ctx.QueryParam("trip_instance_id"),
	}
	if raw := ctx.QueryParam("unresolved"); raw != "" {
		unresolved, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, core.NewValidationError(err, core.FieldError{Field: "unresolved", Error: "must be a boolean"})
		}
		filter.Unresolved = unresolved
	}
	return filter, nil
}
