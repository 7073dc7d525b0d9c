package transport

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/collab46515/accademy-assist-sub006/core"
)

type (
	AlertType     string
	AlertPriority string
)

const (
	AlertSOS            AlertType = "sos"
	AlertAccident       AlertType = "accident"
	AlertBreakdown      AlertType = "breakdown"
	AlertDelay          AlertType = "delay"
	AlertStudentMissing AlertType = "student_missing"

	AlertLow      AlertPriority = "low"
	AlertMedium   AlertPriority = "medium"
	AlertHigh     AlertPriority = "high"
	AlertCritical AlertPriority = "critical"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertSOS, AlertAccident, AlertBreakdown, AlertDelay, AlertStudentMissing:
		return true
	}
	return false
}

func (p AlertPriority) Valid() bool {
	switch p {
	case AlertLow, AlertMedium, AlertHigh, AlertCritical:
		return true
	}
	return false
}

// Alert is an operational alert raised by rule evaluation or manual report.
// Lifecycle: unacknowledged -> acknowledged -> resolved, or unacknowledged ->
// resolved directly for non-critical priorities only. Immutable once resolved.
type Alert struct {
	ID             string        `json:"id"`
	SchoolID       string        `json:"school_id"`
	Type           AlertType     `json:"type"`
	Priority       AlertPriority `json:"priority"`
	Title          string        `json:"title"`
	Message        string        `json:"message"`
	TripInstanceID null.String   `json:"source_trip_instance_id"`
	CreatedAt      time.Time     `json:"created_at"` // UTC
	AcknowledgedAt null.Time     `json:"acknowledged_at"`
	ResolvedAt     null.Time     `json:"resolved_at"`
}

func (a Alert) Acknowledged() bool { return a.AcknowledgedAt.Valid }
func (a Alert) Resolved() bool     { return a.ResolvedAt.Valid }

// NewAlert contains information needed to raise an Alert.
type NewAlert struct {
	Type     AlertType     `json:"type" validate:"required"`
	Priority AlertPriority `json:"priority" validate:"required"`
	Title    string        `json:"title" validate:"required"`
	Message  string        `json:"message"`
	TripID   string        `json:"source_trip_instance_id"`
}

func (na *NewAlert) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Message = core.CleanString(na.Message)
	na.TripID = core.CleanString(na.TripID)
	if err := validate.Struct(na); err != nil {
		return err
	}
	if !na.Type.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "type", Error: "unknown alert type"})
	}
	if !na.Priority.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "priority", Error: "unknown alert priority"})
	}
	return nil
}

// AlertFilter applies AND operation on available fields.
type AlertFilter struct {
	Type       AlertType     `json:"type"`
	Priority   AlertPriority `json:"priority"`
	TripID     string        `json:"source_trip_instance_id"`
	Unresolved bool          `json:"unresolved"`
}

// TriageReport groups unresolved alerts into three disjoint buckets for
// operator presentation; critical-unacknowledged always surfaces first.
type TriageReport struct {
	CriticalUnacknowledged []Alert `json:"critical_unacknowledged"`
	Unacknowledged         []Alert `json:"unacknowledged"`
	InProgress             []Alert `json:"in_progress"`
}
