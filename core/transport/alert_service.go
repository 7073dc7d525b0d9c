package transport

import (
	"context"
	"time"
)

type (
	AlertRepository interface {
		CreateAlert(ctx context.Context, alert Alert) (Alert, error)
		GetAlert(ctx context.Context, schoolID, id string) (Alert, error)
		// FilterAlerts applies AND operation on available AlertFilter fields,
		// ordered by created_at descending.
		FilterAlerts(ctx context.Context, schoolID string, filter AlertFilter) ([]Alert, error)
		// AcknowledgeAlert stamps acknowledged_at only if the alert is still
		// unacknowledged and unresolved; ErrConcurrentModification otherwise.
		AcknowledgeAlert(ctx context.Context, schoolID, id string, at time.Time) (Alert, error)
		// ResolveAlert stamps resolved_at only if the alert is still unresolved
		// (and, when requireAck, already acknowledged); ErrConcurrentModification
		// otherwise.
		ResolveAlert(ctx context.Context, schoolID, id string, at time.Time, requireAck bool) (Alert, error)
		// HasOpenAlert reports an unresolved alert of the given type referencing
		// the trip.
		HasOpenAlert(ctx context.Context, schoolID, tripID string, typ AlertType) (bool, error)
	}

	// AlertService owns alert creation and the acknowledge/resolve lifecycle
	// with priority-based triage.
	AlertService struct {
		repo AlertRepository
	}
)

func NewAlertService(repo AlertRepository) *AlertService {
	return &AlertService{repo: repo}
}

// Raise creates an alert in unacknowledged.
func (svc *AlertService) Raise(ctx context.Context, schoolID string, na NewAlert) (Alert, error) {
	alert := Alert{
		SchoolID:  schoolID,
		Type:      na.Type,
		Priority:  na.Priority,
		Title:     na.Title,
		Message:   na.Message,
		CreatedAt: time.Now().UTC(),
	}
	if na.TripID != "" {
		alert.TripInstanceID.SetValid(na.TripID)
	}
	return svc.repo.CreateAlert(ctx, alert)
}

func (svc *AlertService) Get(ctx context.Context, schoolID, id string) (Alert, error) {
	return svc.repo.GetAlert(ctx, schoolID, id)
}

func (svc *AlertService) Filter(ctx context.Context, schoolID string, filter AlertFilter) ([]Alert, error) {
	return svc.repo.FilterAlerts(ctx, schoolID, filter)
}

// Acknowledge moves an unacknowledged alert to acknowledged.
func (svc *AlertService) Acknowledge(ctx context.Context, schoolID, id string) (Alert, error) {
	alert, err := svc.repo.GetAlert(ctx, schoolID, id)
	if err != nil {
		return Alert{}, err
	}
	if alert.Resolved() {
		return Alert{}, alertTransitionErr(alert, "acknowledged", "alert is already resolved")
	}
	if alert.Acknowledged() {
		return Alert{}, alertTransitionErr(alert, "acknowledged", "alert is already acknowledged")
	}
	return svc.repo.AcknowledgeAlert(ctx, schoolID, id, time.Now().UTC())
}

// Resolve closes an alert. Critical alerts must be acknowledged first;
// non-critical alerts may skip acknowledgement.
func (svc *AlertService) Resolve(ctx context.Context, schoolID, id string) (Alert, error) {
	alert, err := svc.repo.GetAlert(ctx, schoolID, id)
	if err != nil {
		return Alert{}, err
	}
	if alert.Resolved() {
		return Alert{}, alertTransitionErr(alert, "resolved", "alert is already resolved")
	}
	requireAck := alert.Priority == AlertCritical
	if requireAck && !alert.Acknowledged() {
		return Alert{}, alertTransitionErr(alert, "resolved", "critical alerts require acknowledgement before resolution")
	}
	return svc.repo.ResolveAlert(ctx, schoolID, id, time.Now().UTC(), requireAck)
}

// Triage buckets unresolved alerts for the operator dashboard. Resolved
// alerts are excluded entirely.
func (svc *AlertService) Triage(ctx context.Context, schoolID string) (TriageReport, error) {
	open, err := svc.repo.FilterAlerts(ctx, schoolID, AlertFilter{Unresolved: true})
	if err != nil {
		return TriageReport{}, err
	}

	report := TriageReport{
		CriticalUnacknowledged: []Alert{},
		Unacknowledged:         []Alert{},
		InProgress:             []Alert{},
	}
	for _, alert := range open {
		switch {
		case alert.Acknowledged():
			report.InProgress = append(report.InProgress, alert)
		case alert.Priority == AlertCritical:
			report.CriticalUnacknowledged = append(report.CriticalUnacknowledged, alert)
		default:
			report.Unacknowledged = append(report.Unacknowledged, alert)
		}
	}
	return report, nil
}

// HasOpenAlert reports an unresolved alert of the given type for the trip.
func (svc *AlertService) HasOpenAlert(ctx context.Context, schoolID, tripID string, typ AlertType) (bool, error) {
	return svc.repo.HasOpenAlert(ctx, schoolID, tripID, typ)
}

func alertTransitionErr(alert Alert, to, reason string) error {
	from := "unacknowledged"
	if alert.Resolved() {
		from = "resolved"
	} else if alert.Acknowledged() {
		from = "acknowledged"
	}
	return &InvalidStateTransitionError{Entity: "alert", From: from, To: to, Reason: reason}
}
