package transport

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

type (
	TripRepository interface {
		CreateTripInstance(ctx context.Context, trip TripInstance) (TripInstance, error)
		GetTripInstance(ctx context.Context, schoolID, id string) (TripInstance, error)
		// FilterTripInstances applies AND operation on available TripFilter fields,
		// ordered by scheduled_start descending.
		FilterTripInstances(ctx context.Context, schoolID string, filter TripFilter) ([]TripInstance, error)
		// UpdateTripStatus applies trip's mutable fields only if the stored status
		// still equals expected; it fails with ErrConcurrentModification otherwise.
		UpdateTripStatus(ctx context.Context, trip TripInstance, expected TripStatus) (TripInstance, error)
	}

	// TripService owns the trip-instance state machine. It consumes the
	// boarding ledger for progress reporting and raises delay alerts.
	TripService struct {
		repo   TripRepository
		ledger *BoardingService
		alerts *AlertService
	}
)

func NewTripService(repo TripRepository, ledger *BoardingService, alerts *AlertService) *TripService {
	return &TripService{repo: repo, ledger: ledger, alerts: alerts}
}

// Create plans a new trip instance in scheduled. This is the scheduling
// collaborator's entry point.
func (svc *TripService) Create(ctx context.Context, schoolID string, nt NewTripInstance) (TripInstance, error) {
	now := time.Now().UTC()
	trip := TripInstance{
		SchoolID:             schoolID,
		RouteID:              nt.RouteID,
		Status:               TripScheduled,
		ScheduledStart:       nt.ScheduledStart.UTC(),
		ExpectedStudentCount: nt.ExpectedStudentCount,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if nt.DriverID != "" {
		trip.DriverID.SetValid(nt.DriverID)
	}
	if nt.VehicleID != "" {
		trip.VehicleID.SetValid(nt.VehicleID)
	}
	return svc.repo.CreateTripInstance(ctx, trip)
}

func (svc *TripService) Get(ctx context.Context, schoolID, id string) (TripInstance, error) {
	return svc.repo.GetTripInstance(ctx, schoolID, id)
}

func (svc *TripService) Filter(ctx context.Context, schoolID string, filter TripFilter) ([]TripInstance, error) {
	return svc.repo.FilterTripInstances(ctx, schoolID, filter)
}

// Start moves a scheduled trip to in_progress, making it eligible to accept
// boarding events. Both a driver and a vehicle must be assigned.
func (svc *TripService) Start(ctx context.Context, schoolID, tripID, driverID, vehicleID string) (TripInstance, error) {
	trip, err := svc.repo.GetTripInstance(ctx, schoolID, tripID)
	if err != nil {
		return TripInstance{}, err
	}
	if driverID == "" {
		return TripInstance{}, &MissingAssignmentError{Field: "driver"}
	}
	if vehicleID == "" {
		return TripInstance{}, &MissingAssignmentError{Field: "vehicle"}
	}
	if !trip.Status.CanTransitionTo(TripInProgress) {
		return TripInstance{}, transitionErr(trip.Status, TripInProgress)
	}

	trip.Status = TripInProgress
	trip.ActualStart.SetValid(time.Now().UTC())
	trip.DriverID.SetValid(driverID)
	trip.VehicleID.SetValid(vehicleID)
	return svc.compareAndSet(ctx, trip, TripScheduled)
}

// Complete terminates an in_progress or delayed trip. Derived counts freeze
// naturally: the ledger stops accepting events once the trip leaves in_progress.
func (svc *TripService) Complete(ctx context.Context, schoolID, tripID string) (TripInstance, error) {
	trip, err := svc.repo.GetTripInstance(ctx, schoolID, tripID)
	if err != nil {
		return TripInstance{}, err
	}
	if !trip.Status.CanTransitionTo(TripCompleted) {
		return TripInstance{}, transitionErr(trip.Status, TripCompleted)
	}

	expected := trip.Status
	trip.Status = TripCompleted
	trip.ActualEnd.SetValid(time.Now().UTC())
	return svc.compareAndSet(ctx, trip, expected)
}

// MarkDelayed flags an in_progress trip as delayed and raises a delay alert.
// Escalation past medium is the caller's policy; it passes escalate=true when
// its delay threshold is exceeded.
func (svc *TripService) MarkDelayed(ctx context.Context, schoolID, tripID, reason string, escalate bool) (TripInstance, error) {
	trip, err := svc.repo.GetTripInstance(ctx, schoolID, tripID)
	if err != nil {
		return TripInstance{}, err
	}
	if trip.Status != TripInProgress {
		return TripInstance{}, transitionErr(trip.Status, TripDelayed)
	}

	trip.Status = TripDelayed
	trip.Reason.SetValid(reason)
	trip, err = svc.compareAndSet(ctx, trip, TripInProgress)
	if err != nil {
		return TripInstance{}, err
	}

	priority := AlertMedium
	if escalate {
		priority = AlertHigh
	}
	na := NewAlert{
		Type:     AlertDelay,
		Priority: priority,
		Title:    "Trip delayed on route " + trip.RouteID,
		Message:  reason,
		TripID:   trip.ID,
	}
	if _, aerr := svc.alerts.Raise(ctx, schoolID, na); aerr != nil {
		return trip, errors.Wrap(aerr, "raising delay alert")
	}
	return trip, nil
}

// Cancel is permitted from any non-terminal state.
func (svc *TripService) Cancel(ctx context.Context, schoolID, tripID, reason string) (TripInstance, error) {
	trip, err := svc.repo.GetTripInstance(ctx, schoolID, tripID)
	if err != nil {
		return TripInstance{}, err
	}
	if !trip.Status.CanTransitionTo(TripCancelled) {
		return TripInstance{}, transitionErr(trip.Status, TripCancelled)
	}

	expected := trip.Status
	trip.Status = TripCancelled
	trip.Reason.SetValid(reason)
	trip.ActualEnd.SetValid(time.Now().UTC())
	return svc.compareAndSet(ctx, trip, expected)
}

// Progress reads live counts from the boarding ledger; never cached past a
// single read.
func (svc *TripService) Progress(ctx context.Context, schoolID, tripID string) (TripProgress, error) {
	trip, err := svc.repo.GetTripInstance(ctx, schoolID, tripID)
	if err != nil {
		return TripProgress{}, err
	}

	boarded, err := svc.ledger.BoardedCount(ctx, schoolID, tripID)
	if err != nil {
		return TripProgress{}, errors.Wrap(err, "reading boarded count")
	}
	dropped, err := svc.ledger.DroppedCount(ctx, schoolID, tripID)
	if err != nil {
		return TripProgress{}, errors.Wrap(err, "reading dropped count")
	}
	noShow, err := svc.ledger.NoShowCount(ctx, schoolID, tripID)
	if err != nil {
		return TripProgress{}, errors.Wrap(err, "reading no-show count")
	}

	return TripProgress{
		Boarded:  boarded,
		Dropped:  dropped,
		NoShow:   noShow,
		Expected: trip.ExpectedStudentCount,
	}, nil
}

func (svc *TripService) compareAndSet(ctx context.Context, trip TripInstance, expected TripStatus) (TripInstance, error) {
	trip.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTripStatus(ctx, trip, expected)
}

func transitionErr(from, to TripStatus) error {
	return &InvalidStateTransitionError{Entity: "trip instance", From: string(from), To: string(to)}
}
