package transport

import (
	"context"
	"fmt"
	"iter"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/collab46515/accademy-assist-sub006/core"
)

type (
	BoardingRepository interface {
		// CreateBoardingEvent appends ev to the ledger. For board actions the
		// insert is idempotent per (trip, student): when an effective board
		// already exists the stored event is returned with created=false.
		CreateBoardingEvent(ctx context.Context, ev BoardingEvent) (stored BoardingEvent, created bool, err error)
		// EventsForTrip returns the trip's events ordered by timestamp ascending.
		EventsForTrip(ctx context.Context, schoolID, tripID string) ([]BoardingEvent, error)
		// CountDistinctStudents counts students with at least one event of the
		// given action on the trip.
		CountDistinctStudents(ctx context.Context, schoolID, tripID string, action BoardingAction) (int, error)
	}

	// BoardingService is the append-only ledger of board/alight/no-show
	// actions. Counts are derived from the ledger at read time, never stored,
	// so there is no drift between the ledger and a counter column.
	BoardingService struct {
		repo        BoardingRepository
		trips       TripRepository
		alerts      *AlertService
		mailSvc     core.EmailService
		noShowRatio float64
	}
)

func NewBoardingService(repo BoardingRepository, trips TripRepository, alerts *AlertService, mailSvc core.EmailService, noShowRatio float64) *BoardingService {
	return &BoardingService{
		repo:        repo,
		trips:       trips,
		alerts:      alerts,
		mailSvc:     mailSvc,
		noShowRatio: noShowRatio,
	}
}

// RecordAction appends an event for a trip that must be in_progress.
// A duplicate board for the same (trip, student) is accepted but produces no
// new countable event and no side effects; this guards against double-scan
// and double-tap submissions.
func (svc *BoardingService) RecordAction(ctx context.Context, schoolID, tripID string, ne NewBoardingEvent) (BoardingEvent, error) {
	trip, err := svc.trips.GetTripInstance(ctx, schoolID, tripID)
	if err != nil {
		return BoardingEvent{}, err
	}
	if trip.Status != TripInProgress {
		return BoardingEvent{}, &InvalidStateTransitionError{
			Entity: "trip instance",
			From:   string(trip.Status),
			To:     string(trip.Status),
			Reason: "boarding events are only accepted while the trip is in progress",
		}
	}

	ev := BoardingEvent{
		SchoolID:       schoolID,
		TripInstanceID: tripID,
		StudentID:      ne.StudentID,
		Action:         ne.Action,
		Method:         ne.Method,
		RecordedBy:     ne.RecordedBy,
		ParentNotified: ne.NotifyParent && ne.ParentEmail != "",
		Timestamp:      time.Now().UTC(),
	}
	if ne.StopID != "" {
		ev.StopID.SetValid(ne.StopID)
	}

	stored, created, err := svc.repo.CreateBoardingEvent(ctx, ev)
	if err != nil {
		return BoardingEvent{}, errors.Wrap(err, "appending boarding event")
	}
	if !created {
		return stored, nil
	}

	if ne.Action == ActionNoShow {
		if err := svc.checkNoShowRate(ctx, trip); err != nil {
			return stored, err
		}
	}
	if stored.ParentNotified {
		svc.notifyParent(stored, ne.ParentEmail)
	}
	return stored, nil
}

func (svc *BoardingService) BoardedCount(ctx context.Context, schoolID, tripID string) (int, error) {
	return svc.repo.CountDistinctStudents(ctx, schoolID, tripID, ActionBoard)
}

func (svc *BoardingService) DroppedCount(ctx context.Context, schoolID, tripID string) (int, error) {
	return svc.repo.CountDistinctStudents(ctx, schoolID, tripID, ActionAlight)
}

func (svc *BoardingService) NoShowCount(ctx context.Context, schoolID, tripID string) (int, error) {
	return svc.repo.CountDistinctStudents(ctx, schoolID, tripID, ActionNoShow)
}

// EventsForTrip returns the trip's events ordered by timestamp ascending.
func (svc *BoardingService) EventsForTrip(ctx context.Context, schoolID, tripID string) ([]BoardingEvent, error) {
	return svc.repo.EventsForTrip(ctx, schoolID, tripID)
}

// Events is a lazy, restartable view over the ledger: each range re-reads
// the store, so a second pass observes events appended in between.
func (svc *BoardingService) Events(ctx context.Context, schoolID, tripID string) iter.Seq2[BoardingEvent, error] {
	return func(yield func(BoardingEvent, error) bool) {
		evs, err := svc.repo.EventsForTrip(ctx, schoolID, tripID)
		if err != nil {
			yield(BoardingEvent{}, err)
			return
		}
		for _, ev := range evs {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// checkNoShowRate raises one student_missing alert per trip the first time
// the no-show ratio crosses the configured threshold.
func (svc *BoardingService) checkNoShowRate(ctx context.Context, trip TripInstance) error {
	if svc.alerts == nil || trip.ExpectedStudentCount <= 0 || svc.noShowRatio <= 0 {
		return nil
	}
	count, err := svc.repo.CountDistinctStudents(ctx, trip.SchoolID, trip.ID, ActionNoShow)
	if err != nil {
		return errors.Wrap(err, "reading no-show count")
	}
	if float64(count)/float64(trip.ExpectedStudentCount) < svc.noShowRatio {
		return nil
	}

	open, err := svc.alerts.HasOpenAlert(ctx, trip.SchoolID, trip.ID, AlertStudentMissing)
	if err != nil {
		return errors.Wrap(err, "checking open alerts")
	}
	if open {
		return nil
	}

	na := NewAlert{
		Type:     AlertStudentMissing,
		Priority: AlertHigh,
		Title:    fmt.Sprintf("Irregular no-show rate on route %s", trip.RouteID),
		Message:  fmt.Sprintf("%d of %d expected students marked no-show", count, trip.ExpectedStudentCount),
		TripID:   trip.ID,
	}
	if _, err := svc.alerts.Raise(ctx, trip.SchoolID, na); err != nil {
		return errors.Wrap(err, "raising no-show alert")
	}
	return nil
}

// notifyParent hands the notification decision to the email collaborator;
// delivery is its problem.
func (svc *BoardingService) notifyParent(ev BoardingEvent, parentEmail string) {
	if svc.mailSvc == nil {
		return
	}
	var subject, body string
	switch ev.Action {
	case ActionBoard:
		subject = "Your child has boarded the school bus"
		body = fmt.Sprintf("Student %s boarded at %s.", ev.StudentID, ev.Timestamp.Format(time.Kitchen))
	case ActionAlight:
		subject = "Your child has been dropped off"
		body = fmt.Sprintf("Student %s alighted at %s.", ev.StudentID, ev.Timestamp.Format(time.Kitchen))
	case ActionNoShow:
		subject = "Your child missed the school bus"
		body = fmt.Sprintf("Student %s was marked absent for today's trip.", ev.StudentID)
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: parentEmail}},
		Subject: subject,
		BodyStr: body,
	})
}
