package transport_test

import (
	"context"
	"testing"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
	emailsvc "github.com/collab46515/accademy-assist-sub006/services/email"
	testutil "github.com/collab46515/accademy-assist-sub006/tests"
)

func Test_BoardingService_RecordAction_idempotentBoard(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	trip := testutil.CreateTrip(t, f.tripRepo, school, "route-1", transport.TripInProgress, 30)

	ne := transport.NewBoardingEvent{
		StudentID:  "stu-1",
		Action:     transport.ActionBoard,
		Method:     transport.MethodQR,
		RecordedBy: "drv-1",
	}
	first, err := f.boardingSvc.RecordAction(ctx, school, trip.ID, ne)
	if err != nil {
		t.Fatalf("RecordAction() failed: %v", err)
	}

	// double-scan: same student boards again
	second, err := f.boardingSvc.RecordAction(ctx, school, trip.ID, ne)
	if err != nil {
		t.Fatalf("RecordAction() duplicate failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate board returned event %s, want original %s", second.ID, first.ID)
	}

	count, err := f.boardingSvc.BoardedCount(ctx, school, trip.ID)
	if err != nil {
		t.Fatalf("BoardedCount() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("BoardedCount() = %d, want 1", count)
	}

	evs, err := f.boardingSvc.EventsForTrip(ctx, school, trip.ID)
	if err != nil {
		t.Fatalf("EventsForTrip() failed: %v", err)
	}
	if len(evs) != 1 {
		t.Errorf("ledger holds %d events, want 1", len(evs))
	}
}

func Test_BoardingService_RecordAction_tripNotInProgress(t *testing.T) {
	ctx := context.Background()

	for _, status := range []transport.TripStatus{
		transport.TripScheduled, transport.TripDelayed, transport.TripCompleted, transport.TripCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			trip := testutil.CreateTrip(t, f.tripRepo, school, "route-1", status, 30)

			_, err := f.boardingSvc.RecordAction(ctx, school, trip.ID, transport.NewBoardingEvent{
				StudentID:  "stu-1",
				Action:     transport.ActionBoard,
				Method:     transport.MethodManual,
				RecordedBy: "drv-1",
			})
			stateErr, ok := err.(*transport.InvalidStateTransitionError)
			if !ok {
				t.Fatalf("RecordAction() = %v, want *InvalidStateTransitionError", err)
			}
			if stateErr.From != string(status) {
				t.Errorf("error From = %s, want %s", stateErr.From, status)
			}
		})
	}
}

func Test_BoardingService_Events(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	trip := testutil.CreateTrip(t, f.tripRepo, school, "route-1", transport.TripInProgress, 30)

	record := func(studentID string, action transport.BoardingAction) {
		t.Helper()
		_, err := f.boardingSvc.RecordAction(ctx, school, trip.ID, transport.NewBoardingEvent{
			StudentID:  studentID,
			Action:     action,
			Method:     transport.MethodManual,
			RecordedBy: "drv-1",
		})
		if err != nil {
			t.Fatalf("RecordAction(%s, %s) failed: %v", studentID, action, err)
		}
	}
	record("stu-1", transport.ActionBoard)
	record("stu-2", transport.ActionBoard)
	record("stu-1", transport.ActionAlight)

	collect := func() []transport.BoardingEvent {
		t.Helper()
		var evs []transport.BoardingEvent
		for ev, err := range f.boardingSvc.Events(ctx, school, trip.ID) {
			if err != nil {
				t.Fatalf("Events() yielded error: %v", err)
			}
			evs = append(evs, ev)
		}
		return evs
	}

	evs := collect()
	if len(evs) != 3 {
		t.Fatalf("Events() yielded %d events, want 3", len(evs))
	}
	for i := 1; i < len(evs); i++ {
		if evs[i].Timestamp.Before(evs[i-1].Timestamp) {
			t.Errorf("events out of order at %d: %v before %v", i, evs[i].Timestamp, evs[i-1].Timestamp)
		}
	}

	// a second pass observes events appended in between
	record("stu-3", transport.ActionNoShow)
	if evs = collect(); len(evs) != 4 {
		t.Errorf("Events() second pass yielded %d events, want 4", len(evs))
	}

	// early break must not panic or leak
	for range f.boardingSvc.Events(ctx, school, trip.ID) {
		break
	}
}

func Test_BoardingService_noShowAlert(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	trip := testutil.CreateTrip(t, f.tripRepo, school, "route-1", transport.TripInProgress, 10)

	noShow := func(studentID string) {
		t.Helper()
		_, err := f.boardingSvc.RecordAction(ctx, school, trip.ID, transport.NewBoardingEvent{
			StudentID:  studentID,
			Action:     transport.ActionNoShow,
			Method:     transport.MethodManual,
			RecordedBy: "drv-1",
		})
		if err != nil {
			t.Fatalf("RecordAction(%s) failed: %v", studentID, err)
		}
	}
	alertCount := func() int {
		t.Helper()
		alerts, err := f.alertSvc.Filter(ctx, school, transport.AlertFilter{
			Type:   transport.AlertStudentMissing,
			TripID: trip.ID,
		})
		if err != nil {
			t.Fatalf("Filter() failed: %v", err)
		}
		return len(alerts)
	}

	// 1 of 10 expected: below the 0.2 threshold
	noShow("stu-1")
	if n := alertCount(); n != 0 {
		t.Fatalf("got %d alerts below threshold, want 0", n)
	}

	// 2 of 10: threshold crossed
	noShow("stu-2")
	if n := alertCount(); n != 1 {
		t.Fatalf("got %d alerts at threshold, want 1", n)
	}

	// further no-shows do not duplicate the open alert
	noShow("stu-3")
	noShow("stu-4")
	if n := alertCount(); n != 1 {
		t.Errorf("got %d alerts past threshold, want 1 (deduplicated)", n)
	}

	alerts, err := f.alertSvc.Filter(ctx, school, transport.AlertFilter{Type: transport.AlertStudentMissing, TripID: trip.ID})
	if err != nil {
		t.Fatalf("Filter() failed: %v", err)
	}
	if alerts[0].Priority != transport.AlertHigh {
		t.Errorf("alert priority = %s, want high", alerts[0].Priority)
	}
}

func Test_BoardingService_parentNotification(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	trip := testutil.CreateTrip(t, f.tripRepo, school, "route-1", transport.TripInProgress, 30)

	before := len(emailsvc.SentMessages)
	ev, err := f.boardingSvc.RecordAction(ctx, school, trip.ID, transport.NewBoardingEvent{
		StudentID:    "stu-1",
		Action:       transport.ActionBoard,
		Method:       transport.MethodQR,
		RecordedBy:   "drv-1",
		NotifyParent: true,
		ParentEmail:  "parent@test.cd",
	})
	if err != nil {
		t.Fatalf("RecordAction() failed: %v", err)
	}
	if !ev.ParentNotified {
		t.Error("ParentNotified = false, want true")
	}

	sent := emailsvc.SentMessages[before:]
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].To[0].Address != "parent@test.cd" {
		t.Errorf("message sent to %s, want parent@test.cd", sent[0].To[0].Address)
	}

	// notify requested but no email on file: no message, flag stays false
	ev, err = f.boardingSvc.RecordAction(ctx, school, trip.ID, transport.NewBoardingEvent{
		StudentID:    "stu-2",
		Action:       transport.ActionBoard,
		Method:       transport.MethodQR,
		RecordedBy:   "drv-1",
		NotifyParent: true,
	})
	if err != nil {
		t.Fatalf("RecordAction() failed: %v", err)
	}
	if ev.ParentNotified {
		t.Error("ParentNotified = true without a parent email")
	}
	if n := len(emailsvc.SentMessages[before:]); n != 1 {
		t.Errorf("sent %d messages, want 1", n)
	}
}
