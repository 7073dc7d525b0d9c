package tests

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
	testutil "github.com/collab46515/accademy-assist-sub006/tests"
)

func Test_tripApi_create(t *testing.T) {
	base := "/v1/schools/sch-trip-create/trips"

	t.Run("created", func(t *testing.T) {
		rec := do(t, http.MethodPost, base, map[string]interface{}{
			"route_id":               "route-1",
			"scheduled_start":        time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
			"expected_student_count": 30,
		})
		wantStatus(t, rec, http.StatusCreated)

		var trip transport.TripInstance
		decode(t, rec, &trip)
		if trip.ID == "" {
			t.Error("trip ID not assigned")
		}
		if trip.Status != transport.TripScheduled {
			t.Errorf("status = %s, want scheduled", trip.Status)
		}
		if trip.SchoolID != "sch-trip-create" {
			t.Errorf("school = %s, want sch-trip-create", trip.SchoolID)
		}
	})

	t.Run("missing route", func(t *testing.T) {
		rec := do(t, http.MethodPost, base, map[string]interface{}{
			"scheduled_start": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		})
		wantStatus(t, rec, http.StatusBadRequest)

		var fields map[string]string
		decode(t, rec, &fields)
		if _, ok := fields["route_id"]; !ok {
			t.Errorf("error fields = %v, want route_id", fields)
		}
	})

	t.Run("negative roster", func(t *testing.T) {
		rec := do(t, http.MethodPost, base, map[string]interface{}{
			"route_id":               "route-1",
			"scheduled_start":        time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
			"expected_student_count": -3,
		})
		wantStatus(t, rec, http.StatusBadRequest)
	})
}

func Test_tripApi_start(t *testing.T) {
	const school = "sch-trip-start"
	path := func(id, action string) string {
		return "/v1/schools/" + school + "/trips/" + id + "/" + action
	}

	t.Run("missing driver", func(t *testing.T) {
		trip := testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripScheduled, 30)

		rec := do(t, http.MethodPost, path(trip.ID, "start"), map[string]string{"vehicle_id": "veh-1"})
		wantStatus(t, rec, http.StatusBadRequest)

		var body httpErr
		decode(t, rec, &body)
		if !strings.Contains(body.Error, "driver") {
			t.Errorf("error = %q, want mention of driver", body.Error)
		}

		// trip untouched
		rec = do(t, http.MethodGet, "/v1/schools/"+school+"/trips/"+trip.ID, nil)
		wantStatus(t, rec, http.StatusOK)
		var stored transport.TripInstance
		decode(t, rec, &stored)
		if stored.Status != transport.TripScheduled {
			t.Errorf("status = %s, want scheduled", stored.Status)
		}
	})

	t.Run("started", func(t *testing.T) {
		trip := testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripScheduled, 30)

		rec := do(t, http.MethodPost, path(trip.ID, "start"), map[string]string{
			"driver_id":  "drv-1",
			"vehicle_id": "veh-1",
		})
		wantStatus(t, rec, http.StatusOK)

		var started transport.TripInstance
		decode(t, rec, &started)
		if started.Status != transport.TripInProgress {
			t.Errorf("status = %s, want in_progress", started.Status)
		}
	})

	t.Run("terminal trip conflicts", func(t *testing.T) {
		trip := testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripCompleted, 30)

		rec := do(t, http.MethodPost, path(trip.ID, "start"), map[string]string{
			"driver_id":  "drv-1",
			"vehicle_id": "veh-1",
		})
		wantStatus(t, rec, http.StatusConflict)
	})

	t.Run("unknown trip", func(t *testing.T) {
		rec := do(t, http.MethodPost, path("nope", "start"), map[string]string{
			"driver_id":  "drv-1",
			"vehicle_id": "veh-1",
		})
		wantStatus(t, rec, http.StatusNotFound)
	})

	t.Run("wrong school", func(t *testing.T) {
		trip := testutil.CreateTrip(t, tripRepo, "sch-other", "route-1", transport.TripScheduled, 30)

		rec := do(t, http.MethodPost, path(trip.ID, "start"), map[string]string{
			"driver_id":  "drv-1",
			"vehicle_id": "veh-1",
		})
		wantStatus(t, rec, http.StatusNotFound)
	})
}

func Test_tripApi_delayAndCancel(t *testing.T) {
	const school = "sch-trip-delay"

	t.Run("delay needs a reason", func(t *testing.T) {
		trip := testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripInProgress, 30)

		rec := do(t, http.MethodPost, "/v1/schools/"+school+"/trips/"+trip.ID+"/delay", map[string]interface{}{})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("delayed", func(t *testing.T) {
		trip := testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripInProgress, 30)

		rec := do(t, http.MethodPost, "/v1/schools/"+school+"/trips/"+trip.ID+"/delay", map[string]interface{}{
			"reason":   "roadworks on the ring road",
			"escalate": true,
		})
		wantStatus(t, rec, http.StatusOK)

		var delayed transport.TripInstance
		decode(t, rec, &delayed)
		if delayed.Status != transport.TripDelayed {
			t.Errorf("status = %s, want delayed", delayed.Status)
		}

		// escalated delay alert is visible under the same school
		rec = do(t, http.MethodGet, "/v1/schools/"+school+"/alerts?type=delay&priority=high&trip_instance_id="+trip.ID, nil)
		wantStatus(t, rec, http.StatusOK)
		var alerts []transport.Alert
		decode(t, rec, &alerts)
		if len(alerts) != 1 {
			t.Errorf("got %d high delay alerts, want 1", len(alerts))
		}
	})

	t.Run("escalation defaults to lateness", func(t *testing.T) {
		// running 2h past its scheduled start: the server escalates on its own
		late := transport.TripInstance{
			SchoolID:             school,
			RouteID:              "route-late",
			Status:               transport.TripInProgress,
			ScheduledStart:       time.Now().UTC().Add(-2 * time.Hour),
			ExpectedStudentCount: 30,
		}
		late, err := tripRepo.CreateTripInstance(t.Context(), late)
		if err != nil {
			t.Fatalf("CreateTripInstance() failed: %v", err)
		}

		rec := do(t, http.MethodPost, "/v1/schools/"+school+"/trips/"+late.ID+"/delay", map[string]string{
			"reason": "stuck in traffic",
		})
		wantStatus(t, rec, http.StatusOK)

		rec = do(t, http.MethodGet, "/v1/schools/"+school+"/alerts?type=delay&priority=high&trip_instance_id="+late.ID, nil)
		wantStatus(t, rec, http.StatusOK)
		var alerts []transport.Alert
		decode(t, rec, &alerts)
		if len(alerts) != 1 {
			t.Errorf("got %d high delay alerts, want 1", len(alerts))
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		trip := testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripScheduled, 30)

		rec := do(t, http.MethodPost, "/v1/schools/"+school+"/trips/"+trip.ID+"/cancel", map[string]string{
			"reason": "no driver available",
		})
		wantStatus(t, rec, http.StatusOK)

		var cancelled transport.TripInstance
		decode(t, rec, &cancelled)
		if cancelled.Status != transport.TripCancelled {
			t.Errorf("status = %s, want cancelled", cancelled.Status)
		}

		// terminal trips reject further transitions
		rec = do(t, http.MethodPost, "/v1/schools/"+school+"/trips/"+trip.ID+"/complete", nil)
		wantStatus(t, rec, http.StatusConflict)
	})
}

func Test_tripApi_boarding(t *testing.T) {
	const school = "sch-trip-boarding"
	trip := testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripInProgress, 30)
	base := "/v1/schools/" + school + "/trips/" + trip.ID + "/boarding"

	board := map[string]string{
		"student_id":  "stu-1",
		"action_type": "board",
		"method":      "qr",
		"recorded_by": "drv-1",
	}

	rec := do(t, http.MethodPost, base, board)
	wantStatus(t, rec, http.StatusCreated)
	var first transport.BoardingEvent
	decode(t, rec, &first)

	// duplicate scan is accepted and returns the original event
	rec = do(t, http.MethodPost, base, board)
	wantStatus(t, rec, http.StatusCreated)
	var second transport.BoardingEvent
	decode(t, rec, &second)
	if second.ID != first.ID {
		t.Errorf("duplicate returned event %s, want %s", second.ID, first.ID)
	}

	rec = do(t, http.MethodPost, base, map[string]string{
		"student_id":  "stu-2",
		"action_type": "no_show",
		"method":      "manual",
		"recorded_by": "drv-1",
	})
	wantStatus(t, rec, http.StatusCreated)

	// ledger list
	rec = do(t, http.MethodGet, base, nil)
	wantStatus(t, rec, http.StatusOK)
	var evs []transport.BoardingEvent
	decode(t, rec, &evs)
	if len(evs) != 2 {
		t.Errorf("ledger holds %d events, want 2", len(evs))
	}

	// live progress
	rec = do(t, http.MethodGet, "/v1/schools/"+school+"/trips/"+trip.ID+"/progress", nil)
	wantStatus(t, rec, http.StatusOK)
	var progress transport.TripProgress
	decode(t, rec, &progress)
	want := transport.TripProgress{Boarded: 1, Dropped: 0, NoShow: 1, Expected: 30}
	if progress != want {
		t.Errorf("progress = %+v, want %+v", progress, want)
	}

	t.Run("unknown action", func(t *testing.T) {
		rec := do(t, http.MethodPost, base, map[string]string{
			"student_id":  "stu-3",
			"action_type": "teleport",
			"method":      "manual",
			"recorded_by": "drv-1",
		})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("scheduled trip rejects events", func(t *testing.T) {
		scheduled := testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripScheduled, 30)
		rec := do(t, http.MethodPost, "/v1/schools/"+school+"/trips/"+scheduled.ID+"/boarding", board)
		wantStatus(t, rec, http.StatusConflict)
	})
}

func Test_tripApi_query(t *testing.T) {
	const school = "sch-trip-query"
	testutil.CreateTrip(t, tripRepo, school, "route-1", transport.TripScheduled, 30)
	testutil.CreateTrip(t, tripRepo, school, "route-2", transport.TripInProgress, 25)

	t.Run("all", func(t *testing.T) {
		rec := do(t, http.MethodGet, "/v1/schools/"+school+"/trips", nil)
		wantStatus(t, rec, http.StatusOK)
		var trips []transport.TripInstance
		decode(t, rec, &trips)
		if len(trips) != 2 {
			t.Errorf("got %d trips, want 2", len(trips))
		}
	})

	t.Run("by status", func(t *testing.T) {
		rec := do(t, http.MethodGet, "/v1/schools/"+school+"/trips?status=in_progress", nil)
		wantStatus(t, rec, http.StatusOK)
		var trips []transport.TripInstance
		decode(t, rec, &trips)
		if len(trips) != 1 || trips[0].RouteID != "route-2" {
			t.Errorf("got %v, want the route-2 trip", trips)
		}
	})

	t.Run("bad time filter", func(t *testing.T) {
		rec := do(t, http.MethodGet, "/v1/schools/"+school+"/trips?scheduled_from=yesterday", nil)
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("other school sees nothing", func(t *testing.T) {
		rec := do(t, http.MethodGet, "/v1/schools/sch-empty/trips", nil)
		wantStatus(t, rec, http.StatusOK)
		var trips []transport.TripInstance
		decode(t, rec, &trips)
		if len(trips) != 0 {
			t.Errorf("got %d trips, want 0", len(trips))
		}
	})
}
