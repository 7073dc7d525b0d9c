package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

func CreateTrip(
	t *testing.T,
	repo transport.TripRepository,
	schoolID, routeID string,
	status transport.TripStatus,
	expectedStudents int,
) transport.TripInstance {
	t.Helper()
	now := time.Now().UTC()
	trip := transport.TripInstance{
		SchoolID:             schoolID,
		RouteID:              routeID,
		Status:               status,
		ScheduledStart:       now.Add(time.Hour),
		ExpectedStudentCount: expectedStudents,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if status != transport.TripScheduled {
		trip.DriverID.SetValid("drv-1")
		trip.VehicleID.SetValid("veh-1")
		trip.ActualStart.SetValid(now)
	}
	trip, err := repo.CreateTripInstance(context.Background(), trip)
	if err != nil {
		t.Fatalf("CreateTrip() failed: %v", err)
	}
	return trip
}

func CreateStop(
	t *testing.T,
	repo transport.StopRepository,
	schoolID, routeID, name string,
	lat, lon, radius float64,
) transport.Stop {
	t.Helper()
	now := time.Now().UTC()
	stop := transport.Stop{
		SchoolID:        schoolID,
		RouteID:         routeID,
		Name:            name,
		Type:            transport.StopStudent,
		GeofenceRadiusM: radius,
		PickupTime:      "07:00",
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if lat != 0 || lon != 0 {
		stop.Latitude.SetValid(lat)
		stop.Longitude.SetValid(lon)
	}
	stop, err := repo.CreateStop(context.Background(), stop)
	if err != nil {
		t.Fatalf("CreateStop() failed: %v", err)
	}
	return stop
}

func CreateAlert(
	t *testing.T,
	repo transport.AlertRepository,
	schoolID string,
	typ transport.AlertType,
	priority transport.AlertPriority,
	tripID string,
) transport.Alert {
	t.Helper()
	alert := transport.Alert{
		SchoolID:  schoolID,
		Type:      typ,
		Priority:  priority,
		Title:     "test alert",
		Message:   "something happened",
		CreatedAt: time.Now().UTC(),
	}
	if tripID != "" {
		alert.TripInstanceID.SetValid(tripID)
	}
	alert, err := repo.CreateAlert(context.Background(), alert)
	if err != nil {
		t.Fatalf("CreateAlert() failed: %v", err)
	}
	return alert
}
