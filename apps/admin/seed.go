package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
	sqlxrepos "github.com/collab46515/accademy-assist-sub006/storage/database/sqlx"
)

// seed loads a sample morning route under the given school: a depot, the
// school gate, two student stops and one scheduled trip for tomorrow.
// Safe to run repeatedly; each run creates a fresh route.
func (cli *commandLine) seed(schoolID string) error {
	ctx := context.Background()
	stopSvc := transport.NewStopService(sqlxrepos.NewStopRepository(cli.db))
	tripRepo := sqlxrepos.NewTripRepository(cli.db)
	alertSvc := transport.NewAlertService(sqlxrepos.NewAlertRepository(cli.db))
	tripSvc := transport.NewTripService(tripRepo, nil, alertSvc)

	routeID := uuid.NewString()
	logger.Printf("seeding route %s under school %s", routeID, schoolID)

	type stopSeed struct {
		name     string
		typ      transport.StopType
		lat, lon float64
		radius   float64
		pickup   string
		drop     string
	}
	// Bangalore-ish coordinates, ~1km apart so geofences never overlap.
	seeds := []stopSeed{
		{"Central Depot", transport.StopDepot, 12.9352, 77.6245, 100, "06:30", ""},
		{"Maple Avenue", transport.StopStudent, 12.9442, 77.6190, 50, "06:45", "16:30"},
		{"Lakeview Gate", transport.StopStudent, 12.9531, 77.6133, 50, "06:55", "16:20"},
		{"Main Campus", transport.StopSchool, 12.9629, 77.6076, 150, "07:15", "16:00"},
	}
	for _, s := range seeds {
		lat, lon := s.lat, s.lon
		ns := transport.NewStop{
			RouteID:         routeID,
			Name:            s.name,
			Type:            s.typ,
			Latitude:        &lat,
			Longitude:       &lon,
			GeofenceRadiusM: s.radius,
			PickupTime:      s.pickup,
			DropTime:        s.drop,
		}
		stop, err := stopSvc.Create(ctx, schoolID, ns)
		if err != nil {
			return err
		}
		logger.Printf("created stop %s (%s)", stop.Name, stop.ID)
	}

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	trip, err := tripSvc.Create(ctx, schoolID, transport.NewTripInstance{
		RouteID:              routeID,
		ScheduledStart:       start,
		ExpectedStudentCount: 2,
		DriverID:             uuid.NewString(),
		VehicleID:            uuid.NewString(),
	})
	if err != nil {
		return err
	}
	logger.Printf("created trip %s scheduled for %s", trip.ID, trip.ScheduledStart.Format(time.RFC3339))
	return nil
}
