package transport

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"
)

type (
	StopRepository interface {
		// CreateStop runs the geofence overlap check and the insert atomically
		// relative to other stop writes (serializable transaction or a single
		// write lock): two operators creating overlapping stops concurrently
		// must not both succeed.
		CreateStop(ctx context.Context, stop Stop) (Stop, error)
		GetStop(ctx context.Context, schoolID, id string) (Stop, error)
		// FilterStops applies AND operation on available StopFilter fields,
		// ordered by name ascending.
		FilterStops(ctx context.Context, schoolID string, filter StopFilter) ([]Stop, error)
		// UpdateStop re-runs the overlap check under the same isolation as
		// CreateStop whenever the stop is active and geofenced.
		UpdateStop(ctx context.Context, stop Stop) (Stop, error)
	}

	// StopService owns stop placement. Geofence validation runs only at
	// create/update time, independent of live trips.
	StopService struct {
		repo StopRepository
	}
)

func NewStopService(repo StopRepository) *StopService {
	return &StopService{repo: repo}
}

// Create validates fields (radius range before any distance computation) and
// inserts the stop; geofenced candidates are checked for overlap by the repo.
func (svc *StopService) Create(ctx context.Context, schoolID string, ns NewStop) (Stop, error) {
	now := time.Now().UTC()
	stop := Stop{
		SchoolID:        schoolID,
		RouteID:         ns.RouteID,
		Name:            ns.Name,
		Type:            ns.Type,
		GeofenceRadiusM: ns.GeofenceRadiusM,
		PickupTime:      ns.PickupTime,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if ns.Latitude != nil && ns.Longitude != nil {
		stop.Latitude = null.Float64From(*ns.Latitude)
		stop.Longitude = null.Float64From(*ns.Longitude)
	}
	if ns.DropTime != "" {
		stop.DropTime.SetValid(ns.DropTime)
	}
	return svc.repo.CreateStop(ctx, stop)
}

func (svc *StopService) Get(ctx context.Context, schoolID, id string) (Stop, error) {
	return svc.repo.GetStop(ctx, schoolID, id)
}

func (svc *StopService) Filter(ctx context.Context, schoolID string, filter StopFilter) ([]Stop, error) {
	return svc.repo.FilterStops(ctx, schoolID, filter)
}

// Update edits a stop; placement edits (coordinates, radius, reactivation)
// re-run the overlap check against all other active geofenced stops.
func (svc *StopService) Update(ctx context.Context, schoolID, id string, us UpdateStop) (Stop, error) {
	stop, err := svc.repo.GetStop(ctx, schoolID, id)
	if err != nil {
		return Stop{}, err
	}

	if us.Name != "" {
		stop.Name = us.Name
	}
	if us.Type != "" {
		stop.Type = us.Type
	}
	if us.Latitude != nil {
		stop.Latitude = null.Float64From(*us.Latitude)
	}
	if us.Longitude != nil {
		stop.Longitude = null.Float64From(*us.Longitude)
	}
	if us.GeofenceRadiusM != nil {
		stop.GeofenceRadiusM = *us.GeofenceRadiusM
	}
	if us.PickupTime != "" {
		stop.PickupTime = us.PickupTime
	}
	if us.DropTime != "" {
		stop.DropTime.SetValid(us.DropTime)
	}
	if us.Active != nil {
		stop.Active = *us.Active
	}
	stop.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStop(ctx, stop)
}

// Deactivate soft-removes a stop from geofence consideration and route use.
// There is no hard delete: historical boarding events keep their stop ids.
func (svc *StopService) Deactivate(ctx context.Context, schoolID, id string) (Stop, error) {
	inactive := false
	return svc.Update(ctx, schoolID, id, UpdateStop{Active: &inactive})
}
