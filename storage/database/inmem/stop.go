package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/collab46515/accademy-assist-sub006/core/transport"
)

type stopRepository struct {
	db *stopTable
}

var _ transport.StopRepository = (*stopRepository)(nil) // interface compliance check

func NewStopRepository(db *DB) *stopRepository {
	return &stopRepository{db: db.stop}
}

// checkGeofence runs the overlap check against the school's stops.
// Callers must hold the write lock so check+insert is atomic.
func (repo *stopRepository) checkGeofence(stop transport.Stop) error {
	if !stop.Active || !stop.Geofenced() {
		return nil
	}
	others := make([]transport.Stop, 0, len(repo.db.table))
	for _, s := range repo.db.table {
		if s.SchoolID == stop.SchoolID {
			others = append(others, *s)
		}
	}
	candidate := transport.Circle{
		Lat:     stop.Latitude.Float64,
		Lon:     stop.Longitude.Float64,
		RadiusM: stop.GeofenceRadiusM,
	}
	return transport.CheckGeofence(candidate, stop.ID, others)
}

func (repo *stopRepository) CreateStop(_ context.Context, stop transport.Stop) (transport.Stop, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.checkGeofence(stop); err != nil {
		return transport.Stop{}, err
	}
	stop.ID = uuid.New().String()
	repo.db.table[stop.ID] = &stop
	return stop, nil
}

func (repo *stopRepository) GetStop(_ context.Context, schoolID, id string) (transport.Stop, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if stop, ok := repo.db.table[id]; ok && stop.SchoolID == schoolID {
		return *stop, nil
	}
	return transport.Stop{}, transport.ErrStopNotFound
}

func (repo *stopRepository) FilterStops(_ context.Context, schoolID string, filter transport.StopFilter) ([]transport.Stop, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	stops := make([]transport.Stop, 0)
	for _, stop := range repo.db.table {
		if stop.SchoolID != schoolID {
			continue
		}
		if filter.RouteID != "" && stop.RouteID != filter.RouteID {
			continue
		}
		if filter.Type != "" && stop.Type != filter.Type {
			continue
		}
		if filter.Active != nil && stop.Active != *filter.Active {
			continue
		}
		stops = append(stops, *stop)
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].Name < stops[j].Name })
	return stops, nil
}

func (repo *stopRepository) UpdateStop(_ context.Context, stop transport.Stop) (transport.Stop, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[stop.ID]
	if !ok || stored.SchoolID != stop.SchoolID {
		return transport.Stop{}, transport.ErrStopNotFound
	}
	if err := repo.checkGeofence(stop); err != nil {
		return transport.Stop{}, err
	}
	repo.db.table[stop.ID] = &stop
	return stop, nil
}
